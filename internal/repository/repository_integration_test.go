package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/kidquest-backend/internal/database"
	"github.com/stemsi/kidquest-backend/internal/model"
	"github.com/stemsi/kidquest-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

const migrationsDir = "../../migrations"

// RepositorySuite runs the repositories against real Postgres and Redis
// containers with the production migrations applied.
type RepositorySuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pool        *pgxpool.Pool
	rdb         *redis.Client

	results *repository.PlayResultRepository
	players *repository.PlayerRepository
	wallets *repository.WalletRepository
}

func TestRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed repository tests in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("kidquest_test"),
		postgres.WithUsername("kidquest"),
		postgres.WithPassword("kidquest"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	s.Require().NoError(err, "start postgres container")

	dsn, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	m, err := database.NewMigrator(dsn, migrationsDir, zerolog.Nop())
	s.Require().NoError(err)
	s.Require().NoError(database.MigrateUp(m))
	srcErr, dbErr := m.Close()
	s.Require().NoError(srcErr)
	s.Require().NoError(dbErr)

	s.pool, err = pgxpool.New(s.ctx, dsn)
	s.Require().NoError(err)

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(time.Minute),
		),
	)
	s.Require().NoError(err, "start redis container")

	redisURL, err := s.rdContainer.ConnectionString(s.ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(redisURL)
	s.Require().NoError(err)
	s.rdb = redis.NewClient(opts)
	s.Require().NoError(s.rdb.Ping(s.ctx).Err())

	s.results = repository.NewPlayResultRepository(s.pool)
	s.players = repository.NewPlayerRepository(s.rdb)
	s.wallets = repository.NewWalletRepository(s.rdb)
}

func (s *RepositorySuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if s.pgContainer != nil {
		s.NoError(testcontainers.TerminateContainer(s.pgContainer))
	}
	if s.rdContainer != nil {
		s.NoError(testcontainers.TerminateContainer(s.rdContainer))
	}
}

func (s *RepositorySuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE play_results`)
	s.Require().NoError(err)
	s.Require().NoError(s.rdb.FlushDB(s.ctx).Err())
}

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func result(player uuid.UUID, game string, score int, finishedAfter time.Duration) model.PlayResult {
	return model.PlayResult{
		ID:          uuid.New(),
		SessionID:   uuid.New(),
		PlayerID:    player,
		GameID:      game,
		Score:       score,
		MaxScore:    10,
		Correct:     score,
		Attempts:    10,
		CoinsEarned: score,
		XPEarned:    score * 2,
		StartedAt:   baseTime,
		FinishedAt:  baseTime.Add(finishedAfter),
	}
}

func (s *RepositorySuite) count() int {
	var n int
	s.Require().NoError(s.pool.QueryRow(s.ctx, `SELECT COUNT(*) FROM play_results`).Scan(&n))
	return n
}

func (s *RepositorySuite) TestInsertBatch_RequeuedSessionsAreSkipped() {
	player := uuid.New()
	first := result(player, "quiz-animals", 7, time.Minute)
	second := result(player, "quiz-animals", 9, 2*time.Minute)

	s.Require().NoError(s.results.InsertBatch(s.ctx, []model.PlayResult{first, second}))
	s.Equal(2, s.count())

	// A requeued payload carries a fresh row ID but the same session.
	replay := first
	replay.ID = uuid.New()
	replay.Score = 1
	third := result(player, "quiz-animals", 4, 3*time.Minute)
	s.Require().NoError(s.results.InsertBatch(s.ctx, []model.PlayResult{replay, second, third}))
	s.Equal(3, s.count())

	var score int
	s.Require().NoError(s.pool.QueryRow(s.ctx,
		`SELECT score FROM play_results WHERE session_id = $1`, first.SessionID,
	).Scan(&score))
	s.Equal(7, score, "the first stored result wins")

	s.NoError(s.results.InsertBatch(s.ctx, nil))
	s.Equal(3, s.count())
}

func (s *RepositorySuite) TestInsert_DuplicateSessionIsIgnored() {
	r := result(uuid.New(), "match-shapes", 5, time.Minute)
	s.Require().NoError(s.results.Insert(s.ctx, &r))

	dup := r
	dup.ID = uuid.New()
	s.Require().NoError(s.results.Insert(s.ctx, &dup))
	s.Equal(1, s.count())
}

func (s *RepositorySuite) TestListByPlayer_PagesNewestFirst() {
	player := uuid.New()
	var batch []model.PlayResult
	for i := 1; i <= 5; i++ {
		batch = append(batch, result(player, "quiz-animals", i, time.Duration(i)*time.Minute))
	}
	batch = append(batch, result(uuid.New(), "quiz-animals", 10, time.Hour))
	s.Require().NoError(s.results.InsertBatch(s.ctx, batch))

	page1, total, err := s.results.ListByPlayer(s.ctx, player, 1, 2)
	s.Require().NoError(err)
	s.EqualValues(5, total)
	s.Require().Len(page1, 2)
	s.Equal(5, page1[0].Score)
	s.Equal(4, page1[1].Score)
	s.True(page1[0].FinishedAt.Equal(baseTime.Add(5 * time.Minute)))

	page3, _, err := s.results.ListByPlayer(s.ctx, player, 3, 2)
	s.Require().NoError(err)
	s.Require().Len(page3, 1)
	s.Equal(1, page3[0].Score)

	none, total, err := s.results.ListByPlayer(s.ctx, uuid.New(), 1, 10)
	s.Require().NoError(err)
	s.Zero(total)
	s.NotNil(none)
	s.Empty(none)
}

func (s *RepositorySuite) TestBestScores_OneRowPerPlayerTiesByEarliestFinish() {
	early, late, solo := uuid.New(), uuid.New(), uuid.New()
	s.Require().NoError(s.results.InsertBatch(s.ctx, []model.PlayResult{
		// early reaches 9 twice; only the first finish counts.
		result(early, "quiz-animals", 9, 10*time.Minute),
		result(early, "quiz-animals", 9, 20*time.Minute),
		result(early, "quiz-animals", 3, time.Minute),
		// late ties on score but finished after early.
		result(late, "quiz-animals", 9, 15*time.Minute),
		result(solo, "quiz-animals", 6, 2*time.Minute),
		// Other games never leak in.
		result(solo, "match-shapes", 10, time.Minute),
	}))

	best, err := s.results.BestScores(s.ctx, "quiz-animals", 10)
	s.Require().NoError(err)
	s.Require().Len(best, 3)

	s.Equal(early, best[0].PlayerID)
	s.Equal(9, best[0].Score)
	s.True(best[0].FinishedAt.Equal(baseTime.Add(10*time.Minute)), "got %s", best[0].FinishedAt)
	s.Equal(late, best[1].PlayerID)
	s.Equal(solo, best[2].PlayerID)
	s.Equal(6, best[2].Score)

	top, err := s.results.BestScores(s.ctx, "quiz-animals", 1)
	s.Require().NoError(err)
	s.Require().Len(top, 1)
	s.Equal(early, top[0].PlayerID)

	empty, err := s.results.BestScores(s.ctx, "no-such-game", 5)
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *RepositorySuite) TestPlayers_RegisterExistsNicknames() {
	alice, bob, ghost := uuid.New(), uuid.New(), uuid.New()
	s.Require().NoError(s.players.Register(s.ctx, alice, "Alice", time.Hour))
	s.Require().NoError(s.players.Register(s.ctx, bob, "Bob", time.Hour))

	ok, err := s.players.Exists(s.ctx, alice)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.players.Exists(s.ctx, ghost)
	s.Require().NoError(err)
	s.False(ok)

	names, err := s.players.Nicknames(s.ctx, []uuid.UUID{alice, ghost, bob})
	s.Require().NoError(err)
	s.Equal(map[uuid.UUID]string{alice: "Alice", bob: "Bob"}, names)

	names, err = s.players.Nicknames(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(names)
}

func (s *RepositorySuite) TestPlayers_RegistrationExpires() {
	id := uuid.New()
	s.Require().NoError(s.players.Register(s.ctx, id, "Brief", 50*time.Millisecond))

	assert.Eventually(s.T(), func() bool {
		ok, err := s.players.Exists(s.ctx, id)
		return err == nil && !ok
	}, 5*time.Second, 50*time.Millisecond)
}

func (s *RepositorySuite) TestWallet_CreditAccumulates() {
	player := uuid.New()

	w, err := s.wallets.Get(s.ctx, player)
	s.Require().NoError(err)
	s.Equal(model.Wallet{}, w, "missing wallet is empty")

	w, err = s.wallets.Credit(s.ctx, player, 10, 25)
	s.Require().NoError(err)
	s.Equal(model.Wallet{Coins: 10, XP: 25}, w)

	w, err = s.wallets.Credit(s.ctx, player, 5, 0)
	s.Require().NoError(err)
	s.Equal(model.Wallet{Coins: 15, XP: 25}, w)

	got, err := s.wallets.Get(s.ctx, player)
	s.Require().NoError(err)
	s.Equal(w, got)

	other, err := s.wallets.Get(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Equal(model.Wallet{}, other)
}

func (s *RepositorySuite) TestWallet_ConcurrentCreditsAreAtomic() {
	player := uuid.New()
	const n = 20

	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := s.wallets.Credit(s.ctx, player, 1, 2)
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(s.T(), <-errs)
	}

	w, err := s.wallets.Get(s.ctx, player)
	s.Require().NoError(err)
	s.Equal(model.Wallet{Coins: n, XP: 2 * n}, w)
}
