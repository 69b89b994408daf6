package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/kidquest-backend/internal/model"
)

// PlayResultRepository handles play result data access.
type PlayResultRepository struct {
	pool *pgxpool.Pool
}

// NewPlayResultRepository creates a new PlayResultRepository.
func NewPlayResultRepository(pool *pgxpool.Pool) *PlayResultRepository {
	return &PlayResultRepository{pool: pool}
}

// InsertBatch writes many results in one statement. Results already stored
// for the same session are skipped, so requeued payloads are harmless.
func (r *PlayResultRepository) InsertBatch(ctx context.Context, batch []model.PlayResult) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	ids := make([]uuid.UUID, n)
	sessionIDs := make([]uuid.UUID, n)
	playerIDs := make([]uuid.UUID, n)
	gameIDs := make([]string, n)
	scores := make([]int32, n)
	maxScores := make([]int32, n)
	corrects := make([]int32, n)
	attempts := make([]int32, n)
	moves := make([]int32, n)
	coins := make([]int32, n)
	xps := make([]int32, n)
	startedAts := make([]time.Time, n)
	finishedAts := make([]time.Time, n)

	for i, p := range batch {
		ids[i] = p.ID
		sessionIDs[i] = p.SessionID
		playerIDs[i] = p.PlayerID
		gameIDs[i] = p.GameID
		scores[i] = int32(p.Score)
		maxScores[i] = int32(p.MaxScore)
		corrects[i] = int32(p.Correct)
		attempts[i] = int32(p.Attempts)
		moves[i] = int32(p.Moves)
		coins[i] = int32(p.CoinsEarned)
		xps[i] = int32(p.XPEarned)
		startedAts[i] = p.StartedAt
		finishedAts[i] = p.FinishedAt
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO play_results (
			id, session_id, player_id, game_id, score, max_score, correct,
			attempts, moves, coins_earned, xp_earned, started_at, finished_at
		)
		SELECT * FROM UNNEST(
			$1::uuid[], $2::uuid[], $3::uuid[], $4::text[],
			$5::int[], $6::int[], $7::int[], $8::int[], $9::int[],
			$10::int[], $11::int[], $12::timestamptz[], $13::timestamptz[]
		)
		ON CONFLICT (session_id) DO NOTHING`,
		ids, sessionIDs, playerIDs, gameIDs, scores, maxScores, corrects,
		attempts, moves, coins, xps, startedAts, finishedAts,
	)
	if err != nil {
		return fmt.Errorf("bulk insert play results: %w", err)
	}
	return nil
}

// Insert writes a single result.
func (r *PlayResultRepository) Insert(ctx context.Context, p *model.PlayResult) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO play_results (
			id, session_id, player_id, game_id, score, max_score, correct,
			attempts, moves, coins_earned, xp_earned, started_at, finished_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (session_id) DO NOTHING`,
		p.ID, p.SessionID, p.PlayerID, p.GameID, p.Score, p.MaxScore, p.Correct,
		p.Attempts, p.Moves, p.CoinsEarned, p.XPEarned, p.StartedAt, p.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert play result: %w", err)
	}
	return nil
}

// ListByPlayer returns a page of a player's results, newest first.
func (r *PlayResultRepository) ListByPlayer(ctx context.Context, playerID uuid.UUID, page, perPage int) ([]model.PlayResult, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM play_results WHERE player_id = $1`, playerID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, player_id, game_id, score, max_score, correct,
		        attempts, moves, coins_earned, xp_earned, started_at, finished_at
		 FROM play_results
		 WHERE player_id = $1
		 ORDER BY finished_at DESC
		 LIMIT $2 OFFSET $3`, playerID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results := []model.PlayResult{}
	for rows.Next() {
		var p model.PlayResult
		if err := rows.Scan(
			&p.ID, &p.SessionID, &p.PlayerID, &p.GameID, &p.Score, &p.MaxScore, &p.Correct,
			&p.Attempts, &p.Moves, &p.CoinsEarned, &p.XPEarned, &p.StartedAt, &p.FinishedAt,
		); err != nil {
			return nil, 0, err
		}
		results = append(results, p)
	}
	return results, total, rows.Err()
}

// BestScores returns each player's best result for a game, highest first.
// Ties keep the earliest finish.
func (r *PlayResultRepository) BestScores(ctx context.Context, gameID string, limit int) ([]model.BestScore, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT player_id, score, finished_at FROM (
			SELECT DISTINCT ON (player_id) player_id, score, finished_at
			FROM play_results
			WHERE game_id = $1
			ORDER BY player_id, score DESC, finished_at ASC
		 ) best
		 ORDER BY score DESC, finished_at ASC
		 LIMIT $2`, gameID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := []model.BestScore{}
	for rows.Next() {
		var b model.BestScore
		if err := rows.Scan(&b.PlayerID, &b.Score, &b.FinishedAt); err != nil {
			return nil, err
		}
		scores = append(scores, b)
	}
	return scores, rows.Err()
}
