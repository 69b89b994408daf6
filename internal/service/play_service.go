package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stemsi/kidquest-backend/internal/catalog"
	"github.com/stemsi/kidquest-backend/internal/game"
	"github.com/stemsi/kidquest-backend/internal/metrics"
	"github.com/stemsi/kidquest-backend/internal/model"
	"github.com/stemsi/kidquest-backend/internal/view"
)

const (
	// DefaultJournalMinLength applies to journal prompts drawn from a pool.
	DefaultJournalMinLength = 3

	subscriberBuffer         = 8
	defaultSideEffectTimeout = 5 * time.Second
)

// ResultPublisher hands completed results to the persistence pipeline.
type ResultPublisher interface {
	Publish(ctx context.Context, result *model.PlayResult) error
}

// WalletStore reads and credits player wallets.
type WalletStore interface {
	WalletReader
	Credit(ctx context.Context, playerID uuid.UUID, coins, xp int) (model.Wallet, error)
}

// PlayOptions tunes a PlayService.
type PlayOptions struct {
	DefaultCoinsPerLevel int
	Clock                clockwork.Clock
	Metrics              *metrics.Metrics
	// SideEffectTimeout bounds wallet and queue writes on completion.
	SideEffectTimeout time.Duration
}

// ActionResult is returned by every input operation. Rejected input is not
// an error: Accepted is false and Session shows the unchanged state.
type ActionResult struct {
	Accepted bool         `json:"accepted"`
	Session  view.Session `json:"session"`
}

// PlayService owns every live play session in memory.
type PlayService struct {
	games    GameSource
	wallets  WalletStore
	results  ResultPublisher
	metrics  *metrics.Metrics
	clock    clockwork.Clock
	defaults model.RewardConfig
	timeout  time.Duration
	log      zerolog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*playSession
}

// NewPlayService creates a new PlayService.
func NewPlayService(games GameSource, wallets WalletStore, results ResultPublisher, opts PlayOptions, log zerolog.Logger) *PlayService {
	defaults := model.DefaultRewardConfig()
	if opts.DefaultCoinsPerLevel > 0 {
		defaults.CoinsPerLevel = opts.DefaultCoinsPerLevel
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.SideEffectTimeout <= 0 {
		opts.SideEffectTimeout = defaultSideEffectTimeout
	}

	return &PlayService{
		games:    games,
		wallets:  wallets,
		results:  results,
		metrics:  opts.Metrics,
		clock:    opts.Clock,
		defaults: defaults,
		timeout:  opts.SideEffectTimeout,
		log:      log.With().Str("component", "play_service").Logger(),
		sessions: make(map[uuid.UUID]*playSession),
	}
}

// ─── Lifecycle ───────────────────────────────────────────────────────

// Start creates a session for gameID. Reward values come from in, then the
// player's wallet, then the configured defaults.
func (s *PlayService) Start(ctx context.Context, playerID uuid.UUID, gameID string, in model.RewardConfigInput) (view.Session, error) {
	g, ok := s.games.Get(gameID)
	if !ok {
		return view.Session{}, ErrGameNotFound
	}

	now := s.clock.Now()
	ps := &playSession{
		id:        uuid.New(),
		playerID:  playerID,
		game:      g,
		rewards:   in.Resolve(s.baseRewards(ctx, playerID)),
		startedAt: now,
		lastSeen:  now,
		subs:      make(map[chan view.Session]struct{}),
	}

	settings := game.Settings{
		Dwell:         millis(g.DwellMillis),
		Countdown:     millis(g.CountdownMillis),
		MismatchDelay: millis(g.MismatchMillis),
		Reward:        g.RewardPerQuestion,
		Clock:         s.clock,
		OnChange: func(snap game.Snapshot) {
			s.countTimeout(snap)
			ps.broadcast(ps.render(snap))
		},
		OnFinish: func(snap game.Snapshot) {
			s.finish(ps, snap)
		},
	}

	if g.Kind == model.GameKindMatching {
		board, err := game.NewBoard(g.Cards, settings, nil)
		if err != nil {
			return view.Session{}, fmt.Errorf("deal board: %w", err)
		}
		ps.board = board
	} else {
		ps.questions = g.Questions
		if g.Kind == model.GameKindFreeText {
			ps.questions = catalog.JournalQuestions(g, DefaultJournalMinLength)
		}
		engine, err := game.NewEngine(g.Kind, ps.questions, settings)
		if err != nil {
			return view.Session{}, fmt.Errorf("build engine: %w", err)
		}
		ps.engine = engine
	}

	s.mu.Lock()
	s.sessions[ps.id] = ps
	live := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SessionsStarted.WithLabelValues(string(g.Kind)).Inc()
	s.metrics.LiveSessions.Set(float64(live))
	s.log.Info().
		Str("session_id", ps.id.String()).
		Str("player_id", playerID.String()).
		Str("game_id", g.ID).
		Int("coins_per_level", ps.rewards.CoinsPerLevel).
		Msg("Play session started")

	return ps.render(ps.runner().Snapshot()), nil
}

// State returns the current view of a session.
func (s *PlayService) State(ctx context.Context, sessionID, playerID uuid.UUID) (view.Session, error) {
	ps, err := s.session(sessionID, playerID)
	if err != nil {
		return view.Session{}, err
	}
	return ps.render(ps.runner().Snapshot()), nil
}

// End tears a session down and cancels its timers. Completed results were
// already published when the session finished.
func (s *PlayService) End(ctx context.Context, sessionID, playerID uuid.UUID) error {
	ps, err := s.session(sessionID, playerID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, ps.id)
	live := len(s.sessions)
	s.mu.Unlock()

	ps.shutdown()
	s.metrics.LiveSessions.Set(float64(live))
	s.log.Info().Str("session_id", ps.id.String()).Msg("Play session ended")
	return nil
}

// ReapIdle tears down sessions untouched for longer than maxIdle and
// returns how many were removed.
func (s *PlayService) ReapIdle(maxIdle time.Duration) int {
	now := s.clock.Now()

	var stale []*playSession
	s.mu.Lock()
	for id, ps := range s.sessions {
		if now.Sub(ps.idleSince()) > maxIdle {
			delete(s.sessions, id)
			stale = append(stale, ps)
		}
	}
	live := len(s.sessions)
	s.mu.Unlock()

	for _, ps := range stale {
		ps.shutdown()
		s.log.Info().
			Str("session_id", ps.id.String()).
			Str("game_id", ps.game.ID).
			Msg("Idle play session reaped")
	}
	s.metrics.SessionsReaped.Add(float64(len(stale)))
	s.metrics.LiveSessions.Set(float64(live))
	return len(stale)
}

// Shutdown closes every live session.
func (s *PlayService) Shutdown() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[uuid.UUID]*playSession)
	s.mu.Unlock()

	for _, ps := range all {
		ps.shutdown()
	}
	s.metrics.LiveSessions.Set(0)
}

// LiveCount returns the number of sessions held in memory.
func (s *PlayService) LiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Subscribe streams view updates for a session. The channel starts with the
// current state and is closed when the session ends or cancel is called.
func (s *PlayService) Subscribe(ctx context.Context, sessionID, playerID uuid.UUID) (<-chan view.Session, func(), error) {
	ps, err := s.session(sessionID, playerID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := ps.subscribe(ps.render(ps.runner().Snapshot()))
	return ch, cancel, nil
}

// ─── Input ───────────────────────────────────────────────────────────

// Answer submits an option for a single-choice or timed question.
func (s *PlayService) Answer(ctx context.Context, sessionID, playerID uuid.UUID, optionID string) (ActionResult, error) {
	ps, err := s.sessionOfKind(sessionID, playerID, model.GameKindSingleChoice, model.GameKindTimedChoice)
	if err != nil {
		return ActionResult{}, err
	}
	out, ok := ps.engine.Submit(optionID)
	if ok {
		s.countOutcome(out)
	}
	return s.result(ps, ok), nil
}

// Journal submits a free-text entry.
func (s *PlayService) Journal(ctx context.Context, sessionID, playerID uuid.UUID, text string) (ActionResult, error) {
	ps, err := s.sessionOfKind(sessionID, playerID, model.GameKindFreeText)
	if err != nil {
		return ActionResult{}, err
	}
	out, ok := ps.engine.SubmitText(text)
	if ok {
		s.countOutcome(out)
	} else {
		s.log.Debug().Str("session_id", ps.id.String()).Msg("Journal entry rejected")
	}
	return s.result(ps, ok), nil
}

// Toggle adds or removes a multi-select pick.
func (s *PlayService) Toggle(ctx context.Context, sessionID, playerID uuid.UUID, optionID string) (ActionResult, error) {
	ps, err := s.sessionOfKind(sessionID, playerID, model.GameKindMultiChoice)
	if err != nil {
		return ActionResult{}, err
	}
	return s.result(ps, ps.engine.Toggle(optionID)), nil
}

// SubmitSelection submits the current multi-select picks.
func (s *PlayService) SubmitSelection(ctx context.Context, sessionID, playerID uuid.UUID) (ActionResult, error) {
	ps, err := s.sessionOfKind(sessionID, playerID, model.GameKindMultiChoice)
	if err != nil {
		return ActionResult{}, err
	}
	out, ok := ps.engine.SubmitSelection()
	if ok {
		s.countOutcome(out)
	}
	return s.result(ps, ok), nil
}

// Flip turns a card on a matching board.
func (s *PlayService) Flip(ctx context.Context, sessionID, playerID uuid.UUID, index int) (ActionResult, error) {
	ps, err := s.sessionOfKind(sessionID, playerID, model.GameKindMatching)
	if err != nil {
		return ActionResult{}, err
	}
	res, ok := ps.board.Flip(index)
	if ok && res.Paired {
		s.countOutcome(game.Outcome{Correct: res.Match})
	}
	return s.result(ps, ok), nil
}

// Next skips the feedback dwell of an answered question.
func (s *PlayService) Next(ctx context.Context, sessionID, playerID uuid.UUID) (ActionResult, error) {
	ps, err := s.session(sessionID, playerID)
	if err != nil {
		return ActionResult{}, err
	}
	if ps.engine == nil {
		return ActionResult{}, ErrWrongGameKind
	}
	return s.result(ps, ps.engine.Next()), nil
}

// ─── Internals ───────────────────────────────────────────────────────

func (s *PlayService) session(sessionID, playerID uuid.UUID) (*playSession, error) {
	s.mu.RLock()
	ps, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if ps.playerID != playerID {
		return nil, ErrNotSessionOwner
	}
	ps.touch(s.clock.Now())
	return ps, nil
}

func (s *PlayService) sessionOfKind(sessionID, playerID uuid.UUID, kinds ...model.GameKind) (*playSession, error) {
	ps, err := s.session(sessionID, playerID)
	if err != nil {
		return nil, err
	}
	for _, k := range kinds {
		if ps.game.Kind == k {
			return ps, nil
		}
	}
	return nil, ErrWrongGameKind
}

func (s *PlayService) result(ps *playSession, accepted bool) ActionResult {
	return ActionResult{Accepted: accepted, Session: ps.render(ps.runner().Snapshot())}
}

func (s *PlayService) baseRewards(ctx context.Context, playerID uuid.UUID) model.RewardConfig {
	base := s.defaults
	w, err := s.wallets.Get(ctx, playerID)
	if err != nil {
		s.log.Warn().Err(err).Str("player_id", playerID.String()).Msg("Wallet unavailable, using default rewards")
		return base
	}
	base.TotalCoins = w.Coins
	base.TotalXP = w.XP
	return base
}

// finish credits the wallet and queues the result. It runs exactly once per
// session, on whichever goroutine completed it.
func (s *PlayService) finish(ps *playSession, snap game.Snapshot) {
	coins, xp := ps.rewards.Earned(snap.Score)
	result := &model.PlayResult{
		ID:          uuid.New(),
		SessionID:   ps.id,
		PlayerID:    ps.playerID,
		GameID:      ps.game.ID,
		Score:       snap.Score,
		MaxScore:    snap.TotalQuestions * max(ps.game.RewardPerQuestion, game.DefaultReward),
		Correct:     snap.Correct,
		Attempts:    snap.Attempts,
		CoinsEarned: coins,
		XPEarned:    xp,
		StartedAt:   ps.startedAt,
		FinishedAt:  s.clock.Now(),
	}
	if snap.Board != nil {
		result.Moves = snap.Board.Moves
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	log := s.log.With().
		Str("session_id", ps.id.String()).
		Str("player_id", ps.playerID.String()).
		Str("game_id", ps.game.ID).
		Logger()

	if _, err := s.wallets.Credit(ctx, ps.playerID, coins, xp); err != nil {
		log.Error().Err(err).Msg("Failed to credit wallet")
	}
	if err := s.results.Publish(ctx, result); err != nil {
		log.Error().Err(err).Msg("Failed to queue play result")
	}

	s.metrics.SessionsCompleted.WithLabelValues(string(ps.game.Kind)).Inc()
	log.Info().
		Int("score", result.Score).
		Int("max_score", result.MaxScore).
		Int("coins", coins).
		Int("xp", xp).
		Msg("Play session finished")
}

func (s *PlayService) countOutcome(out game.Outcome) {
	label := metrics.OutcomeIncorrect
	switch {
	case out.Retry:
		label = metrics.OutcomeRetry
	case out.TimedOut:
		label = metrics.OutcomeTimeout
	case out.Correct:
		label = metrics.OutcomeCorrect
	}
	s.metrics.Answers.WithLabelValues(label).Inc()
}

// countTimeout records countdown expiries, which never pass through an
// input operation.
func (s *PlayService) countTimeout(snap game.Snapshot) {
	if snap.State == game.StateAnswered && snap.Outcome != nil && snap.Outcome.TimedOut {
		s.countOutcome(*snap.Outcome)
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// ─── Session ─────────────────────────────────────────────────────────

type playSession struct {
	id        uuid.UUID
	playerID  uuid.UUID
	game      *model.Game
	questions []model.Question
	rewards   model.RewardConfig
	startedAt time.Time

	// Exactly one of engine or board is set.
	engine *game.Engine
	board  *game.Board

	mu       sync.Mutex
	lastSeen time.Time
	subs     map[chan view.Session]struct{}
	closed   bool
}

func (ps *playSession) runner() game.Runner {
	if ps.engine != nil {
		return ps.engine
	}
	return ps.board
}

func (ps *playSession) render(snap game.Snapshot) view.Session {
	return view.Render(view.Input{
		SessionID: ps.id.String(),
		Game:      ps.game,
		Questions: ps.questions,
		Rewards:   ps.rewards,
	}, snap)
}

func (ps *playSession) touch(now time.Time) {
	ps.mu.Lock()
	ps.lastSeen = now
	ps.mu.Unlock()
}

func (ps *playSession) idleSince() time.Time {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.lastSeen
}

// broadcast delivers v to every subscriber. A slow subscriber loses its
// oldest pending update, never the newest.
func (ps *playSession) broadcast(v view.Session) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.closed {
		return
	}
	for ch := range ps.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

func (ps *playSession) subscribe(initial view.Session) (<-chan view.Session, func()) {
	ch := make(chan view.Session, subscriberBuffer)
	ch <- initial

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.closed {
		close(ch)
		return ch, func() {}
	}
	ps.subs[ch] = struct{}{}

	return ch, func() {
		ps.mu.Lock()
		defer ps.mu.Unlock()
		if _, ok := ps.subs[ch]; ok {
			delete(ps.subs, ch)
			close(ch)
		}
	}
}

func (ps *playSession) shutdown() {
	ps.runner().Close()

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.closed {
		return
	}
	ps.closed = true
	for ch := range ps.subs {
		close(ch)
	}
	ps.subs = nil
}
