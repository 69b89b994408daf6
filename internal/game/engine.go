package game

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/stemsi/kidquest-backend/internal/model"
)

// State enumerates the lifecycle states of a question.
type State string

const (
	StateIdle      State = "IDLE"
	StateAnswered  State = "ANSWERED"
	StateAdvancing State = "ADVANCING" // transient, never observed in snapshots
	StateRetry     State = "RETRY"
	StateFinished  State = "FINISHED"
)

// Default timings observed in the content.
const (
	DefaultDwell         = 1500 * time.Millisecond
	DefaultCountdown     = 5 * time.Second
	DefaultMismatchDelay = time.Second
	DefaultReward        = 1
)

var (
	ErrNoQuestions      = errors.New("game has no questions")
	ErrNotQuestionBased = errors.New("game kind is not question based")
	ErrNoCards          = errors.New("game has no cards")
)

// Settings configures an Engine or Board.
type Settings struct {
	Dwell         time.Duration
	Countdown     time.Duration
	MismatchDelay time.Duration
	Reward        int
	// Clock drives every timer. Engines own the timers they create and stop
	// them on Close.
	Clock clockwork.Clock

	// OnChange runs after every state transition, outside the engine lock.
	OnChange func(Snapshot)
	// OnFinish runs exactly once when the session completes.
	OnFinish func(Snapshot)
}

func (s Settings) withDefaults() Settings {
	if s.Dwell <= 0 {
		s.Dwell = DefaultDwell
	}
	if s.Countdown <= 0 {
		s.Countdown = DefaultCountdown
	}
	if s.MismatchDelay <= 0 {
		s.MismatchDelay = DefaultMismatchDelay
	}
	if s.Reward <= 0 {
		s.Reward = DefaultReward
	}
	if s.Clock == nil {
		s.Clock = clockwork.NewRealClock()
	}
	return s
}

// Outcome describes how a question was resolved.
type Outcome struct {
	QuestionIndex int      `json:"question_index"`
	OptionID      string   `json:"option_id,omitempty"`
	Picks         []string `json:"picks,omitempty"`
	Text          string   `json:"text,omitempty"`
	Correct       bool     `json:"correct"`
	TimedOut      bool     `json:"timed_out,omitempty"`
	Retry         bool     `json:"retry,omitempty"`
	Reward        int      `json:"reward"`
	Feedback      string   `json:"feedback,omitempty"`
}

// Snapshot is a read-only copy of session state.
type Snapshot struct {
	Kind           model.GameKind `json:"kind"`
	State          State          `json:"state"`
	QuestionIndex  int            `json:"question_index"`
	TotalQuestions int            `json:"total_questions"`
	Selected       []string       `json:"selected"`
	Outcome        *Outcome       `json:"outcome,omitempty"`
	Remaining      time.Duration  `json:"remaining"`
	Score          int            `json:"score"`
	Correct        int            `json:"correct"`
	Attempts       int            `json:"attempts"`
	IsComplete     bool           `json:"is_complete"`

	// Matching boards only.
	Board *BoardState `json:"board,omitempty"`
}

// Engine drives a question-based game one question at a time.
type Engine struct {
	mu        sync.Mutex
	kind      model.GameKind
	questions []model.Question
	settings  Settings

	agg      Aggregator
	state    State
	index    int
	selected []string
	outcome  *Outcome
	deadline time.Time

	dwellTimer     clockwork.Timer
	countdownTimer clockwork.Timer
	epoch          uint64
	closed         bool
}

// NewEngine creates an engine positioned on the first question.
func NewEngine(kind model.GameKind, questions []model.Question, settings Settings) (*Engine, error) {
	if !kind.IsQuestionBased() {
		return nil, ErrNotQuestionBased
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	e := &Engine{
		kind:      kind,
		questions: questions,
		settings:  settings.withDefaults(),
	}
	e.mu.Lock()
	e.enterIdleLocked(0)
	e.mu.Unlock()
	return e, nil
}

// Submit answers a single-choice or timed question.
// It returns false without changing state if the answer is not accepted.
func (e *Engine) Submit(optionID string) (Outcome, bool) {
	e.mu.Lock()
	if e.closed || e.state != StateIdle ||
		(e.kind != model.GameKindSingleChoice && e.kind != model.GameKindTimedChoice) {
		e.mu.Unlock()
		return Outcome{}, false
	}
	q := &e.questions[e.index]
	opt, ok := q.Option(optionID)
	if !ok {
		e.mu.Unlock()
		return Outcome{}, false
	}
	out := e.answerLocked(Outcome{
		OptionID: opt.ID,
		Correct:  opt.IsCorrect,
		Feedback: opt.Feedback,
	}, []string{opt.ID})
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(snap)
	return out, true
}

// SubmitText answers a free-text question. Text shorter than the question's
// minimum length (after trimming) is rejected.
func (e *Engine) SubmitText(text string) (Outcome, bool) {
	e.mu.Lock()
	if e.closed || e.state != StateIdle || e.kind != model.GameKindFreeText {
		e.mu.Unlock()
		return Outcome{}, false
	}
	q := &e.questions[e.index]
	trimmed := strings.TrimSpace(text)
	minLen := q.MinLength
	if minLen < 1 {
		minLen = 1
	}
	if utf8.RuneCountInString(trimmed) < minLen {
		e.mu.Unlock()
		return Outcome{}, false
	}
	out := e.answerLocked(Outcome{Text: trimmed, Correct: true}, nil)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(snap)
	return out, true
}

// Toggle adds or removes an option from a multi-select pick set.
// Adding beyond the required pick count is rejected.
func (e *Engine) Toggle(optionID string) bool {
	e.mu.Lock()
	if e.closed || e.kind != model.GameKindMultiChoice ||
		(e.state != StateIdle && e.state != StateRetry) {
		e.mu.Unlock()
		return false
	}
	q := &e.questions[e.index]
	if _, ok := q.Option(optionID); !ok {
		e.mu.Unlock()
		return false
	}

	if i := slices.Index(e.selected, optionID); i >= 0 {
		e.selected = slices.Delete(e.selected, i, i+1)
	} else {
		if len(e.selected) >= requiredPicks(q) {
			e.mu.Unlock()
			return false
		}
		e.selected = append(e.selected, optionID)
	}
	if e.state == StateRetry {
		e.state = StateIdle
		e.outcome = nil
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(snap)
	return true
}

// SubmitSelection submits the current multi-select picks. It is only enabled
// at exactly the required pick count. A pick set that is not fully correct
// moves the question to RETRY and clears the picks without recording anything.
func (e *Engine) SubmitSelection() (Outcome, bool) {
	e.mu.Lock()
	if e.closed || e.state != StateIdle || e.kind != model.GameKindMultiChoice {
		e.mu.Unlock()
		return Outcome{}, false
	}
	q := &e.questions[e.index]
	k := requiredPicks(q)
	if len(e.selected) != k {
		e.mu.Unlock()
		return Outcome{}, false
	}

	picks := append([]string(nil), e.selected...)
	correctPicks := 0
	for _, id := range picks {
		if opt, ok := q.Option(id); ok && opt.IsCorrect {
			correctPicks++
		}
	}

	var out Outcome
	if correctPicks == k {
		out = e.answerLocked(Outcome{Picks: picks, Correct: true}, picks)
	} else {
		e.epoch++
		e.state = StateRetry
		e.selected = nil
		out = Outcome{QuestionIndex: e.index, Picks: picks, Retry: true}
		e.outcome = &out
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(snap)
	return out, true
}

// Next skips the remaining feedback dwell and advances immediately.
func (e *Engine) Next() bool {
	e.mu.Lock()
	if e.closed || e.state != StateAnswered {
		e.mu.Unlock()
		return false
	}
	finished := e.advanceLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(snap)
	if finished {
		e.finish(snap)
	}
	return true
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Close cancels all pending timers. No state changes after Close.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.epoch++
	e.stopTimersLocked()
}

// ─── Internal transitions ────────────────────────────────────────────

func (e *Engine) enterIdleLocked(index int) {
	e.epoch++
	e.index = index
	e.state = StateIdle
	e.selected = nil
	e.outcome = nil
	e.deadline = time.Time{}

	if e.kind == model.GameKindTimedChoice {
		ep := e.epoch
		e.deadline = e.settings.Clock.Now().Add(e.settings.Countdown)
		e.countdownTimer = e.settings.Clock.AfterFunc(e.settings.Countdown, func() {
			e.onCountdown(ep)
		})
	}
}

func (e *Engine) answerLocked(out Outcome, selected []string) Outcome {
	e.stopTimersLocked()
	e.epoch++

	out.QuestionIndex = e.index
	if out.Correct {
		out.Reward = e.settings.Reward
	}
	e.agg.RecordOutcome(out.Correct, out.Reward)

	e.state = StateAnswered
	e.selected = selected
	e.outcome = &out
	e.deadline = time.Time{}

	ep := e.epoch
	e.dwellTimer = e.settings.Clock.AfterFunc(e.settings.Dwell, func() {
		e.onDwell(ep)
	})
	return out
}

// advanceLocked moves past an answered question and reports whether the
// session finished.
func (e *Engine) advanceLocked() bool {
	e.stopTimersLocked()
	e.state = StateAdvancing

	if e.index+1 < len(e.questions) {
		e.enterIdleLocked(e.index + 1)
		return false
	}

	e.epoch++
	e.state = StateFinished
	e.selected = nil
	return e.agg.Complete()
}

func (e *Engine) onCountdown(ep uint64) {
	e.mu.Lock()
	if e.closed || e.epoch != ep || e.state != StateIdle {
		e.mu.Unlock()
		return
	}
	e.answerLocked(Outcome{TimedOut: true}, nil)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(snap)
}

func (e *Engine) onDwell(ep uint64) {
	e.mu.Lock()
	if e.closed || e.epoch != ep || e.state != StateAnswered {
		e.mu.Unlock()
		return
	}
	finished := e.advanceLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.emit(snap)
	if finished {
		e.finish(snap)
	}
}

func (e *Engine) stopTimersLocked() {
	if e.dwellTimer != nil {
		e.dwellTimer.Stop()
		e.dwellTimer = nil
	}
	if e.countdownTimer != nil {
		e.countdownTimer.Stop()
		e.countdownTimer = nil
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Kind:           e.kind,
		State:          e.state,
		QuestionIndex:  e.index,
		TotalQuestions: len(e.questions),
		Selected:       append([]string{}, e.selected...),
		Score:          e.agg.FinalScore(),
		Correct:        e.agg.Correct(),
		Attempts:       e.agg.Attempts(),
		IsComplete:     e.agg.IsSessionComplete(),
	}
	if e.outcome != nil {
		out := *e.outcome
		snap.Outcome = &out
	}
	if !e.deadline.IsZero() && e.state == StateIdle {
		if rem := e.deadline.Sub(e.settings.Clock.Now()); rem > 0 {
			snap.Remaining = rem
		}
	}
	return snap
}

func (e *Engine) emit(snap Snapshot) {
	if e.settings.OnChange != nil {
		e.settings.OnChange(snap)
	}
}

func (e *Engine) finish(snap Snapshot) {
	if e.settings.OnFinish != nil {
		e.settings.OnFinish(snap)
	}
}

func requiredPicks(q *model.Question) int {
	if q.RequiredPicks < 1 {
		return 1
	}
	return q.RequiredPicks
}
