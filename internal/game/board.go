package game

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/stemsi/kidquest-backend/internal/model"
)

// BoardState is the matching-specific part of a Snapshot.
type BoardState struct {
	Cards      []model.Card `json:"cards"`
	Flipped    []int        `json:"flipped"`
	MatchedIDs []string     `json:"matched_ids"`
	Moves      int          `json:"moves"`
	Locked     bool         `json:"locked"`
	LastMatch  *bool        `json:"last_match,omitempty"`
}

// FlipResult describes an accepted flip. Paired is set when the flip turned
// the second card of a pair check; Match reports that check.
type FlipResult struct {
	Index    int    `json:"index"`
	CardID   string `json:"card_id"`
	Paired   bool   `json:"paired"`
	Match    bool   `json:"match"`
	Finished bool   `json:"finished"`
}

// Board is the memory-match state machine.
type Board struct {
	mu       sync.Mutex
	cards    []model.Card
	settings Settings

	agg       Aggregator
	flipped   []int
	matched   map[string]bool
	order     []string
	moves     int
	locked    bool
	lastMatch *bool

	clearTimer clockwork.Timer
	epoch      uint64
	closed     bool
}

// NewBoard shuffles a copy of cards and deals a fresh board. A nil rng uses
// the package-level source.
func NewBoard(cards []model.Card, settings Settings, rng *rand.Rand) (*Board, error) {
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	dealt := append([]model.Card(nil), cards...)
	swap := func(i, j int) { dealt[i], dealt[j] = dealt[j], dealt[i] }
	if rng != nil {
		rng.Shuffle(len(dealt), swap)
	} else {
		rand.Shuffle(len(dealt), swap)
	}

	return &Board{
		cards:    dealt,
		settings: settings.withDefaults(),
		matched:  make(map[string]bool, len(dealt)),
	}, nil
}

// Flip turns a card face up. At most two cards are face up at once; flips
// on matched or already flipped cards, or while a mismatch is showing, are
// ignored and return false.
func (b *Board) Flip(index int) (FlipResult, bool) {
	b.mu.Lock()
	if b.closed || b.agg.IsSessionComplete() || b.locked ||
		index < 0 || index >= len(b.cards) {
		b.mu.Unlock()
		return FlipResult{}, false
	}
	card := b.cards[index]
	if b.matched[card.ID] || slices.Contains(b.flipped, index) {
		b.mu.Unlock()
		return FlipResult{}, false
	}

	b.flipped = append(b.flipped, index)
	res := FlipResult{Index: index, CardID: card.ID}
	if len(b.flipped) == 2 {
		res.Paired = true
		res.Match, res.Finished = b.checkPairLocked()
	}
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.emit(snap)
	if res.Finished && b.settings.OnFinish != nil {
		b.settings.OnFinish(snap)
	}
	return res, true
}

// Snapshot returns the current state.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Close cancels the pending mismatch timer.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.epoch++
	if b.clearTimer != nil {
		b.clearTimer.Stop()
		b.clearTimer = nil
	}
}

// checkPairLocked compares the two face-up cards and reports whether they
// match and whether that completed the board.
func (b *Board) checkPairLocked() (match, finished bool) {
	b.moves++
	first, second := b.cards[b.flipped[0]], b.cards[b.flipped[1]]
	match = first.PairKey == second.PairKey
	b.lastMatch = &match

	if match {
		b.matched[first.ID] = true
		b.matched[second.ID] = true
		b.order = append(b.order, first.ID, second.ID)
		b.flipped = nil
		b.agg.RecordOutcome(true, b.settings.Reward)
		if len(b.matched) == len(b.cards) {
			b.epoch++
			return true, b.agg.Complete()
		}
		return true, false
	}

	b.agg.RecordOutcome(false, 0)
	b.locked = true
	b.epoch++
	ep := b.epoch
	b.clearTimer = b.settings.Clock.AfterFunc(b.settings.MismatchDelay, func() {
		b.onClear(ep)
	})
	return false, false
}

func (b *Board) onClear(ep uint64) {
	b.mu.Lock()
	if b.closed || b.epoch != ep {
		b.mu.Unlock()
		return
	}
	b.flipped = nil
	b.locked = false
	b.clearTimer = nil
	snap := b.snapshotLocked()
	b.mu.Unlock()

	b.emit(snap)
}

func (b *Board) snapshotLocked() Snapshot {
	state := StateIdle
	if b.agg.IsSessionComplete() {
		state = StateFinished
	}
	bs := &BoardState{
		Cards:      append([]model.Card(nil), b.cards...),
		Flipped:    append([]int{}, b.flipped...),
		MatchedIDs: append([]string{}, b.order...),
		Moves:      b.moves,
		Locked:     b.locked,
	}
	if b.lastMatch != nil {
		m := *b.lastMatch
		bs.LastMatch = &m
	}
	return Snapshot{
		Kind:           model.GameKindMatching,
		State:          state,
		QuestionIndex:  len(b.order) / 2,
		TotalQuestions: len(b.cards) / 2,
		Selected:       []string{},
		Score:          b.agg.FinalScore(),
		Correct:        b.agg.Correct(),
		Attempts:       b.agg.Attempts(),
		IsComplete:     b.agg.IsSessionComplete(),
		Board:          bs,
	}
}

func (b *Board) emit(snap Snapshot) {
	if b.settings.OnChange != nil {
		b.settings.OnChange(snap)
	}
}
