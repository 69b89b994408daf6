package game

// Aggregator accumulates per-question outcomes into a session tally.
// It is not safe for concurrent use; the owning engine serializes access.
type Aggregator struct {
	score    int
	correct  int
	attempts int
	complete bool
}

// RecordOutcome adds one question outcome. Only correct outcomes add their
// reward. Outcomes recorded after completion are ignored.
func (a *Aggregator) RecordOutcome(correct bool, reward int) {
	if a.complete {
		return
	}
	a.attempts++
	if !correct {
		return
	}
	a.correct++
	if reward > 0 {
		a.score += reward
	}
}

// Complete marks the session finished. It returns false if it already was.
func (a *Aggregator) Complete() bool {
	if a.complete {
		return false
	}
	a.complete = true
	return true
}

func (a *Aggregator) IsSessionComplete() bool { return a.complete }
func (a *Aggregator) FinalScore() int         { return a.score }
func (a *Aggregator) Correct() int            { return a.correct }
func (a *Aggregator) Attempts() int           { return a.attempts }
