// Package view maps engine snapshots to render-ready models for the shell.
package view

import (
	"slices"
	"time"

	"github.com/stemsi/kidquest-backend/internal/game"
	"github.com/stemsi/kidquest-backend/internal/model"
)

// OptionStyle is the button style of a single option.
type OptionStyle string

const (
	StyleIdle      OptionStyle = "idle"
	StyleSelected  OptionStyle = "selected"
	StyleCorrect   OptionStyle = "correct"
	StyleIncorrect OptionStyle = "incorrect"
	StyleDimmed    OptionStyle = "dimmed"
)

// FeedbackKind is the pulse type shown after an answer.
type FeedbackKind string

const (
	FeedbackCorrect   FeedbackKind = "correct"
	FeedbackIncorrect FeedbackKind = "incorrect"
	FeedbackTimeout   FeedbackKind = "timeout"
	FeedbackRetry     FeedbackKind = "retry"
	FeedbackMatch     FeedbackKind = "match"
	FeedbackMismatch  FeedbackKind = "mismatch"
)

type OptionView struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Icon     string      `json:"icon,omitempty"`
	Style    OptionStyle `json:"style"`
	Disabled bool        `json:"disabled"`
}

type QuestionView struct {
	ID            string       `json:"id"`
	Prompt        string       `json:"prompt"`
	Emoji         string       `json:"emoji,omitempty"`
	Options       []OptionView `json:"options,omitempty"`
	RequiredPicks int          `json:"required_picks,omitempty"`
	MinLength     int          `json:"min_length,omitempty"`
	CanSubmit     bool         `json:"can_submit"`
}

// CardView hides the face of cards that are not turned up.
type CardView struct {
	Index   int    `json:"index"`
	Label   string `json:"label,omitempty"`
	Icon    string `json:"icon,omitempty"`
	FaceUp  bool   `json:"face_up"`
	Matched bool   `json:"matched"`
}

type BoardView struct {
	Cards  []CardView `json:"cards"`
	Moves  int        `json:"moves"`
	Locked bool       `json:"locked"`
}

type Feedback struct {
	Kind  FeedbackKind `json:"kind"`
	Text  string       `json:"text"`
	Emoji string       `json:"emoji"`
}

type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Chrome is the shell header and footer state.
type Chrome struct {
	Title       string `json:"title"`
	Level       int    `json:"level"`
	TotalLevels int    `json:"total_levels"`
	Score       int    `json:"score"`
	MaxScore    int    `json:"max_score"`
	Coins       int    `json:"coins"`
	XP          int    `json:"xp"`
	Confetti    bool   `json:"confetti"`
	NextGameID  string `json:"next_game_id,omitempty"`
}

// Session is the full render model of one play session.
type Session struct {
	SessionID        string         `json:"session_id"`
	GameID           string         `json:"game_id"`
	Kind             model.GameKind `json:"kind"`
	State            game.State     `json:"state"`
	Question         *QuestionView  `json:"question,omitempty"`
	Board            *BoardView     `json:"board,omitempty"`
	Feedback         *Feedback      `json:"feedback,omitempty"`
	Progress         Progress       `json:"progress"`
	CountdownSeconds int            `json:"countdown_seconds,omitempty"`
	Chrome           Chrome         `json:"chrome"`
	IsComplete       bool           `json:"is_complete"`
}

// Input is everything Render needs besides the snapshot.
type Input struct {
	SessionID string
	Game      *model.Game
	Questions []model.Question
	Rewards   model.RewardConfig
}

// Render builds the view model for a snapshot.
func Render(in Input, snap game.Snapshot) Session {
	s := Session{
		SessionID:  in.SessionID,
		GameID:     in.Game.ID,
		Kind:       snap.Kind,
		State:      snap.State,
		IsComplete: snap.IsComplete,
		Chrome:     chrome(in, snap),
	}

	if snap.Board != nil {
		s.Board = board(snap.Board)
		s.Feedback = boardFeedback(snap.Board)
		s.Progress = Progress{Current: len(snap.Board.MatchedIDs) / 2, Total: snap.TotalQuestions}
		return s
	}

	s.Progress = progress(snap)
	if !snap.IsComplete && snap.QuestionIndex < len(in.Questions) {
		s.Question = question(&in.Questions[snap.QuestionIndex], snap)
	}
	if snap.Outcome != nil {
		s.Feedback = feedback(snap.Kind, snap.Outcome)
	}
	if snap.Remaining > 0 {
		s.CountdownSeconds = int((snap.Remaining + time.Second - 1) / time.Second)
	}
	return s
}

func chrome(in Input, snap game.Snapshot) Chrome {
	c := Chrome{
		Title:       in.Game.Title,
		Level:       in.Game.Level,
		TotalLevels: in.Game.TotalLevels,
		Score:       snap.Score,
		MaxScore:    in.Game.MaxScore,
		Coins:       in.Rewards.TotalCoins,
		XP:          in.Rewards.TotalXP,
		NextGameID:  in.Game.NextGameID,
	}
	if snap.IsComplete {
		coins, xp := in.Rewards.Earned(snap.Score)
		c.Coins += coins
		c.XP += xp
		c.Confetti = true
	}
	return c
}

func progress(snap game.Snapshot) Progress {
	current := snap.QuestionIndex + 1
	if snap.IsComplete || current > snap.TotalQuestions {
		current = snap.TotalQuestions
	}
	return Progress{Current: current, Total: snap.TotalQuestions}
}

func question(q *model.Question, snap game.Snapshot) *QuestionView {
	qv := &QuestionView{
		ID:        q.ID,
		Prompt:    q.Prompt,
		Emoji:     q.Emoji,
		MinLength: q.MinLength,
	}
	if snap.Kind == model.GameKindMultiChoice {
		qv.RequiredPicks = max(q.RequiredPicks, 1)
	}

	answered := snap.State == game.StateAnswered
	switch snap.Kind {
	case model.GameKindMultiChoice:
		qv.CanSubmit = snap.State == game.StateIdle && len(snap.Selected) == qv.RequiredPicks
	case model.GameKindFreeText:
		qv.CanSubmit = snap.State == game.StateIdle
	}

	qv.Options = make([]OptionView, len(q.Options))
	for i, o := range q.Options {
		ov := OptionView{ID: o.ID, Label: o.Label, Icon: o.Icon, Style: StyleIdle}
		picked := slices.Contains(snap.Selected, o.ID)
		switch {
		case answered && picked && o.IsCorrect:
			ov.Style = StyleCorrect
		case answered && picked:
			ov.Style = StyleIncorrect
		case answered && o.IsCorrect && revealsCorrect(snap):
			ov.Style = StyleCorrect
		case answered:
			ov.Style = StyleDimmed
		case picked:
			ov.Style = StyleSelected
		}
		ov.Disabled = answered ||
			(snap.Kind == model.GameKindMultiChoice && !picked && len(snap.Selected) >= qv.RequiredPicks)
		qv.Options[i] = ov
	}
	return qv
}

// revealsCorrect reports whether the correct option should be highlighted
// after a wrong or missing single answer.
func revealsCorrect(snap game.Snapshot) bool {
	if snap.Kind == model.GameKindMultiChoice || snap.Outcome == nil {
		return false
	}
	return !snap.Outcome.Correct
}

func feedback(kind model.GameKind, out *game.Outcome) *Feedback {
	switch {
	case out.Retry:
		return &Feedback{Kind: FeedbackRetry, Text: "Almost! Try a different set.", Emoji: "🔁"}
	case out.TimedOut:
		return &Feedback{Kind: FeedbackTimeout, Text: "Time's up!", Emoji: "⏰"}
	}

	f := &Feedback{Kind: FeedbackIncorrect, Text: "Not quite. Let's keep learning!", Emoji: "💡"}
	if out.Correct {
		f = &Feedback{Kind: FeedbackCorrect, Text: "Great job!", Emoji: "🎉"}
		if kind == model.GameKindFreeText {
			f.Text, f.Emoji = "Thanks for sharing!", "📝"
		}
	}
	if out.Feedback != "" {
		f.Text = out.Feedback
	}
	return f
}

func board(bs *game.BoardState) *BoardView {
	bv := &BoardView{Moves: bs.Moves, Locked: bs.Locked, Cards: make([]CardView, len(bs.Cards))}
	for i, c := range bs.Cards {
		matched := slices.Contains(bs.MatchedIDs, c.ID)
		faceUp := matched || slices.Contains(bs.Flipped, i)
		cv := CardView{Index: i, FaceUp: faceUp, Matched: matched}
		if faceUp {
			cv.Label, cv.Icon = c.Label, c.Icon
		}
		bv.Cards[i] = cv
	}
	return bv
}

func boardFeedback(bs *game.BoardState) *Feedback {
	if bs.LastMatch == nil {
		return nil
	}
	if *bs.LastMatch {
		return &Feedback{Kind: FeedbackMatch, Text: "It's a match!", Emoji: "✨"}
	}
	if bs.Locked {
		return &Feedback{Kind: FeedbackMismatch, Text: "Not a pair. Try again!", Emoji: "🙈"}
	}
	return nil
}
