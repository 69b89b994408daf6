package view

import (
	"testing"
	"time"

	"github.com/stemsi/kidquest-backend/internal/game"
	"github.com/stemsi/kidquest-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fruitGame(kind model.GameKind) (*model.Game, []model.Question) {
	qs := []model.Question{{
		ID:     "q1",
		Prompt: "Which one is a fruit?",
		Emoji:  "🍎",
		Options: []model.Option{
			{ID: "apple", Label: "Apple", IsCorrect: true},
			{ID: "chips", Label: "Chips", Feedback: "Chips are a snack."},
			{ID: "soda", Label: "Soda"},
		},
	}}
	g := &model.Game{
		ID: "fruits", Title: "Fruits", Kind: kind, Level: 2, TotalLevels: 7,
		NextGameID: "veggies", MaxScore: 20, TotalCoins: 40, Questions: qs,
	}
	return g, qs
}

func styles(q *QuestionView) map[string]OptionStyle {
	out := map[string]OptionStyle{}
	for _, o := range q.Options {
		out[o.ID] = o.Style
	}
	return out
}

func TestRender_IdleQuestion(t *testing.T) {
	g, qs := fruitGame(model.GameKindSingleChoice)
	v := Render(Input{SessionID: "s1", Game: g, Questions: qs, Rewards: model.DefaultRewardConfig()}, game.Snapshot{
		Kind: g.Kind, State: game.StateIdle, TotalQuestions: 1, Selected: []string{},
	})

	require.NotNil(t, v.Question)
	assert.Equal(t, "Which one is a fruit?", v.Question.Prompt)
	for _, o := range v.Question.Options {
		assert.Equal(t, StyleIdle, o.Style)
		assert.False(t, o.Disabled)
	}
	assert.Nil(t, v.Feedback)
	assert.Equal(t, Progress{Current: 1, Total: 1}, v.Progress)
	assert.Equal(t, "Fruits", v.Chrome.Title)
	assert.Equal(t, 2, v.Chrome.Level)
	assert.Equal(t, 7, v.Chrome.TotalLevels)
	assert.Equal(t, 20, v.Chrome.MaxScore)
	assert.False(t, v.Chrome.Confetti)
}

func TestRender_WrongAnswerRevealsCorrect(t *testing.T) {
	g, qs := fruitGame(model.GameKindSingleChoice)
	v := Render(Input{Game: g, Questions: qs}, game.Snapshot{
		Kind: g.Kind, State: game.StateAnswered, TotalQuestions: 1,
		Selected: []string{"chips"},
		Outcome:  &game.Outcome{OptionID: "chips", Feedback: "Chips are a snack."},
	})

	require.NotNil(t, v.Question)
	assert.Equal(t, map[string]OptionStyle{
		"apple": StyleCorrect,
		"chips": StyleIncorrect,
		"soda":  StyleDimmed,
	}, styles(v.Question))
	for _, o := range v.Question.Options {
		assert.True(t, o.Disabled)
	}
	require.NotNil(t, v.Feedback)
	assert.Equal(t, FeedbackIncorrect, v.Feedback.Kind)
	assert.Equal(t, "Chips are a snack.", v.Feedback.Text)
}

func TestRender_CorrectAnswerDimsOthers(t *testing.T) {
	g, qs := fruitGame(model.GameKindSingleChoice)
	v := Render(Input{Game: g, Questions: qs}, game.Snapshot{
		Kind: g.Kind, State: game.StateAnswered, TotalQuestions: 1, Score: 1,
		Selected: []string{"apple"},
		Outcome:  &game.Outcome{OptionID: "apple", Correct: true, Reward: 1},
	})

	assert.Equal(t, map[string]OptionStyle{
		"apple": StyleCorrect,
		"chips": StyleDimmed,
		"soda":  StyleDimmed,
	}, styles(v.Question))
	assert.Equal(t, FeedbackCorrect, v.Feedback.Kind)
	assert.Equal(t, 1, v.Chrome.Score)
}

func TestRender_TimedCountdown(t *testing.T) {
	g, qs := fruitGame(model.GameKindTimedChoice)

	v := Render(Input{Game: g, Questions: qs}, game.Snapshot{
		Kind: g.Kind, State: game.StateIdle, TotalQuestions: 1,
		Remaining: 4200 * time.Millisecond,
	})
	assert.Equal(t, 5, v.CountdownSeconds)

	v = Render(Input{Game: g, Questions: qs}, game.Snapshot{
		Kind: g.Kind, State: game.StateAnswered, TotalQuestions: 1,
		Outcome: &game.Outcome{TimedOut: true},
	})
	assert.Zero(t, v.CountdownSeconds)
	assert.Equal(t, FeedbackTimeout, v.Feedback.Kind)
	assert.Equal(t, StyleCorrect, styles(v.Question)["apple"])
}

func TestRender_MultiSelectCap(t *testing.T) {
	qs := []model.Question{{
		ID: "badges", RequiredPicks: 2,
		Options: []model.Option{
			{ID: "brave", IsCorrect: true},
			{ID: "kind", IsCorrect: true},
			{ID: "mean"},
		},
	}}
	g := &model.Game{ID: "badges", Kind: model.GameKindMultiChoice, Questions: qs}

	v := Render(Input{Game: g, Questions: qs}, game.Snapshot{
		Kind: g.Kind, State: game.StateIdle, TotalQuestions: 1,
		Selected: []string{"brave", "mean"},
	})
	require.NotNil(t, v.Question)
	assert.True(t, v.Question.CanSubmit)
	assert.Equal(t, 2, v.Question.RequiredPicks)
	assert.Equal(t, map[string]OptionStyle{
		"brave": StyleSelected,
		"kind":  StyleIdle,
		"mean":  StyleSelected,
	}, styles(v.Question))
	assert.True(t, v.Question.Options[1].Disabled, "cap reached")
	assert.False(t, v.Question.Options[2].Disabled, "picked options can be removed")

	v = Render(Input{Game: g, Questions: qs}, game.Snapshot{
		Kind: g.Kind, State: game.StateRetry, TotalQuestions: 1,
		Outcome: &game.Outcome{Retry: true, Picks: []string{"brave", "mean"}},
	})
	assert.False(t, v.Question.CanSubmit)
	assert.Equal(t, FeedbackRetry, v.Feedback.Kind)
	for _, o := range v.Question.Options {
		assert.Equal(t, StyleIdle, o.Style)
		assert.False(t, o.Disabled)
	}
}

func TestRender_CompletedChrome(t *testing.T) {
	g, qs := fruitGame(model.GameKindSingleChoice)
	rewards := model.RewardConfig{CoinsPerLevel: 10, TotalCoins: 50, TotalXP: 100}

	v := Render(Input{Game: g, Questions: qs, Rewards: rewards}, game.Snapshot{
		Kind: g.Kind, State: game.StateFinished, TotalQuestions: 1,
		Score: 1, IsComplete: true,
	})

	assert.Nil(t, v.Question)
	assert.True(t, v.IsComplete)
	assert.Equal(t, Progress{Current: 1, Total: 1}, v.Progress)
	assert.True(t, v.Chrome.Confetti)
	assert.Equal(t, 60, v.Chrome.Coins)
	assert.Equal(t, 100+model.XPPerPoint, v.Chrome.XP)
	assert.Equal(t, "veggies", v.Chrome.NextGameID)
}

func TestRender_BoardHidesFaceDownCards(t *testing.T) {
	g := &model.Game{ID: "pairs", Kind: model.GameKindMatching}
	miss := false
	v := Render(Input{Game: g}, game.Snapshot{
		Kind: model.GameKindMatching, State: game.StateIdle, TotalQuestions: 2,
		Board: &game.BoardState{
			Cards: []model.Card{
				{ID: "cat-1", Label: "Cat"}, {ID: "dog-1", Label: "Dog"},
				{ID: "cat-2", Label: "Cat"}, {ID: "dog-2", Label: "Dog"},
			},
			Flipped:    []int{1, 3},
			MatchedIDs: []string{"cat-1", "cat-2"},
			Moves:      2,
			Locked:     true,
			LastMatch:  &miss,
		},
	})

	require.NotNil(t, v.Board)
	assert.Equal(t, 2, v.Board.Moves)
	assert.True(t, v.Board.Locked)
	assert.Equal(t, Progress{Current: 1, Total: 2}, v.Progress)
	assert.Equal(t, FeedbackMismatch, v.Feedback.Kind)
	for _, c := range v.Board.Cards {
		assert.True(t, c.FaceUp)
		assert.NotEmpty(t, c.Label)
	}

	v = Render(Input{Game: g}, game.Snapshot{
		Kind: model.GameKindMatching, TotalQuestions: 2,
		Board: &game.BoardState{Cards: []model.Card{{ID: "a", Label: "Cat"}, {ID: "b", Label: "Cat"}}},
	})
	assert.False(t, v.Board.Cards[0].FaceUp)
	assert.Empty(t, v.Board.Cards[0].Label)
	assert.Nil(t, v.Feedback)
}
