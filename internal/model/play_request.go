package model

// AnswerRequest picks an option on single, timed and multi-select questions.
type AnswerRequest struct {
	OptionID string `json:"option_id" binding:"required,max=64"`
}

// JournalRequest submits a free-text journal entry. Blank or short text is
// left to the engine, which rejects it without an error.
type JournalRequest struct {
	Text string `json:"text" binding:"max=2000"`
}

// FlipRequest turns a card on a matching board.
type FlipRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

// PageQuery is the pagination query of list endpoints.
type PageQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// Normalize fills defaults for omitted values.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 10
	}
	return q
}

// LeaderboardQuery bounds the number of leaderboard rows.
type LeaderboardQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// PromptQuery asks for a number of suggested journal prompts.
type PromptQuery struct {
	Count int `form:"count" binding:"omitempty,min=1,max=10"`
}
