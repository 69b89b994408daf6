package model

// GameKind enumerates the interaction variants a game can use.
type GameKind string

const (
	GameKindSingleChoice GameKind = "SINGLE_CHOICE"
	GameKindMultiChoice  GameKind = "MULTI_CHOICE"
	GameKindFreeText     GameKind = "FREE_TEXT"
	GameKindTimedChoice  GameKind = "TIMED_CHOICE"
	GameKindMatching     GameKind = "MATCHING"
)

// IsQuestionBased reports whether the kind is driven by a question list
// rather than a card board.
func (k GameKind) IsQuestionBased() bool {
	switch k {
	case GameKindSingleChoice, GameKindMultiChoice, GameKindFreeText, GameKindTimedChoice:
		return true
	}
	return false
}

// Option is a single selectable answer of a question.
type Option struct {
	ID        string `json:"id" yaml:"id"`
	Label     string `json:"label" yaml:"label"`
	Icon      string `json:"icon,omitempty" yaml:"icon"`
	Feedback  string `json:"feedback,omitempty" yaml:"feedback"`
	IsCorrect bool   `json:"-" yaml:"correct"`
}

// Question is one step of a question-based game.
type Question struct {
	ID              string   `json:"id" yaml:"id"`
	Prompt          string   `json:"prompt" yaml:"prompt"`
	Emoji           string   `json:"emoji,omitempty" yaml:"emoji"`
	Options         []Option `json:"options,omitempty" yaml:"options"`
	CorrectOptionID string   `json:"-" yaml:"correct_option"`
	RequiredPicks   int      `json:"required_picks,omitempty" yaml:"required_picks"` // Multi-choice only
	MinLength       int      `json:"min_length,omitempty" yaml:"min_length"`         // Free-text only
}

// Option returns the option with the given ID.
func (q *Question) Option(id string) (*Option, bool) {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i], true
		}
	}
	return nil, false
}

// Card is a tile on a matching board. Two cards share each PairKey.
type Card struct {
	ID      string `json:"id" yaml:"id"`
	PairKey string `json:"-" yaml:"pair"`
	Label   string `json:"label" yaml:"label"`
	Icon    string `json:"icon,omitempty" yaml:"icon"`
}

// Game is an immutable catalog entry.
type Game struct {
	ID                string     `json:"id" yaml:"id"`
	Title             string     `json:"title" yaml:"title"`
	Description       string     `json:"description,omitempty" yaml:"description"`
	Kind              GameKind   `json:"kind" yaml:"kind"`
	Level             int        `json:"level" yaml:"level"`
	TotalLevels       int        `json:"total_levels" yaml:"total_levels"`
	NextGameID        string     `json:"next_game_id,omitempty" yaml:"next_game"`
	RewardPerQuestion int        `json:"reward_per_question" yaml:"reward_per_question"`
	MaxScore          int        `json:"max_score" yaml:"max_score"`
	TotalCoins        int        `json:"total_coins" yaml:"total_coins"`
	DwellMillis       int        `json:"-" yaml:"dwell_ms"`
	CountdownMillis   int        `json:"countdown_ms,omitempty" yaml:"countdown_ms"`
	MismatchMillis    int        `json:"-" yaml:"mismatch_ms"`
	PromptPool        []string   `json:"-" yaml:"prompt_pool"`
	PromptCount       int        `json:"-" yaml:"prompt_count"`
	Questions         []Question `json:"-" yaml:"questions"`
	Cards             []Card     `json:"-" yaml:"cards"`
}

// GameSummary is the catalog listing entry sent to the shell.
type GameSummary struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Kind          GameKind `json:"kind"`
	Level         int      `json:"level"`
	TotalLevels   int      `json:"total_levels"`
	QuestionCount int      `json:"question_count"`
}

// Summary builds the listing entry for a game.
func (g *Game) Summary() GameSummary {
	count := len(g.Questions)
	if g.Kind == GameKindMatching {
		count = len(g.Cards) / 2
	}
	return GameSummary{
		ID:            g.ID,
		Title:         g.Title,
		Description:   g.Description,
		Kind:          g.Kind,
		Level:         g.Level,
		TotalLevels:   g.TotalLevels,
		QuestionCount: count,
	}
}
