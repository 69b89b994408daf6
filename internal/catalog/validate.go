package catalog

import (
	"fmt"

	"github.com/stemsi/kidquest-backend/internal/model"
)

// Validate checks the data integrity of a single game.
func Validate(g *model.Game) error {
	if g.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidGame)
	}
	if g.Title == "" {
		return invalid(g, "missing title")
	}
	if g.Level < 1 {
		return invalid(g, "level must be at least 1")
	}

	switch g.Kind {
	case model.GameKindSingleChoice, model.GameKindTimedChoice:
		if len(g.Questions) == 0 {
			return invalid(g, "no questions")
		}
		for i := range g.Questions {
			if err := validateSingle(g, &g.Questions[i]); err != nil {
				return err
			}
		}
	case model.GameKindMultiChoice:
		if len(g.Questions) == 0 {
			return invalid(g, "no questions")
		}
		for i := range g.Questions {
			if err := validateMulti(g, &g.Questions[i]); err != nil {
				return err
			}
		}
	case model.GameKindFreeText:
		if len(g.Questions) == 0 && len(g.PromptPool) == 0 {
			return invalid(g, "no questions or prompt pool")
		}
		for i := range g.Questions {
			q := &g.Questions[i]
			if q.MinLength < 1 {
				return invalid(g, "question %s: min_length must be at least 1", q.ID)
			}
		}
	case model.GameKindMatching:
		return validateCards(g)
	default:
		return invalid(g, "unknown kind %q", g.Kind)
	}
	return nil
}

func validateSingle(g *model.Game, q *model.Question) error {
	if err := validateOptions(g, q); err != nil {
		return err
	}
	correct := ""
	count := 0
	for _, o := range q.Options {
		if o.IsCorrect {
			correct = o.ID
			count++
		}
	}
	if count != 1 {
		return invalid(g, "question %s: expected exactly one correct option, found %d", q.ID, count)
	}
	if q.CorrectOptionID != "" && q.CorrectOptionID != correct {
		return invalid(g, "question %s: correct_option %q disagrees with flagged option %q", q.ID, q.CorrectOptionID, correct)
	}
	return nil
}

func validateMulti(g *model.Game, q *model.Question) error {
	if err := validateOptions(g, q); err != nil {
		return err
	}
	if q.RequiredPicks < 1 {
		return invalid(g, "question %s: required_picks must be at least 1", q.ID)
	}
	if q.RequiredPicks > len(q.Options) {
		return invalid(g, "question %s: required_picks exceeds option count", q.ID)
	}
	count := 0
	for _, o := range q.Options {
		if o.IsCorrect {
			count++
		}
	}
	if count < q.RequiredPicks {
		return invalid(g, "question %s: only %d correct options for %d required picks", q.ID, count, q.RequiredPicks)
	}
	return nil
}

func validateOptions(g *model.Game, q *model.Question) error {
	if q.ID == "" {
		return invalid(g, "question without id")
	}
	if len(q.Options) < 2 {
		return invalid(g, "question %s: needs at least two options", q.ID)
	}
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if o.ID == "" {
			return invalid(g, "question %s: option without id", q.ID)
		}
		if seen[o.ID] {
			return invalid(g, "question %s: duplicate option id %q", q.ID, o.ID)
		}
		seen[o.ID] = true
	}
	return nil
}

func validateCards(g *model.Game) error {
	if len(g.Cards) == 0 {
		return invalid(g, "no cards")
	}
	ids := make(map[string]bool, len(g.Cards))
	pairs := make(map[string]int)
	for _, c := range g.Cards {
		if c.ID == "" || c.PairKey == "" {
			return invalid(g, "card needs id and pair")
		}
		if ids[c.ID] {
			return invalid(g, "duplicate card id %q", c.ID)
		}
		ids[c.ID] = true
		pairs[c.PairKey]++
	}
	for key, n := range pairs {
		if n != 2 {
			return invalid(g, "pair %q has %d cards, expected 2", key, n)
		}
	}
	return nil
}

func invalid(g *model.Game, format string, args ...any) error {
	return fmt.Errorf("game %s: %w: %s", g.ID, ErrInvalidGame, fmt.Sprintf(format, args...))
}
