package service

import (
	"github.com/stemsi/kidquest-backend/internal/catalog"
	"github.com/stemsi/kidquest-backend/internal/model"
)

// DefaultPromptCount is used when the client does not ask for a number.
const DefaultPromptCount = 3

// GameSource looks up catalog entries.
type GameSource interface {
	Get(id string) (*model.Game, bool)
	List() []*model.Game
}

// CatalogService exposes the read-only game catalog.
type CatalogService struct {
	games GameSource
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(games GameSource) *CatalogService {
	return &CatalogService{games: games}
}

// List returns every game summary in level order.
func (s *CatalogService) List() []model.GameSummary {
	games := s.games.List()
	out := make([]model.GameSummary, len(games))
	for i, g := range games {
		out[i] = g.Summary()
	}
	return out
}

// Get returns a single game.
func (s *CatalogService) Get(id string) (*model.Game, error) {
	g, ok := s.games.Get(id)
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// Prompts suggests up to n journal prompts from a free-text game's pool.
func (s *CatalogService) Prompts(id string, n int) ([]string, error) {
	g, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if g.Kind != model.GameKindFreeText || len(g.PromptPool) == 0 {
		return nil, ErrWrongGameKind
	}
	if n <= 0 {
		n = DefaultPromptCount
	}
	return catalog.SuggestPrompts(g.PromptPool, n), nil
}
