package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"path"
	"sort"
	"strings"

	"github.com/stemsi/kidquest-backend/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed games/*.yaml
var gamesFS embed.FS

// ErrInvalidGame is wrapped by every validation failure.
var ErrInvalidGame = errors.New("invalid game")

// Catalog is the immutable, ordered set of games.
type Catalog struct {
	byID    map[string]*model.Game
	ordered []*model.Game
}

// Load reads the embedded game documents.
func Load() (*Catalog, error) {
	return LoadFS(gamesFS, "games")
}

// LoadFS reads every .yaml document in dir, validates it, and builds the catalog.
func LoadFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	c := &Catalog{byID: make(map[string]*model.Game)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		g, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if _, dup := c.byID[g.ID]; dup {
			return nil, fmt.Errorf("%s: %w: duplicate game id %q", entry.Name(), ErrInvalidGame, g.ID)
		}
		c.byID[g.ID] = g
		c.ordered = append(c.ordered, g)
	}

	for _, g := range c.ordered {
		if g.NextGameID != "" {
			if _, ok := c.byID[g.NextGameID]; !ok {
				return nil, fmt.Errorf("game %s: %w: next game %q not in catalog", g.ID, ErrInvalidGame, g.NextGameID)
			}
		}
	}

	sort.SliceStable(c.ordered, func(i, j int) bool {
		if c.ordered[i].Level != c.ordered[j].Level {
			return c.ordered[i].Level < c.ordered[j].Level
		}
		return c.ordered[i].ID < c.ordered[j].ID
	})
	return c, nil
}

// Parse decodes and validates a single game document.
func Parse(data []byte) (*model.Game, error) {
	var g model.Game
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&g); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	normalize(&g)
	if err := Validate(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Get returns the game with the given ID.
func (c *Catalog) Get(id string) (*model.Game, bool) {
	g, ok := c.byID[id]
	return g, ok
}

// List returns games ordered by level.
func (c *Catalog) List() []*model.Game {
	return append([]*model.Game(nil), c.ordered...)
}

// SuggestPrompts returns up to n prompts drawn uniformly from pool.
func SuggestPrompts(pool []string, n int) []string {
	shuffled := append([]string(nil), pool...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n < 0 {
		n = 0
	}
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

// JournalQuestions turns a random slice of a game's prompt pool into
// free-text questions. Fixed questions are returned unchanged.
func JournalQuestions(g *model.Game, minLength int) []model.Question {
	if len(g.Questions) > 0 || len(g.PromptPool) == 0 {
		return g.Questions
	}
	prompts := SuggestPrompts(g.PromptPool, g.PromptCount)
	qs := make([]model.Question, len(prompts))
	for i, p := range prompts {
		qs[i] = model.Question{
			ID:        fmt.Sprintf("%s-prompt-%d", g.ID, i+1),
			Prompt:    p,
			MinLength: minLength,
		}
	}
	return qs
}

func normalize(g *model.Game) {
	if g.RewardPerQuestion <= 0 {
		g.RewardPerQuestion = 1
	}
	if g.TotalLevels < g.Level {
		g.TotalLevels = g.Level
	}
	if g.Kind == model.GameKindFreeText && len(g.Questions) == 0 && g.PromptCount <= 0 {
		g.PromptCount = len(g.PromptPool)
	}
	for i := range g.Questions {
		q := &g.Questions[i]
		if q.CorrectOptionID == "" {
			continue
		}
		for j := range q.Options {
			if q.Options[j].ID == q.CorrectOptionID {
				q.Options[j].IsCorrect = true
			}
		}
	}
}
