package catalog

import (
	"testing"
	"testing/fstest"

	"github.com/stemsi/kidquest-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	games := c.List()
	require.Len(t, games, 7)
	for i := 1; i < len(games); i++ {
		assert.LessOrEqual(t, games[i-1].Level, games[i].Level)
	}

	g, ok := c.Get("healthy-habits")
	require.True(t, ok)
	assert.Equal(t, model.GameKindSingleChoice, g.Kind)
	assert.Len(t, g.Questions, 5)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

// Every choice question in the shipped catalog has exactly one correct
// option; multi-select questions have enough correct options for their picks.
func TestLoad_CatalogIntegrity(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	for _, g := range c.List() {
		for _, q := range g.Questions {
			correct := 0
			for _, o := range q.Options {
				if o.IsCorrect {
					correct++
				}
			}
			switch g.Kind {
			case model.GameKindSingleChoice, model.GameKindTimedChoice:
				assert.Equal(t, 1, correct, "%s/%s", g.ID, q.ID)
			case model.GameKindMultiChoice:
				assert.GreaterOrEqual(t, correct, q.RequiredPicks, "%s/%s", g.ID, q.ID)
			}
		}
		if g.NextGameID != "" {
			_, ok := c.Get(g.NextGameID)
			assert.True(t, ok, "%s links to %s", g.ID, g.NextGameID)
		}
	}
}

func TestParse_CorrectOptionShorthand(t *testing.T) {
	g, err := Parse([]byte(`
id: colors
title: Colors
kind: SINGLE_CHOICE
level: 1
questions:
  - id: sky
    prompt: What color is the sky?
    correct_option: blue
    options:
      - {id: blue, label: Blue}
      - {id: red, label: Red}
`))
	require.NoError(t, err)
	assert.True(t, g.Questions[0].Options[0].IsCorrect)
	assert.Equal(t, 1, g.RewardPerQuestion)
	assert.Equal(t, 1, g.TotalLevels)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "unknown field",
			doc:  "id: x\ntitle: X\nkind: SINGLE_CHOICE\nlevel: 1\ncolour: red\n",
		},
		{
			name: "multiple documents",
			doc:  "id: x\ntitle: X\nkind: MATCHING\nlevel: 1\ncards: [{id: a, pair: p}, {id: b, pair: p}]\n---\nid: y\n",
		},
		{
			name: "two correct options",
			doc: `id: x
title: X
kind: SINGLE_CHOICE
level: 1
questions:
  - id: q
    options: [{id: a, correct: true}, {id: b, correct: true}]
`,
		},
		{
			name: "conflicting correct_option",
			doc: `id: x
title: X
kind: TIMED_CHOICE
level: 1
questions:
  - id: q
    correct_option: b
    options: [{id: a, correct: true}, {id: b}]
`,
		},
		{
			name: "duplicate option id",
			doc: `id: x
title: X
kind: SINGLE_CHOICE
level: 1
questions:
  - id: q
    options: [{id: a, correct: true}, {id: a}]
`,
		},
		{
			name: "too few correct for picks",
			doc: `id: x
title: X
kind: MULTI_CHOICE
level: 1
questions:
  - id: q
    required_picks: 2
    options: [{id: a, correct: true}, {id: b}, {id: c}]
`,
		},
		{
			name: "free text without min length",
			doc: `id: x
title: X
kind: FREE_TEXT
level: 1
questions:
  - id: q
    prompt: Tell me
`,
		},
		{
			name: "unpaired card",
			doc:  "id: x\ntitle: X\nkind: MATCHING\nlevel: 1\ncards: [{id: a, pair: p}, {id: b, pair: q}]\n",
		},
		{
			name: "unknown kind",
			doc:  "id: x\ntitle: X\nkind: PUZZLE\nlevel: 1\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFS_CrossReferences(t *testing.T) {
	pair := "kind: MATCHING\nlevel: 1\ntitle: T\ncards: [{id: a, pair: p}, {id: b, pair: p}]\n"

	_, err := LoadFS(fstest.MapFS{
		"g/a.yaml": {Data: []byte("id: one\n" + pair)},
		"g/b.yaml": {Data: []byte("id: one\n" + pair)},
	}, "g")
	assert.ErrorIs(t, err, ErrInvalidGame)

	_, err = LoadFS(fstest.MapFS{
		"g/a.yaml": {Data: []byte("id: one\nnext_game: two\n" + pair)},
	}, "g")
	assert.ErrorIs(t, err, ErrInvalidGame)

	c, err := LoadFS(fstest.MapFS{
		"g/a.yaml":   {Data: []byte("id: one\nnext_game: two\n" + pair)},
		"g/b.yaml":   {Data: []byte("id: two\n" + pair)},
		"g/notes.md": {Data: []byte("ignored")},
	}, "g")
	require.NoError(t, err)
	assert.Len(t, c.List(), 2)
}

func TestSuggestPrompts(t *testing.T) {
	pool := []string{"a", "b", "c", "d", "e"}

	got := SuggestPrompts(pool, 3)
	assert.Len(t, got, 3)
	assert.Subset(t, pool, got)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, pool, "pool is not reordered")

	assert.Len(t, SuggestPrompts(pool, 10), 5)
	assert.Empty(t, SuggestPrompts(pool, -1))

	seen := map[string]bool{}
	for _, p := range SuggestPrompts(pool, 5) {
		assert.False(t, seen[p], "no duplicates")
		seen[p] = true
	}
}

func TestJournalQuestions(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	g, ok := c.Get("kindness-journal")
	require.True(t, ok)

	qs := JournalQuestions(g, 8)
	require.Len(t, qs, 3)
	for _, q := range qs {
		assert.Contains(t, g.PromptPool, q.Prompt)
		assert.Equal(t, 8, q.MinLength)
	}

	fixed, _ := c.Get("healthy-habits")
	assert.Equal(t, fixed.Questions, JournalQuestions(fixed, 8))
}
