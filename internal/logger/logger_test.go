package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONCarriesService(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.InfoLevel, "json", "kidquest-server")

	log.Debug().Msg("dropped")
	log.Info().Str("session_id", "s1").Msg("Play session started")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug is below the configured level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kidquest-server", entry["service"])
	assert.Equal(t, "s1", entry["session_id"])
	assert.Equal(t, "Play session started", entry["message"])
	assert.Contains(t, entry, "caller")
}

func TestNew_PrettyIsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.DebugLevel, "pretty", "kidquest-migrate")

	log.Info().Msg("Migrated up")
	out := buf.String()
	assert.Contains(t, out, "Migrated up")
	assert.Contains(t, out, "kidquest-migrate")
	assert.False(t, json.Valid([]byte(strings.TrimSpace(out))))
}
