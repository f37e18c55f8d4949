package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "api", "info", "json")
	l.Debug().Msg("hidden")
	l.Info().Str("org_id", "X").Msg("hello")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "api", entry["component"])
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "X", entry["org_id"])
	assert.Contains(t, entry, "time")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "cli", "debug", "console")
	l.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "component")
	assert.Contains(t, buf.String(), "cli")
}

func TestNewWithWriter_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "x", "loud", "json")
	l.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
	l.Info().Msg("shown")
	assert.NotEmpty(t, buf.String())
}
