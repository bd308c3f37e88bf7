package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: LevelInfo, Output: &buf})
	require.NoError(t, err)

	log := l.Component("puppet")
	log.Debug().Msg("hidden")
	log.Info().Str("avatar", "a1").Msg("Avatar ready")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug lines are filtered at info level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "puppet", entry["component"])
	assert.Equal(t, "cortexpuppet", entry["app"])
	assert.Equal(t, "a1", entry["avatar"])
	assert.Equal(t, "Avatar ready", entry["message"])
}

func TestLogFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New(&Config{LogDir: dir, Level: LevelDebug})
	require.NoError(t, err)

	zl := l.Zerolog()
	zl.Warn().Msg("written to file")
	require.NoError(t, l.Close())

	require.NotEmpty(t, l.GetLogPath())
	data, err := os.ReadFile(l.GetLogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), "Logger initialized")
}
