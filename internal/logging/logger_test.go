package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	cfg := DefaultConfig()
	cfg.Level = "warn"
	cfg.OutputPaths = []string{path}

	l, err := New(cfg)
	require.NoError(t, err)
	l.Info("dropped")
	l.Warn("kept")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewDevelopment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	cfg := Config{Level: "debug", Development: true, OutputPaths: []string{path}}

	l, err := New(cfg)
	require.NoError(t, err)
	l.Debug("hello")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.False(t, strings.HasPrefix(string(data), "{"))
}
