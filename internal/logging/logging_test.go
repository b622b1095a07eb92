package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithoutOutputIsNop(t *testing.T) {
	logger, err := New("debug", "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.ErrorLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("chatty", filepath.Join(t.TempDir(), "x.log"))
	assert.Error(t, err)
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "travelbot.log")
	logger, err := New("warn", path)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("geolocation failed", zap.String("session", "abc"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "geolocation failed", entry["msg"])
	assert.Equal(t, "abc", entry["session"])
	assert.Equal(t, "warn", entry["level"])
}
