package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "json", slog.LevelWarn)

	logger.Info("dropped")
	logger.Warn("chunk failed", slog.Int("chunk", 3))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "chunk failed", entry["message"])
	assert.EqualValues(t, 3, entry["chunk"])
	assert.NotContains(t, buf.String(), "dropped")
}

func TestPlainLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "plain", slog.LevelDebug)

	logger.Debug("scanning", slog.String("component", "zilliqa"))

	assert.Contains(t, buf.String(), "scanning")
	assert.Contains(t, buf.String(), "component=zilliqa")
}
