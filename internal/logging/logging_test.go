package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelError, levelFromString("ERROR"))
	assert.Equal(t, slog.LevelWarn, levelFromString(" warning "))
	assert.Equal(t, slog.LevelInfo, levelFromString("info"))
	assert.Equal(t, slog.LevelDebug, levelFromString(""))
}

func TestJSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")
	logger.Debug("hidden")
	logger.With("component", "pipeline").Info("pipeline finished", "leads", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pipeline finished", entry["msg"])
	assert.Equal(t, "pipeline", entry["component"])
	assert.Equal(t, float64(2), entry["leads"])
}

func TestTextFormatIsDefault(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter(&buf, "debug", "").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello k=v")
}
