package structlog

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New("fleetd", LevelInfo, &buf)

	logger.Info("slot reserved", Fields{"slot_id": "abc", "capacity": 5})

	entry := logLine(t, &buf)
	assert.Equal(t, "fleetd", entry["service"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "slot reserved", entry["message"])
	assert.Equal(t, "abc", entry["slot_id"])
	assert.NotEmpty(t, entry["ts"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New("fleetd", LevelWarn, &buf)

	logger.Debug("hidden", nil)
	logger.Info("hidden", nil)
	assert.Zero(t, buf.Len(), "below-threshold levels must not emit")

	logger.Warn("shown", nil)
	assert.NotZero(t, buf.Len())
}

func TestLoggerMasksSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New("fleetd", LevelInfo, &buf)

	logger.Info("notify", Fields{"password": "hunter2", "phone": "+15550100", "user": "demo"})

	entry := logLine(t, &buf)
	assert.Equal(t, "MASKED", entry["password"])
	assert.Equal(t, "MASKED", entry["phone"])
	assert.Equal(t, "demo", entry["user"])
}

func TestWithContextCarriesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := New("fleetd", LevelInfo, &buf)

	id := NewCorrelationID()
	ctx := WithCorrelationID(context.Background(), id)
	logger.WithContext(ctx).Info("traced", nil)

	entry := logLine(t, &buf)
	assert.Equal(t, id, entry["correlation_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}
