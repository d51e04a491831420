package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogs points the default logger at a buffer for the duration of the
// test and returns it.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogInfo(t *testing.T) {
	buf := captureLogs(t)

	LogInfo("Import session parsed", Fields{"session_id": "sess-1", "staged": 3})

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "Import session parsed", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, float64(3), entry["staged"])
}

func TestLogError(t *testing.T) {
	buf := captureLogs(t)

	LogError(errors.New("database is locked"), "Failed to record session error",
		Fields{"session_id": "sess-1"})

	entry := decodeLogLine(t, buf)
	assert.Equal(t, "Failed to record session error", entry["msg"])
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "database is locked", entry["error"])
	assert.Equal(t, "sess-1", entry["session_id"])
}
