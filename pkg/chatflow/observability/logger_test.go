package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLogger returns a debug-level logger writing JSON lines to buf.
func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	return logger, buf
}

// lastRecord decodes the final log line in buf.
func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var data map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &data))
	return data
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds session and node attributes", func(t *testing.T) {
		logger, buf := newTestLogger()

		enriched := EnrichLogger(logger, "whatsapp/+15550001111", "node-1")
		enriched.Info("hello")

		rec := lastRecord(t, buf)
		assert.Equal(t, "whatsapp/+15550001111", rec["session"])
		assert.Equal(t, "node-1", rec["node_id"])
	})

	t.Run("nil logger", func(t *testing.T) {
		assert.Nil(t, EnrichLogger(nil, "k", "n"))
	})
}

func TestLogAdvance(t *testing.T) {
	t.Run("start logs at debug", func(t *testing.T) {
		logger, buf := newTestLogger()

		LogAdvanceStart(logger, "k", "n1", "text")

		rec := lastRecord(t, buf)
		assert.Equal(t, "DEBUG", rec["level"])
		assert.Equal(t, "advancing flow", rec["msg"])
		assert.Equal(t, "text", rec["kind"])
	})

	t.Run("complete includes next node and duration", func(t *testing.T) {
		logger, buf := newTestLogger()

		LogAdvanceComplete(logger, "k", "n1", "n2", 12.5)

		rec := lastRecord(t, buf)
		assert.Equal(t, "n2", rec["next"])
		assert.Equal(t, 12.5, rec["duration_ms"])
	})

	t.Run("error logs at error level", func(t *testing.T) {
		logger, buf := newTestLogger()

		LogAdvanceError(logger, "k", "n1", errors.New("sink unavailable"))

		rec := lastRecord(t, buf)
		assert.Equal(t, "ERROR", rec["level"])
		assert.Equal(t, "sink unavailable", rec["error"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		LogAdvanceStart(nil, "k", "n", "text")
		LogAdvanceComplete(nil, "k", "n", "m", 1)
		LogAdvanceError(nil, "k", "n", errors.New("x"))
		LogSessionBlocked(nil, "k", "n")
		LogParked(nil, "k", "n")
	})
}

func TestLogSessionBlocked(t *testing.T) {
	logger, buf := newTestLogger()

	LogSessionBlocked(logger, "whatsapp/+15550001111", "n1")

	// Blocked actions are policy, not failures
	rec := lastRecord(t, buf)
	assert.Equal(t, "INFO", rec["level"])
}

func TestLogParked(t *testing.T) {
	logger, buf := newTestLogger()

	LogParked(logger, "k", "n1")

	rec := lastRecord(t, buf)
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "flow parked awaiting choice", rec["msg"])
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	elapsed := done()
	assert.GreaterOrEqual(t, elapsed, float64(5))
}
