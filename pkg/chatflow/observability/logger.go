// Package observability provides structured logging, metrics and
// tracing for the flow engine.
//
// Logging uses slog from the standard library; metrics and tracing
// use OpenTelemetry. Everything is opt-in with no-op implementations
// when disabled, so a bare engine pays nothing.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds conversation context to a logger: the session
// key and the node currently being interpreted.
func EnrichLogger(logger *slog.Logger, sessionKey, nodeID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("session", sessionKey),
		slog.String("node_id", nodeID),
	)
}

// LogAdvanceStart logs the start of one interpreter step.
func LogAdvanceStart(logger *slog.Logger, sessionKey, nodeID, kind string) {
	if logger == nil {
		return
	}
	logger.Debug("advancing flow",
		slog.String("session", sessionKey),
		slog.String("node_id", nodeID),
		slog.String("kind", kind),
	)
}

// LogAdvanceComplete logs a completed interpreter step.
func LogAdvanceComplete(logger *slog.Logger, sessionKey, nodeID string, next string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("flow advanced",
		slog.String("session", sessionKey),
		slog.String("node_id", nodeID),
		slog.String("next", next),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogAdvanceError logs a failed interpreter step.
func LogAdvanceError(logger *slog.Logger, sessionKey, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("flow step failed",
		slog.String("session", sessionKey),
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// LogSessionBlocked logs an action blocked by an expired window.
// This is policy, not failure, so it logs at Info.
func LogSessionBlocked(logger *slog.Logger, sessionKey, nodeID string) {
	if logger == nil {
		return
	}
	logger.Info("action blocked by expired session window",
		slog.String("session", sessionKey),
		slog.String("node_id", nodeID),
	)
}

// LogParked logs the interpreter parking on a choice node.
func LogParked(logger *slog.Logger, sessionKey, nodeID string) {
	if logger == nil {
		return
	}
	logger.Debug("flow parked awaiting choice",
		slog.String("session", sessionKey),
		slog.String("node_id", nodeID),
	)
}

// TimedOperation measures an operation's duration. The returned
// function reports the elapsed milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
