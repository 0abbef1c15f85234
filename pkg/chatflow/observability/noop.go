package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordNodeStep does nothing.
func (NoopMetrics) RecordNodeStep(_ context.Context, _ string, _ time.Duration, _ error) {}

// RecordSessionExpired does nothing.
func (NoopMetrics) RecordSessionExpired(_ context.Context, _ string) {}

// RecordTemplateSave does nothing.
func (NoopMetrics) RecordTemplateSave(_ context.Context, _ int64) {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan comes from the OTel noop package for a proper no-op span.
var noopSpan = noop.Span{}

// StartAdvanceSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartAdvanceSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
