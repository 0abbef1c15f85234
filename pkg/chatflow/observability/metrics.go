package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records flow engine metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeStep records one interpreted node with its duration
	// and error status.
	RecordNodeStep(ctx context.Context, kind string, duration time.Duration, err error)

	// RecordSessionExpired records a session window expiry.
	RecordSessionExpired(ctx context.Context, platform string)

	// RecordTemplateSave records a template snapshot with its size.
	RecordTemplateSave(ctx context.Context, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	nodeSteps       metric.Int64Counter
	nodeLatency     metric.Float64Histogram
	nodeErrors      metric.Int64Counter
	sessionExpiries metric.Int64Counter
	templateSize    metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("chatflow")

	nodeSteps, err := meter.Int64Counter("chatflow.node.steps",
		metric.WithDescription("Number of interpreted flow nodes"),
	)
	if err != nil {
		return nil, err
	}

	nodeLatency, err := meter.Float64Histogram("chatflow.node.latency_ms",
		metric.WithDescription("Node step latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nodeErrors, err := meter.Int64Counter("chatflow.node.errors",
		metric.WithDescription("Number of failed node steps"),
	)
	if err != nil {
		return nil, err
	}

	sessionExpiries, err := meter.Int64Counter("chatflow.session.expiries",
		metric.WithDescription("Number of expired session windows"),
	)
	if err != nil {
		return nil, err
	}

	templateSize, err := meter.Int64Histogram("chatflow.template.size_bytes",
		metric.WithDescription("Saved template size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeSteps:       nodeSteps,
		nodeLatency:     nodeLatency,
		nodeErrors:      nodeErrors,
		sessionExpiries: sessionExpiries,
		templateSize:    templateSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global
// OTel meter provider. If initialization fails it falls back to a
// no-op recorder. Configure the provider first:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordNodeStep records one interpreted node.
func (m *otelMetrics) RecordNodeStep(ctx context.Context, kind string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
	}

	m.nodeSteps.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.nodeErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordSessionExpired records a window expiry.
func (m *otelMetrics) RecordSessionExpired(ctx context.Context, platform string) {
	m.sessionExpiries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("platform", platform),
	))
}

// RecordTemplateSave records a template snapshot.
func (m *otelMetrics) RecordTemplateSave(ctx context.Context, sizeBytes int64) {
	m.templateSize.Record(ctx, sizeBytes)
}
