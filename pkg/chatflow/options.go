package chatflow

import (
	"log/slog"
	"time"

	"github.com/waveline/chatflow/pkg/chatflow/observability"
	"github.com/waveline/chatflow/pkg/chatflow/retry"
)

// interpreterConfig holds interpreter behavior knobs.
type interpreterConfig struct {
	logger      *slog.Logger
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	retry       retry.Config
	httpTimeout time.Duration
}

// defaultInterpreterConfig returns the default configuration: no
// logging, no-op observability, default retry policy, 5s HTTP timeout.
func defaultInterpreterConfig() interpreterConfig {
	return interpreterConfig{
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
		retry:       retry.Default,
		httpTimeout: 5 * time.Second,
	}
}

// InterpreterOption configures an Interpreter.
type InterpreterOption func(*interpreterConfig)

// WithLogger enables structured logging of interpreter steps.
func WithLogger(logger *slog.Logger) InterpreterOption {
	return func(c *interpreterConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Use
// observability.NewMetricsRecorder() for OTel metrics.
func WithMetrics(m observability.MetricsRecorder) InterpreterOption {
	return func(c *interpreterConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpans sets the span manager. Use observability.NewSpanManager()
// for OTel tracing.
func WithSpans(s observability.SpanManager) InterpreterOption {
	return func(c *interpreterConfig) {
		if s != nil {
			c.spans = s
		}
	}
}

// WithRetry sets the retry policy for ApiRequest calls.
// Default: retry.Default (3 attempts, exponential backoff).
func WithRetry(cfg retry.Config) InterpreterOption {
	return func(c *interpreterConfig) {
		c.retry = cfg
	}
}

// WithHTTPTimeout sets the per-attempt timeout for ApiRequest calls
// when a node does not configure its own. Default: 5s.
func WithHTTPTimeout(d time.Duration) InterpreterOption {
	return func(c *interpreterConfig) {
		if d > 0 {
			c.httpTimeout = d
		}
	}
}
