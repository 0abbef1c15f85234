// Package retry provides bounded exponential backoff for external
// calls made by the flow interpreter.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Config controls retry behavior.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration

	// BackoffFactor multiplies the delay after each failed attempt.
	BackoffFactor float64

	// Jitter is the random jitter fraction (0.0 to 1.0).
	Jitter float64

	// Retryable optionally limits which errors are retried.
	// When nil, every error is retried until attempts run out.
	Retryable func(error) bool
}

// Default retries an external call three times with exponential backoff.
var Default = Config{
	MaxAttempts:    3,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     10 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// None disables retries.
var None = Config{MaxAttempts: 1}

// Result reports the outcome of a retried operation.
type Result[T any] struct {
	// Value is the successful result.
	Value T

	// Err is the last error when every attempt failed.
	Err error

	// Attempts is how many attempts were made.
	Attempts int
}

// Do executes fn with retries, respecting context cancellation both
// between attempts and during backoff sleeps.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) Result[T] {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	backoff := cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result[T]{Err: err, Attempts: attempt - 1}
		}

		value, err := fn(ctx)
		if err == nil {
			return Result[T]{Value: value, Attempts: attempt}
		}
		lastErr = err

		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return Result[T]{Err: err, Attempts: attempt}
		}

		if attempt < cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return Result[T]{Err: ctx.Err(), Attempts: attempt}
			case <-time.After(withJitter(backoff, cfg.Jitter)):
			}

			backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
			if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}
	}

	return Result[T]{Err: lastErr, Attempts: cfg.MaxAttempts}
}

// withJitter spreads a delay by +/- base*jitter.
func withJitter(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 || base <= 0 {
		return base
	}
	offset := float64(base) * jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(base) + offset)
}
