package services

import (
	"context"
	"time"
)

// RetryConfig bounds calls to external AI services: a per-attempt timeout
// and a small number of retries with exponential backoff. Exhausting the
// budget converts to a typed failure rather than hanging.
type RetryConfig struct {
	// Attempts is the total number of tries (first call + retries).
	Attempts int

	// BaseDelay is the delay before the first retry; it doubles each retry.
	BaseDelay time.Duration

	// AttemptTimeout bounds each individual attempt.
	AttemptTimeout time.Duration
}

// DefaultRetryConfig returns sensible defaults (two retries, matching the
// extraction pipeline's retry budget).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:       3,
		BaseDelay:      500 * time.Millisecond,
		AttemptTimeout: 30 * time.Second,
	}
}

// withRetry runs fn up to cfg.Attempts times, backing off exponentially
// between attempts. Returns nil on the first success, the last error after
// exhaustion, or the context error if cancelled while waiting.
func withRetry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if cfg.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.AttemptTimeout)
		}
		err := fn(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}
