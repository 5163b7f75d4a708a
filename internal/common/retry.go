package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reportaudit/internal/service"
)

// ErrMaxRetries indicates that all retry attempts have been exhausted.
var ErrMaxRetries = errors.New("max retries exceeded")

// RetryableError wraps an error with retry-specific metadata. Wrapping with
// Retryable=false makes WithRetry give up immediately, which the classifier
// uses for open circuit breakers and cancelled contexts.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// WithRetry runs the operation with exponential backoff until it succeeds,
// the attempts run out, the context ends, or a non-retryable error surfaces.
// The last operation error is always wrapped into the returned one.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	opts = withRetryDefaults(opts)

	var lastErr error
	delay := opts.InitialDelay

	for attempt := 1; ; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		var re *RetryableError
		if errors.As(lastErr, &re) && !re.Retryable {
			return lastErr
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %v", ErrMaxRetries, attempt, lastErr)
		}

		slog.Debug("Retrying after failure",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"backoff", delay,
			"error", lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * opts.Multiplier)
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
}

func withRetryDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}
	return opts
}
