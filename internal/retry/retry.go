// Package retry provides a retry mechanism with exponential backoff for the
// HTTP client. Only transient failures are retried: transport errors,
// timeouts, and server-class (5xx) responses. Client-class (4xx) responses
// are never retried.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = 1 * time.Second
	defaultMaxDelay     = 10 * time.Second
)

// Config represents retry configuration.
type Config struct {
	MaxAttempts    int           // Maximum number of attempts (default: 3)
	InitialBackoff time.Duration // First backoff duration (default: 1s)
	MaxBackoff     time.Duration // Backoff cap (default: 10s)
}

// StatusError is implemented by errors that carry an HTTP status code.
// The api package's HTTPError satisfies it.
type StatusError interface {
	error
	HTTPStatus() int
}

// Do executes fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is exhausted. Context cancellation is honored between
// attempts and during backoff.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialDelay
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxDelay
	}

	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-time.After(calculateBackoff(attempt, cfg.InitialBackoff, cfg.MaxBackoff)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
}

// IsRetryable classifies an error. Server-class HTTP statuses (>=500) and
// 429, network timeouts, and transport-level failures are retryable;
// everything else, including all other 4xx statuses and context
// cancellation, is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr StatusError
	if errors.As(err, &statusErr) {
		status := statusErr.HTTPStatus()
		return status >= 500 || status == 429
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Unknown error, not retryable by default.
	return false
}

// calculateBackoff returns 2^attempt * initial, capped at max.
func calculateBackoff(attempt int, initial, max time.Duration) time.Duration {
	backoff := time.Duration(1<<uint(attempt)) * initial
	if backoff > max {
		return max
	}
	return backoff
}
