// pkg/retry/retry.go - functions for retrying actions with exponential backoff.

package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
)

// NonRetryableError interface for errors that should not be retried
type NonRetryableError interface {
	error
	Unwrap() error
	NonRetryable() bool
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string      { return e.err.Error() }
func (e *permanentError) Unwrap() error      { return e.err }
func (e *permanentError) NonRetryable() bool { return true }

// Permanent marks err so that Retry gives up immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryConfig defines the configuration for retry attempts
type RetryConfig struct {
	MaxRetries      int // total number of attempts, including the first
	InitialInterval time.Duration
	Multiplier      float64

	// OnRetry replaces the default warning logged before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
	// Sleep replaces the context-aware timer, mainly for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Retry retries a given function with exponential backoff. The delay before
// retry n (0-based) is InitialInterval * Multiplier^n; no delay follows the
// final attempt.
func Retry(ctx context.Context, config RetryConfig, action func(ctx context.Context) error) error {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 1
	}
	sleep := config.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	interval := config.InitialInterval
	var lastErr error

	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		err := action(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		// Check if this is a non-retryable error
		var nonRetryableErr NonRetryableError
		if errors.As(err, &nonRetryableErr) && nonRetryableErr.NonRetryable() {
			logging.Debug("Non-retryable error encountered", "attempt", attempt, "error", err)
			return nonRetryableErr.Unwrap()
		}

		if attempt == config.MaxRetries {
			logging.Debug(fmt.Sprintf("Attempt %d/%d failed: %s. No more retries.",
				attempt, config.MaxRetries, describe(err)))
			break
		}

		if config.OnRetry != nil {
			config.OnRetry(attempt, err, interval)
		} else {
			logging.Warn(fmt.Sprintf("Attempt %d/%d failed: %s. Retrying in %s...",
				attempt, config.MaxRetries, describe(err), interval.String()))
		}

		if err := sleep(ctx, interval); err != nil {
			return fmt.Errorf("retry interrupted after %d attempts: %w", attempt, err)
		}
		interval = time.Duration(float64(interval) * config.Multiplier)
	}

	return fmt.Errorf("action failed after %d attempts: %w", config.MaxRetries, lastErr)
}

// describe improves the message for common 404 errors
func describe(err error) string {
	errorMsg := err.Error()
	if strings.Contains(strings.ToLower(errorMsg), "unexpected http status code: 404") {
		return "file not found (404): resource may have been moved or deleted"
	}
	return errorMsg
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
