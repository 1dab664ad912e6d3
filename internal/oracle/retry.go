package oracle

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"
)

// RetryConfig controls backoff for retryable oracle failures.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig keeps the total wait under about a minute for
// transient failures while still honoring rate-limit hints.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// delayFor returns the wait before the given retry attempt (1-based).
// A RetryAfter hint from the provider wins over the computed backoff.
func (c RetryConfig) delayFor(attempt int, err error) time.Duration {
	var oerr *Error
	if errors.As(err, &oerr) && oerr.RetryAfter > 0 {
		return oerr.RetryAfter
	}
	delay := c.BaseDelay << uint(attempt-1)
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	// Full jitter avoids synchronized retries from concurrent exports.
	return time.Duration(rand.Int63n(int64(delay)) + int64(delay)/2)
}

// withRetry runs fn until it succeeds, fails non-retryably, or the
// attempt budget is spent.
func withRetry(ctx context.Context, cfg RetryConfig, logger *slog.Logger, fn func() error) error {
	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == cfg.MaxAttempts {
			return err
		}
		delay := cfg.delayFor(attempt, err)
		logger.Warn("oracle call failed, retrying",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"delay", delay,
			"error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
