// ABOUTME: Retry utilities for upstream calls with exponential backoff
// ABOUTME: Shared by the OpenAI client and the Qdrant connection check
package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// CalculateBackoff returns exponential backoff with jitter
// Base delay is doubled each attempt, with random jitter up to 25%
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift (max 30 for safety)
	if attempt > 30 {
		attempt = 30
	}
	// Exponential: 2^attempt * base
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	// Cap at 30 seconds
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	// Add jitter: -25% to +25% using auto-seeded math/rand/v2
	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}

// SleepContext waits for d or until ctx is done, returning ctx.Err() in the latter case
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry calls fn up to attempts+1 times, backing off between failures.
// It stops early when retryable reports false or ctx is done; the last error is returned.
func Retry(ctx context.Context, attempts int, baseDelay time.Duration, retryable func(error) bool, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= attempts; attempt++ {
		if attempt > 0 {
			if err := SleepContext(ctx, CalculateBackoff(baseDelay, attempt)); err != nil {
				if lastErr != nil {
					return lastErr
				}
				return err
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil || (retryable != nil && !retryable(lastErr)) {
			return lastErr
		}
	}
	return lastErr
}
