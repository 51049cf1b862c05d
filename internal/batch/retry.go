package batch

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds how often a failed chunk is retried. Attempts
// counts the first try, so MaxAttempts 3 means two retries.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 100 * time.Millisecond}
}

// ErrRetriesExhausted wraps the last chunk error once all attempts are
// spent.
var ErrRetriesExhausted = errors.New("chunk_retries_exhausted")

func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	return p
}

// Do runs fn until it succeeds or the attempts are spent. Context
// cancellation stops the loop immediately.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error, onRetry func(attempt int, err error)) error {
	p = p.normalize()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}

		if attempt < p.MaxAttempts {
			if onRetry != nil {
				onRetry(attempt, lastErr)
			}
			if p.Backoff > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(p.Backoff):
				}
			}
		}
	}

	return errors.Join(ErrRetriesExhausted, lastErr)
}
