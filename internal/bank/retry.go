package bank

import (
	"context"
	"time"
)

const (
	DefaultMaxRetries     = 2
	DefaultInitialBackoff = time.Second
)

// RetryPolicy decides whether and when a failed charge is attempted again.
// Backoff and Retryable are optional; nil means exponential backoff from
// InitialBackoff and retrying only transient kinds.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	Backoff        func(attempt int) time.Duration
	Retryable      func(err *Error) bool
}

func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(DefaultMaxRetries, DefaultInitialBackoff)
}

func NewRetryPolicy(maxRetries int, initialBackoff time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxRetries:     maxRetries,
		InitialBackoff: initialBackoff,
	}
}

// ExponentialBackoff returns initial * 2^(attempt-1) for attempt >= 1.
func ExponentialBackoff(initial time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			return 0
		}
		return initial << (attempt - 1)
	}
}

func (p RetryPolicy) retries() int {
	if p.MaxRetries < 0 {
		return 0
	}
	return p.MaxRetries
}

// Delay is the wait before retry number attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.Backoff != nil {
		return p.Backoff(attempt)
	}
	return ExponentialBackoff(p.InitialBackoff)(attempt)
}

func (p RetryPolicy) ShouldRetry(err *Error) bool {
	if err == nil {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return err.Kind.Transient()
}

// TotalBackoff is the sum of all waits when every retry is used.
func (p RetryPolicy) TotalBackoff() time.Duration {
	var total time.Duration
	for attempt := 1; attempt <= p.retries(); attempt++ {
		total += p.Delay(attempt)
	}
	return total
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
