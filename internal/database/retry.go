package database

import (
	"context"
	"time"
)

// RetryPolicy is an exponential backoff used while the database is still
// coming up. Zero fields fall back to a 1s start and doubling.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay is the pause after the given failed attempt, counting from 1.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	delay := r.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * factor)
		if r.MaxDelay > 0 && delay >= r.MaxDelay {
			return r.MaxDelay
		}
	}
	if r.MaxDelay > 0 && delay > r.MaxDelay {
		return r.MaxDelay
	}
	return delay
}

// Do runs fn until it succeeds, the retries are used up or ctx ends, and
// returns fn's last error.
func (r RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempt := 1
	err := fn(attempt)
	for err != nil && attempt <= r.MaxRetries {
		wait := time.NewTimer(r.NextDelay(attempt))
		select {
		case <-ctx.Done():
			wait.Stop()
			return err
		case <-wait.C:
		}
		attempt++
		err = fn(attempt)
	}
	return err
}
