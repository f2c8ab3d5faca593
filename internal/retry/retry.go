// Package retry implements a bounded retry policy with exponential or
// server-directed backoff for rate-limited remote calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// RateLimitError marks an operation failure as retryable. RetryAfter carries
// the server-provided wait hint when the error payload included one.
type RateLimitError struct {
	RetryAfter time.Duration // 0 when the server gave no hint
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// Policy bounds retries of rate-limited operations. Only errors wrapped in
// *RateLimitError are retried; everything else propagates immediately.
type Policy struct {
	MaxRetries int           // retries after the first attempt; total attempts = MaxRetries+1
	BaseDelay  time.Duration // first computed backoff delay
	MaxDelay   time.Duration // backoff cap
	Jitter     bool          // randomize computed delays within [d/2, d)

	// OnRetry, if set, is invoked before each sleep with the upcoming
	// attempt number (1-based) and the chosen delay.
	OnRetry func(attempt int, delay time.Duration)

	// Sleep overrides the wait between attempts; tests use it to avoid
	// real delays. nil means a context-aware timer sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy matches the service's standard embedding retry budget.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 5,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   30 * time.Second,
		Jitter:     true,
	}
}

// Do runs op, retrying rate-limited failures with backoff until success or
// the retry budget is exhausted. A server-provided RetryAfter hint overrides
// the computed delay for that attempt.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		var rl *RateLimitError
		if !errors.As(err, &rl) {
			return err
		}
		if attempt >= p.MaxRetries {
			return err
		}

		delay := rl.RetryAfter
		if delay <= 0 {
			delay = p.backoff(attempt)
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay)
		}
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// backoff computes min(BaseDelay * 2^attempt, MaxDelay), optionally jittered.
func (p Policy) backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt && d < p.MaxDelay; i++ {
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 1 {
		d = d/2 + rand.N(d/2)
	}
	return d
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
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
