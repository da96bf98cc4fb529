package textsource

import (
	"context"
	"time"
)

// RetryPolicy bounds polling for a host editor that is not loaded yet.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	// Backoff multiplies Delay after every failed attempt. Values <= 1 keep
	// the delay fixed.
	Backoff  float64
	MaxDelay time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 10, Delay: 250 * time.Millisecond, Backoff: 1.5, MaxDelay: 2 * time.Second}
}

// delay is the wait after the given failed attempt (0-based).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.Delay
	for i := 0; i < attempt && p.Backoff > 1; i++ {
		d = time.Duration(float64(d) * p.Backoff)
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Do calls fn until it reports done, fails, or attempts run out.
// It returns ErrNotReady when attempts are exhausted.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) (done bool, err error)) error {
	attempts := max(p.MaxAttempts, 1)
	for i := 0; i < attempts; i++ {
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if i == attempts-1 {
			break
		}
		t := time.NewTimer(p.delay(i))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return ErrNotReady
}
