package runtime

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/registry"
)

// RetryPolicy controls how failed invocations are retried.
// A node is retried while its attempt counter is at most Limit.
type RetryPolicy struct {
	Limit      int
	Backoff    time.Duration // Wait before the first retry
	Multiplier float64       // Growth factor per retry
	MaxBackoff time.Duration
}

// DefaultRetryPolicy retries twice, starting at 200ms and doubling up to 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Limit:      2,
		Backoff:    200 * time.Millisecond,
		Multiplier: 2.0,
		MaxBackoff: 5 * time.Second,
	}
}

// Delay returns the wait before the retry that follows failure number attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.Backoff <= 0 || attempt < 1 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := time.Duration(float64(p.Backoff) * math.Pow(mult, float64(attempt-1)))
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

// retryable reports whether another attempt could change the outcome.
func retryable(err error) bool {
	switch {
	case errors.Is(err, registry.ErrInputRejected),
		errors.Is(err, registry.ErrInvalidHandle),
		errors.Is(err, domain.ErrPluginNotFound):
		return false
	}
	return true
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
