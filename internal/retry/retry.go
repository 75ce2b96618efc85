// Package retry re-sends idempotent API reads that failed transiently.
// Mutations are never retried: a repeated DELETE or PUT could act twice.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"stopro/roster/internal/domain"
)

// Attempt describes a failed try that is about to be repeated.
type Attempt struct {
	N     int
	Err   error
	Delay time.Duration
}

// Policy bounds how often and how long a read is retried.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// OnRetry, when set, runs before each wait.
	OnRetry func(Attempt)
}

// DefaultPolicy is used by the API client unless overridden.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, BaseDelay: 400 * time.Millisecond, MaxDelay: 5 * time.Second}
}

// Do runs fn until it succeeds, fails permanently or the attempts run out.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := max(p.Attempts, 1)

	var err error
	for n := 1; n <= attempts; n++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = fn(ctx); err == nil || n == attempts || !Transient(err) {
			return err
		}

		delay := p.delay(n, err)
		if p.OnRetry != nil {
			p.OnRetry(Attempt{N: n, Err: err, Delay: delay})
		}
		if !wait(ctx, delay) {
			return ctx.Err()
		}
	}
	return err
}

// Transient reports whether err is worth another try: the server was
// unreachable, overloaded, throttling or slow.
func Transient(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, domain.ErrUnreachable),
		errors.Is(err, domain.ErrRateLimited),
		errors.Is(err, domain.ErrServer):
		return true
	}
	return false
}

// delay honours a server Retry-After, capped by MaxDelay. Otherwise it
// doubles BaseDelay per attempt and keeps half of it plus random jitter.
func (p Policy) delay(n int, err error) time.Duration {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return capDelay(apiErr.RetryAfter, p.MaxDelay)
	}
	if p.BaseDelay <= 0 {
		return 0
	}

	d := capDelay(p.BaseDelay<<(n-1), p.MaxDelay)
	half := d / 2
	return half + rand.N(half+1)
}

func capDelay(d, limit time.Duration) time.Duration {
	if limit > 0 && d > limit {
		return limit
	}
	return d
}

func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
