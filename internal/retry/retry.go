// Package retry provides a small reusable retry policy for upstream calls:
// an attempt cap, an exponential backoff schedule, a per-attempt timeout,
// and cooperative cancellation. Call sites pass the action and a
// retryable-predicate instead of inlining retry loops.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes how an action is retried.
type Policy struct {
	// MaxAttempts caps total attempts (first call included). Values < 1
	// are treated as 1.
	MaxAttempts int
	// AttemptTimeout bounds each individual attempt, independent of the
	// caller's deadline, so one slow attempt cannot consume the whole
	// retry budget. Zero disables the per-attempt bound.
	AttemptTimeout time.Duration
	// NewBackOff produces a fresh schedule for each Do call.
	NewBackOff func() backoff.BackOff
	// Sleep waits between attempts. Tests inject a recording fake.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy returns a policy with an exponential schedule starting at
// initial and doubling up to ten times that.
func NewPolicy(maxAttempts int, attemptTimeout, initial time.Duration) Policy {
	return Policy{
		MaxAttempts:    maxAttempts,
		AttemptTimeout: attemptTimeout,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initial
			b.MaxInterval = 10 * initial
			return b
		},
		Sleep: sleepContext,
	}
}

// Do runs op until it succeeds, a non-retryable error occurs, the attempt
// cap is reached, or ctx is cancelled. op receives the attempt number
// (1-based) for logging.
func Do[T any](ctx context.Context, p Policy, retryable func(error) bool, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	var schedule backoff.BackOff
	if p.NewBackOff != nil {
		schedule = p.NewBackOff()
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		out, err := func() (T, error) {
			attemptCtx := ctx
			if p.AttemptTimeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, p.AttemptTimeout)
				defer cancel()
			}
			return op(attemptCtx, attempt)
		}()
		if err == nil {
			return out, nil
		}
		if attempt >= maxAttempts || !retryable(err) {
			return zero, err
		}

		wait := time.Duration(0)
		if schedule != nil {
			wait = schedule.NextBackOff()
			if wait == backoff.Stop {
				return zero, err
			}
		}
		if serr := sleep(ctx, wait); serr != nil {
			// Cancellation during backoff stops retrying immediately.
			return zero, serr
		}
	}
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
