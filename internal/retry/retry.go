// Package retry runs outbound operations with a per-attempt timeout and
// exponential backoff with jitter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultJitter is the upper bound of the random delay added to each backoff.
	DefaultJitter = 500 * time.Millisecond
	// NoJitter disables the random component; used by latency-critical tests.
	NoJitter time.Duration = -1
)

// ErrTimeout is returned when an attempt outlives Policy.Timeout.
var ErrTimeout = errors.New("operation timed out")

// Policy is attached per call site; it is a value, never shared mutable state.
type Policy struct {
	Retries   int
	BaseDelay time.Duration
	Timeout   time.Duration
	Label     string
	Jitter    time.Duration
}

// Backoff returns base * 2^attempt + jitter.
func Backoff(base time.Duration, attempt int, jitter time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return base*time.Duration(1<<attempt) + jitter
}

func (p Policy) jitter() time.Duration {
	bound := p.Jitter
	if bound == 0 {
		bound = DefaultJitter
	}
	if bound < 0 {
		return 0
	}
	return rand.N(bound)
}

// exponential feeds Backoff into backoff.Retry: base * 2^n + jitter for the
// n-th retry.
type exponential struct {
	policy  Policy
	attempt int
}

var _ backoff.BackOff = (*exponential)(nil)

func (e *exponential) NextBackOff() time.Duration {
	d := Backoff(e.policy.BaseDelay, e.attempt, e.policy.jitter())
	e.attempt++
	return d
}

func (e *exponential) Reset() {
	e.attempt = 0
}

// Do runs op until it succeeds or the policy is exhausted. A timeout counts as
// a failure like any returned error. Timed-out attempts are abandoned: their
// goroutine keeps running until op observes its cancelled context.
func Do[T any](ctx context.Context, logger *slog.Logger, p Policy, op func(context.Context) (T, error)) (T, error) {
	retries := max(p.Retries, 0)
	attempt := 0

	val, err := backoff.Retry(ctx,
		func() (T, error) {
			attempt++
			return runAttempt(ctx, p.Timeout, op)
		},
		backoff.WithBackOff(&exponential{policy: p}),
		backoff.WithMaxTries(uint(retries)+1),
		backoff.WithNotify(func(err error, delay time.Duration) {
			if logger == nil {
				return
			}
			logger.Warn("retrying operation",
				"label", p.Label,
				"attempt", attempt,
				"retries", retries,
				"delay", delay,
				"error", err,
			)
		}),
	)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", p.Label, err)
	}
	return val, nil
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		val, err := op(attemptCtx)
		done <- outcome{val: val, err: err}
	}()

	select {
	case res := <-done:
		return res.val, res.err
	case <-attemptCtx.Done():
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}
