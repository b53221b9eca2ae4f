// Package deadline tracks the soft wall-clock budget of a single pipeline run.
package deadline

import (
	"context"
	"time"
)

// Deadline is created once per run and read-only afterwards.
type Deadline struct {
	start  time.Time
	budget time.Duration
	now    func() time.Time
}

// New starts the clock now.
func New(budget time.Duration) Deadline {
	return NewWithClock(budget, time.Now)
}

// NewWithClock lets tests control time.
func NewWithClock(budget time.Duration, now func() time.Time) Deadline {
	if now == nil {
		now = time.Now
	}
	return Deadline{start: now(), budget: budget, now: now}
}

// Budget returns the configured soft budget.
func (d Deadline) Budget() time.Duration {
	return d.budget
}

// Elapsed is measured on the monotonic clock when the default clock is used.
func (d Deadline) Elapsed() time.Duration {
	return d.now().Sub(d.start)
}

// Remaining never goes negative.
func (d Deadline) Remaining() time.Duration {
	left := d.budget - d.Elapsed()
	if left < 0 {
		return 0
	}
	return left
}

// Exceeded reports whether the whole budget is spent.
func (d Deadline) Exceeded() bool {
	return d.Remaining() == 0
}

// HasAtLeast reports whether at least want remains.
func (d Deadline) HasAtLeast(want time.Duration) bool {
	return d.Remaining() >= want
}

// Context bounds ctx by the remaining budget minus reserve. The returned
// context is already done when nothing is left.
func (d Deadline) Context(ctx context.Context, reserve time.Duration) (context.Context, context.CancelFunc) {
	window := d.Remaining() - reserve
	if window < 0 {
		window = 0
	}
	return context.WithTimeout(ctx, window)
}
