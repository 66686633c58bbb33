package retry

import (
	"context"
	"time"
)

// FixedPolicy allows a fixed number of attempts with a constant interval
// between them.
type FixedPolicy struct {
	attempted int
	attempts  int
	jitter    float64
	interval  time.Duration
	cooldown  time.Duration
}

var _ Policy = (*FixedPolicy)(nil)

// NewFixed creates a policy allowing up to attempts deliveries (including the
// first one) with a constant interval between them.
//
// The interval is randomized by a default jitter of 0.1; use WithJitter(0)
// for an exact interval.
func NewFixed(attempts int, interval time.Duration) *FixedPolicy {
	if attempts < 1 {
		panic("attempts can't be < 1")
	}
	if interval < 0 {
		panic("interval can't be < 0")
	}
	return &FixedPolicy{
		attempts: attempts,
		interval: interval,
		jitter:   0.1,
	}
}

func (r *FixedPolicy) WithJitter(jitter float64) *FixedPolicy {
	if jitter < 0 {
		panic("jitter can't be < 0")
	}
	if jitter >= 1 {
		panic("jitter can't be >= 1")
	}
	r.jitter = jitter
	return r
}

func (r *FixedPolicy) WithCooldown(cooldown time.Duration) *FixedPolicy {
	if cooldown < 0 {
		panic("cooldown can't be < 0")
	}
	r.cooldown = cooldown
	return r
}

func (r *FixedPolicy) Attempt(ctx context.Context) (ok bool) {
	defer func() {
		if ok {
			r.attempted += 1
		}
	}()

	if r.attempted == 0 {
		return true
	}

	if r.attempted >= r.attempts {
		return false
	}

	return wait(ctx, r.interval, r.jitter)
}

func (r *FixedPolicy) Cooldown() time.Duration {
	return r.cooldown
}

func (r *FixedPolicy) Derive() Policy {
	return NewFixed(r.attempts, r.interval).
		WithJitter(r.jitter).
		WithCooldown(r.cooldown)
}
