package retry

import (
	"context"
	"math"
	"time"
)

// ExponentialPolicy multiplies the interval between attempts by a constant
// base, from minInterval up to maxInterval.
type ExponentialPolicy struct {
	attempted   int
	attempts    int
	jitter      float64
	base        float64
	minInterval time.Duration
	maxInterval time.Duration
	maxReached  bool
	cooldown    time.Duration
}

var _ Policy = (*ExponentialPolicy)(nil)

// NewExponential creates a policy allowing up to attempts deliveries
// (including the first one). The first wait uses minInterval and every
// following wait is multiplied by the base (2 by default), capped at
// maxInterval.
//
// Each wait is randomized by a default jitter of 0.1; use WithJitter(0) for
// exact intervals.
func NewExponential(attempts int, minInterval, maxInterval time.Duration) *ExponentialPolicy {
	if attempts < 1 {
		panic("attempts can't be < 1")
	}
	if minInterval <= 0 {
		panic("minInterval can't be <= 0")
	}
	if minInterval >= maxInterval {
		panic("minInterval can't be >= maxInterval")
	}

	return &ExponentialPolicy{
		attempts:    attempts,
		minInterval: minInterval,
		maxInterval: maxInterval,
		base:        2,
		jitter:      0.1,
	}
}

func (r *ExponentialPolicy) WithBase(base float64) *ExponentialPolicy {
	if base <= 1 {
		panic("base can't be <= 1")
	}
	r.base = base
	return r
}

func (r *ExponentialPolicy) WithJitter(jitter float64) *ExponentialPolicy {
	if jitter < 0 {
		panic("jitter can't be < 0")
	}
	if jitter >= 1 {
		panic("jitter can't be >= 1")
	}
	r.jitter = jitter
	return r
}

func (r *ExponentialPolicy) WithCooldown(cooldown time.Duration) *ExponentialPolicy {
	if cooldown < 0 {
		panic("cooldown can't be < 0")
	}
	r.cooldown = cooldown
	return r
}

func (r *ExponentialPolicy) Attempt(ctx context.Context) (ok bool) {
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

	var interval time.Duration
	if r.maxReached {
		interval = r.maxInterval
	} else {
		multiplier := time.Duration(math.Pow(r.base, float64((r.attempted - 1))))
		interval = r.minInterval * multiplier
		if interval > r.maxInterval {
			r.maxReached = true
			interval = r.maxInterval
		}
	}

	return wait(ctx, interval, r.jitter)
}

func (r *ExponentialPolicy) Cooldown() time.Duration {
	return r.cooldown
}

func (r *ExponentialPolicy) Derive() Policy {
	return NewExponential(r.attempts, r.minInterval, r.maxInterval).
		WithBase(r.base).
		WithJitter(r.jitter).
		WithCooldown(r.cooldown)
}
