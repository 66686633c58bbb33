package retry

import (
	"context"
	"time"
)

// LinearPolicy grows the interval between attempts by a constant step, from
// minInterval up to maxInterval.
type LinearPolicy struct {
	attempted   int
	attempts    int
	jitter      float64
	step        time.Duration
	minInterval time.Duration
	maxInterval time.Duration
	maxReached  bool
	cooldown    time.Duration
}

var _ Policy = (*LinearPolicy)(nil)

// NewLinear creates a policy allowing up to attempts deliveries (including the
// first one). The first wait uses minInterval and the last one maxInterval,
// with the step computed so that the waits are evenly spaced.
//
// Each wait is randomized by a default jitter of 0.1; use WithJitter(0) for
// exact intervals.
func NewLinear(attempts int, minInterval, maxInterval time.Duration) *LinearPolicy {
	if attempts < 1 {
		panic("attempts can't be < 1")
	}
	if minInterval <= 0 {
		panic("minInterval can't be <= 0")
	}
	if minInterval >= maxInterval {
		panic("minInterval can't be >= maxInterval")
	}

	var step time.Duration
	if attempts > 2 {
		step = (maxInterval - minInterval) / time.Duration(attempts-2)
	}

	return &LinearPolicy{
		attempts:    attempts,
		minInterval: minInterval,
		maxInterval: maxInterval,
		step:        step,
		jitter:      0.1,
	}
}

func (r *LinearPolicy) WithStep(step time.Duration) *LinearPolicy {
	if step <= 0 {
		panic("step can't be <= 0")
	}
	r.step = step
	return r
}

func (r *LinearPolicy) WithJitter(jitter float64) *LinearPolicy {
	if jitter < 0 {
		panic("jitter can't be < 0")
	}
	if jitter >= 1 {
		panic("jitter can't be >= 1")
	}
	r.jitter = jitter
	return r
}

func (r *LinearPolicy) WithCooldown(cooldown time.Duration) *LinearPolicy {
	if cooldown < 0 {
		panic("cooldown can't be < 0")
	}
	r.cooldown = cooldown
	return r
}

func (r *LinearPolicy) Attempt(ctx context.Context) (ok bool) {
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
		delta := r.step * time.Duration(r.attempted-1)
		interval = r.minInterval + delta
		if interval > r.maxInterval {
			r.maxReached = true
			interval = r.maxInterval
		}
	}

	return wait(ctx, interval, r.jitter)
}

func (r *LinearPolicy) Cooldown() time.Duration {
	return r.cooldown
}

func (r *LinearPolicy) Derive() Policy {
	derived := NewLinear(r.attempts, r.minInterval, r.maxInterval).
		WithJitter(r.jitter).
		WithCooldown(r.cooldown)
	// The step can legitimately be 0 for attempts <= 2, so WithStep is not used here.
	derived.step = r.step
	return derived
}
