package retry

import (
	"context"
	"slices"
	"time"
)

// SequencePolicy walks an ordered sequence of intervals between attempts.
//
// The first wait uses the first interval, the second wait the second one, and
// so on. Once the sequence is exhausted the last interval is reused for all
// remaining attempts.
type SequencePolicy struct {
	attempted int
	attempts  int
	jitter    float64
	intervals []time.Duration
	cooldown  time.Duration
}

var _ Policy = (*SequencePolicy)(nil)

// NewSequence creates a policy allowing up to attempts deliveries (including
// the first one) with the provided intervals between them.
//
// Each interval is randomized by a default jitter of 0.1; use WithJitter(0)
// for exact intervals.
func NewSequence(attempts int, intervals ...time.Duration) *SequencePolicy {
	if attempts < 1 {
		panic("attempts can't be < 1")
	}
	if len(intervals) == 0 {
		panic("intervals can't be empty")
	}
	for _, interval := range intervals {
		if interval < 0 {
			panic("interval can't be < 0")
		}
	}
	return &SequencePolicy{
		attempts:  attempts,
		intervals: slices.Clone(intervals),
		jitter:    0.1,
	}
}

func (r *SequencePolicy) WithJitter(jitter float64) *SequencePolicy {
	if jitter < 0 {
		panic("jitter can't be < 0")
	}
	if jitter >= 1 {
		panic("jitter can't be >= 1")
	}
	r.jitter = jitter
	return r
}

func (r *SequencePolicy) WithCooldown(cooldown time.Duration) *SequencePolicy {
	if cooldown < 0 {
		panic("cooldown can't be < 0")
	}
	r.cooldown = cooldown
	return r
}

func (r *SequencePolicy) Attempt(ctx context.Context) (ok bool) {
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

	interval := r.intervals[min(r.attempted-1, len(r.intervals)-1)]

	return wait(ctx, interval, r.jitter)
}

func (r *SequencePolicy) Cooldown() time.Duration {
	return r.cooldown
}

func (r *SequencePolicy) Derive() Policy {
	return NewSequence(r.attempts, r.intervals...).
		WithJitter(r.jitter).
		WithCooldown(r.cooldown)
}
