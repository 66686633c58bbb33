package retry

import (
	"context"
	"time"
)

// ImmediatePolicy allows a fixed number of attempts with no waiting between
// them.
type ImmediatePolicy struct {
	attempted int
	attempts  int
	cooldown  time.Duration
}

var _ Policy = (*ImmediatePolicy)(nil)

// NewImmediate creates a policy allowing up to attempts deliveries (including
// the first one) without any delay between them.
func NewImmediate(attempts int) *ImmediatePolicy {
	if attempts < 1 {
		panic("attempts can't be < 1")
	}
	return &ImmediatePolicy{
		attempts: attempts,
	}
}

func (r *ImmediatePolicy) WithCooldown(cooldown time.Duration) *ImmediatePolicy {
	if cooldown < 0 {
		panic("cooldown can't be < 0")
	}
	r.cooldown = cooldown
	return r
}

func (r *ImmediatePolicy) Attempt(ctx context.Context) (ok bool) {
	defer func() {
		if ok {
			r.attempted += 1
		}
	}()

	if r.attempted >= r.attempts {
		return false
	}

	return ctx.Err() == nil
}

func (r *ImmediatePolicy) Cooldown() time.Duration {
	return r.cooldown
}

func (r *ImmediatePolicy) Derive() Policy {
	return NewImmediate(r.attempts).
		WithCooldown(r.cooldown)
}
