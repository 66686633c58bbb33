package retry_test

import (
	"context"
	"testing"
	"time"

	"github.com/teenjuna/redrain"
	"github.com/teenjuna/redrain/internal/testing/require"
	"github.com/teenjuna/redrain/retry"
)

var _ redrain.RetryPolicy = (*retry.SequencePolicy)(nil)

func TestNewSequence(t *testing.T) {
	run(t, "With attempts and intervals", func(t *testing.T) {
		p := retry.NewSequence(5, time.Second, time.Second*2)
		require.NotNil(t, p)
		require.Equal(t, p.Cooldown(), time.Duration(0))
	})

	run(t, "With attempts, intervals, jitter and cooldown", func(t *testing.T) {
		p := retry.NewSequence(5, time.Second, time.Second*2).
			WithJitter(0.1).
			WithCooldown(time.Second)
		require.NotNil(t, p)
		require.Equal(t, p.Cooldown(), time.Second)
	})

	run(t, "With invalid attempts", func(t *testing.T) {
		require.PanicWithError(t, "attempts can't be < 1", func() {
			_ = retry.NewSequence(0, time.Second)
		})
	})

	run(t, "Without intervals", func(t *testing.T) {
		require.PanicWithError(t, "intervals can't be empty", func() {
			_ = retry.NewSequence(5)
		})
	})

	run(t, "With invalid interval", func(t *testing.T) {
		require.PanicWithError(t, "interval can't be < 0", func() {
			_ = retry.NewSequence(5, time.Second, -1)
		})
	})

	run(t, "With invalid jitter", func(t *testing.T) {
		require.PanicWithError(t, "jitter can't be < 0", func() {
			_ = retry.NewSequence(5, time.Second).WithJitter(-0.1)
		})
		require.PanicWithError(t, "jitter can't be >= 1", func() {
			_ = retry.NewSequence(5, time.Second).WithJitter(1)
		})
	})

	run(t, "With invalid cooldown", func(t *testing.T) {
		require.PanicWithError(t, "cooldown can't be < 0", func() {
			_ = retry.NewSequence(5, time.Second).WithCooldown(time.Duration(-1))
		})
	})
}

func TestSequenceAttempt(t *testing.T) {
	run(t, "Walks the intervals in order", func(t *testing.T) {
		p := retry.NewSequence(4, time.Second, time.Second*3, time.Second*2).WithJitter(0.1)
		f := delayFunc(t, 0.1)
		f(0, func() { require.Equal(t, p.Attempt(t.Context()), true) })
		f(time.Second, func() { require.Equal(t, p.Attempt(t.Context()), true) })
		f(time.Second*3, func() { require.Equal(t, p.Attempt(t.Context()), true) })
		f(time.Second*2, func() { require.Equal(t, p.Attempt(t.Context()), true) })
		f(0, func() { require.Equal(t, p.Attempt(t.Context()), false) })
	})

	run(t, "Reuses the last interval", func(t *testing.T) {
		p := retry.NewSequence(5, time.Second, time.Second*2).WithJitter(0.1)
		f := delayFunc(t, 0.1)
		f(0, func() { require.Equal(t, p.Attempt(t.Context()), true) })
		f(time.Second, func() { require.Equal(t, p.Attempt(t.Context()), true) })
		f(time.Second*2, func() { require.Equal(t, p.Attempt(t.Context()), true) })
		f(time.Second*2, func() { require.Equal(t, p.Attempt(t.Context()), true) })
		f(time.Second*2, func() { require.Equal(t, p.Attempt(t.Context()), true) })
		f(0, func() { require.Equal(t, p.Attempt(t.Context()), false) })
	})

	run(t, "Single attempt", func(t *testing.T) {
		p := retry.NewSequence(1, time.Second).WithJitter(0.1)
		f := delayFunc(t, 0.1)
		f(0, func() { require.Equal(t, p.Attempt(t.Context()), true) })
		f(0, func() { require.Equal(t, p.Attempt(t.Context()), false) })
	})

	run(t, "Context cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		p := retry.NewSequence(5, time.Second).WithJitter(0.1)
		f := delayFunc(t, 0.1)
		f(0, func() { require.Equal(t, p.Attempt(ctx), true) })
		f(time.Second, func() { require.Equal(t, p.Attempt(ctx), true) })
		cancel()
		f(0, func() { require.Equal(t, p.Attempt(ctx), false) })
	})

	run(t, "Derive resets the budget", func(t *testing.T) {
		p := retry.NewSequence(1, time.Second)
		require.Equal(t, p.Attempt(t.Context()), true)
		require.Equal(t, p.Attempt(t.Context()), false)
		d := p.Derive()
		require.Equal(t, d.Attempt(t.Context()), true)
		require.Equal(t, d.Attempt(t.Context()), false)
	})
}
