package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// wait blocks for interval adjusted by a random jitter factor, or until the
// context is cancelled. Returns true if the full wait elapsed.
func wait(ctx context.Context, interval time.Duration, jitter float64) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(jittered(interval, jitter)):
		return true
	}
}

func jittered(interval time.Duration, jitter float64) time.Duration {
	if jitter < 0 || jitter >= 1 {
		panic("invalid jitter")
	}
	if jitter == 0 {
		return interval
	}

	m := (rand.Float64() * 2) - 1
	j := m * jitter * float64(interval)

	return interval + time.Duration(j)
}
