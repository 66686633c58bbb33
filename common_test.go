package redrain_test

import (
	"testing"
	"testing/synctest"
	"time"
)

const (
	// Amount of time allowed for measurment error.
	EPSILON = time.Microsecond * 10
)

func run(t *testing.T, name string, fn func(t *testing.T)) {
	t.Run(name, func(t *testing.T) {
		t.Helper()
		t.Parallel()
		synctest.Test(t, func(t *testing.T) {
			fn(t)
		})
	})
}

func delayFunc(t *testing.T, jitter float64) func(delay time.Duration, fn func()) {
	t.Helper()
	return func(delay time.Duration, fn func()) {
		delta := time.Duration(float64(delay) * jitter)
		minDelay := (delay - delta).Truncate(EPSILON)
		maxDelay := (delay + delta + EPSILON).Truncate(EPSILON)

		tt := time.Now()
		fn()
		ts := time.Since(tt).Truncate(EPSILON)

		if ts < minDelay {
			t.Fatalf("delay %s < min delay %s", ts, minDelay)
		}

		if ts > maxDelay {
			t.Fatalf("delay %s > max delay %s", ts, maxDelay)
		}
	}
}

// script is a drain whose first emits fail with the scripted errors. Once the
// script is exhausted every following emit succeeds.
type script struct {
	calls   int
	records []string
	errs    []error
}

func (s *script) Emit(record string) error {
	s.calls++
	s.records = append(s.records, record)
	if s.calls <= len(s.errs) {
		return s.errs[s.calls-1]
	}
	return nil
}

// recorder is a drain that remembers its flushes and closes.
type recorder struct {
	script
	flushed int
	closed  int
}

func (r *recorder) Flush() error {
	r.flushed++
	return nil
}

func (r *recorder) Close() error {
	r.closed++
	return nil
}

func repeat(err error, n int) []error {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = err
	}
	return errs
}
