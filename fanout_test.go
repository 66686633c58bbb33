package redrain_test

import (
	"testing"
	"time"

	"github.com/teenjuna/redrain"
	"github.com/teenjuna/redrain/internal/testing/require"
	"github.com/teenjuna/redrain/retry"
)

func TestNewFanout(t *testing.T) {
	run(t, "With drains", func(t *testing.T) {
		d := redrain.NewFanout[string](&script{}, &script{})
		require.NotNil(t, d)
	})

	run(t, "Without drains", func(t *testing.T) {
		require.PanicWithError(t, "drains can't be empty", func() {
			_ = redrain.NewFanout[string]()
		})
	})

	run(t, "With nil drain", func(t *testing.T) {
		require.PanicWithError(t, "drain can't be nil", func() {
			_ = redrain.NewFanout[string](&script{}, nil)
		})
	})
}

func TestFanoutEmit(t *testing.T) {
	run(t, "Delivers to all drains", func(t *testing.T) {
		s1, s2 := &script{}, &script{}
		d := redrain.NewFanout[string](s1, s2)

		require.Nil(t, d.Emit("hello"))
		require.Equal(t, s1.records, []string{"hello"})
		require.Equal(t, s2.records, []string{"hello"})
	})

	run(t, "Failure of one drain is returned", func(t *testing.T) {
		s1 := &script{}
		s2 := &script{errs: []error{errFlaky}}
		d := redrain.NewFanout[string](s1, s2)

		require.Equal(t, d.Emit("hello"), errFlaky)
		require.Equal(t, s1.records, []string{"hello"})
		require.Equal(t, s2.records, []string{"hello"})
	})

	run(t, "Drains run concurrently", func(t *testing.T) {
		const processTime = time.Second

		slow := func(record string) error {
			<-time.After(processTime)
			return nil
		}
		d := redrain.NewFanout[string](
			redrain.DrainFunc[string](slow),
			redrain.DrainFunc[string](slow),
			redrain.DrainFunc[string](slow),
		)

		f := delayFunc(t, 0)
		f(processTime, func() { require.Nil(t, d.Emit("hello")) })
	})
}

func TestFanoutFlushClose(t *testing.T) {
	run(t, "Forwarded to all drains", func(t *testing.T) {
		r1, r2 := &recorder{}, &recorder{}
		d := redrain.NewFanout[string](r1, r2, &script{})

		require.Nil(t, d.Flush())
		require.Equal(t, r1.flushed, 1)
		require.Equal(t, r2.flushed, 1)

		require.Nil(t, d.Close())
		require.Equal(t, r1.closed, 1)
		require.Equal(t, r2.closed, 1)
	})
}

func TestFanoutOfRetries(t *testing.T) {
	run(t, "Each destination retries on its own", func(t *testing.T) {
		var (
			flaky  = &script{errs: repeat(errFlaky, 2)}
			stable = &script{}
		)
		r1, err := redrain.New[string](flaky,
			redrain.WithPolicy[string](retry.NewImmediate(5)),
		)
		require.Nil(t, err)
		r2, err := redrain.New[string](stable)
		require.Nil(t, err)

		d := redrain.NewFanout[string](r1, r2)
		require.Nil(t, d.Emit("hello"))
		require.Equal(t, flaky.calls, 3)
		require.Equal(t, stable.calls, 1)
	})
}
