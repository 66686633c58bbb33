package redrain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/teenjuna/redrain/internal/sqlite"
)

// Factory builds a fresh inner drain, typically by (re)establishing a
// connection to the destination.
type Factory[Record any] = func() (Drain[Record], error)

// Reconnect is a drain decorator that builds its inner drain through a
// factory and rebuilds it when delivery fails transiently.
//
// The inner drain is built lazily on the first emitted record unless
// [WithConnectNow] is used. When an emit attempt fails transiently the
// current drain is closed, discarded, and the factory is asked for a new one
// before the next attempt; factory failures consume attempts from the same
// policy budget as delivery failures.
//
// Unlike [Retry], Reconnect serializes Emit calls: the current drain is
// shared mutable state guarded by a mutex.
type Reconnect[Record any] struct {
	factory Factory[Record]
	cfg     *config[Record]
	store   *sqlite.Storage

	mu    sync.Mutex
	drain Drain[Record]
}

var _ Drain[any] = (*Reconnect[any])(nil)

// NewReconnect creates a reconnecting drain built from factory.
//
// With [WithConnectNow] the initial drain is built eagerly, retried per the
// policy; if the factory never succeeds within the budget a [*ReconnectError]
// is returned.
func NewReconnect[Record any](factory Factory[Record], options ...Option[Record]) (*Reconnect[Record], error) {
	if factory == nil {
		panic("factory can't be nil")
	}

	cfg := newConfig(options...)

	store, err := openDeadLetter(cfg)
	if err != nil {
		return nil, err
	}

	d := &Reconnect[Record]{
		factory: factory,
		cfg:     cfg,
		store:   store,
	}

	if cfg.connectNow {
		if err := d.connect(); err != nil {
			if store != nil {
				err = errors.Join(err, store.Close())
			}
			return nil, err
		}
	}

	return d, nil
}

// Emit delivers the record through the current inner drain, rebuilding it via
// the factory on transient failures.
//
// Terminal states match [Retry.Emit], except that the exhausted-budget error
// is a [*ReconnectError] carrying the last factory and delivery causes.
func (d *Reconnect[Record]) Emit(record Record) error {
	kind, attempts, err := d.deliver(record)
	if err == nil {
		return nil
	}
	return deadLetter(d.cfg, d.store, record, err, kind, attempts)
}

// Flush forwards the flush to the current inner drain, if any.
func (d *Reconnect[Record]) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.drain == nil {
		return nil
	}
	return flushDrain(d.drain)
}

// Close closes the current inner drain (if any) and the dead-letter storage.
// The factory is not consulted again after closing unless Emit is called.
func (d *Reconnect[Record]) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	errs := make([]error, 0)

	if d.drain != nil {
		if err := closeDrain(d.drain); err != nil {
			errs = append(errs, err)
		}
		d.drain = nil
	}

	if d.store != nil {
		if err := d.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dead letter storage: %w", err))
		}
	}

	return errors.Join(errs...)
}

// DeadLetters returns the number of records currently kept in the dead-letter
// storage.
//
// Returns [ErrNoDeadLetter] if no dead-letter storage was configured.
func (d *Reconnect[Record]) DeadLetters() (int, error) {
	if d.store == nil {
		return 0, ErrNoDeadLetter
	}

	stats, err := d.store.Stats()
	if err != nil {
		return 0, err
	}

	return stats.Letters, nil
}

// Replay re-emits the stored dead letters through the drain, oldest first.
// See [Retry.Replay].
func (d *Reconnect[Record]) Replay() error {
	if d.store == nil {
		return ErrNoDeadLetter
	}
	return replay(d.cfg, d.store, d)
}

// connect eagerly builds the initial drain, retrying per the policy. Called
// only from NewReconnect, before the drain is shared.
func (d *Reconnect[Record]) connect() error {
	var (
		policy   = d.cfg.policy.Derive()
		attempts int
		lastErr  error
	)

	for policy.Attempt(context.Background()) {
		attempts++

		drain, err := d.factory()
		if err == nil {
			d.drain = drain
			return nil
		}

		lastErr = err
	}

	return &ReconnectError{Attempts: attempts, FactoryErr: lastErr}
}

func (d *Reconnect[Record]) deliver(record Record) (kind string, attempts int, err error) {
	started := time.Now()
	defer func() {
		d.cfg.metrics.emitDuration.Observe(time.Since(started).Seconds())
	}()

	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		policy     = d.cfg.policy.Derive()
		factoryErr error
		drainErr   error
	)

	for policy.Attempt(context.Background()) {
		attempts++
		d.cfg.metrics.attempts.Inc()

		if d.drain == nil {
			drain, err := d.factory()
			if err != nil {
				factoryErr = err
				continue
			}
			d.drain = drain
		}

		err := d.drain.Emit(record)
		if err == nil {
			d.cfg.metrics.deliveries.Inc()
			return "", attempts, nil
		}

		if !d.cfg.classifier(err) {
			d.cfg.metrics.failures.WithLabelValues(kindFatal).Inc()
			return kindFatal, attempts, err
		}

		// The drain failed, so close it and have the factory build a
		// replacement before the next attempt. The close is best-effort:
		// the drain is already broken.
		drainErr = err
		_ = closeDrain(d.drain)
		d.drain = nil
	}

	d.cfg.metrics.failures.WithLabelValues(kindExhausted).Inc()

	return kindExhausted, attempts, &ReconnectError{
		Attempts:   attempts,
		FactoryErr: factoryErr,
		DrainErr:   drainErr,
	}
}
