package redrain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teenjuna/redrain/internal/sqlite"
)

const (
	kindFatal     = "fatal"
	kindExhausted = "exhausted"
)

// Retry is a drain decorator that re-emits a record to the wrapped drain when
// delivery fails transiently, waiting between attempts according to the
// configured retry policy.
//
// Retry implements [Drain] itself, so retry drains compose with any other
// drain, including another Retry.
//
// Retry adds no locking of its own: concurrent Emit calls run their retry
// loops independently and forward to the inner drain as-is, so the inner
// drain's own thread-safety contract governs concurrent use.
type Retry[Record any] struct {
	inner Drain[Record]
	cfg   *config[Record]
	store *sqlite.Storage
}

var _ Drain[any] = (*Retry[any])(nil)

// New creates a retry drain wrapping inner.
//
// The decorator takes exclusive ownership of inner: it must be the only
// caller of the inner drain.
//
// Returns an error if the dead-letter storage was requested but can't be
// opened.
func New[Record any](inner Drain[Record], options ...Option[Record]) (*Retry[Record], error) {
	if inner == nil {
		panic("inner drain can't be nil")
	}

	cfg := newConfig(options...)

	store, err := openDeadLetter(cfg)
	if err != nil {
		return nil, err
	}

	return &Retry[Record]{
		inner: inner,
		cfg:   cfg,
		store: store,
	}, nil
}

// Emit delivers the record to the wrapped drain.
//
// The call blocks until a terminal state is reached: successful delivery, a
// fatal error from the inner drain (returned immediately and verbatim), or an
// [*ExhaustedError] once the policy's attempt budget is spent on transient
// failures. The same record value is re-emitted unchanged on every attempt.
//
// If a dead-letter storage is configured, terminally failed records are
// stored there before the error is returned.
func (d *Retry[Record]) Emit(record Record) error {
	kind, attempts, err := d.deliver(record)
	if err == nil {
		return nil
	}
	return deadLetter(d.cfg, d.store, record, err, kind, attempts)
}

// Flush forwards the flush to the wrapped drain if it supports flushing.
// Flushes are never retried.
func (d *Retry[Record]) Flush() error {
	return flushDrain(d.inner)
}

// Close closes the wrapped drain (if it supports closing) and the dead-letter
// storage.
func (d *Retry[Record]) Close() error {
	errs := make([]error, 0)

	if err := closeDrain(d.inner); err != nil {
		errs = append(errs, err)
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
func (d *Retry[Record]) DeadLetters() (int, error) {
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
// Successfully delivered records are removed from the storage; on the first
// failure the record is released back (with the policy's cooldown applied)
// and the error is returned.
//
// Returns [ErrNoDeadLetter] if no dead-letter storage was configured.
func (d *Retry[Record]) Replay() error {
	if d.store == nil {
		return ErrNoDeadLetter
	}
	return replay(d.cfg, d.store, d)
}

func (d *Retry[Record]) deliver(record Record) (kind string, attempts int, err error) {
	started := time.Now()
	defer func() {
		d.cfg.metrics.emitDuration.Observe(time.Since(started).Seconds())
	}()

	var (
		policy  = d.cfg.policy.Derive()
		lastErr error
	)

	for policy.Attempt(context.Background()) {
		attempts++
		d.cfg.metrics.attempts.Inc()

		err := d.inner.Emit(record)
		if err == nil {
			d.cfg.metrics.deliveries.Inc()
			return "", attempts, nil
		}

		if !d.cfg.classifier(err) {
			d.cfg.metrics.failures.WithLabelValues(kindFatal).Inc()
			return kindFatal, attempts, err
		}

		lastErr = err
	}

	d.cfg.metrics.failures.WithLabelValues(kindExhausted).Inc()

	return kindExhausted, attempts, &ExhaustedError{Attempts: attempts, Err: lastErr}
}

// deliverer is the record delivery loop shared by the decorators, used by the
// dead-letter replay so that replayed records don't get dead-lettered again.
type deliverer[Record any] interface {
	deliver(record Record) (kind string, attempts int, err error)
}

func openDeadLetter[Record any](cfg *config[Record]) (*sqlite.Storage, error) {
	if cfg.deadLetter == nil {
		return nil, nil
	}

	store, err := sqlite.New(
		sqlite.WithFile(cfg.deadLetter.uri()),
		sqlite.WithCooldown(cfg.policy.Cooldown()),
	)
	if err != nil {
		return nil, fmt.Errorf("open dead letter storage: %w", err)
	}

	return store, nil
}

func deadLetter[Record any](
	cfg *config[Record],
	store *sqlite.Storage,
	record Record,
	cause error,
	kind string,
	attempts int,
) error {
	if store == nil {
		return cause
	}

	data, err := cfg.codec.Encode(record)
	if err != nil {
		return errors.Join(cause, fmt.Errorf("encode dead letter: %w", err))
	}

	if _, err := store.Push(data, kind, attempts); err != nil {
		return errors.Join(cause, fmt.Errorf("store dead letter: %w", err))
	}

	cfg.metrics.deadLetters.Inc()

	return cause
}

func replay[Record any](
	cfg *config[Record],
	store *sqlite.Storage,
	drain deliverer[Record],
) error {
	for {
		letters, err := store.Claim()
		if err != nil {
			return fmt.Errorf("claim dead letters: %w", err)
		}
		if len(letters) == 0 {
			return nil
		}

		for _, letter := range letters {
			record, err := cfg.codec.Decode(letter.Data)
			if err != nil {
				err = fmt.Errorf("decode dead letter: %w", err)
				if rerr := store.Release(letter.ID); rerr != nil {
					err = errors.Join(err, rerr)
				}
				return err
			}

			if _, _, err := drain.deliver(record); err != nil {
				if rerr := store.Release(letter.ID); rerr != nil {
					err = errors.Join(err, rerr)
				}
				return err
			}

			if err := store.Delete(letter.ID); err != nil {
				return fmt.Errorf("delete dead letter: %w", err)
			}
		}
	}
}
