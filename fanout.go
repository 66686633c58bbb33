package redrain

import (
	"slices"

	"golang.org/x/sync/errgroup"
)

// Fanout is a drain that delivers every record to all of its drains
// concurrently.
//
// Emit waits for all deliveries to finish, so from the caller's point of view
// Fanout is as synchronous as its slowest drain. A typical composition wraps
// each destination in its own [Retry] so that one slow destination retries
// without holding the others back beyond the current record.
type Fanout[Record any] struct {
	drains []Drain[Record]
}

var _ Drain[any] = (*Fanout[any])(nil)

// NewFanout creates a fanout drain over the provided drains.
func NewFanout[Record any](drains ...Drain[Record]) *Fanout[Record] {
	if len(drains) == 0 {
		panic("drains can't be empty")
	}
	for _, drain := range drains {
		if drain == nil {
			panic("drain can't be nil")
		}
	}

	return &Fanout[Record]{drains: slices.Clone(drains)}
}

// Emit delivers the record to all drains concurrently and waits for them.
// Returns the first error encountered; the remaining deliveries still run to
// completion.
func (d *Fanout[Record]) Emit(record Record) error {
	var g errgroup.Group
	for _, drain := range d.drains {
		g.Go(func() error {
			return drain.Emit(record)
		})
	}
	return g.Wait()
}

// Flush flushes all drains that support flushing.
func (d *Fanout[Record]) Flush() error {
	var g errgroup.Group
	for _, drain := range d.drains {
		g.Go(func() error {
			return flushDrain(drain)
		})
	}
	return g.Wait()
}

// Close closes all drains that support closing.
func (d *Fanout[Record]) Close() error {
	var g errgroup.Group
	for _, drain := range d.drains {
		g.Go(func() error {
			return closeDrain(drain)
		})
	}
	return g.Wait()
}
