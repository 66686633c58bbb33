// Package redrain provides drain decorators that retry failed log record
// deliveries.
//
// A drain is anything that accepts one log record and reports success or
// failure. The decorators in this package wrap an existing drain and absorb
// transient delivery failures up to a configured retry budget, so that a
// flaky destination doesn't immediately lose records or fail the caller.
package redrain

// Drain is the capability of accepting a single log record for delivery.
//
// The record type is opaque to this package: a drain borrows the record for
// the duration of one Emit call and must not mutate or retain it.
//
// An Emit error classified as transient (see [Classifier]) means the record
// was not durably delivered and re-emitting the same record is acceptable to
// the destination. Decorators rely on that contract and cannot verify it.
type Drain[Record any] interface {
	Emit(record Record) error
}

// Flusher is an optional drain capability of completing all in-flight
// destination-level buffering. Decorators forward Flush unchanged, without
// retry semantics.
type Flusher interface {
	Flush() error
}

// Closer is an optional drain capability of releasing the destination.
// Decorators forward Close unchanged, without retry semantics.
type Closer interface {
	Close() error
}

// DrainFunc adapts a plain function to the [Drain] interface.
type DrainFunc[Record any] func(record Record) error

func (f DrainFunc[Record]) Emit(record Record) error {
	return f(record)
}

// flushDrain calls Flush on the drain if it implements [Flusher].
func flushDrain[Record any](drain Drain[Record]) error {
	if flusher, ok := drain.(Flusher); ok {
		return flusher.Flush()
	}
	return nil
}

// closeDrain calls Close on the drain if it implements [Closer].
func closeDrain[Record any](drain Drain[Record]) error {
	if closer, ok := drain.(Closer); ok {
		return closer.Close()
	}
	return nil
}
