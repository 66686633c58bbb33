package redrain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDeadLetter is returned by dead-letter operations when no dead-letter
	// storage was configured (see [WithDeadLetter]).
	ErrNoDeadLetter = errors.New("dead letter storage is not configured")
)

// Classified is an error that carries its own transient/fatal verdict.
//
// A drain whose errors implement Classified doesn't need a custom
// [Classifier]: [DefaultClassifier] honors the verdict.
type Classified interface {
	error
	// Transient reports whether re-emitting the record may succeed.
	Transient() bool
}

// Classifier decides whether a delivery error is transient (retryable) or
// fatal. It is only called with non-nil errors.
type Classifier = func(err error) bool

// DefaultClassifier treats an error implementing [Classified] according to
// its own verdict and any other error as transient.
//
// Unclassified errors default to transient because giving the destination
// another chance is the whole point of the decorator; destinations that can
// fail permanently should mark those errors with [Fatal] or implement
// [Classified].
func DefaultClassifier(err error) bool {
	var classified Classified
	if errors.As(err, &classified) {
		return classified.Transient()
	}
	return true
}

// Transient marks err as transient for [DefaultClassifier]. The message and
// unwrap chain of err are preserved. Returns nil if err is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, transient: true}
}

// Fatal marks err as fatal for [DefaultClassifier]. The message and unwrap
// chain of err are preserved. Returns nil if err is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, transient: false}
}

type classifiedError struct {
	err       error
	transient bool
}

var _ Classified = (*classifiedError)(nil)

func (e *classifiedError) Error() string {
	return e.err.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.err
}

func (e *classifiedError) Transient() bool {
	return e.transient
}

// ExhaustedError is returned by [Retry.Emit] when every attempt allowed by
// the policy failed transiently. Err holds the last transient cause.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("ran out of retries after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// ReconnectError is returned by [Reconnect] operations when the retry budget
// was spent without a successful delivery. FactoryErr holds the last error
// returned by the drain factory and DrainErr the last transient delivery
// error; either can be nil.
type ReconnectError struct {
	Attempts   int
	FactoryErr error
	DrainErr   error
}

func (e *ReconnectError) Error() string {
	return fmt.Sprintf(
		"ran out of retries after %d attempts (factory: %v, drain: %v)",
		e.Attempts, e.FactoryErr, e.DrainErr,
	)
}

func (e *ReconnectError) Unwrap() []error {
	var errs []error
	if e.FactoryErr != nil {
		errs = append(errs, e.FactoryErr)
	}
	if e.DrainErr != nil {
		errs = append(errs, e.DrainErr)
	}
	return errs
}
