// This package contains the main [Policy] interface and several implementations.
package retry

import (
	"context"
	"time"
)

// Policy defines the retry behaviour of a drain decorator.
//
// Implementations are not considered thread-safe: each instance drives a single
// delivery cycle. Decorators call [Policy.Derive] once per emitted record and
// use the derived instance for that record only.
type Policy interface {
	// Attempt checks if another delivery attempt should be made.
	//
	// This method blocks until an attempt can be made or the context is cancelled.
	// It internally handles waiting between attempts based on the policy configuration.
	// Returns true if an attempt should be made, false if no attempts remain.
	//
	// The first call never blocks: the initial delivery attempt is immediate.
	Attempt(ctx context.Context) bool
	// Cooldown returns the duration to wait before a dead-lettered record becomes
	// eligible for replay again.
	//
	// When a record fails replay and is released back to the dead-letter storage,
	// this duration determines how long it stays ineligible for re-claiming.
	Cooldown() time.Duration
	// Derive returns a new Policy instance for a single delivery cycle.
	//
	// The returned policy maintains its own internal state for tracking attempts.
	Derive() Policy
}
