// Package store implements a small reactive state container.
//
// Store[T] holds one value and notifies subscribers on every commit.
// Subscriptions select a slice of the state and fire only when the
// selected value changes under the configured equality. Persisted[T]
// layers versioned persistence on top, with deferred hydration for
// headless contexts that must not read storage eagerly.
package store
