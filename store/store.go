package store

import (
	"reflect"
	"sync"
)

// Listener observes committed state transitions.
type Listener[T any] func(state, prev T)

// Store holds a single state value. All writes go through SetState,
// which applies an updater to the full prior state and commits the
// full next state in one step; no two mutations interleave.
type Store[T any] struct {
	mu     sync.Mutex
	state  T
	nextID int
	subs   []sub[T]
}

type sub[T any] struct {
	id int
	fn Listener[T]
}

// New creates a store with the given initial state.
func New[T any](initial T) *Store[T] {
	return &Store[T]{state: initial}
}

// GetState returns the current state.
func (s *Store[T]) GetState() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState applies fn to the current state and commits the result.
// Subscribers run synchronously after the commit, outside the store
// lock, in subscription order.
func (s *Store[T]) SetState(fn func(T) T) {
	s.mu.Lock()
	prev := s.state
	next := fn(prev)
	s.state = next
	listeners := make([]Listener[T], len(s.subs))
	for i, su := range s.subs {
		listeners[i] = su.fn
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next, prev)
	}
}

// Replace commits state wholesale.
func (s *Store[T]) Replace(state T) {
	s.SetState(func(T) T { return state })
}

// SubscribeState registers a listener for every commit and returns
// its unsubscribe func.
func (s *Store[T]) SubscribeState(fn Listener[T]) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, sub[T]{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, su := range s.subs {
			if su.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeOptions tune a selected subscription.
type SubscribeOptions[U any] struct {
	// FireImmediately delivers the current selection on subscribe.
	FireImmediately bool

	// Equality decides whether the selection changed. Defaults to
	// reflect.DeepEqual.
	Equality func(a, b U) bool
}

// Subscribe watches a selected slice of the state and invokes fn only
// when the selection changes. Returns the unsubscribe func.
func Subscribe[T, U any](s *Store[T], selector func(T) U, fn func(selected, prev U), opts SubscribeOptions[U]) func() {
	equal := opts.Equality
	if equal == nil {
		equal = func(a, b U) bool { return reflect.DeepEqual(a, b) }
	}

	off := s.SubscribeState(func(state, prev T) {
		next, last := selector(state), selector(prev)
		if !equal(next, last) {
			fn(next, last)
		}
	})

	if opts.FireImmediately {
		cur := selector(s.GetState())
		fn(cur, cur)
	}
	return off
}
