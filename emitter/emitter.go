package emitter

import (
	"sync"

	"github.com/google/uuid"
)

// ConnectEvent is raised when a connector establishes a connection.
type ConnectEvent struct {
	Accounts []string
	ChainID  int
}

// ChangeEvent is raised when accounts or chain change on a live
// connection. Zero-value fields mean "unchanged".
type ChangeEvent struct {
	Accounts []string // nil = unchanged
	ChainID  int      // 0 = unchanged
}

// DisconnectEvent is raised when a connector drops its connection.
type DisconnectEvent struct{}

// Emitter fans connector lifecycle events out to listeners.
// Emission is synchronous: listeners run inline in registration
// order, with the emitter lock released.
type Emitter struct {
	uid string

	mu         sync.RWMutex
	nextID     int
	connect    []entry[ConnectEvent]
	change     []entry[ChangeEvent]
	disconnect []entry[DisconnectEvent]
}

type entry[T any] struct {
	id int
	fn func(T)
}

// New creates an emitter with a freshly minted unique id.
func New() *Emitter {
	return &Emitter{uid: uuid.NewString()}
}

// UID returns the emitter's unique id.
func (e *Emitter) UID() string {
	return e.uid
}

// OnConnect registers a connect listener and returns its
// unsubscribe func.
func (e *Emitter) OnConnect(fn func(ConnectEvent)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.connect = append(e.connect, entry[ConnectEvent]{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.connect = remove(e.connect, id)
	}
}

// OnChange registers a change listener and returns its unsubscribe
// func.
func (e *Emitter) OnChange(fn func(ChangeEvent)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.change = append(e.change, entry[ChangeEvent]{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.change = remove(e.change, id)
	}
}

// OnDisconnect registers a disconnect listener and returns its
// unsubscribe func.
func (e *Emitter) OnDisconnect(fn func(DisconnectEvent)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.disconnect = append(e.disconnect, entry[DisconnectEvent]{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.disconnect = remove(e.disconnect, id)
	}
}

// EmitConnect delivers a connect event to current listeners.
func (e *Emitter) EmitConnect(ev ConnectEvent) {
	for _, fn := range snapshot(e, &e.connect) {
		fn(ev)
	}
}

// EmitChange delivers a change event to current listeners.
func (e *Emitter) EmitChange(ev ChangeEvent) {
	for _, fn := range snapshot(e, &e.change) {
		fn(ev)
	}
}

// EmitDisconnect delivers a disconnect event to current listeners.
func (e *Emitter) EmitDisconnect(ev DisconnectEvent) {
	for _, fn := range snapshot(e, &e.disconnect) {
		fn(ev)
	}
}

// snapshot copies the listener list under the read lock so emission
// runs without holding it.
func snapshot[T any](e *Emitter, list *[]entry[T]) []func(T) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fns := make([]func(T), len(*list))
	for i, en := range *list {
		fns[i] = en.fn
	}
	return fns
}

func remove[T any](list []entry[T], id int) []entry[T] {
	for i, en := range list {
		if en.id == id {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
