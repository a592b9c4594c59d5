package discovery

import "sync"

// Static is an in-process Announcer fed by the caller. Useful in
// tests and for wiring locally-known providers without a feed.
type Static struct {
	mu     sync.RWMutex
	seen   []ProviderDetail
	nextID int
	subs   map[int]func([]ProviderDetail)
}

// NewStatic creates an announcer pre-seeded with the given details.
func NewStatic(details ...ProviderDetail) *Static {
	return &Static{
		seen: append([]ProviderDetail(nil), details...),
		subs: make(map[int]func([]ProviderDetail)),
	}
}

// Providers implements Announcer.
func (s *Static) Providers() []ProviderDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ProviderDetail, len(s.seen))
	copy(out, s.seen)
	return out
}

// Subscribe implements Announcer.
func (s *Static) Subscribe(fn func([]ProviderDetail)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Announce records the details and notifies subscribers.
func (s *Static) Announce(details ...ProviderDetail) {
	s.mu.Lock()
	s.seen = append(s.seen, details...)
	listeners := make([]func([]ProviderDetail), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(details)
	}
}
