package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/rickgao/walletcore/storage"
)

// envelope wraps a persisted snapshot with its schema version.
type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// PersistOptions configure a Persisted store.
type PersistOptions[T any] struct {
	Storage storage.Storage
	Key     string
	Version int

	// Partialize selects the subset of state worth persisting.
	// Nil persists the whole state.
	Partialize func(T) any

	// Merge folds a persisted snapshot into the current state during
	// hydration. A returned error discards the snapshot.
	Merge func(raw json.RawMessage, current T) (T, error)

	// SkipHydration defers reading storage until Hydrate is called
	// explicitly (headless contexts must not read persisted state
	// during a non-interactive pass).
	SkipHydration bool

	Logger *slog.Logger
}

// Persisted is a Store whose commits are mirrored to a Storage
// backend under a versioned key.
type Persisted[T any] struct {
	*Store[T]

	st         storage.Storage
	key        string
	version    int
	partialize func(T) any
	merge      func(json.RawMessage, T) (T, error)
	logger     *slog.Logger
	hydrated   atomic.Bool
}

// NewPersisted creates a persisted store. Unless SkipHydration is
// set, the stored snapshot is folded in immediately.
func NewPersisted[T any](initial T, opts PersistOptions[T]) *Persisted[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Persisted[T]{
		Store:      New(initial),
		st:         opts.Storage,
		key:        opts.Key,
		version:    opts.Version,
		partialize: opts.Partialize,
		merge:      opts.Merge,
		logger:     logger,
	}

	// Mirror every commit after construction.
	p.Store.SubscribeState(func(state, _ T) {
		if err := p.flush(state); err != nil {
			p.logger.Warn("failed to persist state", "key", p.key, "error", err)
		}
	})

	if !opts.SkipHydration {
		if err := p.Hydrate(context.Background()); err != nil {
			p.logger.Warn("hydration failed, keeping initial state", "key", p.key, "error", err)
		}
	}
	return p
}

// Hydrated reports whether hydration has completed.
func (p *Persisted[T]) Hydrated() bool {
	return p.hydrated.Load()
}

// Hydrate reads the persisted snapshot and merges it into the current
// state. A missing key, version mismatch, or corrupted snapshot
// leaves the current state untouched; hydration is still marked
// complete (the store self-heals rather than surfacing the problem).
func (p *Persisted[T]) Hydrate(ctx context.Context) error {
	defer p.hydrated.Store(true)

	raw, ok, err := p.st.Get(ctx, p.key)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if !ok {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		p.logger.Warn("discarding corrupted snapshot", "key", p.key, "error", err)
		return nil
	}
	if env.Version != p.version {
		p.logger.Info("discarding snapshot with stale version",
			"key", p.key,
			"stored", env.Version,
			"want", p.version,
		)
		return nil
	}

	if p.merge == nil {
		var state T
		if err := json.Unmarshal(env.State, &state); err != nil {
			p.logger.Warn("discarding undecodable snapshot", "key", p.key, "error", err)
			return nil
		}
		p.Store.Replace(state)
		return nil
	}

	merged, err := p.merge(env.State, p.Store.GetState())
	if err != nil {
		p.logger.Warn("discarding unmergeable snapshot", "key", p.key, "error", err)
		return nil
	}
	p.Store.Replace(merged)
	return nil
}

// flush persists the (partialized) state under the versioned key.
func (p *Persisted[T]) flush(state T) error {
	var subset any = state
	if p.partialize != nil {
		subset = p.partialize(state)
	}

	data, err := json.Marshal(subset)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	env, err := json.Marshal(envelope{Version: p.version, State: data})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return p.st.Set(context.Background(), p.key, env)
}
