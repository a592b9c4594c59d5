package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rickgao/walletcore/storage"
)

type snapshot struct {
	ChainID int    `json:"chainId"`
	Label   string `json:"label"`
}

func TestPersisted_RoundTrip(t *testing.T) {
	st := storage.NewMemory()

	p := NewPersisted(snapshot{ChainID: 1}, PersistOptions[snapshot]{
		Storage: st,
		Key:     "wallet.store",
		Version: 2,
	})

	p.SetState(func(s snapshot) snapshot {
		s.ChainID = 10
		return s
	})

	// A fresh store over the same backend hydrates the committed state.
	p2 := NewPersisted(snapshot{ChainID: 1}, PersistOptions[snapshot]{
		Storage: st,
		Key:     "wallet.store",
		Version: 2,
	})

	if got := p2.GetState().ChainID; got != 10 {
		t.Errorf("hydrated ChainID = %d, want 10", got)
	}
	if !p2.Hydrated() {
		t.Error("Hydrated() = false after eager hydration")
	}
}

func TestPersisted_VersionMismatchDiscards(t *testing.T) {
	st := storage.NewMemory()

	old := NewPersisted(snapshot{}, PersistOptions[snapshot]{
		Storage: st, Key: "k", Version: 1,
	})
	old.SetState(func(s snapshot) snapshot {
		s.ChainID = 42
		return s
	})

	fresh := NewPersisted(snapshot{ChainID: 7}, PersistOptions[snapshot]{
		Storage: st, Key: "k", Version: 2,
	})

	if got := fresh.GetState().ChainID; got != 7 {
		t.Errorf("ChainID = %d after stale-version hydration, want initial 7", got)
	}
}

func TestPersisted_CorruptedSnapshotKeepsInitial(t *testing.T) {
	st := storage.NewMemory()
	if err := st.Set(context.Background(), "k", []byte("{{{")); err != nil {
		t.Fatal(err)
	}

	p := NewPersisted(snapshot{ChainID: 3}, PersistOptions[snapshot]{
		Storage: st, Key: "k", Version: 1,
	})

	if got := p.GetState().ChainID; got != 3 {
		t.Errorf("ChainID = %d, want initial 3", got)
	}
	if !p.Hydrated() {
		t.Error("corrupted snapshot must still complete hydration")
	}
}

func TestPersisted_SkipHydration(t *testing.T) {
	st := storage.NewMemory()

	seed := NewPersisted(snapshot{}, PersistOptions[snapshot]{
		Storage: st, Key: "k", Version: 1,
	})
	seed.SetState(func(s snapshot) snapshot {
		s.ChainID = 99
		return s
	})

	p := NewPersisted(snapshot{ChainID: 1}, PersistOptions[snapshot]{
		Storage: st, Key: "k", Version: 1, SkipHydration: true,
	})

	if p.Hydrated() {
		t.Fatal("Hydrated() = true before explicit Hydrate")
	}
	if got := p.GetState().ChainID; got != 1 {
		t.Fatalf("ChainID = %d before Hydrate, want 1", got)
	}

	if err := p.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	if got := p.GetState().ChainID; got != 99 {
		t.Errorf("ChainID = %d after Hydrate, want 99", got)
	}
}

func TestPersisted_PartializeAndMerge(t *testing.T) {
	st := storage.NewMemory()

	opts := PersistOptions[snapshot]{
		Storage: st,
		Key:     "k",
		Version: 1,
		// Persist only the chain id.
		Partialize: func(s snapshot) any {
			return map[string]any{"chainId": s.ChainID}
		},
		Merge: func(raw json.RawMessage, current snapshot) (snapshot, error) {
			var part struct {
				ChainID int `json:"chainId"`
			}
			if err := json.Unmarshal(raw, &part); err != nil {
				return current, err
			}
			current.ChainID = part.ChainID
			return current, nil
		},
	}

	seed := NewPersisted(snapshot{Label: "transient"}, opts)
	seed.SetState(func(s snapshot) snapshot {
		s.ChainID = 5
		s.Label = "also transient"
		return s
	})

	p := NewPersisted(snapshot{Label: "fresh"}, opts)
	got := p.GetState()
	if got.ChainID != 5 {
		t.Errorf("merged ChainID = %d, want 5", got.ChainID)
	}
	if got.Label != "fresh" {
		t.Errorf("Label = %q, want transient field preserved as %q", got.Label, "fresh")
	}
}
