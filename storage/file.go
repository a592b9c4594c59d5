package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a Storage persisted as a single JSON file. Writes go
// through a temp file and rename so a crash never leaves a
// half-written store on disk.
type File struct {
	path string

	mu sync.Mutex
	m  map[string]json.RawMessage
}

// NewFile opens (or creates) a file-backed store at path.
func NewFile(path string) (*File, error) {
	s := &File{
		path: path,
		m:    make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	if err := json.Unmarshal(data, &s.m); err != nil {
		// Corrupted file: start fresh rather than refuse to load.
		s.m = make(map[string]json.RawMessage)
	}
	return s, nil
}

// Get implements Storage.
func (s *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set implements Storage.
func (s *File) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !json.Valid(value) {
		// Store raw bytes as a JSON string so the file stays valid.
		enc, err := json.Marshal(string(value))
		if err != nil {
			return fmt.Errorf("encode value: %w", err)
		}
		value = enc
	}
	s.m[key] = json.RawMessage(append([]byte(nil), value...))
	return s.flush()
}

// Remove implements Storage.
func (s *File) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; !ok {
		return nil
	}
	delete(s.m, key)
	return s.flush()
}

// flush writes the full map to disk. Must be called with lock held.
func (s *File) flush() error {
	data, err := json.MarshalIndent(s.m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename store file: %w", err)
	}
	return nil
}
