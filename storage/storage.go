package storage

import "context"

// Storage is a string-keyed byte store.
type Storage interface {
	// Get returns the value for key. The second return is false when
	// the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
