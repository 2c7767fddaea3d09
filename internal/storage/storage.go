// Package storage defines the string-keyed persistence surface the vault is
// written through. Backends must be durable across process restarts within
// the same client (the in-memory backend exists for tests); a Set that
// returns nil means the value is durable in the backend's terms.
package storage

import "context"

// KV is a flat key-value store. Keys are opaque strings; callers partition
// them by owner via key prefixes.
type KV interface {
	// Get returns the value for key, or (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value. It returns
	// only after the write is durable.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key starting with prefix in one atomic step.
	DeletePrefix(ctx context.Context, prefix string) error

	// Keys returns all keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Clear removes every key in the store.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
