// Package remote defines the content-addressed blob store that the hybrid
// storage scheme points at. Entries can be offloaded as sealed blobs and
// referenced by content address.
//
// Both implementations are local stand-ins; nothing in this package
// performs network I/O. KVStore persists blobs through the client's
// durable key-value store so offloaded payloads survive restarts;
// ContentStore is the in-memory variant for tests.
package remote

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"passvault/internal/common"
	"passvault/internal/cryptox"
	"passvault/internal/storage"
)

// RefScheme prefixes every content address produced by the stub store.
const RefScheme = "cas://"

// BlobStore stores opaque blobs addressed by their content.
type BlobStore interface {
	// Put stores data and returns its content address. Storing the same
	// bytes twice yields the same ref.
	Put(ctx context.Context, data []byte) (string, error)

	// Get returns the blob for ref, or common.ErrNotFound.
	Get(ctx context.Context, ref string) ([]byte, error)

	// Has reports whether ref is present.
	Has(ctx context.Context, ref string) (bool, error)

	// Delete removes the blob for ref. Deleting an absent ref is not an error.
	Delete(ctx context.Context, ref string) error
}

// blobKeyPrefix namespaces blob keys away from vault records in the
// shared key-value store.
const blobKeyPrefix = "blob:"

// KVStore implements BlobStore on the client's durable key-value store.
// An entry offloaded in one session must be restorable in the next, so
// blobs live next to the vault records instead of in process memory.
type KVStore struct {
	kv storage.KV
}

// NewKVStore binds a KVStore to the given key-value backend.
func NewKVStore(kv storage.KV) *KVStore {
	return &KVStore{kv: kv}
}

func blobKey(ref string) string {
	return blobKeyPrefix + strings.TrimPrefix(ref, RefScheme)
}

func (s *KVStore) Put(ctx context.Context, data []byte) (string, error) {
	ref := RefScheme + cryptox.Hash(data)
	if err := s.kv.Set(ctx, blobKey(ref), data); err != nil {
		return "", fmt.Errorf("store blob: %w", err)
	}
	return ref, nil
}

func (s *KVStore) Get(ctx context.Context, ref string) ([]byte, error) {
	b, err := s.kv.Get(ctx, blobKey(ref))
	if err != nil {
		return nil, fmt.Errorf("load blob: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("blob %s: %w", ref, common.ErrNotFound)
	}
	return b, nil
}

func (s *KVStore) Has(ctx context.Context, ref string) (bool, error) {
	b, err := s.kv.Get(ctx, blobKey(ref))
	if err != nil {
		return false, err
	}
	return b != nil, nil
}

func (s *KVStore) Delete(ctx context.Context, ref string) error {
	return s.kv.Delete(ctx, blobKey(ref))
}

// ContentStore is the in-memory stub implementation of BlobStore.
type ContentStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewContentStore returns an empty stub store.
func NewContentStore() *ContentStore {
	return &ContentStore{blobs: make(map[string][]byte)}
}

func (s *ContentStore) Put(_ context.Context, data []byte) (string, error) {
	ref := RefScheme + cryptox.Hash(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	b := make([]byte, len(data))
	copy(b, data)
	s.blobs[ref] = b
	return ref, nil
}

func (s *ContentStore) Get(_ context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", ref, common.ErrNotFound)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (s *ContentStore) Has(_ context.Context, ref string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blobs[ref]
	return ok, nil
}

func (s *ContentStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, ref)
	return nil
}
