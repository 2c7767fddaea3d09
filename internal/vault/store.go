package vault

import (
	"context"
	"encoding/json"
	"fmt"

	"passvault/internal/common"
	"passvault/internal/cryptox"
	"passvault/internal/logging"
	"passvault/internal/storage"
)

// keyPrefix namespaces every persisted key. One record key per owner keeps
// each save a single atomic Set; Purge removes the whole owner prefix so
// auxiliary keys added by future schema versions are covered too.
const keyPrefix = "vault:"

// Record is the persisted form of a vault: KDF parameters, the
// master-password verifier, and the vault body sealed under the master key.
// A record with an empty Verifier is the "hash record missing" degraded
// state; the manager refuses to unlock it.
type Record struct {
	Salt       []byte                 `json:"salt"`
	Iterations int                    `json:"iterations"`
	Verifier   []byte                 `json:"verifier,omitempty"`
	Blob       *cryptox.EncryptedBlob `json:"blob"`
}

// Store owns the on-disk schema of vault records: key naming partitioned by
// owner and (de)serialization of the record envelope.
type Store struct {
	kv  storage.KV
	log logging.Logger
}

// NewStore binds a Store to the given key-value backend.
func NewStore(kv storage.KV, log logging.Logger) *Store {
	return &Store{kv: kv, log: log.With("component", "vault-store")}
}

// RecordKey returns the storage key holding owner's vault record.
func RecordKey(owner string) string {
	return keyPrefix + owner
}

// Load reads owner's record. A missing or unreadable record yields
// (nil, nil) so callers can treat "no vault yet" as the normal first-run
// path; only backend read failures are errors.
func (s *Store) Load(ctx context.Context, owner string) (*Record, error) {
	raw, err := s.kv.Get(ctx, RecordKey(owner))
	if err != nil {
		return nil, fmt.Errorf("%w: load vault: %v", common.ErrPersistence, err)
	}
	if raw == nil {
		return nil, nil
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.log.Warn(ctx, "vault record is corrupt, treating as absent", "owner", owner, "error", err)
		return nil, nil
	}
	return &rec, nil
}

// Save persists owner's record. It returns only after the backend has
// confirmed the write; callers must not report success before that.
func (s *Store) Save(ctx context.Context, owner string, rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: marshal vault: %v", common.ErrPersistence, err)
	}
	if err := s.kv.Set(ctx, RecordKey(owner), raw); err != nil {
		return fmt.Errorf("%w: save vault: %v", common.ErrPersistence, err)
	}
	return nil
}

// Purge removes every persisted key belonging to owner.
func (s *Store) Purge(ctx context.Context, owner string) error {
	if err := s.kv.DeletePrefix(ctx, RecordKey(owner)); err != nil {
		return fmt.Errorf("%w: purge vault: %v", common.ErrPersistence, err)
	}
	return nil
}

// PurgeAll clears the entire store, all owners included. Callers must treat
// this as a hard cliff and demand explicit confirmation first.
func (s *Store) PurgeAll(ctx context.Context) error {
	if err := s.kv.Clear(ctx); err != nil {
		return fmt.Errorf("%w: purge all: %v", common.ErrPersistence, err)
	}
	return nil
}
