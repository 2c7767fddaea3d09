package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"passvault/internal/common"
	"passvault/internal/cryptox"
	"passvault/internal/logging"
	"passvault/internal/remote"
	"passvault/internal/strength"
)

// State is the manager's session state.
type State string

const (
	StateNoVault  State = "no-vault"
	StateLocked   State = "locked"
	StateUnlocked State = "unlocked"
)

// ErrRemoteDisabled is returned by offload operations when the vault's
// remote-storage feature flag is off.
var ErrRemoteDisabled = errors.New("remote storage disabled for this vault")

// EntryPatch carries partial updates for UpdateEntry. Nil fields are left
// unchanged; ID and CreatedAt are never patchable.
type EntryPatch struct {
	Title        *string
	Username     *string
	Password     *string
	URL          *string
	Notes        *string
	Category     *Category
	PrivacyLevel *PrivacyLevel
}

// sensitivePayload is the sealed portion of an offloaded entry.
type sensitivePayload struct {
	Password string `json:"password"`
	Notes    string `json:"notes"`
}

// Manager owns one vault session: unlock/lock lifecycle, entry CRUD,
// master-password rotation, and destructive wipes.
//
// The session caches the derived master key (salt-bound), never the raw
// password; Lock wipes it. All operations are serialized by an internal
// mutex, so re-entrant calls from UI double-submission cannot interleave a
// mutation with its persistence.
type Manager struct {
	mu         sync.Mutex
	store      *Store
	blobs      remote.BlobStore
	log        logging.Logger
	iterations int

	state     State
	owner     string
	salt      []byte
	masterKey []byte
	current   *Vault
}

// NewManager constructs a Manager over the given persistence and blob
// stores. iterations <= 0 selects the default KDF cost.
func NewManager(store *Store, blobs remote.BlobStore, log logging.Logger, iterations int) *Manager {
	if iterations <= 0 {
		iterations = cryptox.DefaultIterations
	}
	return &Manager{
		store:      store,
		blobs:      blobs,
		log:        log.With("component", "vault-manager"),
		iterations: iterations,
		state:      StateLocked,
	}
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Owner returns the owner key of the current session, empty when locked.
func (m *Manager) Owner() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUnlocked {
		return ""
	}
	return m.owner
}

// Unlock opens owner's vault with the supplied master password.
//
// When no vault exists for owner, a new empty vault is created and the
// supplied password becomes its master password. When a vault exists, the
// password is verified against the stored verifier in constant time; a
// mismatch yields common.ErrInvalidCredentials without revealing anything
// further. A record whose verifier is missing (partial wipe) is refused
// with common.ErrVerifierMissing; wipe and recreate instead.
func (m *Manager) Unlock(ctx context.Context, owner string, password []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.store.Load(ctx, owner)
	if err != nil {
		return err
	}
	if rec == nil {
		return m.createVault(ctx, owner, password)
	}
	if len(rec.Verifier) == 0 {
		m.log.Warn(ctx, "vault record has no verifier, refusing unlock", "owner", owner)
		return common.ErrVerifierMissing
	}

	key := cryptox.DeriveKey(password, rec.Salt, rec.Iterations)
	if !cryptox.VerifierEqual(cryptox.MakeVerifier(key), rec.Verifier) {
		common.WipeByteArray(key)
		return common.ErrInvalidCredentials
	}

	body, err := cryptox.OpenWithKey(rec.Blob, key)
	if err != nil {
		common.WipeByteArray(key)
		return err
	}
	defer common.WipeByteArray(body)

	var v Vault
	if err := json.Unmarshal(body, &v); err != nil {
		common.WipeByteArray(key)
		return fmt.Errorf("%w: decode vault body: %v", common.ErrPersistence, err)
	}

	m.setSession(owner, rec.Salt, rec.Iterations, key, &v)
	m.log.Info(ctx, "vault unlocked", "owner", owner, "entries", len(v.Entries))
	return nil
}

func (m *Manager) createVault(ctx context.Context, owner string, password []byte) error {
	if res := strength.Score(string(password)); res.Score < strength.MinMasterScore {
		return fmt.Errorf("%w: %s", common.ErrWeakPassword, strings.Join(res.Feedback, "; "))
	}

	salt, err := common.RandBytes(cryptox.SaltLen)
	if err != nil {
		return fmt.Errorf("salt generation: %w", err)
	}
	key := cryptox.DeriveKey(password, salt, m.iterations)

	now := time.Now().UTC()
	v := &Vault{
		ID:       uuid.NewString(),
		OwnerKey: owner,
		Entries:  []Entry{},
		Metadata: Metadata{
			SchemaVersion:       SchemaVersion,
			CreatedAt:           now,
			UpdatedAt:           now,
			DefaultPrivacyLevel: PrivacyPrivate,
			Features:            Features{RemoteStorage: true},
		},
	}

	m.setSession(owner, salt, m.iterations, key, v)
	if err := m.sealAndSave(ctx, v); err != nil {
		m.clearSession()
		return err
	}

	m.log.Info(ctx, "vault created", "owner", owner)
	return nil
}

// Lock wipes the session key and the in-memory vault. Idempotent.
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateUnlocked {
		return
	}
	m.clearSession()
	m.state = StateLocked
}

// AddEntry stores a new entry and persists the vault before returning.
// A missing ID is assigned; a duplicate ID is rejected.
func (m *Manager) AddEntry(ctx context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireUnlocked(); err != nil {
		return Entry{}, err
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	} else if m.current.EntryIndex(e.ID) >= 0 {
		return Entry{}, fmt.Errorf("entry %s: %w", e.ID, common.ErrAlreadyExists)
	}
	if e.Category == "" {
		e.Category = CategoryOther
	}
	if e.PrivacyLevel == "" {
		e.PrivacyLevel = m.current.Metadata.DefaultPrivacyLevel
	}

	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	e.Verified = true

	working := m.current.Clone()
	working.Entries = append(working.Entries, e)

	if err := m.commit(ctx, working); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// UpdateEntry applies a partial update to the entry with the given id.
// ID and CreatedAt are preserved from the original; UpdatedAt is bumped.
func (m *Manager) UpdateEntry(ctx context.Context, id string, patch EntryPatch) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireUnlocked(); err != nil {
		return Entry{}, err
	}

	idx := m.current.EntryIndex(id)
	if idx < 0 {
		return Entry{}, fmt.Errorf("entry %s: %w", id, common.ErrNotFound)
	}

	working := m.current.Clone()
	e := &working.Entries[idx]
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Username != nil {
		e.Username = *patch.Username
	}
	if patch.Password != nil {
		e.Password = *patch.Password
	}
	if patch.URL != nil {
		e.URL = *patch.URL
	}
	if patch.Notes != nil {
		e.Notes = *patch.Notes
	}
	if patch.Category != nil {
		e.Category = *patch.Category
	}
	if patch.PrivacyLevel != nil {
		e.PrivacyLevel = *patch.PrivacyLevel
	}
	e.UpdatedAt = time.Now().UTC()
	e.Verified = true

	if err := m.commit(ctx, working); err != nil {
		return Entry{}, err
	}
	return working.Entries[idx], nil
}

// DeleteEntry removes the entry with the given id. Deleting an unknown id
// is a no-op, not an error, and is idempotent.
func (m *Manager) DeleteEntry(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireUnlocked(); err != nil {
		return err
	}

	idx := m.current.EntryIndex(id)
	if idx < 0 {
		return nil
	}

	ref := m.current.Entries[idx].RemoteRef

	working := m.current.Clone()
	working.Entries = append(working.Entries[:idx], working.Entries[idx+1:]...)
	delete(working.RemoteRefs, id)

	if err := m.commit(ctx, working); err != nil {
		return err
	}

	if ref != "" {
		if err := m.blobs.Delete(ctx, ref); err != nil {
			m.log.Warn(ctx, "failed to delete offloaded blob", "ref", ref, "error", err)
		}
	}
	return nil
}

// GetEntry returns a copy of the entry with the given id.
func (m *Manager) GetEntry(id string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireUnlocked(); err != nil {
		return Entry{}, err
	}

	idx := m.current.EntryIndex(id)
	if idx < 0 {
		return Entry{}, fmt.Errorf("entry %s: %w", id, common.ErrNotFound)
	}
	return m.current.Entries[idx], nil
}

// ListEntries returns a copy of all entries in insertion order.
func (m *Manager) ListEntries() ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireUnlocked(); err != nil {
		return nil, err
	}

	out := make([]Entry, len(m.current.Entries))
	copy(out, m.current.Entries)
	return out, nil
}

// CurrentVault returns a deep copy of the unlocked vault, e.g. for export.
func (m *Manager) CurrentVault() (*Vault, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireUnlocked(); err != nil {
		return nil, err
	}
	return m.current.Clone(), nil
}

// ReplaceContents swaps the unlocked vault's entries and remote references
// for those of the imported vault and persists the result. The imported
// vault must belong to the session owner.
func (m *Manager) ReplaceContents(ctx context.Context, imported *Vault) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireUnlocked(); err != nil {
		return err
	}
	if imported.OwnerKey != m.owner {
		return common.ErrOwnerMismatch
	}

	working := m.current.Clone()
	working.Entries = make([]Entry, len(imported.Entries))
	copy(working.Entries, imported.Entries)
	working.RemoteRefs = nil
	if imported.RemoteRefs != nil {
		working.RemoteRefs = make(map[string]RemoteRefMeta, len(imported.RemoteRefs))
		for k, meta := range imported.RemoteRefs {
			working.RemoteRefs[k] = meta
		}
	}

	return m.commit(ctx, working)
}

// ChangeMasterPassword rotates the master password. The old password must
// verify; the new one must score at least strength.MinMasterScore. The
// vault body (and any offloaded blobs) are re-sealed under the new key in
// memory and persisted with a single write, so a failure at any step
// leaves the previous on-disk state intact.
func (m *Manager) ChangeMasterPassword(ctx context.Context, oldPassword, newPassword []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireUnlocked(); err != nil {
		return err
	}

	oldKey := cryptox.DeriveKey(oldPassword, m.salt, m.iterations)
	defer common.WipeByteArray(oldKey)
	if !cryptox.VerifierEqual(cryptox.MakeVerifier(oldKey), cryptox.MakeVerifier(m.masterKey)) {
		return common.ErrInvalidCredentials
	}

	if res := strength.Score(string(newPassword)); res.Score < strength.MinMasterScore {
		return fmt.Errorf("%w: %s", common.ErrWeakPassword, strings.Join(res.Feedback, "; "))
	}

	newSalt, err := common.RandBytes(cryptox.SaltLen)
	if err != nil {
		return fmt.Errorf("salt generation: %w", err)
	}
	newKey := cryptox.DeriveKey(newPassword, newSalt, m.iterations)

	working := m.current.Clone()
	oldRefs, err := m.resealOffloaded(ctx, working, newKey)
	if err != nil {
		common.WipeByteArray(newKey)
		return err
	}

	now := time.Now().UTC()
	working.Metadata.UpdatedAt = now

	body, err := json.Marshal(working)
	if err != nil {
		common.WipeByteArray(newKey)
		return fmt.Errorf("%w: marshal vault: %v", common.ErrPersistence, err)
	}
	blob, err := cryptox.SealWithKey(body, newKey)
	common.WipeByteArray(body)
	if err != nil {
		common.WipeByteArray(newKey)
		return err
	}

	rec := &Record{
		Salt:       newSalt,
		Iterations: m.iterations,
		Verifier:   cryptox.MakeVerifier(newKey),
		Blob:       blob,
	}
	if err := m.store.Save(ctx, m.owner, rec); err != nil {
		common.WipeByteArray(newKey)
		return err
	}

	// Only now is the rotation durable; swap the session over.
	common.WipeByteArray(m.masterKey)
	m.masterKey = newKey
	m.salt = newSalt
	m.current = working

	for _, ref := range oldRefs {
		if err := m.blobs.Delete(ctx, ref); err != nil {
			m.log.Warn(ctx, "failed to delete superseded blob", "ref", ref, "error", err)
		}
	}

	m.log.Info(ctx, "master password changed", "owner", m.owner)
	return nil
}

// resealOffloaded re-encrypts every offloaded payload under newKey and
// updates working's references in place. It returns the superseded refs so
// the caller can delete them after the local save succeeds.
func (m *Manager) resealOffloaded(ctx context.Context, working *Vault, newKey []byte) ([]string, error) {
	var oldRefs []string
	for id, meta := range working.RemoteRefs {
		raw, err := m.blobs.Get(ctx, meta.Ref)
		if err != nil {
			return nil, fmt.Errorf("offloaded entry %s: %w", id, err)
		}

		var blob cryptox.EncryptedBlob
		if err := json.Unmarshal(raw, &blob); err != nil {
			return nil, fmt.Errorf("%w: offloaded entry %s: %v", common.ErrDecryption, id, err)
		}
		payload, err := cryptox.OpenWithKey(&blob, m.masterKey)
		if err != nil {
			return nil, fmt.Errorf("offloaded entry %s: %w", id, err)
		}

		newBlob, err := cryptox.SealWithKey(payload, newKey)
		common.WipeByteArray(payload)
		if err != nil {
			return nil, err
		}
		newRaw, err := json.Marshal(newBlob)
		if err != nil {
			return nil, fmt.Errorf("%w: offloaded entry %s: %v", common.ErrPersistence, id, err)
		}
		newRef, err := m.blobs.Put(ctx, newRaw)
		if err != nil {
			return nil, fmt.Errorf("offloaded entry %s: %w", id, err)
		}

		oldRefs = append(oldRefs, meta.Ref)
		proof := cryptox.Hash(newRaw)
		working.RemoteRefs[id] = RemoteRefMeta{Ref: newRef, ProofHash: proof, StoredAt: time.Now().UTC()}
		if idx := working.EntryIndex(id); idx >= 0 {
			working.Entries[idx].RemoteRef = newRef
			working.Entries[idx].ProofHash = proof
		}
	}
	return oldRefs, nil
}

// OffloadEntry seals the entry's sensitive fields, stores them in the
// content-addressed blob store, and blanks the local copies. Requires the
// vault's remote-storage feature flag. Idempotent for already-offloaded
// entries.
func (m *Manager) OffloadEntry(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireUnlocked(); err != nil {
		return err
	}
	if !m.current.Metadata.Features.RemoteStorage {
		return ErrRemoteDisabled
	}

	idx := m.current.EntryIndex(id)
	if idx < 0 {
		return fmt.Errorf("entry %s: %w", id, common.ErrNotFound)
	}
	if m.current.Entries[idx].RemoteRef != "" {
		return nil
	}

	payload, err := json.Marshal(sensitivePayload{
		Password: m.current.Entries[idx].Password,
		Notes:    m.current.Entries[idx].Notes,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal payload: %v", common.ErrPersistence, err)
	}
	blob, err := cryptox.SealWithKey(payload, m.masterKey)
	common.WipeByteArray(payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("%w: marshal blob: %v", common.ErrPersistence, err)
	}

	ref, err := m.blobs.Put(ctx, raw)
	if err != nil {
		return fmt.Errorf("offload entry %s: %w", id, err)
	}
	proof := cryptox.Hash(raw)
	now := time.Now().UTC()

	working := m.current.Clone()
	e := &working.Entries[idx]
	e.Password = ""
	e.Notes = ""
	e.RemoteRef = ref
	e.ProofHash = proof
	e.UpdatedAt = now
	if working.RemoteRefs == nil {
		working.RemoteRefs = make(map[string]RemoteRefMeta)
	}
	working.RemoteRefs[id] = RemoteRefMeta{Ref: ref, ProofHash: proof, StoredAt: now}

	return m.commit(ctx, working)
}

// RestoreEntry fetches an offloaded entry's payload, verifies its proof
// hash, and restores the sensitive fields locally.
func (m *Manager) RestoreEntry(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireUnlocked(); err != nil {
		return err
	}

	idx := m.current.EntryIndex(id)
	if idx < 0 {
		return fmt.Errorf("entry %s: %w", id, common.ErrNotFound)
	}
	meta, ok := m.current.RemoteRefs[id]
	if !ok {
		return nil
	}

	raw, err := m.blobs.Get(ctx, meta.Ref)
	if err != nil {
		return fmt.Errorf("restore entry %s: %w", id, err)
	}
	if cryptox.Hash(raw) != meta.ProofHash {
		return fmt.Errorf("%w: proof hash mismatch for entry %s", common.ErrDecryption, id)
	}

	var blob cryptox.EncryptedBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return fmt.Errorf("%w: entry %s: %v", common.ErrDecryption, id, err)
	}
	body, err := cryptox.OpenWithKey(&blob, m.masterKey)
	if err != nil {
		return fmt.Errorf("restore entry %s: %w", id, err)
	}
	defer common.WipeByteArray(body)

	var payload sensitivePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("%w: entry %s: %v", common.ErrDecryption, id, err)
	}

	working := m.current.Clone()
	e := &working.Entries[idx]
	e.Password = payload.Password
	e.Notes = payload.Notes
	e.RemoteRef = ""
	e.ProofHash = ""
	e.UpdatedAt = time.Now().UTC()
	delete(working.RemoteRefs, id)

	if err := m.commit(ctx, working); err != nil {
		return err
	}

	if err := m.blobs.Delete(ctx, meta.Ref); err != nil {
		m.log.Warn(ctx, "failed to delete restored blob", "ref", meta.Ref, "error", err)
	}
	return nil
}

// Wipe deletes owner's vault and every persisted key in its namespace,
// transitioning to NoVault. It works from any state. Broader destruction
// is deliberately a separate operation (EmergencyWipeAll).
func (m *Manager) Wipe(ctx context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Purge(ctx, owner); err != nil {
		return err
	}
	// Another owner's live session is untouched by a scoped wipe.
	if m.state != StateUnlocked || m.owner == owner {
		m.clearSession()
		m.state = StateNoVault
	}
	m.log.Warn(ctx, "vault wiped", "owner", owner)
	return nil
}

// EmergencyWipeAll clears the entire persistence store, all owners
// included. The caller layer must require explicit confirmation; this is
// rarely reversible.
func (m *Manager) EmergencyWipeAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.PurgeAll(ctx); err != nil {
		return err
	}
	m.clearSession()
	m.state = StateNoVault
	m.log.Warn(ctx, "emergency wipe: all persisted state cleared")
	return nil
}

func (m *Manager) requireUnlocked() error {
	if m.state != StateUnlocked || m.current == nil {
		return common.ErrLocked
	}
	return nil
}

// commit finalizes a staged mutation: it restores the entry-count
// invariant, persists the working copy, and only then swaps it in.
func (m *Manager) commit(ctx context.Context, working *Vault) error {
	working.Metadata.EntryCount = len(working.Entries)
	working.Metadata.UpdatedAt = time.Now().UTC()

	if err := m.sealAndSave(ctx, working); err != nil {
		return err
	}
	m.current = working
	return nil
}

func (m *Manager) sealAndSave(ctx context.Context, v *Vault) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: marshal vault: %v", common.ErrPersistence, err)
	}
	blob, err := cryptox.SealWithKey(body, m.masterKey)
	common.WipeByteArray(body)
	if err != nil {
		return err
	}

	rec := &Record{
		Salt:       m.salt,
		Iterations: m.iterations,
		Verifier:   cryptox.MakeVerifier(m.masterKey),
		Blob:       blob,
	}
	return m.store.Save(ctx, m.owner, rec)
}

func (m *Manager) setSession(owner string, salt []byte, iterations int, key []byte, v *Vault) {
	common.WipeByteArray(m.masterKey)
	m.owner = owner
	m.salt = salt
	m.iterations = iterations
	m.masterKey = key
	m.current = v
	m.state = StateUnlocked
}

func (m *Manager) clearSession() {
	common.WipeByteArray(m.masterKey)
	m.masterKey = nil
	m.salt = nil
	m.owner = ""
	m.current = nil
}
