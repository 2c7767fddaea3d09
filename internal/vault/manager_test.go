package vault

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passvault/internal/common"
	"passvault/internal/logging"
	"passvault/internal/remote"
	"passvault/internal/storage"
)

// testIterations keeps PBKDF2 cheap in tests.
const testIterations = 256

func newTestManager(t *testing.T) (*Manager, storage.KV) {
	t.Helper()
	kv := storage.NewMemory()
	log := logging.NewTextLogger(io.Discard, slog.LevelError)
	m := NewManager(NewStore(kv, log), remote.NewKVStore(kv), log, testIterations)
	return m, kv
}

func unlocked(t *testing.T, owner, password string) *Manager {
	t.Helper()
	m, _ := newTestManager(t)
	require.NoError(t, m.Unlock(context.Background(), owner, []byte(password)))
	return m
}

func TestManager_UnlockCreatesVaultOnFirstUse(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Unlock(ctx, "0xABC", []byte("first-login")))
	assert.Equal(t, StateUnlocked, m.State())
	assert.Equal(t, "0xABC", m.Owner())

	entries, err := m.ListEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestManager_CreateRejectsWeakMaster(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.Unlock(context.Background(), "0xABC", []byte("abc"))
	assert.True(t, errors.Is(err, common.ErrWeakPassword))
	assert.Equal(t, StateLocked, m.State())
}

func TestManager_WrongPasswordAfterCreate(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Unlock(ctx, "0xABC", []byte("first-login")))
	m.Lock()

	err := m.Unlock(ctx, "0xABC", []byte("wrong"))
	assert.True(t, errors.Is(err, common.ErrInvalidCredentials))
	assert.Equal(t, StateLocked, m.State())
}

func TestManager_ReUnlockReturnsSavedEntries(t *testing.T) {
	m, kv := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Unlock(ctx, "0xABC", []byte("first-login")))
	added, err := m.AddEntry(ctx, Entry{Title: "GitHub", Username: "dev", Password: "hunter2"})
	require.NoError(t, err)
	m.Lock()

	// A fresh manager over the same backend sees the persisted state.
	log := logging.NewTextLogger(io.Discard, slog.LevelError)
	m2 := NewManager(NewStore(kv, log), remote.NewKVStore(kv), log, testIterations)
	require.NoError(t, m2.Unlock(ctx, "0xABC", []byte("first-login")))

	entries, err := m2.ListEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, added.ID, entries[0].ID)
	assert.Equal(t, "GitHub", entries[0].Title)
	assert.Equal(t, "hunter2", entries[0].Password)
}

func TestManager_VerifierMissingRefusesUnlock(t *testing.T) {
	m, kv := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Unlock(ctx, "0xABC", []byte("first-login")))
	m.Lock()

	// Strip the verifier to simulate a partially wiped record.
	log := logging.NewTextLogger(io.Discard, slog.LevelError)
	store := NewStore(kv, log)
	rec, err := store.Load(ctx, "0xABC")
	require.NoError(t, err)
	rec.Verifier = nil
	require.NoError(t, store.Save(ctx, "0xABC", rec))

	err = m.Unlock(ctx, "0xABC", []byte("first-login"))
	assert.True(t, errors.Is(err, common.ErrVerifierMissing))
}

func TestManager_OperationsRequireUnlock(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddEntry(ctx, Entry{Title: "x"})
	assert.True(t, errors.Is(err, common.ErrLocked))
	_, err = m.ListEntries()
	assert.True(t, errors.Is(err, common.ErrLocked))
	_, err = m.GetEntry("id")
	assert.True(t, errors.Is(err, common.ErrLocked))
	err = m.DeleteEntry(ctx, "id")
	assert.True(t, errors.Is(err, common.ErrLocked))
}

func TestManager_AddEntryDefaults(t *testing.T) {
	m := unlocked(t, "0xABC", "first-login")

	e, err := m.AddEntry(context.Background(), Entry{Title: "Mail"})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, CategoryOther, e.Category)
	assert.Equal(t, PrivacyPrivate, e.PrivacyLevel)
	assert.False(t, e.CreatedAt.IsZero())
	assert.True(t, e.Verified)
	assert.False(t, e.UpdatedAt.Before(e.CreatedAt))
}

func TestManager_AddEntryDuplicateID(t *testing.T) {
	m := unlocked(t, "0xABC", "first-login")
	ctx := context.Background()

	_, err := m.AddEntry(ctx, Entry{ID: "fixed", Title: "a"})
	require.NoError(t, err)
	_, err = m.AddEntry(ctx, Entry{ID: "fixed", Title: "b"})
	assert.True(t, errors.Is(err, common.ErrAlreadyExists))
}

func TestManager_UpdateEntry(t *testing.T) {
	m := unlocked(t, "0xABC", "first-login")
	ctx := context.Background()

	e, err := m.AddEntry(ctx, Entry{Title: "Mail", Password: "old"})
	require.NoError(t, err)

	newPass := "new"
	got, err := m.UpdateEntry(ctx, e.ID, EntryPatch{Password: &newPass})
	require.NoError(t, err)

	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "new", got.Password)
	assert.Equal(t, "Mail", got.Title)
	assert.Equal(t, e.CreatedAt, got.CreatedAt)

	_, err = m.UpdateEntry(ctx, "missing", EntryPatch{Password: &newPass})
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestManager_DeleteEntryIdempotent(t *testing.T) {
	m := unlocked(t, "0xABC", "first-login")
	ctx := context.Background()

	e, err := m.AddEntry(ctx, Entry{Title: "Mail"})
	require.NoError(t, err)

	require.NoError(t, m.DeleteEntry(ctx, e.ID))
	require.NoError(t, m.DeleteEntry(ctx, e.ID))

	entries, err := m.ListEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestManager_EntryCountInvariant(t *testing.T) {
	m := unlocked(t, "0xABC", "first-login")
	ctx := context.Background()

	_, err := m.AddEntry(ctx, Entry{Title: "a"})
	require.NoError(t, err)
	e2, err := m.AddEntry(ctx, Entry{Title: "b"})
	require.NoError(t, err)

	v, err := m.CurrentVault()
	require.NoError(t, err)
	assert.Equal(t, 2, v.Metadata.EntryCount)

	require.NoError(t, m.DeleteEntry(ctx, e2.ID))
	v, err = m.CurrentVault()
	require.NoError(t, err)
	assert.Equal(t, 1, v.Metadata.EntryCount)
}

func TestManager_ChangeMasterPassword(t *testing.T) {
	m, kv := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Unlock(ctx, "0xABC", []byte("first-login")))
	_, err := m.AddEntry(ctx, Entry{Title: "Mail", Password: "hunter2"})
	require.NoError(t, err)

	require.NoError(t, m.ChangeMasterPassword(ctx, []byte("first-login"), []byte("N3w-pass-word")))
	m.Lock()

	log := logging.NewTextLogger(io.Discard, slog.LevelError)
	m2 := NewManager(NewStore(kv, log), remote.NewKVStore(kv), log, testIterations)

	err = m2.Unlock(ctx, "0xABC", []byte("first-login"))
	assert.True(t, errors.Is(err, common.ErrInvalidCredentials))

	require.NoError(t, m2.Unlock(ctx, "0xABC", []byte("N3w-pass-word")))
	entries, err := m2.ListEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hunter2", entries[0].Password)
}

func TestManager_ChangeMasterPasswordWrongOld(t *testing.T) {
	m := unlocked(t, "0xABC", "first-login")

	err := m.ChangeMasterPassword(context.Background(), []byte("nope"), []byte("N3w-pass-word"))
	assert.True(t, errors.Is(err, common.ErrInvalidCredentials))
}

func TestManager_ChangeMasterPasswordRejectsWeak(t *testing.T) {
	m := unlocked(t, "0xABC", "first-login")

	err := m.ChangeMasterPassword(context.Background(), []byte("first-login"), []byte("ab"))
	assert.True(t, errors.Is(err, common.ErrWeakPassword))

	// Old password still unlocks: nothing was persisted.
	m.Lock()
	require.NoError(t, m.Unlock(context.Background(), "0xABC", []byte("first-login")))
}

func TestManager_OffloadAndRestoreEntry(t *testing.T) {
	m := unlocked(t, "0xABC", "first-login")
	ctx := context.Background()

	e, err := m.AddEntry(ctx, Entry{Title: "Wallet", Password: "seed phrase", Notes: "cold storage"})
	require.NoError(t, err)

	require.NoError(t, m.OffloadEntry(ctx, e.ID))
	got, err := m.GetEntry(e.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Password)
	assert.Empty(t, got.Notes)
	assert.NotEmpty(t, got.RemoteRef)
	assert.NotEmpty(t, got.ProofHash)

	// Offloading again is a no-op.
	require.NoError(t, m.OffloadEntry(ctx, e.ID))

	require.NoError(t, m.RestoreEntry(ctx, e.ID))
	got, err = m.GetEntry(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "seed phrase", got.Password)
	assert.Equal(t, "cold storage", got.Notes)
	assert.Empty(t, got.RemoteRef)
}

func TestManager_OffloadedEntrySurvivesRestart(t *testing.T) {
	m, kv := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Unlock(ctx, "0xABC", []byte("first-login")))
	e, err := m.AddEntry(ctx, Entry{Title: "Wallet", Password: "seed phrase", Notes: "cold storage"})
	require.NoError(t, err)
	require.NoError(t, m.OffloadEntry(ctx, e.ID))
	m.Lock()

	// A fresh manager and blob store over the same backend can still
	// restore the payload.
	log := logging.NewTextLogger(io.Discard, slog.LevelError)
	m2 := NewManager(NewStore(kv, log), remote.NewKVStore(kv), log, testIterations)
	require.NoError(t, m2.Unlock(ctx, "0xABC", []byte("first-login")))

	require.NoError(t, m2.RestoreEntry(ctx, e.ID))
	got, err := m2.GetEntry(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "seed phrase", got.Password)
	assert.Equal(t, "cold storage", got.Notes)
}

func TestManager_ChangeMasterPasswordResealsOffloaded(t *testing.T) {
	m, kv := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Unlock(ctx, "0xABC", []byte("first-login")))
	e, err := m.AddEntry(ctx, Entry{Title: "Wallet", Password: "seed phrase"})
	require.NoError(t, err)
	require.NoError(t, m.OffloadEntry(ctx, e.ID))

	require.NoError(t, m.ChangeMasterPassword(ctx, []byte("first-login"), []byte("N3w-pass-word")))

	require.NoError(t, m.RestoreEntry(ctx, e.ID))
	got, err := m.GetEntry(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "seed phrase", got.Password)

	_ = kv
}

func TestManager_ReplaceContents(t *testing.T) {
	m := unlocked(t, "0xABC", "first-login")
	ctx := context.Background()

	_, err := m.AddEntry(ctx, Entry{Title: "old"})
	require.NoError(t, err)

	imported := &Vault{
		OwnerKey: "0xABC",
		Entries:  []Entry{{ID: "i1", Title: "imported"}},
	}
	require.NoError(t, m.ReplaceContents(ctx, imported))

	entries, err := m.ListEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "imported", entries[0].Title)
}

func TestManager_ReplaceContentsOwnerMismatch(t *testing.T) {
	m := unlocked(t, "0xABC", "first-login")

	err := m.ReplaceContents(context.Background(), &Vault{OwnerKey: "0xDEF"})
	assert.True(t, errors.Is(err, common.ErrOwnerMismatch))
}

func TestManager_WipeScopedToOwner(t *testing.T) {
	m, kv := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Unlock(ctx, "0xA", []byte("pass-word-a")))
	m.Lock()
	require.NoError(t, m.Unlock(ctx, "0xB", []byte("pass-word-b")))
	m.Lock()

	require.NoError(t, m.Wipe(ctx, "0xA"))
	assert.Equal(t, StateNoVault, m.State())

	// 0xA is gone: unlocking recreates a fresh vault even with a new password.
	require.NoError(t, m.Unlock(ctx, "0xA", []byte("anything-goes")))
	m.Lock()

	// 0xB survived the scoped wipe.
	require.NoError(t, m.Unlock(ctx, "0xB", []byte("pass-word-b")))

	_ = kv
}

func TestManager_WipeOtherOwnerKeepsSession(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Unlock(ctx, "0xA", []byte("pass-word-a")))
	m.Lock()
	require.NoError(t, m.Unlock(ctx, "0xB", []byte("pass-word-b")))
	_, err := m.AddEntry(ctx, Entry{Title: "keep me"})
	require.NoError(t, err)

	require.NoError(t, m.Wipe(ctx, "0xA"))

	// 0xB's session stays unlocked and usable.
	assert.Equal(t, StateUnlocked, m.State())
	assert.Equal(t, "0xB", m.Owner())
	entries, err := m.ListEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep me", entries[0].Title)
}

func TestManager_EmergencyWipeAll(t *testing.T) {
	m, kv := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Unlock(ctx, "0xA", []byte("pass-word-a")))
	m.Lock()
	require.NoError(t, m.Unlock(ctx, "0xB", []byte("pass-word-b")))

	require.NoError(t, m.EmergencyWipeAll(ctx))
	assert.Equal(t, StateNoVault, m.State())

	keys, err := kv.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestManager_LockIdempotent(t *testing.T) {
	m := unlocked(t, "0xABC", "first-login")

	m.Lock()
	m.Lock()
	assert.Equal(t, StateLocked, m.State())
	assert.Empty(t, m.Owner())
}
