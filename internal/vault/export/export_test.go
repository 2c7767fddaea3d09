package export

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passvault/internal/common"
	"passvault/internal/cryptox"
	"passvault/internal/vault"
)

func sampleVault() *vault.Vault {
	return &vault.Vault{
		ID:       "v1",
		OwnerKey: "0xABC",
		Entries: []vault.Entry{
			{ID: "e1", Title: "GitHub", Username: "dev", Password: "hunter2", Notes: "work account", Category: vault.CategoryLogin},
			{ID: "e2", Title: "Wallet", Password: "seed phrase", Category: vault.CategoryWallet},
		},
		Metadata: vault.Metadata{SchemaVersion: vault.SchemaVersion, EntryCount: 2},
	}
}

func TestExport_SensitiveFieldsSealed(t *testing.T) {
	doc, err := Export(sampleVault(), []byte("export-pass"))
	require.NoError(t, err)

	assert.Equal(t, Version, doc.Version)
	assert.Equal(t, "0xABC", doc.Owner)
	assert.Equal(t, cryptox.AlgorithmGCM, doc.Manifest.Algorithm)
	assert.True(t, doc.Manifest.RequiresPassword)
	require.Len(t, doc.Entries, 2)

	for _, e := range doc.Entries {
		assert.Equal(t, Sentinel, e.Password)
		assert.Equal(t, Sentinel, e.Notes)
		require.NotNil(t, e.EncryptedData)
		assert.Equal(t, cryptox.AlgorithmGCM, e.EncryptedData.Algorithm)
	}
}

func TestExport_NoPlaintextInDocument(t *testing.T) {
	doc, err := Export(sampleVault(), []byte("export-pass"))
	require.NoError(t, err)

	raw, err := Marshal(doc)
	require.NoError(t, err)

	s := string(raw)
	assert.NotContains(t, s, "hunter2")
	assert.NotContains(t, s, "seed phrase")
	assert.NotContains(t, s, "work account")
	assert.Contains(t, s, Sentinel)
}

func TestImport_RoundTrip(t *testing.T) {
	doc, err := Export(sampleVault(), []byte("export-pass"))
	require.NoError(t, err)
	raw, err := Marshal(doc)
	require.NoError(t, err)

	got, warnings, err := Import(raw, "0xABC", []byte("export-pass"))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.Len(t, got.Entries, 2)
	assert.Equal(t, "hunter2", got.Entries[0].Password)
	assert.Equal(t, "work account", got.Entries[0].Notes)
	assert.Equal(t, "seed phrase", got.Entries[1].Password)
	assert.Equal(t, "0xABC", got.OwnerKey)
	assert.Equal(t, 2, got.Metadata.EntryCount)
}

func TestImport_OwnerMismatch(t *testing.T) {
	doc, err := Export(sampleVault(), []byte("export-pass"))
	require.NoError(t, err)
	raw, err := Marshal(doc)
	require.NoError(t, err)

	_, _, err = Import(raw, "0xDEF", []byte("export-pass"))
	assert.True(t, errors.Is(err, common.ErrOwnerMismatch))
}

func TestImport_WrongPasswordFailsWholeImport(t *testing.T) {
	doc, err := Export(sampleVault(), []byte("export-pass"))
	require.NoError(t, err)
	raw, err := Marshal(doc)
	require.NoError(t, err)

	_, warnings, err := Import(raw, "0xABC", []byte("wrong"))
	assert.True(t, errors.Is(err, common.ErrDecryption))
	assert.Len(t, warnings, 2)
}

func TestImport_SingleCorruptEntryKeptMasked(t *testing.T) {
	doc, err := Export(sampleVault(), []byte("export-pass"))
	require.NoError(t, err)

	// Corrupt the second entry's ciphertext only.
	doc.Entries[1].EncryptedData.Ciphertext[0] ^= 0xFF
	raw, err := Marshal(doc)
	require.NoError(t, err)

	got, warnings, err := Import(raw, "0xABC", []byte("export-pass"))
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.True(t, strings.Contains(warnings[0], "e2"))

	// Both entries survive; the corrupt one keeps its metadata with the
	// sensitive fields masked.
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "e1", got.Entries[0].ID)
	assert.Equal(t, "hunter2", got.Entries[0].Password)
	assert.Equal(t, "e2", got.Entries[1].ID)
	assert.Equal(t, "Wallet", got.Entries[1].Title)
	assert.Equal(t, Sentinel, got.Entries[1].Password)
	assert.Equal(t, Sentinel, got.Entries[1].Notes)
	assert.Equal(t, 2, got.Metadata.EntryCount)
}

func TestImport_LegacyBase64Entries(t *testing.T) {
	doc := Document{
		Version: 1,
		Owner:   "0xABC",
		Entries: []Entry{
			{
				Entry: vault.Entry{ID: "legacy", Title: "Old", Password: Sentinel, Notes: Sentinel},
				EncryptedData: &cryptox.EncryptedBlob{
					Algorithm:  cryptox.AlgorithmBase64,
					Ciphertext: []byte(`{"password":"plain-old","notes":"kept"}`),
				},
			},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	got, warnings, err := Import(raw, "0xABC", nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "plain-old", got.Entries[0].Password)
	assert.Equal(t, "kept", got.Entries[0].Notes)
}

func TestImport_InlineLegacyEntryWithoutBlob(t *testing.T) {
	doc := Document{
		Version: 1,
		Owner:   "0xABC",
		Entries: []Entry{
			{Entry: vault.Entry{ID: "inline", Title: "Old", Password: "visible", Notes: "note"}},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	got, warnings, err := Import(raw, "0xABC", nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "visible", got.Entries[0].Password)
}

func TestImport_SentinelWithoutBlobBlanked(t *testing.T) {
	doc := Document{
		Version: 2,
		Owner:   "0xABC",
		Entries: []Entry{
			{Entry: vault.Entry{ID: "broken", Title: "Lost", Password: Sentinel, Notes: Sentinel}},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	got, warnings, err := Import(raw, "0xABC", nil)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Len(t, got.Entries, 1)
	assert.Empty(t, got.Entries[0].Password)
	assert.Empty(t, got.Entries[0].Notes)
}

func TestImport_UnsupportedDocuments(t *testing.T) {
	_, _, err := Import([]byte("{not json"), "0xABC", nil)
	assert.True(t, errors.Is(err, common.ErrUnsupportedFormat))

	raw, err := json.Marshal(Document{Version: 99, Owner: "0xABC"})
	require.NoError(t, err)
	_, _, err = Import(raw, "0xABC", nil)
	assert.True(t, errors.Is(err, common.ErrUnsupportedFormat))
}

func TestValidateEncryption(t *testing.T) {
	doc, err := Export(sampleVault(), []byte("export-pass"))
	require.NoError(t, err)

	// Degrade one entry to legacy and leak one plaintext password.
	doc.Entries[0].EncryptedData = &cryptox.EncryptedBlob{
		Algorithm:  cryptox.AlgorithmBase64,
		Ciphertext: []byte(`{"password":"x","notes":""}`),
	}
	doc.Entries[1].Password = "oops-visible"

	raw, err := Marshal(doc)
	require.NoError(t, err)

	r, err := ValidateEncryption(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, r.EntryCount)
	assert.Equal(t, 1, r.EncryptedCount)
	assert.Equal(t, []string{"e1"}, r.LegacyEntries)
	assert.Equal(t, []string{"e2"}, r.PlaintextLeaks)
	assert.False(t, r.Secure())
}

func TestValidateEncryption_NotesLeak(t *testing.T) {
	doc, err := Export(sampleVault(), []byte("export-pass"))
	require.NoError(t, err)

	// Password stays masked but the notes field leaks.
	doc.Entries[0].Notes = "meeting-room wifi key"
	raw, err := Marshal(doc)
	require.NoError(t, err)

	r, err := ValidateEncryption(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, r.PlaintextLeaks)
	assert.False(t, r.Secure())
}

func TestValidateEncryption_CleanExportIsSecure(t *testing.T) {
	doc, err := Export(sampleVault(), []byte("export-pass"))
	require.NoError(t, err)
	raw, err := Marshal(doc)
	require.NoError(t, err)

	r, err := ValidateEncryption(raw)
	require.NoError(t, err)
	assert.True(t, r.Secure())
}
