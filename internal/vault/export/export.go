// Package export implements the portable vault export document: a JSON
// envelope whose sensitive fields are replaced by a sentinel and carried
// only inside per-entry encrypted blobs. The importer accepts every
// document version and algorithm ever emitted, including legacy
// unencrypted exports.
package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"passvault/internal/common"
	"passvault/internal/cryptox"
	"passvault/internal/vault"
)

const (
	// Version is the document version written by Export.
	Version = 2

	// Sentinel replaces sensitive field values in the visible part of the
	// document. The real values live in each entry's encrypted blob.
	Sentinel = "[ENCRYPTED]"

	kdfName = "pbkdf2-sha256"
)

// Manifest describes how the document's sensitive data is protected, so a
// reader can reject or warn before attempting decryption.
type Manifest struct {
	Algorithm        string   `json:"algorithm"`
	KDF              string   `json:"kdf"`
	Iterations       int      `json:"iterations"`
	SensitiveFields  []string `json:"sensitiveFields"`
	RequiresPassword bool     `json:"requiresPassword"`
}

// Entry is one exported entry. The embedded fields mirror the vault entry
// with Password and Notes replaced by Sentinel; EncryptedData holds the
// sealed originals.
type Entry struct {
	vault.Entry
	EncryptedData *cryptox.EncryptedBlob `json:"encryptedData,omitempty"`
}

// Document is the export envelope.
type Document struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Owner      string    `json:"owner"`
	Manifest   Manifest  `json:"manifest"`
	Entries    []Entry   `json:"entries"`
}

// sensitivePayload is the plaintext sealed into each entry's blob.
type sensitivePayload struct {
	Password string `json:"password"`
	Notes    string `json:"notes"`
}

// Export builds a document from v. Every entry's sensitive fields are
// sealed under a key derived from password with a fresh salt, so two
// exports of the same vault never share ciphertext.
func Export(v *vault.Vault, password []byte) (*Document, error) {
	doc := &Document{
		Version:    Version,
		ExportedAt: time.Now().UTC(),
		Owner:      v.OwnerKey,
		Manifest: Manifest{
			Algorithm:        cryptox.AlgorithmGCM,
			KDF:              kdfName,
			Iterations:       cryptox.DefaultIterations,
			SensitiveFields:  []string{"password", "notes"},
			RequiresPassword: true,
		},
		Entries: make([]Entry, 0, len(v.Entries)),
	}

	for i := range v.Entries {
		src := v.Entries[i]

		payload, err := json.Marshal(sensitivePayload{Password: src.Password, Notes: src.Notes})
		if err != nil {
			return nil, fmt.Errorf("entry %s: marshal payload: %w", src.ID, err)
		}
		blob, err := cryptox.Encrypt(payload, password)
		common.WipeByteArray(payload)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", src.ID, err)
		}

		out := src
		out.Password = Sentinel
		out.Notes = Sentinel
		doc.Entries = append(doc.Entries, Entry{Entry: out, EncryptedData: blob})
	}
	return doc, nil
}

// Marshal renders the document as indented JSON, the on-disk export format.
func Marshal(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Import parses data and reconstructs a vault for owner, decrypting each
// entry's blob with password.
//
// A document exported for a different owner is refused with
// common.ErrOwnerMismatch. A single undecryptable entry does not abort the
// import: the entry is kept with its sensitive fields masked by Sentinel
// and reported in the returned warnings, so its metadata survives. When
// the document carries encrypted entries and none of them decrypt, the
// password is considered wrong and the import fails with
// common.ErrDecryption.
func Import(data []byte, owner string, password []byte) (*vault.Vault, []string, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrUnsupportedFormat, err)
	}
	if doc.Version < 1 || doc.Version > Version {
		return nil, nil, fmt.Errorf("%w: document version %d", common.ErrUnsupportedFormat, doc.Version)
	}
	if doc.Owner != "" && doc.Owner != owner {
		return nil, nil, fmt.Errorf("%w: document belongs to %s", common.ErrOwnerMismatch, doc.Owner)
	}

	var warnings []string
	var sealed, opened int

	now := time.Now().UTC()
	v := &vault.Vault{
		ID:       uuid.NewString(),
		OwnerKey: owner,
		Entries:  make([]vault.Entry, 0, len(doc.Entries)),
		Metadata: vault.Metadata{
			SchemaVersion:       vault.SchemaVersion,
			CreatedAt:           now,
			UpdatedAt:           now,
			DefaultPrivacyLevel: vault.PrivacyPrivate,
			Features:            vault.Features{RemoteStorage: true},
		},
	}

	for i := range doc.Entries {
		e := doc.Entries[i].Entry
		blob := doc.Entries[i].EncryptedData

		if blob != nil {
			sealed++
			payload, err := openPayload(blob, password)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("entry %s (%s): %v, sensitive fields left masked", e.ID, e.Title, err))
				e.Password = Sentinel
				e.Notes = Sentinel
			} else {
				opened++
				e.Password = payload.Password
				e.Notes = payload.Notes
			}
		} else {
			// Old exports shipped sensitive fields inline. Keep whatever is
			// there unless it is just the sentinel with nothing behind it.
			if e.Password == Sentinel || e.Notes == Sentinel {
				warnings = append(warnings, fmt.Sprintf("entry %s (%s): sensitive data missing, fields blanked", e.ID, e.Title))
				if e.Password == Sentinel {
					e.Password = ""
				}
				if e.Notes == Sentinel {
					e.Notes = ""
				}
			}
		}

		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.UpdatedAt.Before(e.CreatedAt) {
			e.UpdatedAt = e.CreatedAt
		}
		v.Entries = append(v.Entries, e)
	}

	if sealed > 0 && opened == 0 {
		return nil, warnings, fmt.Errorf("%w: no entry could be decrypted", common.ErrDecryption)
	}

	v.Metadata.EntryCount = len(v.Entries)
	return v, warnings, nil
}

// openPayload decrypts one entry's sealed payload.
func openPayload(blob *cryptox.EncryptedBlob, password []byte) (*sensitivePayload, error) {
	body, err := cryptox.Decrypt(blob, password)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(body)

	var payload sensitivePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("malformed payload")
	}
	return &payload, nil
}

// Report is the result of ValidateEncryption.
type Report struct {
	Version        int
	EntryCount     int
	EncryptedCount int
	LegacyEntries  []string
	PlaintextLeaks []string
}

// Secure reports whether every entry is protected by a real cipher and no
// sensitive value appears in the clear.
func (r *Report) Secure() bool {
	return r.EncryptedCount == r.EntryCount && len(r.PlaintextLeaks) == 0
}

// ValidateEncryption inspects an export document without decrypting it:
// which entries carry sealed payloads, which rely on legacy encodings, and
// which leak sensitive values in plaintext.
func ValidateEncryption(data []byte) (*Report, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedFormat, err)
	}

	r := &Report{Version: doc.Version, EntryCount: len(doc.Entries)}
	for i := range doc.Entries {
		e := doc.Entries[i].Entry
		blob := doc.Entries[i].EncryptedData

		label := e.ID
		if label == "" {
			label = e.Title
		}

		switch {
		case blob == nil:
		case blob.Algorithm == cryptox.AlgorithmBase64:
			r.LegacyEntries = append(r.LegacyEntries, label)
		default:
			r.EncryptedCount++
		}

		leakedPassword := e.Password != "" && e.Password != Sentinel
		leakedNotes := e.Notes != "" && e.Notes != Sentinel
		if leakedPassword || leakedNotes {
			r.PlaintextLeaks = append(r.PlaintextLeaks, label)
		}
	}
	return r, nil
}
