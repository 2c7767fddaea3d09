// Package vault implements the password vault core: the entry data model,
// the persistence layer over a key-value store, and the session manager
// that owns the NoVault → Locked → Unlocked lifecycle.
package vault

import "time"

// SchemaVersion is written into new vault metadata.
const SchemaVersion = 1

// PrivacyLevel classifies how an entry may be surfaced outside the vault.
type PrivacyLevel string

const (
	PrivacyPublic  PrivacyLevel = "public"
	PrivacyPrivate PrivacyLevel = "private"
	PrivacySecret  PrivacyLevel = "secret"
)

// Category classifies an entry. The set below is the built-in one; any
// other string is accepted as a user-defined category.
type Category string

const (
	CategoryLogin   Category = "login"
	CategoryWallet  Category = "wallet"
	CategoryEmail   Category = "email"
	CategoryBanking Category = "banking"
	CategoryNote    Category = "note"
	CategoryOther   Category = "other"
)

// Entry is one stored credential. Password and Notes are plaintext only
// while the vault is unlocked in memory; at rest the whole vault body is
// sealed under the master key.
type Entry struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Username     string       `json:"username"`
	Password     string       `json:"password"`
	URL          string       `json:"url"`
	Notes        string       `json:"notes"`
	Category     Category     `json:"category"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	Verified     bool         `json:"verified"`
	PrivacyLevel PrivacyLevel `json:"privacyLevel"`

	// RemoteRef and ProofHash are set when the entry's sensitive payload
	// has been offloaded to the content-addressed blob store.
	RemoteRef string `json:"remoteRef,omitempty"`
	ProofHash string `json:"proofHash,omitempty"`
}

// RemoteRefMeta records where an offloaded entry's sealed payload lives.
type RemoteRefMeta struct {
	Ref       string    `json:"ref"`
	ProofHash string    `json:"proofHash"`
	StoredAt  time.Time `json:"storedAt"`
}

// Features are per-vault feature flags.
type Features struct {
	RemoteStorage bool `json:"remoteStorage"`
	ZKProofs      bool `json:"zkProofs"`
}

// Metadata describes the vault container itself.
type Metadata struct {
	SchemaVersion       int          `json:"schemaVersion"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
	EntryCount          int          `json:"entryCount"`
	DefaultPrivacyLevel PrivacyLevel `json:"defaultPrivacyLevel"`
	Features            Features     `json:"features"`
}

// Vault is the per-owner container. OwnerKey is the partition key in
// storage and is immutable once the vault is created.
//
// Invariant: Metadata.EntryCount == len(Entries) after every mutation.
type Vault struct {
	ID         string                   `json:"id"`
	OwnerKey   string                   `json:"ownerKey"`
	Entries    []Entry                  `json:"entries"`
	RemoteRefs map[string]RemoteRefMeta `json:"remoteRefs,omitempty"`
	Metadata   Metadata                 `json:"metadata"`
}

// Clone returns a deep copy. Mutations are staged on a clone and swapped in
// only after they have been persisted.
func (v *Vault) Clone() *Vault {
	out := &Vault{
		ID:       v.ID,
		OwnerKey: v.OwnerKey,
		Metadata: v.Metadata,
	}
	if v.Entries != nil {
		out.Entries = make([]Entry, len(v.Entries))
		copy(out.Entries, v.Entries)
	}
	if v.RemoteRefs != nil {
		out.RemoteRefs = make(map[string]RemoteRefMeta, len(v.RemoteRefs))
		for k, m := range v.RemoteRefs {
			out.RemoteRefs[k] = m
		}
	}
	return out
}

// EntryIndex returns the position of the entry with the given id, or -1.
func (v *Vault) EntryIndex(id string) int {
	for i := range v.Entries {
		if v.Entries[i].ID == id {
			return i
		}
	}
	return -1
}
