// Package common defines shared constants, sentinel errors, and small
// utilities used across passvault packages. Callers should use errors.Is
// to match the sentinel values.
package common

import "errors"

var (
	// Credential / unlock errors.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrVerifierMissing is returned when a vault record exists but its
	// master-password verifier is gone (e.g. after a partial wipe). The
	// vault must be wiped and recreated; the supplied password is never
	// silently trusted.
	ErrVerifierMissing = errors.New("master password verifier missing")

	// Cryptographic errors.
	ErrDecryption         = errors.New("decryption failed")
	ErrEncryptionUnusable = errors.New("no usable encryption mode")

	// Validation errors.
	ErrWeakPassword  = errors.New("password too weak")
	ErrAlreadyExists = errors.New("already exists")

	// Import/export errors.
	ErrOwnerMismatch     = errors.New("export belongs to a different owner")
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// Repository-level errors.
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")

	// Manager state errors.
	ErrLocked = errors.New("vault is locked")
)
