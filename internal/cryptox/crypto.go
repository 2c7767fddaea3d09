// Package cryptox is the cryptographic adapter for the vault: password-based
// key derivation, encryption of serialized payloads into self-describing
// blobs, and one-way hashing for master-password verification.
//
// Every blob is tagged with an algorithm identifier. Writers emit the
// current algorithm; readers keep decrypting every identifier ever emitted
// so old vaults and old exports stay readable.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"passvault/internal/common"
)

const (
	// KeyLen is the derived key length in bytes (AES-256).
	KeyLen = 32

	// SaltLen is the length of the random salt generated per encryption.
	SaltLen = 16

	// DefaultIterations is the PBKDF2 iteration count used for new blobs.
	DefaultIterations = 100_000

	gcmNonceLen = 12
)

// Algorithm identifiers recorded in EncryptedBlob.Algorithm.
const (
	// AlgorithmGCM is the current mode: AES-256-GCM over a PBKDF2-SHA256 key.
	AlgorithmGCM = "aes-256-gcm"

	// AlgorithmCBC is the legacy mode: AES-256-CBC with PKCS#7 padding.
	// It is still emitted as a tagged fallback when GCM cannot be
	// initialised, and always accepted on read.
	AlgorithmCBC = "aes-256-cbc"

	// AlgorithmBase64 marks legacy unencrypted payloads found in old
	// exports. It is never emitted here; Decrypt accepts it so the import
	// codec can read them.
	AlgorithmBase64 = "base64"
)

// EncryptedBlob is the portable ciphertext container. Byte fields are
// base64-encoded by encoding/json, so a blob embeds cleanly into JSON
// documents (vault records, exports).
type EncryptedBlob struct {
	Algorithm  string `json:"algorithm"`
	Salt       []byte `json:"salt,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
	Nonce      []byte `json:"nonce,omitempty"`
	Ciphertext []byte `json:"ciphertext"`
}

// DeriveKey derives a KeyLen-byte key from password and salt using
// PBKDF2-SHA256 with the given iteration count. Same inputs always yield
// the same key; different salts yield different keys for the same password.
func DeriveKey(password, salt []byte, iterations int) []byte {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return pbkdf2.Key(password, salt, iterations, KeyLen, sha256.New)
}

// Encrypt seals plaintext under a key derived from password. A fresh random
// salt and nonce are generated per call, so repeated calls on identical
// input never produce identical blobs.
//
// GCM is attempted first; if it cannot be initialised the legacy CBC mode
// is used and the blob is tagged accordingly. If neither mode works the
// operation fails; plaintext is never stored.
func Encrypt(plaintext, password []byte) (*EncryptedBlob, error) {
	salt, err := common.RandBytes(SaltLen)
	if err != nil {
		return nil, fmt.Errorf("salt generation: %w", err)
	}

	key := DeriveKey(password, salt, DefaultIterations)
	defer common.WipeByteArray(key)

	blob, err := SealWithKey(plaintext, key)
	if err != nil {
		return nil, err
	}
	blob.Salt = salt
	blob.Iterations = DefaultIterations
	return blob, nil
}

// Decrypt reverses Encrypt. It re-derives the key from the blob's salt and
// iteration count and opens the ciphertext according to the blob's
// algorithm tag. Failures (wrong password, corrupt or truncated data,
// unknown algorithm) wrap common.ErrDecryption.
func Decrypt(blob *EncryptedBlob, password []byte) ([]byte, error) {
	if blob == nil {
		return nil, fmt.Errorf("%w: empty blob", common.ErrDecryption)
	}
	if blob.Algorithm == AlgorithmBase64 {
		// Legacy unencrypted payload: the "ciphertext" is the payload itself.
		out := make([]byte, len(blob.Ciphertext))
		copy(out, blob.Ciphertext)
		return out, nil
	}

	key := DeriveKey(password, blob.Salt, blob.Iterations)
	defer common.WipeByteArray(key)

	return OpenWithKey(blob, key)
}

// SealWithKey seals plaintext with a caller-supplied key. The returned blob
// carries no salt; callers that derive the key themselves (the vault
// manager caches a session key) record salt and iterations elsewhere.
func SealWithKey(plaintext, key []byte) (*EncryptedBlob, error) {
	blob, gcmErr := sealGCM(plaintext, key)
	if gcmErr == nil {
		return blob, nil
	}

	blob, cbcErr := sealCBC(plaintext, key)
	if cbcErr == nil {
		return blob, nil
	}

	return nil, fmt.Errorf("%w: gcm: %v, cbc: %v", common.ErrEncryptionUnusable, gcmErr, cbcErr)
}

// OpenWithKey opens a blob with a caller-supplied key, dispatching on the
// blob's algorithm tag. Failures wrap common.ErrDecryption.
func OpenWithKey(blob *EncryptedBlob, key []byte) ([]byte, error) {
	if blob == nil || len(blob.Ciphertext) == 0 {
		return nil, fmt.Errorf("%w: empty blob", common.ErrDecryption)
	}

	switch blob.Algorithm {
	case AlgorithmGCM:
		return openGCM(blob, key)
	case AlgorithmCBC:
		return openCBC(blob, key)
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", common.ErrDecryption, blob.Algorithm)
	}
}

// Hash returns the hex-encoded SHA-256 digest of data. It is one-way and
// deterministic, used only for equality checks.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MakeVerifier derives the stored master-password verifier from a derived
// master key. The verifier can be persisted without revealing the key.
func MakeVerifier(masterKey []byte) []byte {
	sum := sha256.Sum256(masterKey)
	return sum[:]
}

// VerifierEqual compares two verifiers in constant time.
func VerifierEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

func sealGCM(plaintext, key []byte) (*EncryptedBlob, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce, err := common.RandBytes(gcmNonceLen)
	if err != nil {
		return nil, err
	}

	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)
	return &EncryptedBlob{Algorithm: AlgorithmGCM, Nonce: nonce, Ciphertext: ciphertext}, nil
}

func openGCM(blob *EncryptedBlob, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	if len(blob.Nonce) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("%w: invalid nonce size", common.ErrDecryption)
	}

	plaintext, err := aesgcm.Open(nil, blob.Nonce, blob.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return plaintext, nil
}

func sealCBC(plaintext, key []byte) (*EncryptedBlob, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv, err := common.RandBytes(aes.BlockSize)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return &EncryptedBlob{Algorithm: AlgorithmCBC, Nonce: iv, Ciphertext: ciphertext}, nil
}

func openCBC(blob *EncryptedBlob, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	if len(blob.Nonce) != aes.BlockSize {
		return nil, fmt.Errorf("%w: invalid iv size", common.ErrDecryption)
	}
	if len(blob.Ciphertext) == 0 || len(blob.Ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: truncated ciphertext", common.ErrDecryption)
	}

	padded := make([]byte, len(blob.Ciphertext))
	cipher.NewCBCDecrypter(block, blob.Nonce).CryptBlocks(padded, blob.Ciphertext)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return plaintext, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
