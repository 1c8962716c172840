package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/utils"
)

const (
	// MasterKeySize is the length of the unwrapped master key (AES-256).
	MasterKeySize = 32

	// NonceSize is the standard 96-bit GCM nonce.
	NonceSize = 12

	// TagSize is the 128-bit GCM authentication tag.
	TagSize = 16
)

// CreateSymmetricKey generates a new random 256-bit key.
func CreateSymmetricKey() ([]byte, error) {
	symKey := make([]byte, MasterKeySize)
	if _, err := io.ReadFull(rand.Reader, symKey); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}

	return symKey, nil
}

// WipeKey zeroes key material. It leaves memory locks alone: munlock works on
// whole pages and may share one with a key that is still locked.
func WipeKey(key []byte) {
	utils.Zero(key)
}

// ReleaseKey zeroes a key returned by MasterKeyManager.Load and drops the
// memory lock taken on it.
func ReleaseKey(key []byte) {
	if key == nil {
		return
	}
	utils.Zero(key)
	_ = utils.UnlockMemory(key)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: got %d bytes, want 16, 24 or 32", kerrors.ErrInvalidKeyLength, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create aes block cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm cipher: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext with AES-GCM under key. A fresh random nonce is
// generated for every call; the tag is returned separately from the ciphertext.
func Seal(key, plaintext, additionalData []byte) (nonce, ciphertext, tag []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, nil, err
	}

	nonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, additionalData)
	split := len(sealed) - TagSize

	return nonce, sealed[:split], sealed[split:], nil
}

// Open verifies and decrypts a message produced by Seal. Any mismatch in key,
// nonce, ciphertext, tag or associated data yields ErrAuthentication and no
// plaintext.
func Open(key, nonce, ciphertext, tag, additionalData []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(nonce) != NonceSize || len(tag) != TagSize {
		return nil, kerrors.ErrAuthentication
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, additionalData)
	if err != nil {
		return nil, kerrors.ErrAuthentication
	}

	return plaintext, nil
}
