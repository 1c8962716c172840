package secrets

import (
	"crypto/rand"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"
)

const (
	// SaltSize is the length of the random salt persisted with the master key record.
	SaltSize = 16

	// WrappingKeySize is the length of the derived key-encryption key.
	WrappingKeySize = 32
)

// KDFAlgorithm names a supported memory-hard key derivation function.
type KDFAlgorithm string

const (
	KDFScrypt   KDFAlgorithm = "scrypt"
	KDFArgon2id KDFAlgorithm = "argon2id"
)

type ScryptParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

// Argon2idParams holds argon2id costs. Memory is in KiB.
type Argon2idParams struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
}

// KDFParams are persisted next to the salt so a wrapping key can always be
// re-derived exactly as it was first configured.
type KDFParams struct {
	Algorithm KDFAlgorithm    `json:"algorithm"`
	KeyLen    int             `json:"key_len"`
	Scrypt    *ScryptParams   `json:"scrypt,omitempty"`
	Argon2id  *Argon2idParams `json:"argon2id,omitempty"`
}

// DefaultKDFParams returns scrypt with N=2^16, r=8, p=1.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Algorithm: KDFScrypt,
		KeyLen:    WrappingKeySize,
		Scrypt:    &ScryptParams{N: 1 << 16, R: 8, P: 1},
	}
}

// DefaultArgon2idParams returns argon2id with 3 passes over 64 MiB on 4 lanes.
func DefaultArgon2idParams() KDFParams {
	return KDFParams{
		Algorithm: KDFArgon2id,
		KeyLen:    WrappingKeySize,
		Argon2id:  &Argon2idParams{Time: 3, Memory: 64 * 1024, Threads: 4},
	}
}

// Validate rejects parameters that cannot produce a 32-byte wrapping key.
func (p KDFParams) Validate() error {
	if p.KeyLen != WrappingKeySize {
		return fmt.Errorf("%w: key length %d, want %d", kerrors.ErrInvalidKDFParams, p.KeyLen, WrappingKeySize)
	}

	switch p.Algorithm {
	case KDFScrypt:
		s := p.Scrypt
		if s == nil {
			return fmt.Errorf("%w: missing scrypt parameters", kerrors.ErrInvalidKDFParams)
		}
		if s.N <= 1 || s.N&(s.N-1) != 0 {
			return fmt.Errorf("%w: scrypt N must be a power of two greater than 1, got %d", kerrors.ErrInvalidKDFParams, s.N)
		}
		if s.R < 1 || s.P < 1 || uint64(s.R)*uint64(s.P) >= 1<<30 {
			return fmt.Errorf("%w: scrypt r=%d p=%d out of range", kerrors.ErrInvalidKDFParams, s.R, s.P)
		}
	case KDFArgon2id:
		a := p.Argon2id
		if a == nil {
			return fmt.Errorf("%w: missing argon2id parameters", kerrors.ErrInvalidKDFParams)
		}
		if a.Time < 1 || a.Threads < 1 {
			return fmt.Errorf("%w: argon2id time and threads must be at least 1", kerrors.ErrInvalidKDFParams)
		}
		if a.Memory < 8*uint32(a.Threads) {
			return fmt.Errorf("%w: argon2id memory must be at least 8 KiB per thread", kerrors.ErrInvalidKDFParams)
		}
	default:
		return fmt.Errorf("%w: unknown algorithm %q", kerrors.ErrInvalidKDFParams, p.Algorithm)
	}

	return nil
}

// String describes the parameters without any secret material.
func (p KDFParams) String() string {
	switch p.Algorithm {
	case KDFScrypt:
		if p.Scrypt != nil {
			return fmt.Sprintf("scrypt(N=%d, r=%d, p=%d)", p.Scrypt.N, p.Scrypt.R, p.Scrypt.P)
		}
	case KDFArgon2id:
		if p.Argon2id != nil {
			return fmt.Sprintf("argon2id(t=%d, m=%dKiB, p=%d)", p.Argon2id.Time, p.Argon2id.Memory, p.Argon2id.Threads)
		}
	}
	return string(p.Algorithm)
}

// NewSalt returns SaltSize random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveWrappingKey stretches a fingerprint into the key that wraps the master
// key. Identical fingerprint, salt and params always give the identical key.
func DeriveWrappingKey(fingerprint, salt []byte, params KDFParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", kerrors.ErrInvalidKDFParams)
	}

	switch params.Algorithm {
	case KDFScrypt:
		key, err := scrypt.Key(fingerprint, salt, params.Scrypt.N, params.Scrypt.R, params.Scrypt.P, params.KeyLen)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidKDFParams, err)
		}
		return key, nil
	case KDFArgon2id:
		a := params.Argon2id
		return argon2.IDKey(fingerprint, salt, a.Time, a.Memory, a.Threads, uint32(params.KeyLen)), nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", kerrors.ErrInvalidKDFParams, params.Algorithm)
	}
}
