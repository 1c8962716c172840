package configs

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/secrets"
)

// VaultConfig is the non-secret description of a vault, stored as config.toml.
type VaultConfig struct {
	Vault Vault     `toml:"vault"`
	KDF   KDFConfig `toml:"kdf"`
	Paths Paths     `toml:"paths"`
}

type Vault struct {
	UUID      string    `toml:"vault_uuid"`
	Mode      string    `toml:"mode"`
	CreatedAt time.Time `toml:"created_at"`
}

// KDFConfig holds the cost parameters used when a master key is (re)wrapped.
// Existing records always carry their own parameters.
type KDFConfig struct {
	Algorithm     string `toml:"algorithm"`
	ScryptN       int    `toml:"scrypt_n,omitempty"`
	ScryptR       int    `toml:"scrypt_r,omitempty"`
	ScryptP       int    `toml:"scrypt_p,omitempty"`
	Argon2Time    uint32 `toml:"argon2_time,omitempty"`
	Argon2Memory  uint32 `toml:"argon2_memory_kib,omitempty"`
	Argon2Threads uint8  `toml:"argon2_threads,omitempty"`
}

// Paths optionally relocates the two vault documents.
type Paths struct {
	MasterKey   string `toml:"master_key,omitempty"`
	Credentials string `toml:"credentials,omitempty"`
}

// DefaultVaultConfig returns a fresh config for mode with default KDF costs.
func DefaultVaultConfig(mode secrets.Mode) *VaultConfig {
	return &VaultConfig{
		Vault: Vault{
			UUID:      GenerateVaultUUID(),
			Mode:      string(mode),
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		},
		KDF: KDFConfigFromParams(secrets.DefaultKDFParams()),
	}
}

// GenerateVaultUUID generates a new UUID for the vault.
func GenerateVaultUUID() string {
	return uuid.New().String()
}

// IsInitialized reports whether a config file exists at path.
func IsInitialized(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadVaultConfig reads config.toml. A missing file is ErrVaultNotInitialized.
func LoadVaultConfig(path string) (*VaultConfig, error) {
	if !IsInitialized(path) {
		return nil, fmt.Errorf("%w: no config at %s", kerrors.ErrVaultNotInitialized, path)
	}

	config := &VaultConfig{}
	if _, err := LoadTOML(path, config); err != nil {
		return nil, fmt.Errorf("failed to load vault config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vault config %s: %w", path, err)
	}

	return config, nil
}

// SaveVaultConfig validates and writes config to path.
func SaveVaultConfig(path string, config *VaultConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid vault config: %w", err)
	}
	if err := SaveTOML(path, config); err != nil {
		return fmt.Errorf("failed to save vault config: %w", err)
	}
	return nil
}

// Validate checks the UUID, the mode and the KDF settings.
func (c *VaultConfig) Validate() error {
	if _, err := uuid.Parse(c.Vault.UUID); err != nil {
		return fmt.Errorf("vault_uuid %q is not a valid UUID: %w", c.Vault.UUID, err)
	}
	if _, err := secrets.ParseMode(c.Vault.Mode); err != nil {
		return err
	}
	if _, err := c.KDF.Params(); err != nil {
		return err
	}
	return nil
}

// SourceMode returns the configured derivation mode.
func (c *VaultConfig) SourceMode() secrets.Mode {
	mode, err := secrets.ParseMode(c.Vault.Mode)
	if err != nil {
		return secrets.ModeSystem
	}
	return mode
}

// Params converts the config into KDF parameters. Unset costs fall back to
// the defaults for the chosen algorithm.
func (k KDFConfig) Params() (secrets.KDFParams, error) {
	var params secrets.KDFParams

	switch secrets.KDFAlgorithm(k.Algorithm) {
	case secrets.KDFScrypt, "":
		params = secrets.DefaultKDFParams()
		if k.ScryptN != 0 {
			params.Scrypt.N = k.ScryptN
		}
		if k.ScryptR != 0 {
			params.Scrypt.R = k.ScryptR
		}
		if k.ScryptP != 0 {
			params.Scrypt.P = k.ScryptP
		}
	case secrets.KDFArgon2id:
		params = secrets.DefaultArgon2idParams()
		if k.Argon2Time != 0 {
			params.Argon2id.Time = k.Argon2Time
		}
		if k.Argon2Memory != 0 {
			params.Argon2id.Memory = k.Argon2Memory
		}
		if k.Argon2Threads != 0 {
			params.Argon2id.Threads = k.Argon2Threads
		}
	default:
		return secrets.KDFParams{}, fmt.Errorf("%w: unknown algorithm %q", kerrors.ErrInvalidKDFParams, k.Algorithm)
	}

	if err := params.Validate(); err != nil {
		return secrets.KDFParams{}, err
	}
	return params, nil
}

// KDFConfigFromParams is the inverse of KDFConfig.Params.
func KDFConfigFromParams(p secrets.KDFParams) KDFConfig {
	k := KDFConfig{Algorithm: string(p.Algorithm)}
	if p.Scrypt != nil {
		k.ScryptN, k.ScryptR, k.ScryptP = p.Scrypt.N, p.Scrypt.R, p.Scrypt.P
	}
	if p.Argon2id != nil {
		k.Argon2Time, k.Argon2Memory, k.Argon2Threads = p.Argon2id.Time, p.Argon2id.Memory, p.Argon2id.Threads
	}
	return k
}
