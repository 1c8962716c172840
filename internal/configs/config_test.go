package configs

import (
	"errors"
	"path/filepath"
	"testing"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/secrets"
)

func TestGenerateVaultUUID(t *testing.T) {
	id := GenerateVaultUUID()
	if len(id) != 36 {
		t.Fatalf("Expected UUID length 36, got %d", len(id))
	}
	if id == GenerateVaultUUID() {
		t.Error("Expected distinct UUIDs")
	}
}

func TestSaveAndLoadVaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	config := DefaultVaultConfig(secrets.ModePassphrase)
	config.Paths.Credentials = "/srv/vault/credentials.json"

	if err := SaveVaultConfig(path, config); err != nil {
		t.Fatalf("SaveVaultConfig failed: %v", err)
	}
	if !IsInitialized(path) {
		t.Fatal("Expected config to exist after save")
	}

	loaded, err := LoadVaultConfig(path)
	if err != nil {
		t.Fatalf("LoadVaultConfig failed: %v", err)
	}

	if loaded.Vault.UUID != config.Vault.UUID {
		t.Errorf("Expected UUID %q, got %q", config.Vault.UUID, loaded.Vault.UUID)
	}
	if loaded.SourceMode() != secrets.ModePassphrase {
		t.Errorf("Expected passphrase mode, got %s", loaded.SourceMode())
	}
	if !loaded.Vault.CreatedAt.Equal(config.Vault.CreatedAt) {
		t.Errorf("Expected created_at %v, got %v", config.Vault.CreatedAt, loaded.Vault.CreatedAt)
	}
	if loaded.KDF != config.KDF {
		t.Errorf("Expected KDF %+v, got %+v", config.KDF, loaded.KDF)
	}
	if loaded.Paths != config.Paths {
		t.Errorf("Expected paths %+v, got %+v", config.Paths, loaded.Paths)
	}
}

func TestLoadVaultConfigNonExistent(t *testing.T) {
	_, err := LoadVaultConfig(filepath.Join(t.TempDir(), "config.toml"))
	if !errors.Is(err, kerrors.ErrVaultNotInitialized) {
		t.Errorf("Expected ErrVaultNotInitialized, got %v", err)
	}
}

func TestKDFConfigParams(t *testing.T) {
	tests := []struct {
		name    string
		config  KDFConfig
		want    string
		wantErr bool
	}{
		{"EmptyMeansDefaultScrypt", KDFConfig{}, "scrypt(N=65536, r=8, p=1)", false},
		{"CustomScrypt", KDFConfig{Algorithm: "scrypt", ScryptN: 1 << 15}, "scrypt(N=32768, r=8, p=1)", false},
		{"DefaultArgon2id", KDFConfig{Algorithm: "argon2id"}, "argon2id(t=3, m=65536KiB, p=4)", false},
		{"CustomArgon2id", KDFConfig{Algorithm: "argon2id", Argon2Time: 1, Argon2Memory: 1024, Argon2Threads: 2}, "argon2id(t=1, m=1024KiB, p=2)", false},
		{"BadScryptN", KDFConfig{Algorithm: "scrypt", ScryptN: 1000}, "", true},
		{"UnknownAlgorithm", KDFConfig{Algorithm: "bcrypt"}, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params, err := tc.config.Params()
			if tc.wantErr {
				if !errors.Is(err, kerrors.ErrInvalidKDFParams) {
					t.Errorf("Expected ErrInvalidKDFParams, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Params failed: %v", err)
			}
			if got := params.String(); got != tc.want {
				t.Errorf("Params() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestKDFConfigFromParamsRoundTrip(t *testing.T) {
	for _, params := range []secrets.KDFParams{secrets.DefaultKDFParams(), secrets.DefaultArgon2idParams()} {
		back, err := KDFConfigFromParams(params).Params()
		if err != nil {
			t.Fatalf("Params failed: %v", err)
		}
		if back.String() != params.String() {
			t.Errorf("Round trip changed params: %s -> %s", params, back)
		}
	}
}
