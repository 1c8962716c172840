package rotate_test

import (
	"errors"
	"os"
	"testing"

	"github.com/PolarWolf314/credvault/cmd"
	"github.com/PolarWolf314/credvault/internal/configs"
	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/test/integration/shared"
)

// TestRotate covers re-wrapping the master key with `credvault rotate`.
func TestRotate(t *testing.T) {
	t.Run("RotateKeepsFieldsReadable", testRotateKeepsFieldsReadable)
	t.Run("ChangePassphrase", testChangePassphrase)
	t.Run("PassphraseToSystem", testPassphraseToSystem)
	t.Run("WrongCurrentPassphrase", testWrongCurrentPassphrase)
	t.Run("SwitchKDF", testSwitchKDF)
}

func testRotateKeepsFieldsReadable(t *testing.T) {
	dirs := shared.SetupTestEnvironment(t)
	shared.InitializeVault(t)
	shared.MustRunCLI(t, "", "set", "k", "v")

	before := shared.ReadJSON(t, dirs.MasterKeyPath())
	shared.MustRunCLI(t, "", "rotate")
	after := shared.ReadJSON(t, dirs.MasterKeyPath())

	if before["salt"] == after["salt"] {
		t.Error("Rotate should use a fresh salt")
	}
	if res := shared.MustRunCLI(t, "", "get", "k"); res.Stdout != "v\n" {
		t.Errorf("get after rotate = %q", res.Stdout)
	}
}

func testChangePassphrase(t *testing.T) {
	shared.SetupTestEnvironment(t)
	t.Setenv(cmd.EnvPassphrase, "old")
	shared.InitializeVault(t, "--mode", "passphrase")
	shared.MustRunCLI(t, "", "set", "k", "v")

	if err := os.Unsetenv(cmd.EnvPassphrase); err != nil {
		t.Fatal(err)
	}
	current := "old"
	cmd.SetSecretReaders(
		func(string) ([]byte, error) { return []byte(current), nil },
		func(string, string) ([]byte, error) { return []byte("new"), nil },
	)
	shared.MustRunCLI(t, "", "rotate")

	if res := shared.RunCLI(t, "", "get", "k"); !errors.Is(res.Err, kerrors.ErrMasterKeyDecryption) {
		t.Errorf("Old passphrase should no longer unlock, got %v", res.Err)
	}
	current = "new"
	if res := shared.MustRunCLI(t, "", "get", "k"); res.Stdout != "v\n" {
		t.Errorf("get with new passphrase = %q", res.Stdout)
	}
}

func testPassphraseToSystem(t *testing.T) {
	dirs := shared.SetupTestEnvironment(t)
	t.Setenv(cmd.EnvPassphrase, "pw")
	shared.InitializeVault(t, "--mode", "passphrase")
	shared.MustRunCLI(t, "", "set", "k", "v")

	shared.MustRunCLI(t, "", "rotate", "--mode", "system")

	cfg, err := configs.LoadVaultConfig(dirs.ConfigPath())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Vault.Mode != "system" {
		t.Errorf("config mode = %q, want system", cfg.Vault.Mode)
	}

	if err := os.Unsetenv(cmd.EnvPassphrase); err != nil {
		t.Fatal(err)
	}
	cmd.SetSecretReaders(func(string) ([]byte, error) {
		t.Error("System mode vault asked for a passphrase")
		return nil, errors.New("unexpected prompt")
	}, nil)
	if res := shared.MustRunCLI(t, "", "get", "k"); res.Stdout != "v\n" {
		t.Errorf("get = %q", res.Stdout)
	}
}

func testWrongCurrentPassphrase(t *testing.T) {
	dirs := shared.SetupTestEnvironment(t)
	t.Setenv(cmd.EnvPassphrase, "right")
	shared.InitializeVault(t, "--mode", "passphrase")

	before := shared.ReadJSON(t, dirs.MasterKeyPath())
	t.Setenv(cmd.EnvPassphrase, "wrong")
	res := shared.RunCLI(t, "", "rotate")
	if !errors.Is(res.Err, kerrors.ErrMasterKeyDecryption) {
		t.Fatalf("Expected ErrMasterKeyDecryption, got %v", res.Err)
	}
	after := shared.ReadJSON(t, dirs.MasterKeyPath())
	if before["salt"] != after["salt"] || before["ciphertext"] != after["ciphertext"] {
		t.Error("Failed rotate modified the master key record")
	}
}

func testSwitchKDF(t *testing.T) {
	dirs := shared.SetupTestEnvironment(t)
	shared.InitializeVault(t)
	shared.MustRunCLI(t, "", "set", "k", "v")

	res := shared.MustRunCLI(t, "", "rotate", "--kdf", "argon2id", "--argon2-time", "1", "--argon2-memory", "1024")
	if res.Stdout == "" {
		t.Error("Expected rotate summary")
	}

	record := shared.ReadJSON(t, dirs.MasterKeyPath())
	params := record["kdf_params"].(map[string]any)
	if params["algorithm"] != "argon2id" {
		t.Errorf("record kdf = %v, want argon2id", params["algorithm"])
	}
	if res := shared.MustRunCLI(t, "", "get", "k"); res.Stdout != "v\n" {
		t.Errorf("get after KDF switch = %q", res.Stdout)
	}
}
