package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/PolarWolf314/credvault/internal/utils"
)

const (
	// EnvConfigDir overrides the directory holding config.toml and the master key record.
	EnvConfigDir = "CREDVAULT_CONFIG_DIR"

	// EnvDataDir overrides the directory holding the credentials document and audit log.
	EnvDataDir = "CREDVAULT_DATA_DIR"

	appDirName = "credvault"
)

// Settings are the resolved per-user locations for a vault.
type Settings struct {
	ConfigDir string
	DataDir   string
	Username  string
}

// LoadSettings resolves directories from the environment. The master key lives
// under the user config dir and the credentials under the user data dir, so
// the two halves of a vault are never stored side by side by default.
func LoadSettings() (*Settings, error) {
	configDir := os.Getenv(EnvConfigDir)
	if configDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("error getting config directory: %w", err)
		}
		configDir = filepath.Join(base, appDirName)
	}

	dataDir := os.Getenv(EnvDataDir)
	if dataDir == "" {
		base, err := userDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(base, appDirName)
	}

	username, err := utils.GetUsername()
	if err != nil {
		return nil, fmt.Errorf("error getting username: %w", err)
	}

	return &Settings{
		ConfigDir: configDir,
		DataDir:   dataDir,
		Username:  username,
	}, nil
}

func userDataDir() (string, error) {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir, nil
		}
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share"), nil
}

// ConfigPath is the vault's config.toml.
func (s *Settings) ConfigPath() string {
	return filepath.Join(s.ConfigDir, "config.toml")
}

// MasterKeyPath returns the master key record location, honoring an override in cfg.
func (s *Settings) MasterKeyPath(cfg *VaultConfig) string {
	if cfg != nil && cfg.Paths.MasterKey != "" {
		return cfg.Paths.MasterKey
	}
	return filepath.Join(s.ConfigDir, "master_key.json")
}

// CredentialsPath returns the credentials document location, honoring an override in cfg.
func (s *Settings) CredentialsPath(cfg *VaultConfig) string {
	if cfg != nil && cfg.Paths.Credentials != "" {
		return cfg.Paths.Credentials
	}
	return filepath.Join(s.DataDir, "credentials.json")
}

func (s *Settings) AuditLogPath() string {
	return filepath.Join(s.DataDir, "audit.jsonl")
}
