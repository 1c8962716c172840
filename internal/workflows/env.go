package workflows

import (
	"fmt"

	"github.com/PolarWolf314/credvault/internal/audit"
	"github.com/PolarWolf314/credvault/internal/configs"
	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	logger "github.com/PolarWolf314/credvault/internal/logging"
	"github.com/PolarWolf314/credvault/internal/secrets"
	"github.com/PolarWolf314/credvault/internal/utils"
	"github.com/PolarWolf314/credvault/internal/vault"
)

// Env carries what every workflow needs. It replaces package-level settings
// so workflows can run against any directory.
type Env struct {
	Settings *configs.Settings
	Logger   logger.Logger

	// Host supplies fingerprint components. Defaults to secrets.LocalHost.
	Host secrets.HostInfo

	// Passphrase is asked for the passphrase of a passphrase-mode vault. It is
	// called at most once per workflow and only once a key is actually needed.
	Passphrase func() ([]byte, error)
}

// opened bundles a vault with the config it was built from.
type opened struct {
	vault  *vault.Vault
	config *configs.VaultConfig
}

// openVault loads config.toml and builds a Vault whose key source matches
// the configured mode.
func openVault(env Env) (*opened, error) {
	config, err := configs.LoadVaultConfig(env.Settings.ConfigPath())
	if err != nil {
		return nil, err
	}

	params, err := config.KDF.Params()
	if err != nil {
		return nil, err
	}

	v, err := vault.New(vault.Options{
		MasterKeyPath:   env.Settings.MasterKeyPath(config),
		CredentialsPath: env.Settings.CredentialsPath(config),
		Source:          sourceFor(config.SourceMode(), env.Passphrase),
		KDF:             params,
		Host:            env.Host,
		Logger:          env.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening vault: %w", err)
	}

	env.Logger.Debugf("Opened vault %s (%s mode)", config.Vault.UUID, config.Vault.Mode)
	return &opened{vault: v, config: config}, nil
}

func sourceFor(mode secrets.Mode, prompt func() ([]byte, error)) secrets.KeySource {
	if mode == secrets.ModePassphrase {
		return secrets.PassphrasePrompt(prompt)
	}
	return secrets.SystemBound()
}

// newSource resolves the source for a key that is about to be wrapped. The
// passphrase is read eagerly and must be non-empty.
func newSource(mode secrets.Mode, prompt func() ([]byte, error)) (secrets.KeySource, error) {
	if mode != secrets.ModePassphrase {
		return secrets.SystemBound(), nil
	}
	if prompt == nil {
		return nil, kerrors.ErrPassphraseRequired
	}

	passphrase, err := prompt()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	defer utils.Zero(passphrase)
	if len(passphrase) == 0 {
		return nil, kerrors.ErrPassphraseRequired
	}
	return secrets.Passphrase(string(passphrase)), nil
}

func (env Env) record(entry audit.Entry) {
	audit.Log(env.Settings.AuditLogPath(), entry)
}

func (env Env) entry(op string, config *configs.VaultConfig) audit.Entry {
	vaultUUID := ""
	if config != nil {
		vaultUUID = config.Vault.UUID
	}
	return audit.NewEntry(op, env.Settings.Username, vaultUUID)
}
