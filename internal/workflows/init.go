package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/credvault/internal/configs"
	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/secrets"
	"github.com/PolarWolf314/credvault/internal/utils"
	"github.com/PolarWolf314/credvault/internal/vault"
)

// InitOptions configures the init workflow.
type InitOptions struct {
	// Mode is the derivation mode. Defaults to system.
	Mode secrets.Mode

	// KDF sets the cost used to wrap the master key. The zero value selects
	// scrypt with default costs.
	KDF configs.KDFConfig

	// NewPassphrase is asked for the passphrase in passphrase mode. Falls back
	// to Env.Passphrase when nil.
	NewPassphrase func() ([]byte, error)

	// Force replaces an existing vault. Previously stored fields are destroyed.
	Force bool

	// MasterKeyPath and CredentialsPath optionally relocate the documents.
	MasterKeyPath   string
	CredentialsPath string
}

// InitResult contains the outcome of an init operation.
type InitResult struct {
	// VaultUUID is the unique identifier assigned to the vault.
	VaultUUID string

	Mode secrets.Mode

	// KDF describes the key derivation parameters in use.
	KDF string

	MasterKeyPath   string
	CredentialsPath string

	// DiscardedFields counts fields destroyed by a forced re-init.
	DiscardedFields int
}

// Init creates a new vault: it generates a master key, wraps it for the
// chosen mode and writes config.toml.
//
// Returns ErrVaultAlreadyInitialized if a config or master key already exists
// and Force is not set.
func Init(ctx context.Context, env Env, opts InitOptions) (*InitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := opts.Mode
	if mode == "" {
		mode = secrets.ModeSystem
	}
	if _, err := secrets.ParseMode(string(mode)); err != nil {
		return nil, err
	}

	config := configs.DefaultVaultConfig(mode)
	if opts.KDF.Algorithm != "" {
		config.KDF = opts.KDF
	}
	config.Paths = configs.Paths{MasterKey: opts.MasterKeyPath, Credentials: opts.CredentialsPath}

	params, err := config.KDF.Params()
	if err != nil {
		return nil, err
	}

	configPath := env.Settings.ConfigPath()
	masterKeyPath := env.Settings.MasterKeyPath(config)
	exists := configs.IsInitialized(configPath) || utils.FileExists(masterKeyPath)
	if exists && !opts.Force {
		return nil, kerrors.ErrVaultAlreadyInitialized
	}

	prompt := opts.NewPassphrase
	if prompt == nil {
		prompt = env.Passphrase
	}
	// Ask before anything is destroyed so a cancelled prompt leaves the old vault intact.
	src, err := newSource(mode, prompt)
	if err != nil {
		return nil, err
	}

	discarded := 0
	if exists {
		cleared, err := Clear(ctx, env, ClearOptions{Scope: vault.ScopeBoth})
		if err != nil {
			return nil, fmt.Errorf("clearing existing vault: %w", err)
		}
		discarded = cleared.RemovedFields
		env.Logger.Warnf("Replaced existing vault; %d stored field(s) discarded", discarded)
	}

	v, err := vault.New(vault.Options{
		MasterKeyPath:   masterKeyPath,
		CredentialsPath: env.Settings.CredentialsPath(config),
		Source:          src,
		KDF:             params,
		Host:            env.Host,
		Logger:          env.Logger,
	})
	if err != nil {
		return nil, err
	}

	key, err := v.GenerateMasterKey()
	if err != nil {
		return nil, err
	}
	defer secrets.WipeKey(key)

	if err := v.StoreMasterKey(key, nil); err != nil {
		return nil, fmt.Errorf("storing master key: %w", err)
	}

	if err := configs.SaveVaultConfig(configPath, config); err != nil {
		// Without a config the new key is unreachable through the CLI.
		if clearErr := v.ClearDatabase(vault.ScopeMaster); clearErr != nil {
			env.Logger.Warnf("Failed to remove master key after config error: %v", clearErr)
		}
		return nil, fmt.Errorf("saving vault config: %w", err)
	}

	entry := env.entry("init", config)
	entry.Mode = string(mode)
	entry.KDF = params.String()
	env.record(entry)

	return &InitResult{
		VaultUUID:       config.Vault.UUID,
		Mode:            mode,
		KDF:             params.String(),
		MasterKeyPath:   masterKeyPath,
		CredentialsPath: env.Settings.CredentialsPath(config),
		DiscardedFields: discarded,
	}, nil
}
