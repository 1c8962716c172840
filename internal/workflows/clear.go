package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/PolarWolf314/credvault/internal/configs"
	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/utils"
	"github.com/PolarWolf314/credvault/internal/vault"
)

// ClearOptions configures the clear workflow.
type ClearOptions struct {
	Scope vault.Scope
}

// ClearResult contains the outcome of a clear operation.
type ClearResult struct {
	Scope vault.Scope

	// RemovedFields counts fields in a credentials document that was removed.
	RemovedFields int

	// ConfigRemoved is true when config.toml was deleted with the master key.
	ConfigRemoved bool
}

// Clear removes the documents selected by Scope. Clearing the master key also
// removes config.toml, since a config without a key describes nothing. It is
// idempotent and works on a vault whose config is missing or unreadable.
func Clear(ctx context.Context, env Env, opts ClearOptions) (*ClearResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	configPath := env.Settings.ConfigPath()
	config, err := configs.LoadVaultConfig(configPath)
	if err != nil {
		if !errors.Is(err, kerrors.ErrVaultNotInitialized) {
			env.Logger.Warnf("Ignoring unreadable config while clearing: %v", err)
		}
		config = nil
	}

	v, err := vault.New(vault.Options{
		MasterKeyPath:   env.Settings.MasterKeyPath(config),
		CredentialsPath: env.Settings.CredentialsPath(config),
		Host:            env.Host,
		Logger:          env.Logger,
	})
	if err != nil {
		return nil, err
	}

	result := &ClearResult{Scope: opts.Scope}
	if opts.Scope.IncludesCredentials() {
		if fields, err := v.Fields(); err == nil {
			result.RemovedFields = len(fields)
		}
	}

	if err := v.ClearDatabase(opts.Scope); err != nil {
		return nil, err
	}

	if opts.Scope.IncludesMaster() {
		result.ConfigRemoved = configs.IsInitialized(configPath)
		if err := utils.RemoveIfExists(configPath); err != nil {
			return nil, fmt.Errorf("removing vault config: %w", err)
		}
	}

	entry := env.entry("clear", config)
	entry.Scope = opts.Scope.String()
	entry.Count = result.RemovedFields
	env.record(entry)

	return result, nil
}
