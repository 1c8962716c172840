package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/credvault/internal/configs"
	"github.com/PolarWolf314/credvault/internal/secrets"
)

// RotateOptions configures the rotate workflow.
type RotateOptions struct {
	// NewMode switches the derivation mode. Empty keeps the current mode.
	NewMode secrets.Mode

	// NewPassphrase supplies the passphrase the key is re-wrapped under in
	// passphrase mode. The current passphrase still comes from Env.Passphrase.
	NewPassphrase func() ([]byte, error)

	// KDF replaces the key derivation cost. Nil keeps the record's parameters.
	KDF *configs.KDFConfig
}

// RotateResult contains the outcome of a rotate operation.
type RotateResult struct {
	VaultUUID string
	OldMode   secrets.Mode
	NewMode   secrets.Mode
	KDF       string
}

// Rotate re-wraps the master key under a fresh salt, optionally changing the
// derivation mode, the passphrase or the KDF cost. The master key itself is
// unchanged, so stored fields stay readable.
//
// Returns ErrMasterKeyDecryption if the current key source cannot unwrap the key.
func Rotate(ctx context.Context, env Env, opts RotateOptions) (*RotateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o, err := openVault(env)
	if err != nil {
		return nil, err
	}

	oldMode := o.vault.Source().Mode()
	newMode := opts.NewMode
	if newMode == "" {
		newMode = oldMode
	}
	if _, err := secrets.ParseMode(string(newMode)); err != nil {
		return nil, err
	}

	var params *secrets.KDFParams
	if opts.KDF != nil {
		p, err := opts.KDF.Params()
		if err != nil {
			return nil, err
		}
		params = &p
	}

	// The new passphrase is asked for only after the current key unwraps.
	newSrc := sourceFor(newMode, opts.NewPassphrase)
	if err := o.vault.RotateMasterKey(newSrc, params); err != nil {
		return nil, fmt.Errorf("rotating master key: %w", err)
	}

	st, err := o.vault.Status()
	if err != nil {
		return nil, err
	}

	o.config.Vault.Mode = string(newMode)
	if opts.KDF != nil {
		o.config.KDF = configs.KDFConfigFromParams(*params)
	}
	if err := configs.SaveVaultConfig(env.Settings.ConfigPath(), o.config); err != nil {
		return nil, fmt.Errorf("saving vault config: %w", err)
	}

	entry := env.entry("rotate", o.config)
	entry.Mode = string(newMode)
	entry.KDF = st.KDF
	env.record(entry)

	return &RotateResult{
		VaultUUID: o.config.Vault.UUID,
		OldMode:   oldMode,
		NewMode:   newMode,
		KDF:       st.KDF,
	}, nil
}
