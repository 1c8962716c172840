package workflows

import (
	"context"
	"errors"
	"time"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/secrets"
)

// StatusOptions configures the status workflow.
type StatusOptions struct {
	// No options currently needed - included for consistency.
}

// StatusResult contains the outcome of a status operation.
type StatusResult struct {
	// Initialized is true when config.toml exists.
	Initialized bool

	VaultUUID  string
	ConfigMode secrets.Mode
	CreatedAt  time.Time

	// RecordMode is the mode stored in the master key record. It wins over
	// ConfigMode if the two disagree.
	RecordMode secrets.Mode

	// MasterKeyPresent is true when a master key record exists.
	MasterKeyPresent bool

	KDF             string
	MasterKeyPath   string
	CredentialsPath string
	AuditLogPath    string
	Fields          []string
}

// Status reports where the vault lives and what it holds without unwrapping
// the master key.
func Status(ctx context.Context, env Env, opts StatusOptions) (*StatusResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &StatusResult{
		MasterKeyPath:   env.Settings.MasterKeyPath(nil),
		CredentialsPath: env.Settings.CredentialsPath(nil),
		AuditLogPath:    env.Settings.AuditLogPath(),
	}

	o, err := openVault(env)
	if errors.Is(err, kerrors.ErrVaultNotInitialized) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	st, err := o.vault.Status()
	if err != nil {
		return nil, err
	}

	result.Initialized = true
	result.VaultUUID = o.config.Vault.UUID
	result.ConfigMode = o.config.SourceMode()
	result.CreatedAt = o.config.Vault.CreatedAt
	result.MasterKeyPath = st.MasterKeyPath
	result.CredentialsPath = st.CredentialsPath
	result.MasterKeyPresent = st.Initialized
	result.RecordMode = st.Mode
	result.KDF = st.KDF
	result.Fields = st.Fields

	if st.Initialized && st.Mode != result.ConfigMode {
		env.Logger.Warnf("config.toml says %s mode but the master key record is %s; the record wins", result.ConfigMode, st.Mode)
	}

	return result, nil
}

// Mode is the effective derivation mode.
func (r *StatusResult) Mode() secrets.Mode {
	if r.RecordMode != "" {
		return r.RecordMode
	}
	return r.ConfigMode
}

