package workflows

import (
	"context"
	"fmt"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/secrets"
)

// SetOptions configures the set workflow.
type SetOptions struct {
	Field string
	Value string

	// Force overwrites an existing field. The confirmation prompt, if any, is
	// handled by the caller.
	Force bool
}

// SetResult contains the outcome of a set operation.
type SetResult struct {
	Field string

	// Overwritten is true when an existing value was replaced.
	Overwritten bool
}

// Set encrypts Value and stores it under Field.
//
// Returns ErrFieldExists if the field is already stored and Force is not set.
// Returns ErrVaultNotInitialized if init has not been run.
func Set(ctx context.Context, env Env, opts SetOptions) (*SetResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := secrets.ValidateFieldName(opts.Field); err != nil {
		return nil, err
	}

	o, err := openVault(env)
	if err != nil {
		return nil, err
	}

	exists, err := o.vault.HasSecure(opts.Field)
	if err != nil {
		return nil, err
	}
	if exists && !opts.Force {
		return nil, fmt.Errorf("%w: %q", kerrors.ErrFieldExists, opts.Field)
	}

	if err := o.vault.SetSecure(opts.Field, opts.Value); err != nil {
		return nil, err
	}

	entry := env.entry("set", o.config)
	entry.Field = opts.Field
	env.record(entry)

	return &SetResult{Field: opts.Field, Overwritten: exists}, nil
}

// GetOptions configures the get workflow.
type GetOptions struct {
	Field string
}

// GetResult contains the decrypted value.
type GetResult struct {
	Field string
	Value string
}

// Get decrypts a stored field.
//
// Returns ErrFieldNotFound before any key derivation if the field is absent.
// Returns ErrMasterKeyDecryption or ErrFieldDecryption when authentication fails.
func Get(ctx context.Context, env Env, opts GetOptions) (*GetResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o, err := openVault(env)
	if err != nil {
		return nil, err
	}

	value, err := o.vault.GetSecure(opts.Field)
	if err != nil {
		return nil, err
	}

	entry := env.entry("get", o.config)
	entry.Field = opts.Field
	env.record(entry)

	return &GetResult{Field: opts.Field, Value: value}, nil
}

// RemoveOptions configures the remove workflow.
type RemoveOptions struct {
	Field string
}

// RemoveResult contains the outcome of a remove operation.
type RemoveResult struct {
	Field string

	// Remaining is the number of fields left in the vault.
	Remaining int
}

// Remove deletes a single field. The master key is not unwrapped.
func Remove(ctx context.Context, env Env, opts RemoveOptions) (*RemoveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o, err := openVault(env)
	if err != nil {
		return nil, err
	}

	if err := o.vault.DeleteSecure(opts.Field); err != nil {
		return nil, err
	}

	fields, err := o.vault.Fields()
	if err != nil {
		return nil, err
	}

	entry := env.entry("remove", o.config)
	entry.Field = opts.Field
	env.record(entry)

	return &RemoveResult{Field: opts.Field, Remaining: len(fields)}, nil
}

// ListOptions configures the list workflow.
type ListOptions struct{}

// ListResult contains the stored field names.
type ListResult struct {
	VaultUUID string
	Fields    []string
}

// List returns stored field names in sorted order. Nothing is decrypted.
func List(ctx context.Context, env Env, opts ListOptions) (*ListResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o, err := openVault(env)
	if err != nil {
		return nil, err
	}

	fields, err := o.vault.Fields()
	if err != nil {
		return nil, err
	}

	return &ListResult{VaultUUID: o.config.Vault.UUID, Fields: fields}, nil
}
