// Package workflows provides high-level orchestration for credvault commands.
//
// Workflows coordinate multiple operations across packages (configs, vault,
// audit) to implement complete user-facing features. Each workflow handles
// a single command's business logic, independent of CLI concerns like flag
// parsing, spinners, prompts and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Builds an Env (settings, logger, passphrase prompt)
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Loading config.toml and choosing the key source
//   - Validating prerequisites (vault initialized, field present)
//   - Performing the core operation
//   - Recording audit trail entries
//
// # Available Workflows
//
//   - Init: Creates config.toml and a wrapped master key
//   - Set, Get, Remove, List: Field operations
//   - Clear: Removes the master key, the credentials, or both
//   - Rotate: Re-wraps the master key for a new mode, passphrase or KDF cost
//   - Status, Doctor, Log: Read-only inspection
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching. Use errors.Is() to check for specific error conditions:
//
//	result, err := workflows.Get(ctx, env, workflows.GetOptions{Field: "db_password"})
//	if errors.Is(err, kerrors.ErrVaultNotInitialized) {
//	    // Show user-friendly initialization message
//	}
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// It is checked before any work starts; key derivation itself is not
// interruptible.
package workflows
