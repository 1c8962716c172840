// Package errors provides typed error values for the credvault application.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. This makes
// error handling more robust and refactoring-safe.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Derivation errors: mode mismatches between caller and vault (ErrPassphraseNotAllowed)
//   - Master key errors: missing or undecryptable wrapped key (ErrMasterKeyMissing, ErrMasterKeyDecryption)
//   - Field errors: lookups and decryption of stored fields (ErrFieldNotFound, ErrFieldDecryption)
//   - Document errors: on-disk format problems (ErrSchemaVersion, ErrInvalidDocument)
//   - Crypto errors: primitive failures (ErrAuthentication, ErrInvalidKeyLength)
//
// Two errors carry structured detail and are matched with errors.As:
// SchemaVersionError and ModeMismatchError. Both also satisfy errors.Is for
// their category sentinel.
//
// # Usage
//
// Return errors from internal packages:
//
//	if len(key) != 32 {
//	    return kerrors.ErrInvalidKeyLength
//	}
//
// Handle errors in the CLI layer:
//
//	value, err := v.GetSecure(field)
//	if errors.Is(err, kerrors.ErrFieldNotFound) {
//	    // Show user-friendly message
//	}
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("decrypting field %q: %w", field, kerrors.ErrFieldDecryption)
//
// Failures are never retried internally. Retrying a decryption with the same
// inputs cannot succeed, so recovery is always up to the caller.
package errors
