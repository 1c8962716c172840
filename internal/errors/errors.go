package errors

import (
	"errors"
	"fmt"
)

// Derivation errors indicate the caller and the vault disagree on how the
// wrapping key is derived.
var (
	// ErrPassphraseNotAllowed indicates the requested derivation mode differs from the vault's mode.
	ErrPassphraseNotAllowed = errors.New("derivation mode does not match the vault")

	// ErrPassphraseRequired indicates the vault is passphrase-bound but no passphrase was supplied.
	ErrPassphraseRequired = errors.New("passphrase is required for this vault")
)

// Master key errors indicate issues with the wrapped master key record.
var (
	// ErrMasterKeyMissing indicates no master key record has been stored.
	ErrMasterKeyMissing = errors.New("master key not found")

	// ErrMasterKeyDecryption indicates the master key could not be unwrapped.
	ErrMasterKeyDecryption = errors.New("failed to decrypt master key")

	// ErrVaultNotInitialized indicates the vault has no configuration yet.
	ErrVaultNotInitialized = errors.New("vault has not been initialized")

	// ErrVaultAlreadyInitialized indicates init was run against an existing vault without force.
	ErrVaultAlreadyInitialized = errors.New("vault is already initialized")
)

// Field errors indicate issues with individual credential fields.
var (
	// ErrFieldNotFound indicates the requested field is not in the credentials document.
	ErrFieldNotFound = errors.New("field not found")

	// ErrFieldDecryption indicates a stored field failed authentication.
	ErrFieldDecryption = errors.New("failed to decrypt field")

	// ErrFieldExists indicates the field is already stored and overwrite was not requested.
	ErrFieldExists = errors.New("field already exists")

	// ErrInvalidFieldName indicates the field name is empty or whitespace.
	ErrInvalidFieldName = errors.New("invalid field name")
)

// Document errors indicate issues with the on-disk formats.
var (
	// ErrSchemaVersion indicates the document's schema version is not supported.
	ErrSchemaVersion = errors.New("unsupported schema version")

	// ErrInvalidDocument indicates the document is malformed.
	ErrInvalidDocument = errors.New("invalid document")
)

// Input errors indicate malformed command input.
var (
	// ErrInvalidDateFormat indicates a date filter is not in YYYY-MM-DD format.
	ErrInvalidDateFormat = errors.New("invalid date format")
)

// Cryptographic errors indicate failures in the underlying primitives.
var (
	// ErrAuthentication indicates an AEAD tag did not verify.
	ErrAuthentication = errors.New("message authentication failed")

	// ErrInvalidKeyLength indicates a key has an unexpected length.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// ErrInvalidKDFParams indicates the key derivation parameters are unusable.
	ErrInvalidKDFParams = errors.New("invalid key derivation parameters")
)

// SchemaVersionError reports a document whose version is not in the supported set.
type SchemaVersionError struct {
	Document  string
	Version   int
	Supported []int
}

func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("%s: %s %d (supported: %v)", e.Document, ErrSchemaVersion, e.Version, e.Supported)
}

func (e *SchemaVersionError) Is(target error) bool {
	return target == ErrSchemaVersion
}

// ModeMismatchError reports a call whose derivation mode differs from the mode
// the vault was initialized with.
type ModeMismatchError struct {
	Stored    string
	Requested string
}

func (e *ModeMismatchError) Error() string {
	if e.Stored == "passphrase" {
		return fmt.Sprintf("%s: vault is passphrase-bound, supply the passphrase it was created with", ErrPassphraseRequired)
	}
	return fmt.Sprintf("%s: vault is %s-bound but a %s key source was supplied", ErrPassphraseNotAllowed, e.Stored, e.Requested)
}

func (e *ModeMismatchError) Is(target error) bool {
	switch target {
	case ErrPassphraseNotAllowed:
		return true
	case ErrPassphraseRequired:
		return e.Stored == "passphrase"
	}
	return false
}
