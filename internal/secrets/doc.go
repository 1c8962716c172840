// Package secrets provides the key-management and field-encryption engine for
// credvault.
//
// # Encryption Architecture
//
// credvault uses envelope encryption with two layers:
//
//  1. A random 256-bit master key encrypts each credential field (AES-256-GCM)
//  2. A wrapping key, derived from the host fingerprint with a memory-hard KDF,
//     encrypts the master key
//
// The wrapping key is never stored. It is re-derived on every load from the
// fingerprint, the persisted salt, and the persisted KDF parameters, so the
// vault only opens on the machine (and for the user, and with the passphrase)
// it was created for.
//
// # Fingerprint
//
// The fingerprint is the OS name, CPU architecture, hostname and username,
// each lower-cased and trimmed, joined with NUL separators. In passphrase mode
// the passphrase is appended as a fifth component, unmodified. The derivation
// mode is chosen when the master key is stored and recorded in the record;
// a later call with the other mode fails with a ModeMismatchError before any
// key is derived.
//
// # On-disk Documents
//
// Two independent JSON documents, each carrying a schema_version:
//   - master_key.json: mode, salt, kdf_params, nonce, ciphertext, tag
//   - credentials.json: fields → {nonce, ciphertext, tag}
//
// Decoding switches over the known versions; anything else is rejected with a
// SchemaVersionError before the payload is interpreted. Writes go to a temp
// file in the same directory and are renamed over the target.
//
// # Associated Data
//
// The master key ciphertext is bound to its mode, and every field ciphertext
// is bound to its field name, so records cannot be swapped between fields or
// have their mode edited without failing authentication.
//
// # Concurrency
//
// All operations are synchronous. Concurrent writers in separate processes can
// lose updates; a vault directory is assumed to have a single writer.
package secrets
