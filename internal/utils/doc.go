// Package utils provides shared utility functions for the credvault application.
//
// This package contains general-purpose helpers used across multiple packages.
// Functions are organized into logical groups:
//
// # Filesystem Utilities
//
//   - WriteFileAtomic: temp file + fsync + rename, never a half-written target
//   - RemoveIfExists: idempotent delete
//   - FileExists: regular file check
//
// # System Utilities
//
// Functions for reading host identifiers used by the environment fingerprint:
//   - GetUsername, GetHostname, GetOSName, GetArchitecture
//   - NormalizeIdentifier: lower-case and trim
//
// # Memory Utilities
//
//   - Zero: overwrite key material after use
//   - LockMemory / UnlockMemory: mlock on unix, no-op elsewhere
//
// # I/O and Terminal Utilities
//
//   - ReadAllTrimmed: read a piped secret
//   - ReadPassphrase / ReadNewPassphrase: hidden terminal input
//   - IsTerminal: checks if stdin is a terminal
package utils
