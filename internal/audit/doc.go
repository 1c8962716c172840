// Package audit provides audit trail logging for vault operations.
//
// Every operation (init, set, get, remove, clear, rotate) is recorded in a
// per-user audit log next to the credentials document.
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line) at:
//
//	<data dir>/audit.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - OS username and vault UUID
//   - Operation name
//   - Operation-specific details (field name, clear scope, derivation mode)
//
// Field values and passphrases are never written.
//
// # Usage
//
//	entry := audit.NewEntry("set", settings.Username, cfg.Vault.UUID)
//	entry.Field = "db_password"
//	audit.Log(settings.AuditLogPath(), entry)
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
//
// # Reading Logs
//
// Use ReadEntries() to parse the audit log for display or analysis.
// Malformed entries are silently skipped to handle partial writes.
package audit
