package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Entry represents a single audit log entry. Secret values are never recorded.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // OS user performing the action.
	VaultUUID string `json:"vault_uuid,omitempty"`
	Operation string `json:"op"` // Operation name.

	// Optional fields depending on operation.
	Field string `json:"field,omitempty"` // For set/get/remove.
	Scope string `json:"scope,omitempty"` // For clear.
	Mode  string `json:"mode,omitempty"`  // For init/rotate.
	KDF   string `json:"kdf,omitempty"`   // For init/rotate.
	Count int    `json:"count,omitempty"` // For list/clear.
}

// NewEntry returns an entry for op with user and vault identity filled in.
func NewEntry(op, user, vaultUUID string) Entry {
	return Entry{Operation: op, User: user, VaultUUID: vaultUUID}
}

// Log appends an entry to the audit log at path.
// If logging fails, it does not return an error.
// Operations should not fail just because audit logging failed.
func Log(path string, entry Entry) {
	if path == "" {
		return
	}

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(timestampLayout)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	// Write entry with newline.
	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the audit log at path.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
