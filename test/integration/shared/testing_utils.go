// Package shared contains testing utilities shared between integration tests.
// This file provides common functions for setting up isolated vault
// directories, running the CLI and inspecting the files it writes.
package shared

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/credvault/cmd"
	"github.com/PolarWolf314/credvault/internal/configs"
)

// Dirs are the per-test vault directories.
type Dirs struct {
	Config string
	Data   string
}

// MasterKeyPath is the default master key record location.
func (d Dirs) MasterKeyPath() string { return filepath.Join(d.Config, "master_key.json") }

// ConfigPath is the vault config file.
func (d Dirs) ConfigPath() string { return filepath.Join(d.Config, "config.toml") }

// CredentialsPath is the default credentials document location.
func (d Dirs) CredentialsPath() string { return filepath.Join(d.Data, "credentials.json") }

// AuditLogPath is the audit log location.
func (d Dirs) AuditLogPath() string { return filepath.Join(d.Data, "audit.jsonl") }

// Result is the captured outcome of one CLI invocation.
type Result struct {
	Stdout string
	Stderr string
	Err    error
}

// Output returns stdout and stderr combined.
func (r Result) Output() string { return r.Stdout + r.Stderr }

// SetupTestEnvironment points the CLI at fresh temporary directories, disables
// color and clears any passphrase from the environment. State is restored when
// the test ends.
func SetupTestEnvironment(t *testing.T) Dirs {
	t.Helper()

	root := t.TempDir()
	dirs := Dirs{
		Config: filepath.Join(root, "config"),
		Data:   filepath.Join(root, "data"),
	}
	t.Setenv(configs.EnvConfigDir, dirs.Config)
	t.Setenv(configs.EnvDataDir, dirs.Data)
	t.Setenv("NO_COLOR", "1")
	t.Setenv(cmd.EnvPassphrase, "")
	if err := os.Unsetenv(cmd.EnvPassphrase); err != nil {
		t.Fatalf("Failed to unset %s: %v", cmd.EnvPassphrase, err)
	}

	t.Cleanup(func() {
		cmd.SetSecretReaders(nil, nil)
		cmd.SetDoctorExitFunc(os.Exit)
		cmd.PrepareTestCLI(nil, nil, nil, nil)
	})
	return dirs
}

// RunCLI executes credvault with args, feeding stdin to prompts.
func RunCLI(t *testing.T, stdin string, args ...string) Result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := cmd.PrepareTestCLI(args, strings.NewReader(stdin), &stdout, &stderr)
	err := root.Execute()
	return Result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

// MustRunCLI is RunCLI that fails the test on error.
func MustRunCLI(t *testing.T, stdin string, args ...string) Result {
	t.Helper()

	res := RunCLI(t, stdin, args...)
	if res.Err != nil {
		t.Fatalf("credvault %s failed: %v\nOutput: %s", strings.Join(args, " "), res.Err, res.Output())
	}
	return res
}

// InitializeVault runs a fast init with any extra flags.
func InitializeVault(t *testing.T, extra ...string) Result {
	t.Helper()
	return MustRunCLI(t, "", append([]string{"init", "--scrypt-n", "1024"}, extra...)...)
}

// ReadJSON decodes a JSON document into a generic map.
func ReadJSON(t *testing.T, path string) map[string]any {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to parse %s: %v", path, err)
	}
	return doc
}

// WriteJSON encodes doc to path, replacing its contents.
func WriteJSON(t *testing.T, path string, doc map[string]any) {
	t.Helper()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// VerifyPrivateFile checks that path exists and is readable by its owner only.
func VerifyPrivateFile(t *testing.T, path string) {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected %s to exist: %v", path, err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("%s has mode %o, want 600", path, perm)
	}
}

// VerifyAbsent checks that path does not exist.
func VerifyAbsent(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected %s to be absent, stat err = %v", path, err)
	}
}
