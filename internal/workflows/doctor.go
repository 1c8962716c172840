package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/PolarWolf314/credvault/internal/configs"
	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/secrets"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	// CheckPass means the check passed.
	CheckPass CheckStatus = iota
	// CheckWarning means the check found a non-critical issue.
	CheckWarning
	// CheckError means the check found a critical issue.
	CheckError
)

// String returns a string representation of CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CheckStatus.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// DoctorOptions configures the doctor workflow.
type DoctorOptions struct {
	// Unlock additionally unwraps the master key to prove it still decrypts
	// on this machine. In passphrase mode this prompts.
	Unlock bool
}

// doctorState is shared between checks so later checks can skip work when an
// earlier one already failed.
type doctorState struct {
	env    Env
	config *configs.VaultConfig
}

// Doctor runs health checks on the vault.
//
// The doctor workflow checks:
//   - Vault configuration validity
//   - Master key record presence, format and permissions
//   - Agreement between the configured and recorded derivation mode
//   - Credentials document format and permissions
//   - Optionally, that the master key still unwraps
func Doctor(ctx context.Context, env Env, opts DoctorOptions) (*DoctorResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := &doctorState{env: env}
	checks := []func(*doctorState) CheckResult{
		checkVaultConfig,
		checkMasterKeyRecord,
		checkMasterKeyPermissions,
		checkModeAgreement,
		checkCredentialsDocument,
		checkCredentialsPermissions,
	}
	if opts.Unlock {
		checks = append(checks, checkMasterKeyUnlocks)
	}

	var results []CheckResult
	for _, check := range checks {
		results = append(results, check(state))
	}

	summary := calculateDoctorSummary(results)

	// Collect suggestions (deduplicated).
	var suggestions []string
	seen := make(map[string]bool)
	for _, result := range results {
		if result.Suggestion != "" && result.Status != CheckPass && !seen[result.Suggestion] {
			suggestions = append(suggestions, result.Suggestion)
			seen[result.Suggestion] = true
		}
	}

	return &DoctorResult{
		Checks:      results,
		Summary:     summary,
		Suggestions: suggestions,
	}, nil
}

func checkVaultConfig(s *doctorState) CheckResult {
	const name = "Vault configuration"

	config, err := configs.LoadVaultConfig(s.env.Settings.ConfigPath())
	if errors.Is(err, kerrors.ErrVaultNotInitialized) {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    "config.toml not found",
			Suggestion: "Run 'credvault init' to create a vault",
		}
	}
	if err != nil {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    err.Error(),
			Suggestion: "Fix config.toml or re-create the vault with 'credvault init --force'",
		}
	}

	s.config = config
	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("Vault %s (%s mode)", config.Vault.UUID, config.Vault.Mode),
	}
}

func (s *doctorState) masterKeyManager() *secrets.MasterKeyManager {
	return secrets.NewMasterKeyManager(s.env.Settings.MasterKeyPath(s.config), s.env.Host, secrets.DefaultKDFParams(), s.env.Logger)
}

func checkMasterKeyRecord(s *doctorState) CheckResult {
	const name = "Master key record"

	info, err := s.masterKeyManager().Inspect()
	switch {
	case errors.Is(err, kerrors.ErrMasterKeyMissing):
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    "Master key record not found",
			Suggestion: "Run 'credvault init --force' to create a new master key",
		}
	case errors.Is(err, kerrors.ErrSchemaVersion):
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    err.Error(),
			Suggestion: "Upgrade credvault to a version that understands this record",
		}
	case err != nil:
		return CheckResult{
			Name:    name,
			Status:  CheckError,
			Message: err.Error(),
		}
	}

	return CheckResult{
		Name:    name,
		Status:  CheckPass,
		Message: fmt.Sprintf("Schema v%d, %s", info.SchemaVersion, info.KDFParams),
	}
}

func checkMasterKeyPermissions(s *doctorState) CheckResult {
	return checkPrivatePermissions("Master key permissions", s.env.Settings.MasterKeyPath(s.config))
}

func checkCredentialsPermissions(s *doctorState) CheckResult {
	return checkPrivatePermissions("Credentials permissions", s.env.Settings.CredentialsPath(s.config))
}

func checkPrivatePermissions(name, path string) CheckResult {
	if runtime.GOOS == "windows" {
		return CheckResult{Name: name, Status: CheckPass, Message: "Skipped on Windows"}
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return CheckResult{Name: name, Status: CheckPass, Message: "No file to check"}
	}
	if err != nil {
		return CheckResult{Name: name, Status: CheckError, Message: err.Error()}
	}

	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return CheckResult{
			Name:       name,
			Status:     CheckWarning,
			Message:    fmt.Sprintf("%s is accessible by other users (%o)", path, perm),
			Suggestion: fmt.Sprintf("Run 'chmod 600 %s'", path),
		}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: "Readable by owner only"}
}

func checkModeAgreement(s *doctorState) CheckResult {
	const name = "Derivation mode"

	if s.config == nil {
		return CheckResult{Name: name, Status: CheckWarning, Message: "Skipped: no readable config"}
	}
	info, err := s.masterKeyManager().Inspect()
	if err != nil {
		return CheckResult{Name: name, Status: CheckWarning, Message: "Skipped: no readable master key record"}
	}

	if info.Mode != s.config.SourceMode() {
		return CheckResult{
			Name:       name,
			Status:     CheckError,
			Message:    fmt.Sprintf("config.toml says %s but the master key record is %s", s.config.Vault.Mode, info.Mode),
			Suggestion: fmt.Sprintf("Set mode = %q in config.toml", info.Mode),
		}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: fmt.Sprintf("Config and record agree (%s)", info.Mode)}
}

func checkCredentialsDocument(s *doctorState) CheckResult {
	const name = "Credentials document"

	store := secrets.NewCredentialStore(s.env.Settings.CredentialsPath(s.config), s.env.Logger)
	fields, err := store.Fields()
	if err != nil {
		return CheckResult{
			Name:    name,
			Status:  CheckError,
			Message: err.Error(),
		}
	}
	return CheckResult{Name: name, Status: CheckPass, Message: fmt.Sprintf("%d field(s) stored", len(fields))}
}

func checkMasterKeyUnlocks(s *doctorState) CheckResult {
	const name = "Master key unlock"

	if s.config == nil {
		return CheckResult{Name: name, Status: CheckWarning, Message: "Skipped: no readable config"}
	}

	key, err := s.masterKeyManager().Load(sourceFor(s.config.SourceMode(), s.env.Passphrase))
	if err != nil {
		suggestion := ""
		if errors.Is(err, kerrors.ErrMasterKeyDecryption) && s.config.SourceMode() == secrets.ModeSystem {
			suggestion = "The machine identity changed; stored fields cannot be recovered. Run 'credvault init --force'"
		}
		return CheckResult{Name: name, Status: CheckError, Message: err.Error(), Suggestion: suggestion}
	}
	secrets.ReleaseKey(key)

	return CheckResult{Name: name, Status: CheckPass, Message: "Master key unwraps on this machine"}
}

func calculateDoctorSummary(results []CheckResult) DoctorSummary {
	var summary DoctorSummary
	for _, r := range results {
		switch r.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		}
	}
	return summary
}
