package vault

import (
	"fmt"
	"strings"
)

// Scope selects which documents ClearDatabase removes.
type Scope int

const (
	// ScopeBoth removes the master key record and the credentials document.
	ScopeBoth Scope = iota
	// ScopeMaster removes only the master key record.
	ScopeMaster
	// ScopeCredentials removes only the credentials document.
	ScopeCredentials
)

// ParseScope accepts "master", "credentials" or "both".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both", "all":
		return ScopeBoth, nil
	case "master":
		return ScopeMaster, nil
	case "credentials", "creds":
		return ScopeCredentials, nil
	default:
		return ScopeBoth, fmt.Errorf("invalid scope %q: must be one of master, credentials, both", s)
	}
}

func (s Scope) String() string {
	switch s {
	case ScopeMaster:
		return "master"
	case ScopeCredentials:
		return "credentials"
	default:
		return "both"
	}
}

// Set implements pflag.Value.
func (s *Scope) Set(value string) error {
	parsed, err := ParseScope(value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Type implements pflag.Value.
func (s *Scope) Type() string { return "scope" }

// IncludesMaster reports whether the master key record is in scope.
func (s Scope) IncludesMaster() bool { return s == ScopeMaster || s == ScopeBoth }

// IncludesCredentials reports whether the credentials document is in scope.
func (s Scope) IncludesCredentials() bool { return s == ScopeCredentials || s == ScopeBoth }
