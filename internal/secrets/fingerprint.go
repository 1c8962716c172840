package secrets

import (
	"bytes"
	"fmt"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/utils"
)

// Mode is the derivation mode a vault was initialized with.
type Mode string

const (
	// ModeSystem binds the wrapping key to machine and user identifiers only.
	ModeSystem Mode = "system"

	// ModePassphrase additionally mixes a user-supplied passphrase into the fingerprint.
	ModePassphrase Mode = "passphrase"
)

// ParseMode converts a config or flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(utils.NormalizeIdentifier(s)) {
	case ModeSystem:
		return ModeSystem, nil
	case ModePassphrase:
		return ModePassphrase, nil
	default:
		return "", fmt.Errorf("unknown derivation mode %q (want %q or %q)", s, ModeSystem, ModePassphrase)
	}
}

// KeySource selects how the wrapping key is derived. The set of sources is
// closed: use SystemBound, Passphrase or PassphrasePrompt.
type KeySource interface {
	Mode() Mode
	passphrase() ([]byte, error)
}

type systemSource struct{}

// SystemBound derives the wrapping key from the host fingerprint alone.
func SystemBound() KeySource { return systemSource{} }

func (systemSource) Mode() Mode                  { return ModeSystem }
func (systemSource) passphrase() ([]byte, error) { return nil, nil }

type passphraseSource struct {
	value []byte
}

// Passphrase derives the wrapping key from the host fingerprint plus p.
func Passphrase(p string) KeySource { return &passphraseSource{value: []byte(p)} }

func (s *passphraseSource) Mode() Mode                  { return ModePassphrase }
func (s *passphraseSource) passphrase() ([]byte, error) { return s.value, nil }

type promptSource struct {
	prompt func() ([]byte, error)
	value  []byte
}

// PassphrasePrompt defers asking for the passphrase until an operation first
// needs the wrapping key. An answer is reused for later calls until it fails
// to unwrap the master key.
func PassphrasePrompt(prompt func() ([]byte, error)) KeySource {
	return &promptSource{prompt: prompt}
}

func (s *promptSource) Mode() Mode { return ModePassphrase }

func (s *promptSource) passphrase() ([]byte, error) {
	if s.value != nil {
		return s.value, nil
	}
	if s.prompt == nil {
		return nil, kerrors.ErrPassphraseRequired
	}
	value, err := s.prompt()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	s.value = value
	return s.value, nil
}

// forget drops a cached answer that failed to unwrap the key, so the next
// operation asks again.
func (s *promptSource) forget() {
	utils.Zero(s.value)
	s.value = nil
}

// HostInfo exposes the machine identifiers that make up a fingerprint.
type HostInfo interface {
	OSName() string
	Architecture() string
	Hostname() (string, error)
	Username() (string, error)
}

// LocalHost reads identifiers from the running machine.
type LocalHost struct{}

func (LocalHost) OSName() string            { return utils.GetOSName() }
func (LocalHost) Architecture() string      { return utils.GetArchitecture() }
func (LocalHost) Hostname() (string, error) { return utils.GetHostname() }
func (LocalHost) Username() (string, error) { return utils.GetUsername() }

// fingerprintSeparator keeps component boundaries unambiguous ("ab"+"c" != "a"+"bc").
const fingerprintSeparator = 0x00

// Collect builds the fingerprint for a vault stored in mode stored. It fails
// with a ModeMismatchError when src asks for the other mode. The result holds
// the passphrase in passphrase mode; callers zero it after deriving.
func Collect(host HostInfo, stored Mode, src KeySource) ([]byte, error) {
	if src == nil {
		src = SystemBound()
	}
	if src.Mode() != stored {
		return nil, &kerrors.ModeMismatchError{Stored: string(stored), Requested: string(src.Mode())}
	}

	hostname, err := host.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to read hostname: %w", err)
	}
	username, err := host.Username()
	if err != nil {
		return nil, fmt.Errorf("failed to read username: %w", err)
	}

	components := [][]byte{
		[]byte(utils.NormalizeIdentifier(host.OSName())),
		[]byte(utils.NormalizeIdentifier(host.Architecture())),
		[]byte(utils.NormalizeIdentifier(hostname)),
		[]byte(utils.NormalizeIdentifier(username)),
	}

	if stored == ModePassphrase {
		passphrase, err := src.passphrase()
		if err != nil {
			return nil, err
		}
		if len(passphrase) == 0 {
			return nil, kerrors.ErrPassphraseRequired
		}
		components = append(components, passphrase)
	}

	return bytes.Join(components, []byte{fingerprintSeparator}), nil
}
