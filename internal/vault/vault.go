package vault

import (
	"errors"
	"fmt"
	"time"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	logger "github.com/PolarWolf314/credvault/internal/logging"
	"github.com/PolarWolf314/credvault/internal/secrets"
)

// Options configures a Vault. Paths are required; everything else has a default.
type Options struct {
	// MasterKeyPath is where the wrapped master key record lives.
	MasterKeyPath string

	// CredentialsPath is where the encrypted fields live.
	CredentialsPath string

	// Source selects the derivation mode. Defaults to secrets.SystemBound().
	Source secrets.KeySource

	// KDF is used when a new master key record is written. The zero value
	// selects secrets.DefaultKDFParams().
	KDF secrets.KDFParams

	// Host supplies fingerprint components. Defaults to secrets.LocalHost.
	Host secrets.HostInfo

	Logger logger.Logger
}

// Vault ties a master key record and a credentials document together.
// It is not safe for concurrent use, and only one process should write a
// given pair of paths at a time.
type Vault struct {
	keys   *secrets.MasterKeyManager
	store  *secrets.CredentialStore
	source secrets.KeySource
	log    logger.Logger
}

// Status summarizes a vault without decrypting anything.
type Status struct {
	MasterKeyPath   string
	CredentialsPath string
	Initialized     bool
	State           secrets.State
	Mode            secrets.Mode
	KDF             string
	SchemaVersion   int
	CreatedAt       time.Time
	Fields          []string
}

// New validates opts and returns a Vault. No files are touched.
func New(opts Options) (*Vault, error) {
	if opts.MasterKeyPath == "" {
		return nil, errors.New("master key path is required")
	}
	if opts.CredentialsPath == "" {
		return nil, errors.New("credentials path is required")
	}
	if opts.MasterKeyPath == opts.CredentialsPath {
		return nil, fmt.Errorf("master key and credentials must use different files, both set to %s", opts.MasterKeyPath)
	}

	kdf := opts.KDF
	if kdf.Algorithm == "" {
		kdf = secrets.DefaultKDFParams()
	}
	if err := kdf.Validate(); err != nil {
		return nil, err
	}

	source := opts.Source
	if source == nil {
		source = secrets.SystemBound()
	}
	host := opts.Host
	if host == nil {
		host = secrets.LocalHost{}
	}

	return &Vault{
		keys:   secrets.NewMasterKeyManager(opts.MasterKeyPath, host, kdf, opts.Logger),
		store:  secrets.NewCredentialStore(opts.CredentialsPath, opts.Logger),
		source: source,
		log:    opts.Logger,
	}, nil
}

// Source returns the key source used when none is passed explicitly.
func (v *Vault) Source() secrets.KeySource { return v.source }

// State returns the master key lifecycle state.
func (v *Vault) State() secrets.State { return v.keys.State() }

// GenerateMasterKey returns a fresh 32-byte master key. Nothing is persisted
// until StoreMasterKey is called.
func (v *Vault) GenerateMasterKey() ([]byte, error) {
	return v.keys.Generate()
}

// StoreMasterKey wraps key and persists it, replacing any existing record.
// Fields encrypted under a previous master key become unreadable. A nil src
// uses the vault's configured source, which then follows the new record.
func (v *Vault) StoreMasterKey(key []byte, src secrets.KeySource) error {
	if src == nil {
		src = v.source
	}
	if err := v.keys.Store(key, src); err != nil {
		return err
	}
	v.source = src
	return nil
}

// SetSecure encrypts plaintext under the master key and stores it as field.
func (v *Vault) SetSecure(field, plaintext string) error {
	if err := secrets.ValidateFieldName(field); err != nil {
		return err
	}

	return v.withMasterKey(func(key []byte) error {
		return v.store.Set(field, plaintext, key)
	})
}

// GetSecure decrypts field. A missing field is reported before the master key
// is unwrapped, so it never costs a key derivation or a passphrase prompt.
func (v *Vault) GetSecure(field string) (string, error) {
	ok, err := v.store.Has(field)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %q", kerrors.ErrFieldNotFound, field)
	}

	var plaintext string
	err = v.withMasterKey(func(key []byte) error {
		var getErr error
		plaintext, getErr = v.store.Get(field, key)
		return getErr
	})
	return plaintext, err
}

// HasSecure reports whether field is stored, without decrypting it.
func (v *Vault) HasSecure(field string) (bool, error) {
	return v.store.Has(field)
}

// DeleteSecure removes field. The master key is not needed.
func (v *Vault) DeleteSecure(field string) error {
	return v.store.Delete(field)
}

// Fields lists stored field names in sorted order.
func (v *Vault) Fields() ([]string, error) {
	return v.store.Fields()
}

// ClearDatabase removes the documents selected by scope. It is idempotent.
func (v *Vault) ClearDatabase(scope Scope) error {
	if scope.IncludesCredentials() {
		if err := v.store.Clear(); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}
		v.log.Infof("Credentials document cleared")
	}
	if scope.IncludesMaster() {
		if err := v.keys.Clear(); err != nil {
			return fmt.Errorf("failed to clear master key: %w", err)
		}
		v.log.Infof("Master key record cleared")
	}
	return nil
}

// RotateMasterKey re-wraps the existing master key for newSrc under a fresh
// salt. A nil params keeps the record's current KDF parameters.
func (v *Vault) RotateMasterKey(newSrc secrets.KeySource, params *secrets.KDFParams) error {
	if newSrc == nil {
		newSrc = secrets.SystemBound()
	}
	if err := v.keys.Rotate(v.source, newSrc, params); err != nil {
		return err
	}
	v.source = newSrc
	return nil
}

// Status reports the vault's metadata. An uninitialized vault is not an error.
func (v *Vault) Status() (*Status, error) {
	st := &Status{
		MasterKeyPath:   v.keys.Path(),
		CredentialsPath: v.store.Path(),
	}

	info, err := v.keys.Inspect()
	switch {
	case err == nil:
		st.Initialized = true
		st.Mode = info.Mode
		st.KDF = info.KDFParams.String()
		st.SchemaVersion = info.SchemaVersion
		st.CreatedAt = info.CreatedAt
	case errors.Is(err, kerrors.ErrMasterKeyMissing):
	default:
		return nil, err
	}
	st.State = v.keys.State()

	fields, err := v.store.Fields()
	if err != nil {
		return nil, err
	}
	st.Fields = fields
	return st, nil
}

func (v *Vault) withMasterKey(fn func(key []byte) error) error {
	key, err := v.keys.Load(v.source)
	if err != nil {
		return err
	}
	defer secrets.ReleaseKey(key)

	return fn(key)
}
