package secrets

import (
	"errors"
	"fmt"
	"time"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	logger "github.com/PolarWolf314/credvault/internal/logging"
	"github.com/PolarWolf314/credvault/internal/utils"
)

// State tracks where the master key is in its lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateKeyGenerated
	StateStored
	StateLoaded
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateKeyGenerated:
		return "key-generated"
	case StateStored:
		return "stored"
	case StateLoaded:
		return "loaded"
	case StateLocked:
		return "locked"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MasterKeyInfo describes a stored record without unwrapping it.
type MasterKeyInfo struct {
	SchemaVersion int
	Mode          Mode
	KDFParams     KDFParams
	CreatedAt     time.Time
}

// MasterKeyManager owns the wrapped master key record and its salt.
type MasterKeyManager struct {
	path  string
	host  HostInfo
	kdf   KDFParams
	log   logger.Logger
	state State
}

// NewMasterKeyManager returns a manager for the record at path. kdf is used
// for new records only; existing records carry their own parameters.
func NewMasterKeyManager(path string, host HostInfo, kdf KDFParams, log logger.Logger) *MasterKeyManager {
	if host == nil {
		host = LocalHost{}
	}
	m := &MasterKeyManager{path: path, host: host, kdf: kdf, log: log}
	if utils.FileExists(path) {
		m.state = StateStored
	}
	return m
}

func (m *MasterKeyManager) Path() string { return m.path }

func (m *MasterKeyManager) State() State { return m.state }

// Generate returns a new random master key. Storing it replaces any existing
// key, after which previously encrypted fields can no longer be decrypted.
func (m *MasterKeyManager) Generate() ([]byte, error) {
	key, err := CreateSymmetricKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	m.state = StateKeyGenerated
	return key, nil
}

// Store wraps key under a wrapping key derived from src and writes a new
// record, overwriting any previous one. This is irreversible: fields encrypted
// under a previous master key become unreadable.
func (m *MasterKeyManager) Store(key []byte, src KeySource) error {
	if src == nil {
		src = SystemBound()
	}
	return m.store(key, src, m.kdf)
}

func (m *MasterKeyManager) store(key []byte, src KeySource, params KDFParams) error {
	if len(key) != MasterKeySize {
		return fmt.Errorf("%w: master key must be %d bytes, got %d", kerrors.ErrInvalidKeyLength, MasterKeySize, len(key))
	}
	if err := params.Validate(); err != nil {
		return err
	}

	salt, err := NewSalt()
	if err != nil {
		return err
	}

	mode := src.Mode()
	m.log.Debugf("Deriving wrapping key (%s, %s mode)", params, mode)
	wrappingKey, err := m.deriveWrappingKey(mode, src, salt, params)
	if err != nil {
		return err
	}
	defer WipeKey(wrappingKey)

	nonce, ciphertext, tag, err := Seal(wrappingKey, key, masterKeyAD(mode))
	if err != nil {
		return fmt.Errorf("failed to wrap master key: %w", err)
	}

	rec := &MasterKeyRecord{
		SchemaVersion: MasterKeySchemaVersion,
		Mode:          mode,
		Salt:          salt,
		KDFParams:     params,
		Nonce:         nonce,
		Ciphertext:    ciphertext,
		Tag:           tag,
		CreatedAt:     time.Now().UTC(),
	}
	if err := writeDocument(m.path, rec); err != nil {
		return fmt.Errorf("failed to save master key record: %w", err)
	}

	m.log.Infof("Master key stored at %s", m.path)
	m.state = StateStored
	return nil
}

// Load unwraps the stored master key. Checks run in a fixed order: the record
// must exist, its schema version must be supported, src must match the stored
// mode, and only then is the wrapping key derived and the tag verified.
//
// The returned key is memory-locked where supported; release it with ReleaseKey.
func (m *MasterKeyManager) Load(src KeySource) ([]byte, error) {
	rec, err := m.readRecord()
	if err != nil {
		return nil, err
	}

	wrappingKey, err := m.deriveWrappingKey(rec.Mode, src, rec.Salt, rec.KDFParams)
	if err != nil {
		return nil, err
	}
	defer WipeKey(wrappingKey)

	key, err := Open(wrappingKey, rec.Nonce, rec.Ciphertext, rec.Tag, masterKeyAD(rec.Mode))
	if err != nil {
		m.state = StateLocked
		if errors.Is(err, kerrors.ErrAuthentication) {
			if p, ok := src.(*promptSource); ok {
				p.forget()
			}
			return nil, fmt.Errorf("%w: %s: %w", kerrors.ErrMasterKeyDecryption, decryptionHint(rec.Mode), err)
		}
		return nil, fmt.Errorf("%w: %w", kerrors.ErrMasterKeyDecryption, err)
	}
	if len(key) != MasterKeySize {
		m.state = StateLocked
		WipeKey(key)
		return nil, fmt.Errorf("%w: %w: unwrapped key is %d bytes", kerrors.ErrMasterKeyDecryption, kerrors.ErrInvalidKeyLength, len(key))
	}

	if err := utils.LockMemory(key); err != nil {
		m.log.Debugf("Could not lock master key in memory: %v", err)
	}

	m.state = StateLoaded
	return key, nil
}

// Rotate re-wraps the current master key under a fresh salt for newSrc,
// optionally with new KDF parameters. Stored fields stay readable because the
// master key itself does not change.
func (m *MasterKeyManager) Rotate(oldSrc, newSrc KeySource, params *KDFParams) error {
	key, err := m.Load(oldSrc)
	if err != nil {
		return err
	}
	defer ReleaseKey(key)

	rec, err := m.readRecord()
	if err != nil {
		return err
	}
	next := rec.KDFParams
	if params != nil {
		next = *params
	}

	if newSrc == nil {
		newSrc = SystemBound()
	}
	return m.store(key, newSrc, next)
}

// Clear deletes the record. Clearing an absent record is a no-op.
func (m *MasterKeyManager) Clear() error {
	if err := utils.RemoveIfExists(m.path); err != nil {
		return err
	}
	m.state = StateUninitialized
	return nil
}

// Inspect reports the record's metadata. Nothing is derived or decrypted.
func (m *MasterKeyManager) Inspect() (*MasterKeyInfo, error) {
	rec, err := m.readRecord()
	if err != nil {
		return nil, err
	}
	return &MasterKeyInfo{
		SchemaVersion: rec.SchemaVersion,
		Mode:          rec.Mode,
		KDFParams:     rec.KDFParams,
		CreatedAt:     rec.CreatedAt,
	}, nil
}

func (m *MasterKeyManager) readRecord() (*MasterKeyRecord, error) {
	data, found, err := readDocument(m.path)
	if err != nil {
		return nil, err
	}
	if !found {
		m.state = StateUninitialized
		return nil, fmt.Errorf("%w: no record at %s", kerrors.ErrMasterKeyMissing, m.path)
	}

	rec, err := decodeMasterKeyRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key record: %w", err)
	}
	return rec, nil
}

func (m *MasterKeyManager) deriveWrappingKey(mode Mode, src KeySource, salt []byte, params KDFParams) ([]byte, error) {
	fingerprint, err := Collect(m.host, mode, src)
	if err != nil {
		return nil, err
	}
	defer utils.Zero(fingerprint)

	return DeriveWrappingKey(fingerprint, salt, params)
}

func masterKeyAD(mode Mode) []byte {
	return []byte("credvault:master:v1:" + string(mode))
}

func decryptionHint(mode Mode) string {
	if mode == ModePassphrase {
		return "incorrect passphrase, or the machine identity has changed"
	}
	return "machine identity has changed; reset the vault with a new master key (previously encrypted fields cannot be recovered)"
}
