package secrets

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	logger "github.com/PolarWolf314/credvault/internal/logging"
	"github.com/PolarWolf314/credvault/internal/utils"
)

// CredentialStore encrypts named fields under a caller-supplied master key and
// persists them in a single versioned document. It never stores the key.
type CredentialStore struct {
	path string
	log  logger.Logger
}

func NewCredentialStore(path string, log logger.Logger) *CredentialStore {
	return &CredentialStore{path: path, log: log}
}

func (s *CredentialStore) Path() string { return s.path }

// Set encrypts plaintext and upserts it under field. Re-setting a field
// discards its previous ciphertext.
func (s *CredentialStore) Set(field, plaintext string, masterKey []byte) error {
	if err := ValidateFieldName(field); err != nil {
		return err
	}

	doc, err := s.load()
	if err != nil {
		return err
	}

	nonce, ciphertext, tag, err := Seal(masterKey, []byte(plaintext), fieldAD(field))
	if err != nil {
		return fmt.Errorf("failed to encrypt field %q: %w", field, err)
	}

	if _, exists := doc.Fields[field]; exists {
		s.log.Infof("Overwriting existing field %q", field)
	}
	doc.Fields[field] = CredentialRecord{
		Nonce:      nonce,
		Ciphertext: ciphertext,
		Tag:        tag,
		UpdatedAt:  time.Now().UTC(),
	}

	if err := s.save(doc); err != nil {
		return err
	}
	s.log.Infof("Field %q securely encrypted on disk", field)
	return nil
}

// Get decrypts field. It fails with ErrFieldNotFound when the field (or the
// whole document) is absent and ErrFieldDecryption when authentication fails.
func (s *CredentialStore) Get(field string, masterKey []byte) (string, error) {
	doc, err := s.load()
	if err != nil {
		return "", err
	}

	rec, ok := doc.Fields[field]
	if !ok {
		return "", fmt.Errorf("%w: %q", kerrors.ErrFieldNotFound, field)
	}

	plaintext, err := Open(masterKey, rec.Nonce, rec.Ciphertext, rec.Tag, fieldAD(field))
	if err != nil {
		if errors.Is(err, kerrors.ErrAuthentication) {
			return "", fmt.Errorf("%w: %q was encrypted with a different master key or has been modified: %w", kerrors.ErrFieldDecryption, field, err)
		}
		return "", fmt.Errorf("%w: %q: %w", kerrors.ErrFieldDecryption, field, err)
	}
	defer utils.Zero(plaintext)

	s.log.Debugf("Field %q found in credentials document", field)
	return string(plaintext), nil
}

// Has reports whether field is stored.
func (s *CredentialStore) Has(field string) (bool, error) {
	doc, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := doc.Fields[field]
	return ok, nil
}

// Fields returns the stored field names in sorted order.
func (s *CredentialStore) Fields() ([]string, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(doc.Fields))
	for name := range doc.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a single field.
func (s *CredentialStore) Delete(field string) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Fields[field]; !ok {
		return fmt.Errorf("%w: %q", kerrors.ErrFieldNotFound, field)
	}

	delete(doc.Fields, field)
	if err := s.save(doc); err != nil {
		return err
	}
	s.log.Infof("Field %q removed", field)
	return nil
}

// Clear deletes the credentials document. Clearing an absent document is a no-op.
func (s *CredentialStore) Clear() error {
	return utils.RemoveIfExists(s.path)
}

func (s *CredentialStore) load() (*CredentialsDocument, error) {
	data, found, err := readDocument(s.path)
	if err != nil {
		return nil, err
	}
	if !found {
		return newCredentialsDocument(), nil
	}

	doc, err := decodeCredentialsDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials document: %w", err)
	}
	return doc, nil
}

func (s *CredentialStore) save(doc *CredentialsDocument) error {
	doc.SchemaVersion = CredentialsSchemaVersion
	if err := writeDocument(s.path, doc); err != nil {
		return fmt.Errorf("failed to save credentials document: %w", err)
	}
	return nil
}

// ValidateFieldName rejects names that are empty after trimming whitespace.
func ValidateFieldName(field string) error {
	if strings.TrimSpace(field) == "" {
		return fmt.Errorf("%w: field name must not be empty", kerrors.ErrInvalidFieldName)
	}
	return nil
}

func fieldAD(field string) []byte {
	return []byte("credvault:field:v1:" + field)
}
