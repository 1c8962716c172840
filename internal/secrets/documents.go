package secrets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/utils"
)

const (
	// MasterKeySchemaVersion is the version written for new master key records.
	MasterKeySchemaVersion = 1

	// CredentialsSchemaVersion is the version written for new credentials documents.
	CredentialsSchemaVersion = 1
)

const documentPerm = 0600

// MasterKeyRecord is the wrapped master key as persisted on disk. Byte fields
// are base64 (standard encoding) in JSON.
type MasterKeyRecord struct {
	SchemaVersion int       `json:"schema_version"`
	Mode          Mode      `json:"mode"`
	Salt          []byte    `json:"salt"`
	KDFParams     KDFParams `json:"kdf_params"`
	Nonce         []byte    `json:"nonce"`
	Ciphertext    []byte    `json:"ciphertext"`
	Tag           []byte    `json:"tag"`
	CreatedAt     time.Time `json:"created_at"`
}

// CredentialRecord is one encrypted field.
type CredentialRecord struct {
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
	Tag        []byte    `json:"tag"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CredentialsDocument maps field names to encrypted records.
type CredentialsDocument struct {
	SchemaVersion int                         `json:"schema_version"`
	Fields        map[string]CredentialRecord `json:"fields"`
}

func newCredentialsDocument() *CredentialsDocument {
	return &CredentialsDocument{
		SchemaVersion: CredentialsSchemaVersion,
		Fields:        make(map[string]CredentialRecord),
	}
}

// peekSchemaVersion extracts schema_version without decoding the payload.
// A missing or non-integer version reads as 0, which no decoder accepts.
func peekSchemaVersion(data []byte) (int, error) {
	var header struct {
		SchemaVersion json.RawMessage `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return 0, fmt.Errorf("%w: %v", kerrors.ErrInvalidDocument, err)
	}

	version, err := strconv.Atoi(string(bytes.TrimSpace(header.SchemaVersion)))
	if err != nil {
		return 0, nil
	}
	return version, nil
}

func decodeMasterKeyRecord(data []byte) (*MasterKeyRecord, error) {
	version, err := peekSchemaVersion(data)
	if err != nil {
		return nil, err
	}

	switch version {
	case 1:
		var rec MasterKeyRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("%w: master key record: %v", kerrors.ErrInvalidDocument, err)
		}
		mode, err := ParseMode(string(rec.Mode))
		if err != nil {
			return nil, fmt.Errorf("%w: master key record: %v", kerrors.ErrInvalidDocument, err)
		}
		if mode != rec.Mode {
			return nil, fmt.Errorf("%w: master key record mode %q is not canonical", kerrors.ErrInvalidDocument, rec.Mode)
		}
		if err := rec.KDFParams.Validate(); err != nil {
			return nil, fmt.Errorf("%w: master key record: %w", kerrors.ErrInvalidDocument, err)
		}
		if len(rec.Salt) == 0 {
			return nil, fmt.Errorf("%w: master key record has no salt", kerrors.ErrInvalidDocument)
		}
		return &rec, nil
	default:
		return nil, &kerrors.SchemaVersionError{
			Document:  "master key record",
			Version:   version,
			Supported: []int{MasterKeySchemaVersion},
		}
	}
}

func decodeCredentialsDocument(data []byte) (*CredentialsDocument, error) {
	version, err := peekSchemaVersion(data)
	if err != nil {
		return nil, err
	}

	switch version {
	case 1:
		var doc CredentialsDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: credentials document: %v", kerrors.ErrInvalidDocument, err)
		}
		if doc.Fields == nil {
			doc.Fields = make(map[string]CredentialRecord)
		}
		return &doc, nil
	default:
		return nil, &kerrors.SchemaVersionError{
			Document:  "credentials document",
			Version:   version,
			Supported: []int{CredentialsSchemaVersion},
		}
	}
}

// readDocument returns the file contents, or found=false when it does not exist.
func readDocument(path string) (data []byte, found bool, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, true, nil
}

func writeDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return utils.WriteFileAtomic(path, append(data, '\n'), documentPerm)
}
