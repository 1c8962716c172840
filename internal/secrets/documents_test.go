package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
)

func TestPeekSchemaVersion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"Integer", `{"schema_version": 1}`, 1, false},
		{"Future", `{"schema_version": 3, "extra": true}`, 3, false},
		{"Missing", `{"fields": {}}`, 0, false},
		{"String", `{"schema_version": "1"}`, 0, false},
		{"Float", `{"schema_version": 1.5}`, 0, false},
		{"Null", `{"schema_version": null}`, 0, false},
		{"NotJSON", `not json`, 0, true},
		{"Array", `[1, 2]`, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := peekSchemaVersion([]byte(tc.input))
			if tc.wantErr {
				if !errors.Is(err, kerrors.ErrInvalidDocument) {
					t.Errorf("Expected ErrInvalidDocument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("peekSchemaVersion = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestDecodeMasterKeyRecord_Validation(t *testing.T) {
	valid := `{"schema_version":1,"mode":"system","salt":"AAECAwQFBgcICQoLDA0ODw==",` +
		`"kdf_params":{"algorithm":"scrypt","key_len":32,"scrypt":{"n":1024,"r":8,"p":1}},` +
		`"nonce":"AAAAAAAAAAAAAAAA","ciphertext":"","tag":"AAAAAAAAAAAAAAAAAAAAAA=="}`

	if _, err := decodeMasterKeyRecord([]byte(valid)); err != nil {
		t.Fatalf("Expected valid record to decode, got %v", err)
	}

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"UnknownMode", `{"schema_version":1,"mode":"tpm","salt":"AA==","kdf_params":{"algorithm":"scrypt","key_len":32,"scrypt":{"n":1024,"r":8,"p":1}}}`, kerrors.ErrInvalidDocument},
		{"BadKDF", `{"schema_version":1,"mode":"system","salt":"AA==","kdf_params":{"algorithm":"scrypt","key_len":32,"scrypt":{"n":1000,"r":8,"p":1}}}`, kerrors.ErrInvalidKDFParams},
		{"NoSalt", `{"schema_version":1,"mode":"system","kdf_params":{"algorithm":"scrypt","key_len":32,"scrypt":{"n":1024,"r":8,"p":1}}}`, kerrors.ErrInvalidDocument},
		{"BadBase64", `{"schema_version":1,"mode":"system","salt":"!!!"}`, kerrors.ErrInvalidDocument},
		{"VersionTwo", `{"schema_version":2}`, kerrors.ErrSchemaVersion},
		{"NonCanonicalMode", strings.Replace(valid, `"mode":"system"`, `"mode":"SYSTEM"`, 1), kerrors.ErrInvalidDocument},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeMasterKeyRecord([]byte(tc.input))
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDecodeCredentialsDocument(t *testing.T) {
	doc, err := decodeCredentialsDocument([]byte(`{"schema_version":1}`))
	if err != nil {
		t.Fatalf("decodeCredentialsDocument failed: %v", err)
	}
	if doc.Fields == nil {
		t.Error("Expected Fields map to be initialized")
	}

	_, err = decodeCredentialsDocument([]byte(`{"fields":{}}`))
	var versionErr *kerrors.SchemaVersionError
	if !errors.As(err, &versionErr) {
		t.Fatalf("Expected SchemaVersionError, got %v", err)
	}
	if versionErr.Version != 0 {
		t.Errorf("Expected missing version to read as 0, got %d", versionErr.Version)
	}
}

func TestReadDocument_Missing(t *testing.T) {
	data, found, err := readDocument(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if found || data != nil {
		t.Error("Expected found=false for a missing file")
	}
}

func TestWriteDocument_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	if err := writeDocument(path, newCredentialsDocument()); err != nil {
		t.Fatalf("writeDocument failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != documentPerm {
		t.Errorf("Expected %o, got %o", documentPerm, perm)
	}

	data, found, err := readDocument(path)
	if err != nil || !found {
		t.Fatalf("readDocument failed: found=%t err=%v", found, err)
	}
	if _, err := decodeCredentialsDocument(data); err != nil {
		t.Errorf("Written document does not decode: %v", err)
	}
}
