package secrets

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
)

func newTestManager(t *testing.T, host HostInfo) *MasterKeyManager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master_key.json")
	return NewMasterKeyManager(path, host, fastKDF(), quietLogger())
}

func storeNewKey(t *testing.T, m *MasterKeyManager, src KeySource) []byte {
	t.Helper()
	key, err := m.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if err := m.Store(key, src); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	return key
}

func TestMasterKeyManager_RoundTrip(t *testing.T) {
	sources := map[string]KeySource{
		"System":     SystemBound(),
		"Passphrase": Passphrase("correct horse"),
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			m := newTestManager(t, testHost())
			key := storeNewKey(t, m, src)

			loaded, err := m.Load(src)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if !bytes.Equal(loaded, key) {
				t.Error("Loaded key does not match stored key")
			}
			if m.State() != StateLoaded {
				t.Errorf("Expected state %s, got %s", StateLoaded, m.State())
			}
		})
	}
}

func TestMasterKeyManager_StateTransitions(t *testing.T) {
	m := newTestManager(t, testHost())
	if m.State() != StateUninitialized {
		t.Fatalf("Expected %s, got %s", StateUninitialized, m.State())
	}

	key, err := m.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if m.State() != StateKeyGenerated {
		t.Errorf("Expected %s, got %s", StateKeyGenerated, m.State())
	}

	if err := m.Store(key, nil); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if m.State() != StateStored {
		t.Errorf("Expected %s, got %s", StateStored, m.State())
	}

	reopened := NewMasterKeyManager(m.Path(), testHost(), fastKDF(), quietLogger())
	if reopened.State() != StateStored {
		t.Errorf("Expected reopened manager in %s, got %s", StateStored, reopened.State())
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if m.State() != StateUninitialized {
		t.Errorf("Expected %s after clear, got %s", StateUninitialized, m.State())
	}
}

func TestMasterKeyManager_RecordLayout(t *testing.T) {
	m := newTestManager(t, testHost())
	storeNewKey(t, m, SystemBound())

	info, err := os.Stat(m.Path())
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}

	data, err := os.ReadFile(m.Path())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Record is not JSON: %v", err)
	}
	for _, key := range []string{"schema_version", "mode", "salt", "kdf_params", "nonce", "ciphertext", "tag"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Record missing %q", key)
		}
	}
	if raw["schema_version"] != float64(MasterKeySchemaVersion) {
		t.Errorf("Expected schema_version %d, got %v", MasterKeySchemaVersion, raw["schema_version"])
	}
	if raw["mode"] != string(ModeSystem) {
		t.Errorf("Expected mode %q, got %v", ModeSystem, raw["mode"])
	}
}

func TestMasterKeyManager_StoreUsesFreshSalt(t *testing.T) {
	m := newTestManager(t, testHost())
	key := storeNewKey(t, m, SystemBound())

	first, _ := decodeRecordFile(t, m.Path())
	if err := m.Store(key, SystemBound()); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	second, _ := decodeRecordFile(t, m.Path())

	if bytes.Equal(first.Salt, second.Salt) {
		t.Error("Expected a fresh salt on every store")
	}
	if bytes.Equal(first.Nonce, second.Nonce) {
		t.Error("Expected a fresh nonce on every store")
	}
}

func TestMasterKeyManager_LoadMissing(t *testing.T) {
	m := newTestManager(t, testHost())

	_, err := m.Load(SystemBound())
	if !errors.Is(err, kerrors.ErrMasterKeyMissing) {
		t.Errorf("Expected ErrMasterKeyMissing, got %v", err)
	}
}

func TestMasterKeyManager_EnvironmentChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master_key.json")

	original := NewMasterKeyManager(path, testHost(), fastKDF(), quietLogger())
	storeNewKey(t, original, SystemBound())

	moved := testHost()
	moved.hostname = "build-02"
	m := NewMasterKeyManager(path, moved, fastKDF(), quietLogger())

	_, err := m.Load(SystemBound())
	if !errors.Is(err, kerrors.ErrMasterKeyDecryption) {
		t.Fatalf("Expected ErrMasterKeyDecryption, got %v", err)
	}
	if !errors.Is(err, kerrors.ErrAuthentication) {
		t.Errorf("Expected wrapped ErrAuthentication, got %v", err)
	}
	if m.State() != StateLocked {
		t.Errorf("Expected %s, got %s", StateLocked, m.State())
	}
}

func TestMasterKeyManager_WrongPassphrase(t *testing.T) {
	m := newTestManager(t, testHost())
	storeNewKey(t, m, Passphrase("abc"))

	_, err := m.Load(Passphrase("abd"))
	if !errors.Is(err, kerrors.ErrMasterKeyDecryption) {
		t.Errorf("Expected ErrMasterKeyDecryption, got %v", err)
	}
}

func TestMasterKeyManager_WrongPromptedPassphraseIsForgotten(t *testing.T) {
	m := newTestManager(t, testHost())
	storeNewKey(t, m, Passphrase("abc"))

	answers := []string{"wrong", "abc"}
	calls := 0
	src := PassphrasePrompt(func() ([]byte, error) {
		answer := answers[calls]
		calls++
		return []byte(answer), nil
	})

	if _, err := m.Load(src); !errors.Is(err, kerrors.ErrMasterKeyDecryption) {
		t.Fatalf("Expected ErrMasterKeyDecryption, got %v", err)
	}
	key, err := m.Load(src)
	if err != nil {
		t.Fatalf("Expected second answer to unlock, got %v", err)
	}
	ReleaseKey(key)

	if _, err := m.Load(src); err != nil {
		t.Fatalf("Expected cached correct answer to unlock, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 prompts, got %d", calls)
	}
}

func TestMasterKeyManager_ModeMismatchBeforeDerivation(t *testing.T) {
	t.Run("PassphraseVaultLoadedAsSystem", func(t *testing.T) {
		m := newTestManager(t, testHost())
		storeNewKey(t, m, Passphrase("abc"))

		_, err := m.Load(SystemBound())
		var mismatch *kerrors.ModeMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("Expected ModeMismatchError, got %v", err)
		}
		if !errors.Is(err, kerrors.ErrPassphraseRequired) {
			t.Error("Expected errors.Is(ErrPassphraseRequired)")
		}
		if errors.Is(err, kerrors.ErrMasterKeyDecryption) {
			t.Error("Mode mismatch must not be reported as a decryption failure")
		}
		if m.State() == StateLocked {
			t.Error("Mode mismatch must not lock the manager")
		}
	})

	t.Run("SystemVaultLoadedWithPassphrase", func(t *testing.T) {
		m := newTestManager(t, testHost())
		storeNewKey(t, m, SystemBound())

		_, err := m.Load(Passphrase("abc"))
		if !errors.Is(err, kerrors.ErrPassphraseNotAllowed) {
			t.Fatalf("Expected ErrPassphraseNotAllowed, got %v", err)
		}
		if errors.Is(err, kerrors.ErrPassphraseRequired) {
			t.Error("System vault should not ask for a passphrase")
		}
	})
}

func TestMasterKeyManager_RejectsUnsupportedSchema(t *testing.T) {
	tests := []struct {
		name    string
		version any
		drop    bool
	}{
		{"Zero", 0, false},
		{"Future", 2, false},
		{"String", "1", false},
		{"Missing", nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestManager(t, testHost())
			storeNewKey(t, m, SystemBound())

			rewriteJSON(t, m.Path(), func(raw map[string]any) {
				if tc.drop {
					delete(raw, "schema_version")
					return
				}
				raw["schema_version"] = tc.version
			})

			_, err := m.Load(SystemBound())
			if !errors.Is(err, kerrors.ErrSchemaVersion) {
				t.Fatalf("Expected ErrSchemaVersion, got %v", err)
			}
			if errors.Is(err, kerrors.ErrMasterKeyDecryption) {
				t.Error("Schema rejection must happen before decryption")
			}
		})
	}
}

func TestMasterKeyManager_TamperedRecord(t *testing.T) {
	for _, field := range []string{"ciphertext", "nonce", "tag", "salt"} {
		t.Run(field, func(t *testing.T) {
			m := newTestManager(t, testHost())
			storeNewKey(t, m, SystemBound())

			rec, _ := decodeRecordFile(t, m.Path())
			switch field {
			case "ciphertext":
				rec.Ciphertext[0] ^= 0xff
			case "nonce":
				rec.Nonce[0] ^= 0xff
			case "tag":
				rec.Tag[0] ^= 0xff
			case "salt":
				rec.Salt[0] ^= 0xff
			}
			if err := writeDocument(m.Path(), rec); err != nil {
				t.Fatalf("writeDocument failed: %v", err)
			}

			_, err := m.Load(SystemBound())
			if !errors.Is(err, kerrors.ErrMasterKeyDecryption) {
				t.Errorf("Expected ErrMasterKeyDecryption, got %v", err)
			}
		})
	}
}

func TestMasterKeyManager_ModeFieldIsAuthenticated(t *testing.T) {
	m := newTestManager(t, testHost())
	storeNewKey(t, m, SystemBound())

	// Flipping the stored mode changes both the fingerprint and the associated
	// data, so a matching source still cannot unwrap the key.
	rewriteJSON(t, m.Path(), func(raw map[string]any) {
		raw["mode"] = string(ModePassphrase)
	})

	_, err := m.Load(Passphrase("anything"))
	if !errors.Is(err, kerrors.ErrMasterKeyDecryption) {
		t.Errorf("Expected ErrMasterKeyDecryption, got %v", err)
	}
}

func TestMasterKeyManager_StoreReplacesKey(t *testing.T) {
	m := newTestManager(t, testHost())
	first := storeNewKey(t, m, SystemBound())
	second := storeNewKey(t, m, SystemBound())

	loaded, err := m.Load(SystemBound())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if bytes.Equal(loaded, first) {
		t.Error("Expected the first key to be replaced")
	}
	if !bytes.Equal(loaded, second) {
		t.Error("Expected the second key to be loaded")
	}
}

func TestMasterKeyManager_StoreRejectsBadKey(t *testing.T) {
	m := newTestManager(t, testHost())
	err := m.Store(make([]byte, 16), SystemBound())
	if !errors.Is(err, kerrors.ErrInvalidKeyLength) {
		t.Errorf("Expected ErrInvalidKeyLength, got %v", err)
	}
	if _, statErr := os.Stat(m.Path()); !os.IsNotExist(statErr) {
		t.Error("No record should be written for an invalid key")
	}
}

func TestMasterKeyManager_Argon2id(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master_key.json")
	m := NewMasterKeyManager(path, testHost(), fastArgon2id(), quietLogger())
	key := storeNewKey(t, m, Passphrase("abc"))

	info, err := m.Inspect()
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.KDFParams.Algorithm != KDFArgon2id {
		t.Errorf("Expected argon2id, got %s", info.KDFParams.Algorithm)
	}

	// Params come from the record, not the manager that reads it.
	reader := NewMasterKeyManager(path, testHost(), fastKDF(), quietLogger())
	loaded, err := reader.Load(Passphrase("abc"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(loaded, key) {
		t.Error("Loaded key does not match")
	}
}

func TestMasterKeyManager_Rotate(t *testing.T) {
	m := newTestManager(t, testHost())
	key := storeNewKey(t, m, SystemBound())
	before, _ := decodeRecordFile(t, m.Path())

	newParams := fastArgon2id()
	if err := m.Rotate(SystemBound(), Passphrase("new secret"), &newParams); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}

	after, _ := decodeRecordFile(t, m.Path())
	if after.Mode != ModePassphrase {
		t.Errorf("Expected mode %q after rotate, got %q", ModePassphrase, after.Mode)
	}
	if after.KDFParams.Algorithm != KDFArgon2id {
		t.Errorf("Expected argon2id after rotate, got %s", after.KDFParams.Algorithm)
	}
	if bytes.Equal(before.Salt, after.Salt) {
		t.Error("Expected a fresh salt after rotate")
	}

	if _, err := m.Load(SystemBound()); !errors.Is(err, kerrors.ErrPassphraseRequired) {
		t.Errorf("Expected old source to be rejected, got %v", err)
	}
	loaded, err := m.Load(Passphrase("new secret"))
	if err != nil {
		t.Fatalf("Load after rotate failed: %v", err)
	}
	if !bytes.Equal(loaded, key) {
		t.Error("Rotate must keep the same master key")
	}
}

func TestMasterKeyManager_RotateWrongSource(t *testing.T) {
	m := newTestManager(t, testHost())
	storeNewKey(t, m, Passphrase("abc"))
	before, err := os.ReadFile(m.Path())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	err = m.Rotate(Passphrase("wrong"), SystemBound(), nil)
	if !errors.Is(err, kerrors.ErrMasterKeyDecryption) {
		t.Fatalf("Expected ErrMasterKeyDecryption, got %v", err)
	}

	after, _ := os.ReadFile(m.Path())
	if !bytes.Equal(before, after) {
		t.Error("Failed rotate must leave the record untouched")
	}
}

func TestMasterKeyManager_ClearIdempotent(t *testing.T) {
	m := newTestManager(t, testHost())
	storeNewKey(t, m, SystemBound())

	for i := 0; i < 2; i++ {
		if err := m.Clear(); err != nil {
			t.Fatalf("Clear #%d failed: %v", i+1, err)
		}
	}
	if _, err := os.Stat(m.Path()); !os.IsNotExist(err) {
		t.Error("Expected record to be removed")
	}
	if _, err := m.Load(SystemBound()); !errors.Is(err, kerrors.ErrMasterKeyMissing) {
		t.Errorf("Expected ErrMasterKeyMissing after clear, got %v", err)
	}
}

func TestMasterKeyManager_Inspect(t *testing.T) {
	m := newTestManager(t, testHost())
	if _, err := m.Inspect(); !errors.Is(err, kerrors.ErrMasterKeyMissing) {
		t.Errorf("Expected ErrMasterKeyMissing, got %v", err)
	}

	storeNewKey(t, m, Passphrase("abc"))
	info, err := m.Inspect()
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Mode != ModePassphrase {
		t.Errorf("Expected passphrase mode, got %s", info.Mode)
	}
	if info.SchemaVersion != MasterKeySchemaVersion {
		t.Errorf("Expected schema %d, got %d", MasterKeySchemaVersion, info.SchemaVersion)
	}
	if info.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateUninitialized: "uninitialized",
		StateKeyGenerated:  "key-generated",
		StateStored:        "stored",
		StateLoaded:        "loaded",
		StateLocked:        "locked",
		State(42):          "state(42)",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
}

func decodeRecordFile(t *testing.T, path string) (*MasterKeyRecord, []byte) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	rec, err := decodeMasterKeyRecord(data)
	if err != nil {
		t.Fatalf("decodeMasterKeyRecord failed: %v", err)
	}
	return rec, data
}

func rewriteJSON(t *testing.T, path string, mutate func(map[string]any)) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	mutate(raw)
	out, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}
