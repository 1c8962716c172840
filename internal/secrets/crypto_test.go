package secrets

import (
	"bytes"
	"errors"
	"testing"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
)

func TestCreateSymmetricKey(t *testing.T) {
	a := testMasterKey(t)
	b := testMasterKey(t)

	if len(a) != MasterKeySize {
		t.Fatalf("Expected %d-byte key, got %d", MasterKeySize, len(a))
	}
	if bytes.Equal(a, b) {
		t.Error("Two generated keys should not be equal")
	}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	key := testMasterKey(t)

	tests := []struct {
		name      string
		plaintext []byte
		ad        []byte
	}{
		{"Simple", []byte("p@ss"), nil},
		{"Empty", []byte{}, nil},
		{"WithAssociatedData", []byte("January 1st 1970"), []byte("credvault:field:v1:dob")},
		{"Binary", []byte{0x00, 0xff, 0x10, 0x00}, []byte("ad")},
		{"Unicode", []byte("pässwörd ✓"), nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			nonce, ciphertext, tag, err := Seal(key, tc.plaintext, tc.ad)
			if err != nil {
				t.Fatalf("Seal failed: %v", err)
			}
			if len(nonce) != NonceSize {
				t.Errorf("Expected %d-byte nonce, got %d", NonceSize, len(nonce))
			}
			if len(tag) != TagSize {
				t.Errorf("Expected %d-byte tag, got %d", TagSize, len(tag))
			}
			if len(ciphertext) != len(tc.plaintext) {
				t.Errorf("Expected ciphertext length %d, got %d", len(tc.plaintext), len(ciphertext))
			}

			plaintext, err := Open(key, nonce, ciphertext, tag, tc.ad)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !bytes.Equal(plaintext, tc.plaintext) {
				t.Errorf("Round trip mismatch: got %q, want %q", plaintext, tc.plaintext)
			}
		})
	}
}

func TestSeal_FreshNonceEachCall(t *testing.T) {
	key := testMasterKey(t)
	seen := make(map[string]bool)

	for i := 0; i < 64; i++ {
		nonce, _, _, err := Seal(key, []byte("same plaintext"), nil)
		if err != nil {
			t.Fatalf("Seal failed: %v", err)
		}
		if seen[string(nonce)] {
			t.Fatalf("Nonce reused after %d calls", i)
		}
		seen[string(nonce)] = true
	}
}

func TestOpen_DetectsTampering(t *testing.T) {
	key := testMasterKey(t)
	nonce, ciphertext, tag, err := Seal(key, []byte("db password"), []byte("ad"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	flip := func(b []byte, i int) []byte {
		out := append([]byte(nil), b...)
		out[i] ^= 0x01
		return out
	}
	otherKey := testMasterKey(t)

	tests := []struct {
		name                        string
		key, nonce, ciphertext, tag []byte
		ad                          []byte
	}{
		{"FlippedCiphertext", key, nonce, flip(ciphertext, 0), tag, []byte("ad")},
		{"FlippedLastCiphertextByte", key, nonce, flip(ciphertext, len(ciphertext)-1), tag, []byte("ad")},
		{"FlippedNonce", key, flip(nonce, 5), ciphertext, tag, []byte("ad")},
		{"FlippedTag", key, nonce, ciphertext, flip(tag, 15), []byte("ad")},
		{"WrongKey", otherKey, nonce, ciphertext, tag, []byte("ad")},
		{"WrongAssociatedData", key, nonce, ciphertext, tag, []byte("other")},
		{"MissingAssociatedData", key, nonce, ciphertext, tag, nil},
		{"TruncatedTag", key, nonce, ciphertext, tag[:8], []byte("ad")},
		{"ShortNonce", key, nonce[:8], ciphertext, tag, []byte("ad")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plaintext, err := Open(tc.key, tc.nonce, tc.ciphertext, tc.tag, tc.ad)
			if !errors.Is(err, kerrors.ErrAuthentication) {
				t.Fatalf("Expected ErrAuthentication, got %v", err)
			}
			if plaintext != nil {
				t.Errorf("Expected no plaintext on failure, got %q", plaintext)
			}
		})
	}
}

func TestSeal_InvalidKeyLength(t *testing.T) {
	for _, size := range []int{0, 15, 31, 33, 64} {
		_, _, _, err := Seal(make([]byte, size), []byte("x"), nil)
		if !errors.Is(err, kerrors.ErrInvalidKeyLength) {
			t.Errorf("key size %d: expected ErrInvalidKeyLength, got %v", size, err)
		}
	}
}

func TestWipeKey(t *testing.T) {
	key := testMasterKey(t)
	WipeKey(key)
	if !bytes.Equal(key, make([]byte, MasterKeySize)) {
		t.Error("Expected key to be zeroed")
	}
	WipeKey(nil)
}

func TestReleaseKey(t *testing.T) {
	key := testMasterKey(t)
	ReleaseKey(key)
	if !bytes.Equal(key, make([]byte, MasterKeySize)) {
		t.Error("Expected key to be zeroed")
	}
	ReleaseKey(nil)
}
