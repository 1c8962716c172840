package secrets

import (
	"testing"

	logger "github.com/PolarWolf314/credvault/internal/logging"
)

type fakeHost struct {
	os, arch, hostname, username string
}

func (h fakeHost) OSName() string            { return h.os }
func (h fakeHost) Architecture() string      { return h.arch }
func (h fakeHost) Hostname() (string, error) { return h.hostname, nil }
func (h fakeHost) Username() (string, error) { return h.username, nil }

func testHost() fakeHost {
	return fakeHost{os: "linux", arch: "amd64", hostname: "build-01", username: "alice"}
}

// fastKDF keeps scrypt cheap enough for unit tests.
func fastKDF() KDFParams {
	return KDFParams{
		Algorithm: KDFScrypt,
		KeyLen:    WrappingKeySize,
		Scrypt:    &ScryptParams{N: 1 << 10, R: 8, P: 1},
	}
}

func fastArgon2id() KDFParams {
	return KDFParams{
		Algorithm: KDFArgon2id,
		KeyLen:    WrappingKeySize,
		Argon2id:  &Argon2idParams{Time: 1, Memory: 64, Threads: 1},
	}
}

func testMasterKey(t *testing.T) []byte {
	t.Helper()
	key, err := CreateSymmetricKey()
	if err != nil {
		t.Fatalf("CreateSymmetricKey failed: %v", err)
	}
	return key
}

func quietLogger() logger.Logger {
	return logger.Logger{}
}
