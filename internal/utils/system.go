package utils

import (
	"os"
	"os/user"
	"runtime"
	"strings"
)

// GetUsername returns the current username.
func GetUsername() (string, error) {
	user, err := user.Current()
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// GetHostname returns the system hostname.
func GetHostname() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", err
	}
	return hostname, nil
}

// GetOSName returns the operating system name as reported by the Go runtime.
func GetOSName() string {
	return runtime.GOOS
}

// GetArchitecture returns the CPU architecture as reported by the Go runtime.
func GetArchitecture() string {
	return runtime.GOARCH
}

// NormalizeIdentifier lower-cases and trims a machine identifier so the same
// machine always produces the same value.
func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
