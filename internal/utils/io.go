package utils

import (
	"bytes"
	"fmt"
	"io"
)

// ReadAllTrimmed reads r to EOF and strips one trailing newline, so
// `echo secret | credvault set f --stdin` stores "secret". Empty input is an error.
func ReadAllTrimmed(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read from stdin: %w", err)
	}

	data = bytes.TrimSuffix(data, []byte("\n"))
	data = bytes.TrimSuffix(data, []byte("\r"))

	if len(data) == 0 {
		return nil, fmt.Errorf("stdin is empty")
	}

	return data, nil
}
