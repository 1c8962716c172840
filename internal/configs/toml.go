package configs

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/PolarWolf314/credvault/internal/utils"
)

const configPerm = 0600

// SaveTOML encodes data and atomically replaces filePath with it.
func SaveTOML(filePath string, data interface{}) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(data); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filePath, err)
	}
	return utils.WriteFileAtomic(filePath, buf.Bytes(), configPerm)
}

// LoadTOML loads a TOML file into a struct. Keys that do not map onto data are
// returned so callers can warn about typos.
func LoadTOML(filePath string, data interface{}) ([]string, error) {
	md, err := toml.DecodeFile(filePath, data)
	if err != nil {
		return nil, err
	}

	var undecoded []string
	for _, key := range md.Undecoded() {
		undecoded = append(undecoded, key.String())
	}
	return undecoded, nil
}
