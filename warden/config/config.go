package config

import (
	"fmt"
	"os"
)

// JsonConfig holds the raw bytes of a JSON config file
// so that other components can unmarshal it as desired.
type JsonConfig struct {
	Path string
	Raw  []byte
}

// NewJsonConfig reads the file at path. Paths are relative to
// the working directory, which is expected to be the project root.
func NewJsonConfig(path string) (*JsonConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("config %s is empty", path)
	}
	return &JsonConfig{Path: path, Raw: raw}, nil
}
