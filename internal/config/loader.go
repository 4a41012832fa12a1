package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/railwayapp/sloop/internal/filesystems"
)

// Loader reads configuration records from a FileSystem.
type Loader struct {
	filesystem filesystems.FileSystem
}

// NewLoader creates a Loader reading through filesystem.
func NewLoader(filesystem filesystems.FileSystem) *Loader {
	return &Loader{filesystem: filesystem}
}

// Load decodes, merges env files into and validates the record at path.
// Files ending in .yaml or .yml are YAML; everything else is TOML.
func (l *Loader) Load(path string) (*Record, error) {
	content, err := l.filesystem.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	record, err := decode(path, content)
	if err != nil {
		return nil, err
	}
	record.Path = path

	if err := l.mergeEnvFiles(record); err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

func decode(path string, content []byte) (*Record, error) {
	var record Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &record); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(content), &record); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
	}
	return &record, nil
}
