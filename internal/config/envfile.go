package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// mergeEnvFiles folds the record's dotenv files into Env. Files are applied
// in order, later files override earlier ones, and keys set directly in
// the record always win. Relative paths resolve against the record's
// directory.
func (l *Loader) mergeEnvFiles(record *Record) error {
	if len(record.EnvFiles) == 0 {
		return nil
	}

	merged := make(map[string]string)
	for _, name := range record.EnvFiles {
		envPath := name
		if !l.filesystem.IsAbs(envPath) {
			envPath = l.filesystem.Join(l.filesystem.Dir(record.Path), envPath)
		}

		content, err := l.filesystem.ReadFile(envPath)
		if err != nil {
			return fmt.Errorf("failed to read env file %s: %w", envPath, err)
		}
		env, err := godotenv.Unmarshal(string(content))
		if err != nil {
			return fmt.Errorf("failed to parse env file %s: %w", envPath, err)
		}
		for key, value := range env {
			merged[key] = value
		}
	}

	for key, value := range record.Env {
		merged[key] = value
	}
	record.Env = merged
	return nil
}
