// Package config loads per-service configuration records.
package config

import (
	"fmt"
	"regexp"
)

// Record is one service configuration file. List and map fields are empty
// when absent from the file.
type Record struct {
	Name       string            `toml:"name" yaml:"name" json:"name"`
	Image      string            `toml:"image" yaml:"image" json:"image"`
	Volumes    []string          `toml:"volumes" yaml:"volumes" json:"volumes,omitempty"`
	Networks   []string          `toml:"networks" yaml:"networks" json:"networks,omitempty"`
	Ports      []string          `toml:"ports" yaml:"ports" json:"ports,omitempty"`
	Files      map[string]string `toml:"files" yaml:"files" json:"files,omitempty"`
	Labels     map[string]string `toml:"labels" yaml:"labels" json:"labels,omitempty"`
	Env        map[string]string `toml:"env" yaml:"env" json:"env,omitempty"`
	EnvFiles   []string          `toml:"env_files" yaml:"env_files" json:"env_files,omitempty"`
	Entrypoint []string          `toml:"entrypoint" yaml:"entrypoint" json:"entrypoint,omitempty"`
	Cmd        []string          `toml:"cmd" yaml:"cmd" json:"cmd,omitempty"`
	Requires   []string          `toml:"requires" yaml:"requires" json:"requires,omitempty"`
	Wants      []string          `toml:"wants" yaml:"wants" json:"wants,omitempty"`
	After      []string          `toml:"after" yaml:"after" json:"after,omitempty"`

	// Path is the file the record was loaded from.
	Path string `toml:"-" yaml:"-" json:"-"`
}

// The name doubles as image repository (lowercase only) and unit name.
var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

// ValidationError reports a record that cannot be compiled.
type ValidationError struct {
	Path   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: invalid %s: %s", e.Path, e.Field, e.Reason)
}

// Validate checks the mandatory fields. Mappings are validated later, when
// the service is compiled.
func (r *Record) Validate() error {
	if r.Name == "" {
		return &ValidationError{Path: r.Path, Field: "name", Reason: "missing"}
	}
	if !namePattern.MatchString(r.Name) {
		return &ValidationError{
			Path:   r.Path,
			Field:  "name",
			Reason: fmt.Sprintf("%q must match %s", r.Name, namePattern),
		}
	}
	if r.Image == "" {
		return &ValidationError{Path: r.Path, Field: "image", Reason: "missing"}
	}
	return nil
}

// UnitName is the systemd unit the record is installed as.
func (r *Record) UnitName() string {
	return r.Name + ".service"
}
