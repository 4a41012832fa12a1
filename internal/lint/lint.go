// Package lint reports suspicious but valid service configuration. Findings
// never stop a deployment; hard errors are raised by config and mapping.
package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/format"
	"github.com/compose-spec/compose-go/v2/types"

	"github.com/railwayapp/sloop/internal/config"
)

// Finding is a single lint warning.
type Finding struct {
	Field   string
	Value   string
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s %q: %s", f.Field, f.Value, f.Message)
}

// Lint checks rec with compose-style parsing of its mappings plus a few
// heuristics. Findings are ordered by field.
func Lint(rec *config.Record) []Finding {
	var findings []Finding
	findings = append(findings, lintPorts(rec.Ports)...)
	findings = append(findings, lintVolumes(rec.Volumes)...)
	findings = append(findings, lintEnv(rec.Env)...)
	findings = append(findings, lintDependencies("after", rec.After)...)
	findings = append(findings, lintDependencies("requires", rec.Requires)...)
	findings = append(findings, lintDependencies("wants", rec.Wants)...)
	return findings
}

func lintPorts(ports []string) []Finding {
	var findings []Finding
	published := make(map[string]string)
	for _, raw := range ports {
		if !strings.Contains(raw, ":") {
			continue // rejected by mapping validation
		}
		configs, err := types.ParsePortConfig(raw)
		if err != nil {
			findings = append(findings, Finding{Field: "ports", Value: raw, Message: err.Error()})
			continue
		}
		for _, port := range configs {
			if port.Published == "" {
				continue
			}
			key := port.HostIP + ":" + port.Published + "/" + port.Protocol
			if previous, ok := published[key]; ok {
				findings = append(findings, Finding{
					Field:   "ports",
					Value:   raw,
					Message: fmt.Sprintf("host port %s/%s already published by %q", port.Published, port.Protocol, previous),
				})
				continue
			}
			published[key] = raw
		}
	}
	return findings
}

func lintVolumes(volumes []string) []Finding {
	var findings []Finding
	for _, raw := range volumes {
		if !strings.Contains(raw, ":") {
			continue
		}
		volume, err := format.ParseVolume(raw)
		if err != nil {
			findings = append(findings, Finding{Field: "volumes", Value: raw, Message: err.Error()})
			continue
		}
		if volume.Type != types.VolumeTypeBind {
			continue
		}
		switch {
		case strings.HasPrefix(volume.Source, "~"):
			findings = append(findings, Finding{Field: "volumes", Value: raw, Message: "~ is not expanded by podman"})
		case strings.HasPrefix(volume.Source, "."):
			findings = append(findings, Finding{Field: "volumes", Value: raw, Message: "relative bind source depends on the unit's working directory"})
		}
		if !strings.HasPrefix(volume.Target, "/") {
			findings = append(findings, Finding{Field: "volumes", Value: raw, Message: "container path should be absolute"})
		}
	}
	return findings
}

var sensitivePatterns = []string{"password", "secret", "key", "token", "auth"}

// Env values are baked into image layers, readable by anyone who can pull
// the image.
func lintEnv(env map[string]string) []Finding {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var findings []Finding
	for _, key := range keys {
		if isSensitive(key, env[key]) {
			findings = append(findings, Finding{Field: "env", Value: key, Message: "looks like a secret; env values are stored in the image"})
		}
	}
	return findings
}

func isSensitive(key, value string) bool {
	lower := strings.ToLower(key)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	// connection strings with inline credentials
	return strings.Contains(value, "://") && strings.Contains(value, "@")
}

func lintDependencies(field string, names []string) []Finding {
	var findings []Finding
	for _, name := range names {
		if !strings.Contains(name, ".") {
			findings = append(findings, Finding{Field: field, Value: name, Message: "unit name has no suffix, did you mean " + name + ".service?"})
		}
	}
	return findings
}
