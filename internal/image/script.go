package image

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Injected files are world read/writable inside the image.
const copyMode = "666"

// Spec is the image-related part of a service configuration.
type Spec struct {
	Name       string
	Base       string
	Files      map[string]string // destination path -> content
	Labels     map[string]string
	Env        map[string]string
	Entrypoint []string
	Cmd        []string
}

// artifact is an injected file staged in the build context.
type artifact struct {
	name        string // file name inside the build context
	destination string
	content     string
}

// artifacts assigns build-context names to the injected files, in
// destination order.
func (s Spec) artifacts() []artifact {
	destinations := sortedKeys(s.Files)
	staged := make([]artifact, len(destinations))
	for i, dest := range destinations {
		staged[i] = artifact{
			name:        fmt.Sprintf("file-%03d", i),
			destination: dest,
			content:     s.Files[dest],
		}
	}
	return staged
}

// Render produces the build script for spec. Labels and env vars are
// emitted in key order so the same spec always renders the same script.
func Render(spec Spec) (string, error) {
	var script strings.Builder
	fmt.Fprintf(&script, "FROM %s\n", spec.Base)

	for _, a := range spec.artifacts() {
		fmt.Fprintf(&script, "COPY --chmod=%s %s\n", copyMode, jsonArray(a.name, a.destination))
	}
	for _, key := range sortedKeys(spec.Labels) {
		line, err := keyValue("LABEL", key, spec.Labels[key])
		if err != nil {
			return "", err
		}
		script.WriteString(line)
	}
	for _, key := range sortedKeys(spec.Env) {
		line, err := keyValue("ENV", key, spec.Env[key])
		if err != nil {
			return "", err
		}
		script.WriteString(line)
	}
	if len(spec.Entrypoint) > 0 {
		fmt.Fprintf(&script, "ENTRYPOINT %s\n", jsonArray(spec.Entrypoint...))
	}
	if len(spec.Cmd) > 0 {
		fmt.Fprintf(&script, "CMD %s\n", jsonArray(spec.Cmd...))
	}
	return script.String(), nil
}

func keyValue(instruction, key, value string) (string, error) {
	if strings.ContainsAny(key, "\r\n") || strings.ContainsAny(value, "\r\n") {
		return "", fmt.Errorf("%s %q: multi-line values are not supported", strings.ToLower(instruction), key)
	}
	return fmt.Sprintf("%s %s=%s\n", instruction, quote(key), quote(value)), nil
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)

// quote renders s as a double-quoted build-script word. $ is escaped so
// values are taken literally instead of being expanded by the builder.
func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}

// jsonArray renders args in exec form.
func jsonArray(args ...string) string {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(args)
	return strings.TrimSuffix(buf.String(), "\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
