package export

import (
	"fmt"
	"sort"

	"github.com/railwayapp/sloop/internal/service"
)

// Exporter defines the interface for rendering compilation plans
type Exporter interface {
	// Export converts a plan to the target format
	Export(plan *service.Plan) ([]byte, error)

	// Name returns the exporter name (e.g., "json", "script")
	Name() string
}

var exporters = map[string]func() Exporter{
	"json":      NewJSONExporter,
	"yaml":      NewYAMLExporter,
	"script":    NewScriptExporter,
	"unit-args": NewUnitArgsExporter,
}

// Formats returns the names accepted by ForFormat.
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForFormat returns the exporter registered under name.
func ForFormat(name string) (Exporter, error) {
	newExporter, ok := exporters[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q, expected one of %v", name, Formats())
	}
	return newExporter(), nil
}
