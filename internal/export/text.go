package export

import (
	"strings"

	"github.com/railwayapp/sloop/internal/service"
)

// ScriptExporter prints the build script fed to buildah.
type ScriptExporter struct{}

func (e *ScriptExporter) Name() string {
	return "script"
}

func (e *ScriptExporter) Export(plan *service.Plan) ([]byte, error) {
	return []byte(plan.Script), nil
}

func NewScriptExporter() Exporter {
	return &ScriptExporter{}
}

// UnitArgsExporter prints the podman arguments of the probe container, one
// per line, which is what ends up in the unit's ExecStart.
type UnitArgsExporter struct{}

func (e *UnitArgsExporter) Name() string {
	return "unit-args"
}

func (e *UnitArgsExporter) Export(plan *service.Plan) ([]byte, error) {
	return []byte(strings.Join(plan.ProbeArgs, "\n") + "\n"), nil
}

func NewUnitArgsExporter() Exporter {
	return &UnitArgsExporter{}
}
