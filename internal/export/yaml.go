package export

import (
	"gopkg.in/yaml.v3"

	"github.com/railwayapp/sloop/internal/service"
)

type YAMLExporter struct{}

func (e *YAMLExporter) Name() string {
	return "yaml"
}

func (e *YAMLExporter) Export(plan *service.Plan) ([]byte, error) {
	return yaml.Marshal(plan)
}

func NewYAMLExporter() Exporter {
	return &YAMLExporter{}
}
