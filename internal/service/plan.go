package service

import (
	"fmt"

	"github.com/railwayapp/sloop/internal/config"
	"github.com/railwayapp/sloop/internal/image"
)

// Plan is what compiling a record would do, computed without touching the
// container runtime.
type Plan struct {
	Name         string   `json:"name" yaml:"name"`
	Unit         string   `json:"unit" yaml:"unit"`
	Base         string   `json:"base" yaml:"base"`
	Image        string   `json:"image" yaml:"image"`
	Script       string   `json:"script" yaml:"script"`
	Networks     []string `json:"networks,omitempty" yaml:"networks,omitempty"`
	ProbeArgs    []string `json:"probe_args" yaml:"probe_args"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Plan renders the build script and probe arguments for rec.
func (c *Compiler) Plan(rec *config.Record) (*Plan, error) {
	return NewPlan(rec, c.builder.Latest(rec.Name))
}

// NewPlan computes the plan of rec; latest is the image alias the probe
// container is created from.
func NewPlan(rec *config.Record, latest string) (*Plan, error) {
	m, err := validateMappings(rec)
	if err != nil {
		return nil, err
	}
	script, err := image.Render(imageSpec(rec))
	if err != nil {
		return nil, fmt.Errorf("failed to render build script for %s: %w", rec.Name, err)
	}
	if err := image.Validate(script); err != nil {
		return nil, fmt.Errorf("invalid build script for %s: %w", rec.Name, err)
	}

	svc := &Service{
		Name:     rec.Name,
		Volumes:  m.volumes,
		Ports:    m.ports,
		Networks: rec.Networks,
	}
	probe := svc.Probe()
	probe.Image = latest

	deps := dependencies(rec)
	directives := make([]string, len(deps))
	for i, d := range deps {
		directives[i] = d.Directive()
	}

	return &Plan{
		Name:         rec.Name,
		Unit:         svc.UnitName(),
		Base:         rec.Image,
		Image:        latest,
		Script:       script,
		Networks:     rec.Networks,
		ProbeArgs:    probe.Args(),
		Dependencies: directives,
	}, nil
}

