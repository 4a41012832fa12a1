package podman

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/railwayapp/sloop/internal/mapping"
	"github.com/railwayapp/sloop/internal/runner"
)

// Placeholder names the probe container. It is not a valid service name,
// so it never collides with a user-visible container.
const Placeholder = "SLOOP_PLACEHOLDER"

// ProbeSpec describes the probe container a unit is generated from.
type ProbeSpec struct {
	Image    string
	Volumes  []mapping.Volume
	Networks []string
	Ports    []mapping.Port
}

// Args is the podman argument list creating the probe container.
func (s ProbeSpec) Args() []string {
	args := []string{"container", "create", "--init", "--name", Placeholder}
	for _, v := range s.Volumes {
		args = append(args, "-v", v.String())
	}
	for _, n := range s.Networks {
		args = append(args, "--net", n)
	}
	for _, p := range s.Ports {
		args = append(args, "-p", p.String())
	}
	return append(args, s.Image)
}

// Containers manages the probe container.
type Containers struct {
	runner  runner.Runner
	program string
	logger  logrus.FieldLogger
}

// NewContainers creates a probe manager invoking program.
func NewContainers(r runner.Runner, program string, logger logrus.FieldLogger) *Containers {
	return &Containers{runner: r, program: program, logger: logger}
}

// CreateProbe creates, but does not start, the probe container.
func (c *Containers) CreateProbe(ctx context.Context, spec ProbeSpec) error {
	c.logger.WithField("image", spec.Image).Debug("creating probe container")
	_, err := c.runner.Run(ctx, runner.Command{Program: c.program, Args: spec.Args()})
	if err != nil {
		return newError("create", "container", Placeholder, err)
	}
	return nil
}

// RemoveProbe deletes the probe container.
func (c *Containers) RemoveProbe(ctx context.Context) error {
	_, err := c.runner.Run(ctx, runner.Command{
		Program: c.program,
		Args:    []string{"container", "rm", Placeholder},
	})
	if err != nil {
		return newError("remove", "container", Placeholder, err)
	}
	return nil
}

// GenerateUnit asks podman for a self-contained unit recreating the probe
// container on start, then renames the probe to serviceName throughout.
func (c *Containers) GenerateUnit(ctx context.Context, serviceName string) (string, error) {
	out, err := c.runner.Run(ctx, runner.Command{
		Program: c.program,
		Args: []string{
			"generate", "systemd",
			"--name", "--new", Placeholder,
			"--container-prefix", "",
			"--separator", "",
		},
	})
	if err != nil {
		return "", newError("generate", "unit", serviceName, err)
	}
	return strings.ReplaceAll(out, Placeholder, serviceName), nil
}
