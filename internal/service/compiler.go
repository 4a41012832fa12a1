package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/railwayapp/sloop/internal/config"
	"github.com/railwayapp/sloop/internal/image"
	"github.com/railwayapp/sloop/internal/podman"
)

// Compiler turns configuration records into Services and derives their
// units.
type Compiler struct {
	builder    *image.Builder
	networks   *podman.Networks
	containers *podman.Containers
	logger     logrus.FieldLogger
}

// NewCompiler creates a Compiler.
func NewCompiler(builder *image.Builder, networks *podman.Networks, containers *podman.Containers, logger logrus.FieldLogger) *Compiler {
	return &Compiler{
		builder:    builder,
		networks:   networks,
		containers: containers,
		logger:     logger,
	}
}

// Compile validates rec's mappings, ensures its networks exist and builds
// its image. Mappings are checked before anything touches the runtime.
func (c *Compiler) Compile(ctx context.Context, rec *config.Record) (*Service, error) {
	logger := c.logger.WithField("service", rec.Name)

	m, err := validateMappings(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", rec.Name, err)
	}

	for _, name := range rec.Networks {
		if err := c.networks.Ensure(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to compile %s: %w", rec.Name, err)
		}
	}

	img, err := c.builder.Build(ctx, imageSpec(rec))
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", rec.Name, err)
	}
	logger.WithField("version", img.Version).Info("service compiled")

	return &Service{
		Name:         rec.Name,
		Version:      img.Version,
		Image:        img,
		Volumes:      m.volumes,
		Ports:        m.ports,
		Networks:     append([]string(nil), rec.Networks...),
		Dependencies: dependencies(rec),
	}, nil
}

// GenerateUnit derives the final unit text for svc.
func (c *Compiler) GenerateUnit(ctx context.Context, svc *Service) (string, error) {
	d := &derivation{
		service:    svc,
		containers: c.containers,
		logger:     c.logger.WithField("service", svc.Name),
	}
	text, err := d.run(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to generate unit for %s: %w", svc.Name, err)
	}
	return text, nil
}
