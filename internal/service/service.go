// Package service compiles configuration records into images and systemd
// units.
package service

import (
	"github.com/railwayapp/sloop/internal/config"
	"github.com/railwayapp/sloop/internal/image"
	"github.com/railwayapp/sloop/internal/mapping"
	"github.com/railwayapp/sloop/internal/podman"
	"github.com/railwayapp/sloop/internal/unit"
)

// Service is a compiled configuration: its image is built and its
// networks exist.
type Service struct {
	Name         string
	Version      string
	Image        image.Image
	Volumes      []mapping.Volume
	Ports        []mapping.Port
	Networks     []string
	Dependencies []unit.Dependency
}

// UnitName is the file name the unit is installed under.
func (s *Service) UnitName() string {
	return s.Name + ".service"
}

// Probe describes the container the unit is generated from.
func (s *Service) Probe() podman.ProbeSpec {
	return podman.ProbeSpec{
		Image:    s.Image.LatestTag(),
		Volumes:  s.Volumes,
		Networks: s.Networks,
		Ports:    s.Ports,
	}
}

// mappings holds the validated mappings of a record.
type mappings struct {
	volumes []mapping.Volume
	ports   []mapping.Port
}

func validateMappings(rec *config.Record) (mappings, error) {
	volumes, err := mapping.Volumes(rec.Volumes)
	if err != nil {
		return mappings{}, err
	}
	ports, err := mapping.Ports(rec.Ports)
	if err != nil {
		return mappings{}, err
	}
	return mappings{volumes: volumes, ports: ports}, nil
}

func imageSpec(rec *config.Record) image.Spec {
	return image.Spec{
		Name:       rec.Name,
		Base:       rec.Image,
		Files:      rec.Files,
		Labels:     rec.Labels,
		Env:        rec.Env,
		Entrypoint: rec.Entrypoint,
		Cmd:        rec.Cmd,
	}
}

func dependencies(rec *config.Record) []unit.Dependency {
	return unit.Dependencies(rec.After, rec.Requires, rec.Wants)
}
