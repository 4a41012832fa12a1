package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/railwayapp/sloop/internal/podman"
	"github.com/railwayapp/sloop/internal/unit"
)

// State is a step of unit derivation. Derivation only moves forward.
type State int

const (
	Idle State = iota
	ContainerCreated
	UnitTextObtained
	ContainerRemoved
	DependenciesInjected
	CommentsStripped
	Done
)

var stateNames = [...]string{
	Idle:                 "idle",
	ContainerCreated:     "container-created",
	UnitTextObtained:     "unit-text-obtained",
	ContainerRemoved:     "container-removed",
	DependenciesInjected: "dependencies-injected",
	CommentsStripped:     "comments-stripped",
	Done:                 "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// derivation runs the probe protocol for one service:
// create probe, generate unit, remove probe, inject dependencies, strip
// comments. The probe is removed on every path once it was created.
type derivation struct {
	service    *Service
	containers *podman.Containers
	logger     logrus.FieldLogger
	state      State
}

func (d *derivation) advance(next State) {
	if next != d.state+1 {
		panic(fmt.Sprintf("unit derivation cannot move from %s to %s", d.state, next))
	}
	d.state = next
	d.logger.WithField("state", next).Debug("unit derivation")
}

func (d *derivation) run(ctx context.Context) (string, error) {
	if err := d.containers.CreateProbe(ctx, d.service.Probe()); err != nil {
		return "", err
	}
	d.advance(ContainerCreated)

	text, genErr := d.containers.GenerateUnit(ctx, d.service.Name)
	if genErr == nil {
		d.advance(UnitTextObtained)
	}

	// The probe is removed even when ctx was cancelled during generation.
	rmErr := d.containers.RemoveProbe(context.WithoutCancel(ctx))
	if genErr != nil {
		if rmErr != nil {
			d.logger.WithError(rmErr).Warn("failed to remove probe container")
		}
		return "", genErr
	}
	if rmErr != nil {
		return "", rmErr
	}
	d.advance(ContainerRemoved)

	text, err := unit.InjectDependencies(text, d.service.Dependencies)
	if err != nil {
		return "", err
	}
	d.advance(DependenciesInjected)

	text, err = unit.StripComments(text)
	if err != nil {
		return "", err
	}
	d.advance(CommentsStripped)

	d.advance(Done)
	d.logger.Debugf("unit for %s:\n%s", d.service.Name, text)
	return text, nil
}
