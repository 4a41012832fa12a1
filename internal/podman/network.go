// Package podman drives the podman CLI: networks, the probe container and
// unit generation.
package podman

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/railwayapp/sloop/internal/runner"
)

// Networks ensures named podman networks exist. Networks are shared between
// services and outlive them; nothing here removes a network implicitly.
type Networks struct {
	runner   runner.Runner
	program  string
	logger   logrus.FieldLogger
	resolved map[string]bool
}

// NewNetworks creates a resolver invoking program (usually "podman").
func NewNetworks(r runner.Runner, program string, logger logrus.FieldLogger) *Networks {
	return &Networks{
		runner:   r,
		program:  program,
		logger:   logger,
		resolved: make(map[string]bool),
	}
}

// Exists reports whether the network exists. A failing query counts as
// absent; a redundant create is left to podman to reject.
func (n *Networks) Exists(ctx context.Context, name string) bool {
	_, err := n.runner.Run(ctx, runner.Command{
		Program: n.program,
		Args:    []string{"network", "exists", name},
	})
	return err == nil
}

// Ensure creates the network if it does not exist yet. Names already
// ensured during this run are not queried again.
func (n *Networks) Ensure(ctx context.Context, name string) error {
	if n.resolved[name] {
		return nil
	}
	if !n.Exists(ctx, name) {
		n.logger.WithField("network", name).Info("creating network")
		_, err := n.runner.Run(ctx, runner.Command{
			Program: n.program,
			Args:    []string{"network", "create", name},
		})
		if err != nil {
			return newError("create", "network", name, err)
		}
	}
	n.resolved[name] = true
	return nil
}

// Remove deletes the network. It is only called on explicit request.
func (n *Networks) Remove(ctx context.Context, name string) error {
	n.logger.WithField("network", name).Info("removing network")
	_, err := n.runner.Run(ctx, runner.Command{
		Program: n.program,
		Args:    []string{"network", "remove", name},
	})
	if err != nil {
		return newError("remove", "network", name, err)
	}
	delete(n.resolved, name)
	return nil
}
