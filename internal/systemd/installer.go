// Package systemd installs units and drives their lifecycle through
// systemctl.
package systemd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/sirupsen/logrus"

	"github.com/railwayapp/sloop/internal/filesystems"
	"github.com/railwayapp/sloop/internal/runner"
	"github.com/railwayapp/sloop/internal/unit"
)

// DefaultUnitDir is where system units are installed.
const DefaultUnitDir = "/etc/systemd/system"

const unitFileMode fs.FileMode = 0644

// Options selects the optional lifecycle steps of Install.
type Options struct {
	Start  bool
	Enable bool
}

// Installer writes unit files and calls systemctl. There is no rollback:
// a failing step leaves the system as the previous steps left it.
type Installer struct {
	runner  runner.Runner
	program string
	fs      filesystems.FileSystem
	unitDir string
	logger  logrus.FieldLogger
}

// NewInstaller creates an Installer writing into unitDir.
func NewInstaller(r runner.Runner, program string, fsys filesystems.FileSystem, unitDir string, logger logrus.FieldLogger) *Installer {
	if program == "" {
		program = "systemctl"
	}
	if unitDir == "" {
		unitDir = DefaultUnitDir
	}
	return &Installer{
		runner:  r,
		program: program,
		fs:      fsys,
		unitDir: unitDir,
		logger:  logger,
	}
}

// UnitPath is the file the unit named name is installed as.
func (i *Installer) UnitPath(name string) string {
	return i.fs.Join(i.unitDir, name)
}

func (i *Installer) systemctl(ctx context.Context, args ...string) error {
	_, err := i.runner.Run(ctx, runner.Command{Program: i.program, Args: args})
	return err
}

// IsActive reports whether the unit is active. Any failure of the query,
// including an unknown unit, counts as inactive.
func (i *Installer) IsActive(ctx context.Context, name string) bool {
	return i.systemctl(ctx, "is-active", name) == nil
}

func (i *Installer) Stop(ctx context.Context, name string) error {
	if err := i.systemctl(ctx, "stop", name); err != nil {
		return fmt.Errorf("failed to stop %s: %w", name, err)
	}
	return nil
}

func (i *Installer) Start(ctx context.Context, name string) error {
	if err := i.systemctl(ctx, "start", name); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

func (i *Installer) Enable(ctx context.Context, name string) error {
	if err := i.systemctl(ctx, "enable", name); err != nil {
		return fmt.Errorf("failed to enable %s: %w", name, err)
	}
	return nil
}

func (i *Installer) Disable(ctx context.Context, name string) error {
	if err := i.systemctl(ctx, "disable", name); err != nil {
		return fmt.Errorf("failed to disable %s: %w", name, err)
	}
	return nil
}

// DaemonReload makes systemd pick up changed unit files.
func (i *Installer) DaemonReload(ctx context.Context) error {
	if err := i.systemctl(ctx, "daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}
	return nil
}

// Write replaces the unit file of name with text after checking that text
// parses as a unit.
func (i *Installer) Write(name, text string) error {
	if _, err := unit.Parse(text); err != nil {
		return fmt.Errorf("refusing to install %s: %w", name, err)
	}
	path := i.UnitPath(name)
	if err := i.fs.WriteFile(path, []byte(text), unitFileMode); err != nil {
		return fmt.Errorf("failed to write unit %s: %w", path, err)
	}
	return nil
}

// Install replaces the unit named name (e.g. web.service) with text. An
// active unit is stopped first; the new unit is started or enabled only
// when opts ask for it.
func (i *Installer) Install(ctx context.Context, name, text string, opts Options) error {
	logger := i.logger.WithField("unit", name)

	if i.IsActive(ctx, name) {
		logger.Info("stopping active unit")
		if err := i.Stop(ctx, name); err != nil {
			return err
		}
	}

	if err := i.Write(name, text); err != nil {
		return err
	}
	logger.WithField("path", i.UnitPath(name)).Info("unit installed")

	if err := i.DaemonReload(ctx); err != nil {
		return err
	}
	if opts.Start {
		if err := i.Start(ctx, name); err != nil {
			return err
		}
	}
	if opts.Enable {
		if err := i.Enable(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Purge stops, disables and deletes the unit named name. A unit that is
// not enabled or whose file is already gone is not an error.
func (i *Installer) Purge(ctx context.Context, name string) error {
	logger := i.logger.WithField("unit", name)

	if i.IsActive(ctx, name) {
		if err := i.Stop(ctx, name); err != nil {
			return err
		}
	}
	if err := i.Disable(ctx, name); err != nil {
		logger.WithError(err).Warn("disable failed, continuing")
	}

	path := i.UnitPath(name)
	if err := i.fs.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove unit %s: %w", path, err)
		}
		logger.WithField("path", path).Debug("unit file already absent")
	}

	if err := i.DaemonReload(ctx); err != nil {
		return err
	}
	logger.Info("unit purged")
	return nil
}
