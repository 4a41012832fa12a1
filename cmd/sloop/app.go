package sloop

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/railwayapp/sloop/internal/config"
	"github.com/railwayapp/sloop/internal/filesystems"
	"github.com/railwayapp/sloop/internal/image"
	"github.com/railwayapp/sloop/internal/lint"
	"github.com/railwayapp/sloop/internal/podman"
	"github.com/railwayapp/sloop/internal/runner"
	"github.com/railwayapp/sloop/internal/service"
	"github.com/railwayapp/sloop/internal/systemd"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// app wires the components from the current settings.
type app struct {
	loader    *config.Loader
	builder   *image.Builder
	networks  *podman.Networks
	compiler  *service.Compiler
	installer *systemd.Installer
}

func newApp() *app {
	r := runner.NewExecRunner(logger)
	fsys := filesystems.NewLocalFS()
	podmanBin := viper.GetString("podman")

	builder := image.NewBuilder(r, image.Options{
		Program:   viper.GetString("buildah"),
		Namespace: viper.GetString("namespace"),
		WorkDir:   viper.GetString("workdir"),
	}, logger)
	networks := podman.NewNetworks(r, podmanBin, logger)

	return &app{
		loader:   config.NewLoader(fsys),
		builder:  builder,
		networks: networks,
		compiler: service.NewCompiler(
			builder,
			networks,
			podman.NewContainers(r, podmanBin, logger),
			logger,
		),
		installer: systemd.NewInstaller(
			r,
			viper.GetString("systemctl"),
			fsys,
			viper.GetString("unit_dir"),
			logger,
		),
	}
}

// deploy compiles and installs every configuration in order, stopping at
// the first failure.
func (a *app) deploy(ctx context.Context, paths []string, opts systemd.Options) error {
	for _, path := range paths {
		if err := a.deployOne(ctx, path, opts); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) deployOne(ctx context.Context, path string, opts systemd.Options) error {
	rec, err := a.loader.Load(path)
	if err != nil {
		return err
	}
	log := logger.WithField("service", rec.Name)
	for _, finding := range lint.Lint(rec) {
		log.Warn(finding.String())
	}

	svc, err := a.compiler.Compile(ctx, rec)
	if err != nil {
		return err
	}
	text, err := a.compiler.GenerateUnit(ctx, svc)
	if err != nil {
		return err
	}
	if err := a.installer.Install(ctx, svc.UnitName(), text, opts); err != nil {
		return fmt.Errorf("failed to install %s: %w", svc.UnitName(), err)
	}

	log.WithField("image", svc.Image.Tag()).Info("service deployed")
	return nil
}
