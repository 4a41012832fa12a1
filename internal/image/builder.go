// Package image renders build scripts and builds service images with
// buildah.
package image

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/railwayapp/sloop/internal/runner"
)

// DefaultNamespace prefixes every image sloop builds.
const DefaultNamespace = "sloop"

// Image is a built image. Images are never removed by sloop; superseded
// versions stay in local storage.
type Image struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Version   string `json:"version"`
}

// Repository is <namespace>/<name>.
func (i Image) Repository() string {
	return i.Namespace + "/" + i.Name
}

// Tag is the versioned reference of the image.
func (i Image) Tag() string {
	return i.Repository() + ":" + i.Version
}

// LatestTag is the stable alias moved to every new build.
func (i Image) LatestTag() string {
	return i.Repository() + ":latest"
}

// Options configures a Builder.
type Options struct {
	Program   string // buildah executable
	Namespace string
	WorkDir   string // parent of the staged build contexts, system temp dir when empty
	Versions  *Versioner
}

// Builder materializes images through buildah.
type Builder struct {
	runner    runner.Runner
	program   string
	namespace string
	workDir   string
	versions  *Versioner
	logger    logrus.FieldLogger
}

// NewBuilder creates a Builder.
func NewBuilder(r runner.Runner, opts Options, logger logrus.FieldLogger) *Builder {
	if opts.Program == "" {
		opts.Program = "buildah"
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Versions == nil {
		opts.Versions = NewVersioner(nil)
	}
	return &Builder{
		runner:    r,
		program:   opts.Program,
		namespace: opts.Namespace,
		workDir:   opts.WorkDir,
		versions:  opts.Versions,
		logger:    logger,
	}
}

// Latest returns the latest alias of the image built for name.
func (b *Builder) Latest(name string) string {
	return Image{Namespace: b.namespace, Name: name}.LatestTag()
}

// Build renders the script for spec, stages the injected files and runs
// buildah with the script on stdin. Staged files are removed whether or not
// the build succeeds.
func (b *Builder) Build(ctx context.Context, spec Spec) (Image, error) {
	script, err := Render(spec)
	if err != nil {
		return Image{}, fmt.Errorf("failed to render build script for %s: %w", spec.Name, err)
	}
	if err := Validate(script); err != nil {
		return Image{}, fmt.Errorf("invalid build script for %s: %w", spec.Name, err)
	}
	b.logger.Debugf("build script for %s:\n%s", spec.Name, script)

	contextDir, err := os.MkdirTemp(b.workDir, "sloop-"+spec.Name+"-")
	if err != nil {
		return Image{}, fmt.Errorf("failed to create build context: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(contextDir); err != nil {
			b.logger.WithError(err).Warnf("failed to remove build context %s", contextDir)
		}
	}()

	if err := stage(contextDir, spec.artifacts()); err != nil {
		return Image{}, err
	}

	img := Image{Namespace: b.namespace, Name: spec.Name, Version: b.versions.Next()}
	b.logger.WithField("image", img.Tag()).Info("building image")
	_, err = b.runner.Run(ctx, runner.Command{
		Program: b.program,
		Args:    []string{"bud", "--layers", "-t", img.LatestTag(), "-t", img.Tag(), "-f", "-"},
		Stdin:   script,
		Dir:     contextDir,
	})
	if err != nil {
		return Image{}, fmt.Errorf("failed to build image %s: %w", img.Tag(), err)
	}
	return img, nil
}

func stage(dir string, artifacts []artifact) error {
	for _, a := range artifacts {
		path := filepath.Join(dir, a.name)
		if err := os.WriteFile(path, []byte(a.content), 0644); err != nil {
			return fmt.Errorf("failed to stage %s: %w", a.destination, err)
		}
	}
	return nil
}
