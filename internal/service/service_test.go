package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwayapp/sloop/internal/config"
	"github.com/railwayapp/sloop/internal/image"
	"github.com/railwayapp/sloop/internal/mapping"
	"github.com/railwayapp/sloop/internal/podman"
	"github.com/railwayapp/sloop/internal/runner"
	"github.com/railwayapp/sloop/internal/service"
	"github.com/railwayapp/sloop/internal/unit"
)

const generateLine = `podman generate systemd --name --new SLOOP_PLACEHOLDER --container-prefix "" --separator ""`

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func generatedUnit(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile("../unit/testdata/generate-systemd-new.service")
	require.NoError(t, err)
	return string(raw)
}

func newCompiler(t *testing.T, rec *runner.Recorder) *service.Compiler {
	t.Helper()
	logger := quietLogger()
	now := time.Date(2024, 3, 12, 9, 41, 7, 0, time.UTC)
	builder := image.NewBuilder(rec, image.Options{
		WorkDir:  t.TempDir(),
		Versions: image.NewVersioner(func() time.Time { return now }),
	}, logger)
	return service.NewCompiler(
		builder,
		podman.NewNetworks(rec, "podman", logger),
		podman.NewContainers(rec, "podman", logger),
		logger,
	)
}

func webRecord() *config.Record {
	return &config.Record{
		Name:  "web",
		Image: "alpine",
		Ports: []string{"8080:80"},
		After: []string{"network.target"},
	}
}

func TestCompileAndGenerate_Web(t *testing.T) {
	rec := runner.NewRecorder().On(generateLine, generatedUnit(t))
	compiler := newCompiler(t, rec)
	ctx := context.Background()

	svc, err := compiler.Compile(ctx, webRecord())
	require.NoError(t, err)
	assert.Equal(t, "web", svc.Name)
	assert.Equal(t, "2024-03-12_09-41-07", svc.Version)
	assert.Equal(t, "web.service", svc.UnitName())
	assert.Equal(t, []unit.Dependency{unit.NewDependency(unit.After, "network.target")}, svc.Dependencies)

	text, err := compiler.GenerateUnit(ctx, svc)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "[Unit]\n"), "nothing may precede [Unit]")
	assert.Less(t, strings.Index(text, "After=network.target\n"), strings.Index(text, "Documentation="))
	assert.NotContains(t, text, podman.Placeholder)
	assert.Contains(t, text, "--name web")

	sections, err := unit.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"network.target", "network-online.target"}, unit.Values(sections, "Unit", "After"))

	assert.Equal(t, []string{
		"buildah bud --layers -t sloop/web:latest -t sloop/web:2024-03-12_09-41-07 -f -",
		"podman container create --init --name SLOOP_PLACEHOLDER -p 8080:80 sloop/web:latest",
		generateLine,
		"podman container rm SLOOP_PLACEHOLDER",
	}, rec.Lines())
}

func TestCompile_ResolvesNetworksBeforeBuild(t *testing.T) {
	rec := runner.NewRecorder().Fail("podman network exists backend")
	compiler := newCompiler(t, rec)

	record := webRecord()
	record.Networks = []string{"frontend", "backend"}
	record.Volumes = []string{"/srv/web:/usr/share/nginx/html:ro"}

	svc, err := compiler.Compile(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, []string{"frontend", "backend"}, svc.Networks)

	lines := rec.Lines()
	require.Len(t, lines, 4)
	assert.Equal(t, []string{
		"podman network exists frontend",
		"podman network exists backend",
		"podman network create backend",
	}, lines[:3])
	assert.True(t, strings.HasPrefix(lines[3], "buildah bud"))

	assert.Equal(t, []string{
		"container", "create", "--init", "--name", podman.Placeholder,
		"-v", "/srv/web:/usr/share/nginx/html:ro",
		"--net", "frontend", "--net", "backend",
		"-p", "8080:80",
		"sloop/web:latest",
	}, svc.Probe().Args())
}

func TestCompile_MalformedPortAbortsEarly(t *testing.T) {
	rec := runner.NewRecorder()
	compiler := newCompiler(t, rec)

	record := webRecord()
	record.Ports = []string{"8080"}
	record.Networks = []string{"frontend"}

	_, err := compiler.Compile(context.Background(), record)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mapping.ErrMalformed))

	var malformed *mapping.MalformedError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, mapping.KindPort, malformed.Kind)
	assert.Empty(t, rec.Calls(), "no network or image work may happen")
}

func TestCompile_MalformedVolumeAbortsEarly(t *testing.T) {
	rec := runner.NewRecorder()
	compiler := newCompiler(t, rec)

	record := webRecord()
	record.Volumes = []string{"data"}

	_, err := compiler.Compile(context.Background(), record)
	require.ErrorIs(t, err, mapping.ErrMalformed)
	assert.Empty(t, rec.Calls())
}

func TestCompile_NetworkFailureSkipsBuild(t *testing.T) {
	rec := runner.NewRecorder().
		Fail("podman network exists").
		Fail("podman network create")
	compiler := newCompiler(t, rec)

	record := webRecord()
	record.Networks = []string{"frontend"}

	_, err := compiler.Compile(context.Background(), record)
	var podmanErr *podman.Error
	require.True(t, errors.As(err, &podmanErr))
	for _, line := range rec.Lines() {
		assert.False(t, strings.HasPrefix(line, "buildah"))
	}
}

func TestCompile_BuildFailure(t *testing.T) {
	rec := runner.NewRecorder().Fail("buildah")
	compiler := newCompiler(t, rec)

	_, err := compiler.Compile(context.Background(), webRecord())
	var procErr *runner.ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "buildah", procErr.Program)
}

func TestGenerateUnit_RemovesProbeOnGenerationFailure(t *testing.T) {
	rec := runner.NewRecorder().Fail("podman generate")
	compiler := newCompiler(t, rec)
	ctx := context.Background()

	svc, err := compiler.Compile(ctx, webRecord())
	require.NoError(t, err)
	rec.Reset()

	_, err = compiler.GenerateUnit(ctx, svc)
	var podmanErr *podman.Error
	require.True(t, errors.As(err, &podmanErr))
	assert.Equal(t, "generate", podmanErr.Op)

	lines := rec.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "podman container rm SLOOP_PLACEHOLDER", lines[2])
}

func TestGenerateUnit_GenerationErrorWinsOverRemoval(t *testing.T) {
	rec := runner.NewRecorder().
		Fail("podman generate").
		Fail("podman container rm")
	compiler := newCompiler(t, rec)
	ctx := context.Background()

	svc, err := compiler.Compile(ctx, webRecord())
	require.NoError(t, err)

	_, err = compiler.GenerateUnit(ctx, svc)
	var podmanErr *podman.Error
	require.True(t, errors.As(err, &podmanErr))
	assert.Equal(t, "generate", podmanErr.Op)
}

func TestGenerateUnit_RemovalFailure(t *testing.T) {
	rec := runner.NewRecorder().
		On(generateLine, generatedUnit(t)).
		Fail("podman container rm")
	compiler := newCompiler(t, rec)
	ctx := context.Background()

	svc, err := compiler.Compile(ctx, webRecord())
	require.NoError(t, err)

	_, err = compiler.GenerateUnit(ctx, svc)
	var podmanErr *podman.Error
	require.True(t, errors.As(err, &podmanErr))
	assert.Equal(t, "remove", podmanErr.Op)
}

func TestGenerateUnit_CreateFailureSkipsRemoval(t *testing.T) {
	rec := runner.NewRecorder().Fail("podman container create")
	compiler := newCompiler(t, rec)
	ctx := context.Background()

	svc, err := compiler.Compile(ctx, webRecord())
	require.NoError(t, err)
	rec.Reset()

	_, err = compiler.GenerateUnit(ctx, svc)
	require.Error(t, err)
	assert.Len(t, rec.Calls(), 1)
}

func TestGenerateUnit_MissingAnchor(t *testing.T) {
	rec := runner.NewRecorder().On(generateLine, "[Unit]\nDescription=x\n")
	compiler := newCompiler(t, rec)
	ctx := context.Background()

	svc, err := compiler.Compile(ctx, webRecord())
	require.NoError(t, err)

	_, err = compiler.GenerateUnit(ctx, svc)
	require.ErrorIs(t, err, unit.ErrProtocol)

	var protoErr *unit.ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Equal(t, unit.DocumentationAnchor, protoErr.Token)
	assert.Contains(t, rec.Lines(), "podman container rm SLOOP_PLACEHOLDER")
}

func TestGenerateUnit_MissingHeader(t *testing.T) {
	rec := runner.NewRecorder().On(generateLine, "Documentation=man:podman(1)\n")
	compiler := newCompiler(t, rec)
	ctx := context.Background()

	svc, err := compiler.Compile(ctx, webRecord())
	require.NoError(t, err)

	_, err = compiler.GenerateUnit(ctx, svc)
	var protoErr *unit.ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Equal(t, unit.SectionHeader, protoErr.Token)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", service.Idle.String())
	assert.Equal(t, "container-removed", service.ContainerRemoved.String())
	assert.Equal(t, "done", service.Done.String())
	assert.Equal(t, "State(42)", service.State(42).String())
}

func TestPlan(t *testing.T) {
	rec := runner.NewRecorder()
	compiler := newCompiler(t, rec)

	record := webRecord()
	record.Wants = []string{"db.service"}
	record.Env = map[string]string{"PORT": "80"}

	plan, err := compiler.Plan(record)
	require.NoError(t, err)
	assert.Empty(t, rec.Calls(), "planning has no side effects")

	assert.Equal(t, "web.service", plan.Unit)
	assert.Equal(t, "sloop/web:latest", plan.Image)
	assert.Equal(t, "FROM alpine\nENV \"PORT\"=\"80\"\n", plan.Script)
	assert.Equal(t, []string{"After=network.target", "Wants=db.service"}, plan.Dependencies)
	assert.Equal(t, []string{
		"container", "create", "--init", "--name", podman.Placeholder,
		"-p", "8080:80", "sloop/web:latest",
	}, plan.ProbeArgs)
}

func TestPlan_Malformed(t *testing.T) {
	record := webRecord()
	record.Ports = []string{"80"}

	_, err := service.NewPlan(record, "sloop/web:latest")
	require.ErrorIs(t, err, mapping.ErrMalformed)
}

// interruptingRunner cancels the run while the unit is being generated and,
// like exec.CommandContext, refuses to start commands on a done context.
type interruptingRunner struct {
	runner.Recorder
	cancel context.CancelFunc
}

func (r *interruptingRunner) Run(ctx context.Context, cmd runner.Command) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.HasPrefix(cmd.String(), "podman generate") {
		r.cancel()
		_, _ = r.Recorder.Run(ctx, cmd)
		return "", context.Canceled
	}
	return r.Recorder.Run(ctx, cmd)
}

func TestGenerateUnit_RemovesProbeAfterInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &interruptingRunner{cancel: cancel}
	logger := quietLogger()
	compiler := service.NewCompiler(
		image.NewBuilder(r, image.Options{WorkDir: t.TempDir()}, logger),
		podman.NewNetworks(r, "podman", logger),
		podman.NewContainers(r, "podman", logger),
		logger,
	)

	svc, err := compiler.Compile(ctx, webRecord())
	require.NoError(t, err)

	_, err = compiler.GenerateUnit(ctx, svc)
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, r.Lines(), "podman container rm SLOOP_PLACEHOLDER")
}
