package systemd_test

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwayapp/sloop/internal/filesystems"
	"github.com/railwayapp/sloop/internal/runner"
	"github.com/railwayapp/sloop/internal/systemd"
	"github.com/railwayapp/sloop/internal/unit"
)

const unitText = `[Unit]
Description=Podman web.service
After=network.target
Documentation=man:podman-generate-systemd(1)

[Service]
ExecStart=/usr/bin/podman run --name web sloop/web:latest

[Install]
WantedBy=default.target
`

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newInstaller(rec *runner.Recorder) (*systemd.Installer, *filesystems.MemoryFS) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddDir(systemd.DefaultUnitDir)
	return systemd.NewInstaller(rec, "", mfs, "", quietLogger()), mfs
}

func TestInstall_InactiveUnit(t *testing.T) {
	rec := runner.NewRecorder().Fail("systemctl is-active")
	installer, mfs := newInstaller(rec)

	require.NoError(t, installer.Install(context.Background(), "web.service", unitText, systemd.Options{}))

	assert.Equal(t, []string{
		"systemctl is-active web.service",
		"systemctl daemon-reload",
	}, rec.Lines())

	content, err := mfs.ReadFile("/etc/systemd/system/web.service")
	require.NoError(t, err)
	assert.Equal(t, unitText, string(content))

	mode, ok := mfs.Mode("/etc/systemd/system/web.service")
	require.True(t, ok)
	assert.Equal(t, fs.FileMode(0644), mode)
}

func TestInstall_ActiveUnitIsStoppedFirst(t *testing.T) {
	rec := runner.NewRecorder()
	installer, mfs := newInstaller(rec)
	mfs.AddFile("/etc/systemd/system/web.service", []byte("[Unit]\nDescription=old\n"))

	require.NoError(t, installer.Install(context.Background(), "web.service", unitText, systemd.Options{}))

	assert.Equal(t, []string{
		"systemctl is-active web.service",
		"systemctl stop web.service",
		"systemctl daemon-reload",
	}, rec.Lines())

	content, err := mfs.ReadFile("/etc/systemd/system/web.service")
	require.NoError(t, err)
	assert.Equal(t, unitText, string(content), "unit file must be fully replaced")
}

// orderingRunner checks that the unit file is written between stop and
// daemon-reload.
type orderingRunner struct {
	runner.Recorder
	fs      *filesystems.MemoryFS
	written []bool
}

func (o *orderingRunner) Run(ctx context.Context, cmd runner.Command) (string, error) {
	_, err := o.fs.ReadFile("/etc/systemd/system/web.service")
	o.written = append(o.written, err == nil)
	return o.Recorder.Run(ctx, cmd)
}

func TestInstall_WritesBetweenStopAndReload(t *testing.T) {
	mfs := filesystems.NewMemoryFS()
	mfs.AddDir(systemd.DefaultUnitDir)
	r := &orderingRunner{fs: mfs}
	installer := systemd.NewInstaller(r, "systemctl", mfs, systemd.DefaultUnitDir, quietLogger())

	require.NoError(t, installer.Install(context.Background(), "web.service", unitText, systemd.Options{Start: true}))

	assert.Equal(t, []string{
		"systemctl is-active web.service",
		"systemctl stop web.service",
		"systemctl daemon-reload",
		"systemctl start web.service",
	}, r.Lines())
	assert.Equal(t, []bool{false, false, true, true}, r.written)
}

func TestInstall_StartAndEnable(t *testing.T) {
	rec := runner.NewRecorder().Fail("systemctl is-active")
	installer, _ := newInstaller(rec)

	err := installer.Install(context.Background(), "web.service", unitText, systemd.Options{Start: true, Enable: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"systemctl is-active web.service",
		"systemctl daemon-reload",
		"systemctl start web.service",
		"systemctl enable web.service",
	}, rec.Lines())
}

func TestInstall_StopFailureAborts(t *testing.T) {
	rec := runner.NewRecorder().Fail("systemctl stop")
	installer, mfs := newInstaller(rec)

	err := installer.Install(context.Background(), "web.service", unitText, systemd.Options{Start: true})
	var procErr *runner.ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "systemctl", procErr.Program)

	assert.Empty(t, mfs.Files())
	assert.Len(t, rec.Calls(), 2)
}

func TestInstall_StartFailureSkipsEnable(t *testing.T) {
	rec := runner.NewRecorder().
		Fail("systemctl is-active").
		Fail("systemctl start")
	installer, _ := newInstaller(rec)

	err := installer.Install(context.Background(), "web.service", unitText, systemd.Options{Start: true, Enable: true})
	require.Error(t, err)
	assert.NotContains(t, rec.Lines(), "systemctl enable web.service")
}

func TestInstall_RejectsUnparseableUnit(t *testing.T) {
	rec := runner.NewRecorder().Fail("systemctl is-active")
	installer, mfs := newInstaller(rec)

	err := installer.Install(context.Background(), "web.service", "[Service]\nExecStart=/bin/true\n", systemd.Options{})
	require.ErrorIs(t, err, unit.ErrProtocol)
	assert.Empty(t, mfs.Files())
	assert.NotContains(t, rec.Lines(), "systemctl daemon-reload")
}

func TestInstall_MissingUnitDir(t *testing.T) {
	rec := runner.NewRecorder().Fail("systemctl is-active")
	installer := systemd.NewInstaller(rec, "", filesystems.NewMemoryFS(), "/run/systemd/system", quietLogger())

	err := installer.Install(context.Background(), "web.service", unitText, systemd.Options{})
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestPurge(t *testing.T) {
	rec := runner.NewRecorder()
	installer, mfs := newInstaller(rec)
	mfs.AddFile("/etc/systemd/system/web.service", []byte(unitText))

	require.NoError(t, installer.Purge(context.Background(), "web.service"))

	assert.Equal(t, []string{
		"systemctl is-active web.service",
		"systemctl stop web.service",
		"systemctl disable web.service",
		"systemctl daemon-reload",
	}, rec.Lines())
	assert.Empty(t, mfs.Files())
}

func TestPurge_UnknownUnit(t *testing.T) {
	rec := runner.NewRecorder().
		Fail("systemctl is-active").
		Fail("systemctl disable")
	installer, _ := newInstaller(rec)

	require.NoError(t, installer.Purge(context.Background(), "web.service"))
	assert.Equal(t, []string{
		"systemctl is-active web.service",
		"systemctl disable web.service",
		"systemctl daemon-reload",
	}, rec.Lines())
}

func TestUnitPath(t *testing.T) {
	installer := systemd.NewInstaller(runner.NewRecorder(), "", filesystems.NewMemoryFS(), "/etc/systemd/user", quietLogger())
	assert.Equal(t, "/etc/systemd/user/web.service", installer.UnitPath("web.service"))
}
