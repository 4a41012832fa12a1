// Package runner executes the external tools sloop delegates to (buildah,
// podman, systemctl). Every invocation goes through a Runner so callers can
// be exercised against a recording fake.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Command describes a single external process invocation.
type Command struct {
	Program string
	Args    []string
	Stdin   string // fed to the process when non-empty
	Dir     string // working directory, inherited when empty
}

// String renders the command line the way it is logged. Empty arguments are
// shown as "" so that `--separator ""` stays visible.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Program)
	for _, arg := range c.Args {
		if arg == "" {
			arg = `""`
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Runner runs a command to completion and returns its standard output.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	logger logrus.FieldLogger
}

// NewExecRunner creates a new ExecRunner logging through logger.
func NewExecRunner(logger logrus.FieldLogger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) (string, error) {
	r.logger.Infof("+ %s", cmd)

	process := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	process.Dir = cmd.Dir
	if cmd.Stdin != "" {
		process.Stdin = strings.NewReader(cmd.Stdin)
	}
	var stdout, stderr bytes.Buffer
	process.Stdout = &stdout
	process.Stderr = &stderr

	runErr := process.Run()

	// Only stdout is returned to the caller. podman prints deprecation
	// notices on stderr which must not end up in a generated unit.
	output := stdout.String() + stderr.String()
	r.logger.Debugf("output of %s:\n%s", cmd.Program, output)

	if ctxErr := ctx.Err(); runErr != nil && ctxErr != nil {
		return "", &ProcessError{
			Program:  cmd.Program,
			Args:     cmd.Args,
			ExitCode: -1,
			Output:   output,
			Err:      ctxErr,
		}
	}
	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return "", &ProcessError{
			Program:  cmd.Program,
			Args:     cmd.Args,
			ExitCode: exitCode,
			Output:   output,
			Err:      runErr,
		}
	}
	if !utf8.ValidString(stdout.String()) {
		return "", &ProcessError{
			Program:  cmd.Program,
			Args:     cmd.Args,
			ExitCode: 0,
			Err:      ErrInvalidOutput,
		}
	}
	return stdout.String(), nil
}

var (
	// ErrInvalidOutput is reported when a tool writes output that is not
	// valid UTF-8 text.
	ErrInvalidOutput = errors.New("output is not valid UTF-8")
)

// ProcessError reports a delegated command that did not succeed.
type ProcessError struct {
	Program  string
	Args     []string
	ExitCode int
	Output   string
	Err      error
}

func (e *ProcessError) Error() string {
	if errors.Is(e.Err, ErrInvalidOutput) {
		return e.Program + ": " + e.Err.Error()
	}
	if errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded) {
		return e.Program + " interrupted: " + e.Err.Error()
	}
	msg := "non-zero exit status for " + e.Program
	if e.ExitCode >= 0 {
		msg += " (exit " + strconv.Itoa(e.ExitCode) + ")"
	}
	if tail := lastLine(e.Output); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

func lastLine(output string) string {
	output = strings.TrimSpace(output)
	if i := strings.LastIndexByte(output, '\n'); i >= 0 {
		return output[i+1:]
	}
	return output
}
