package runner

import (
	"context"
	"strings"
	"sync"
)

// Recorder is a Runner that records every command instead of executing it.
// Responses are scripted with On; the most recently registered matching
// rule wins. Unmatched commands succeed with empty output.
type Recorder struct {
	mu    sync.Mutex
	calls []Command
	rules []rule
}

type rule struct {
	prefix string
	output string
	fail   bool
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// On scripts the output returned for commands whose rendered line starts
// with prefix.
func (r *Recorder) On(prefix, output string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{prefix: prefix, output: output})
	return r
}

// Fail makes commands starting with prefix exit with status 1.
func (r *Recorder) Fail(prefix string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{prefix: prefix, fail: true})
	return r
}

func (r *Recorder) Run(ctx context.Context, cmd Command) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, cmd)

	line := cmd.String()
	for i := len(r.rules) - 1; i >= 0; i-- {
		if !strings.HasPrefix(line, r.rules[i].prefix) {
			continue
		}
		if r.rules[i].fail {
			return "", &ProcessError{Program: cmd.Program, Args: cmd.Args, ExitCode: 1}
		}
		return r.rules[i].output, nil
	}
	return "", nil
}

// Calls returns the recorded commands in invocation order.
func (r *Recorder) Calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.calls...)
}

// Lines returns the recorded commands rendered with Command.String.
func (r *Recorder) Lines() []string {
	calls := r.Calls()
	lines := make([]string, len(calls))
	for i, call := range calls {
		lines[i] = call.String()
	}
	return lines
}

// Reset forgets recorded calls but keeps the scripted rules.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
