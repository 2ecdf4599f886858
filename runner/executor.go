// Command executor for probing tools.
//
// Information Hiding:
// - Process spawning and environment assembly hidden
// - Timeout enforcement hidden
// - Failure classification (not found / timeout / non-zero exit) hidden

package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"time"
)

// DefaultTimeout bounds a single invocation when the caller gives none.
const DefaultTimeout = 30 * time.Second

// waitDelay bounds how long Wait blocks on inherited pipes after the process
// has been killed.
const waitDelay = 500 * time.Millisecond

// Invocation describes one process run.
type Invocation struct {
	Path    string
	Args    []string
	Timeout time.Duration
	Env     map[string]string
	Dir     string
}

// Output is the captured result of an invocation.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs a tool and captures its output. Implementations never retry;
// retry policy belongs to the caller.
type Executor interface {
	Execute(ctx context.Context, inv Invocation) (Output, error)
}

// ProcessExecutor runs invocations as child processes, without a shell.
type ProcessExecutor struct{}

// NewProcessExecutor creates a process executor.
func NewProcessExecutor() *ProcessExecutor {
	return &ProcessExecutor{}
}

// baseEnv keeps pagers and localisation from altering help output.
var baseEnv = map[string]string{
	"PAGER":    "cat",
	"MANPAGER": "cat",
	"LC_ALL":   "C",
}

// Execute runs the invocation. On a non-zero exit the captured output is
// returned together with an *ExecutionError of kind ExecNonZeroExit.
func (e *ProcessExecutor) Execute(ctx context.Context, inv Invocation) (Output, error) {
	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Env = buildEnv(inv.Env)
	cmd.WaitDelay = waitDelay
	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctx.Err() == context.DeadlineExceeded {
		out.ExitCode = -1
		return out, &ExecutionError{Kind: ExecTimeout, Path: inv.Path, Args: inv.Args, Err: ctx.Err()}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, &ExecutionError{Kind: ExecNonZeroExit, Path: inv.Path, Args: inv.Args, ExitCode: out.ExitCode, Err: err}
		}
		// Missing binaries, permission errors and the like: the process never started.
		return out, &ExecutionError{Kind: ExecNotFound, Path: inv.Path, Args: inv.Args, Err: err}
	}

	return out, nil
}

func buildEnv(overrides map[string]string) []string {
	env := os.Environ()
	for _, k := range sortedKeys(baseEnv) {
		env = append(env, k+"="+baseEnv[k])
	}
	for _, k := range sortedKeys(overrides) {
		env = append(env, k+"="+overrides[k])
	}
	return env
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Verify ProcessExecutor implements Executor
var _ Executor = (*ProcessExecutor)(nil)
