package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestExecuteCapturesStdoutAndStderr(t *testing.T) {
	e := NewProcessExecutor()
	out, err := e.Execute(context.Background(), Invocation{
		Path: "sh",
		Args: []string{"-c", "echo out; echo err 1>&2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out.Stdout) != "out" {
		t.Errorf("expected stdout 'out', got %q", out.Stdout)
	}
	if strings.TrimSpace(out.Stderr) != "err" {
		t.Errorf("expected stderr 'err', got %q", out.Stderr)
	}
	if out.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", out.ExitCode)
	}
}

func TestExecuteSetsPagerEnvironment(t *testing.T) {
	e := NewProcessExecutor()
	out, err := e.Execute(context.Background(), Invocation{
		Path: "sh",
		Args: []string{"-c", "echo $PAGER $LC_ALL $EXTRA"},
		Env:  map[string]string{"EXTRA": "yes"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out.Stdout); got != "cat C yes" {
		t.Errorf("expected 'cat C yes', got %q", got)
	}
}

func TestExecuteNonZeroExitKeepsOutput(t *testing.T) {
	e := NewProcessExecutor()
	out, err := e.Execute(context.Background(), Invocation{
		Path: "sh",
		Args: []string{"-c", "echo usage: tool; exit 3"},
	})
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecutionError, got %v", err)
	}
	if execErr.Kind != ExecNonZeroExit {
		t.Errorf("expected non-zero-exit, got %s", execErr.Kind)
	}
	if out.ExitCode != 3 || execErr.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d / %d", out.ExitCode, execErr.ExitCode)
	}
	if !strings.Contains(out.Stdout, "usage: tool") {
		t.Errorf("expected output to be kept, got %q", out.Stdout)
	}
}

func TestExecuteTimeout(t *testing.T) {
	e := NewProcessExecutor()
	start := time.Now()
	_, err := e.Execute(context.Background(), Invocation{
		Path:    "sh",
		Args:    []string{"-c", "exec sleep 5"},
		Timeout: 100 * time.Millisecond,
	})
	if KindOf(err) != ExecTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("timeout was not enforced promptly: %v", time.Since(start))
	}
}

func TestExecuteNotFound(t *testing.T) {
	e := NewProcessExecutor()
	_, err := e.Execute(context.Background(), Invocation{
		Path: "definitely-not-a-real-binary-cmdsaw",
	})
	if KindOf(err) != ExecNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}
