package runner

import (
	"errors"
	"fmt"
	"strings"
)

// ExecKind classifies an execution failure.
type ExecKind string

const (
	ExecNotFound    ExecKind = "not-found"
	ExecTimeout     ExecKind = "timeout"
	ExecNonZeroExit ExecKind = "non-zero-exit"
)

// ExecutionError is returned by an Executor when a tool cannot be run to a
// clean exit.
type ExecutionError struct {
	Kind     ExecKind
	Path     string
	Args     []string
	ExitCode int
	Err      error
}

func (e *ExecutionError) Error() string {
	cmd := strings.TrimSpace(e.Path + " " + strings.Join(e.Args, " "))
	switch e.Kind {
	case ExecNonZeroExit:
		return fmt.Sprintf("%s: exited with code %d", cmd, e.ExitCode)
	case ExecTimeout:
		return fmt.Sprintf("%s: timed out", cmd)
	default:
		return fmt.Sprintf("%s: %s: %v", cmd, e.Kind, e.Err)
	}
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// KindOf returns the ExecKind of err, or "" when err is not an ExecutionError.
func KindOf(err error) ExecKind {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Kind
	}
	return ""
}
