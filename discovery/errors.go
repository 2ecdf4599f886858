package discovery

import (
	"fmt"
	"strings"
)

// DiscoveryKind classifies an internal consistency guard.
type DiscoveryKind string

const (
	// CycleDetected marks a child whose name is already on its ancestor path.
	CycleDetected DiscoveryKind = "cycle-detected"
	// DepthExceeded marks a child whose path would pass the depth bound.
	DepthExceeded DiscoveryKind = "depth-exceeded"
)

// DiscoveryError reports a child that was not descended into. It is
// recorded as a warning on the parent, never returned from Discover.
type DiscoveryError struct {
	Kind DiscoveryKind
	// Path is the parent's command path; Name is the refused child.
	Path []string
	Name string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%s: %s under %q", e.Kind, e.Name, strings.Join(e.Path, " "))
}

func (e *DiscoveryError) Unwrap() error { return nil }

// FatalError ends a run without a result: the tool could not be resolved or
// its root help text could not be obtained.
type FatalError struct {
	Tool string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("discovery of %s failed: %v", e.Tool, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
