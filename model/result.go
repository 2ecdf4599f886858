package model

// Outcome is the per-node result of discovery.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeCacheHit  Outcome = "skipped-cache-hit"
)

// CacheStatus records how the cache participated in a node.
type CacheStatus string

const (
	CacheHit      CacheStatus = "hit"
	CacheMiss     CacheStatus = "miss"
	CacheBypassed CacheStatus = "bypassed"
)

// ReviewOutcome records what a human reviewer did with a node.
type ReviewOutcome string

const (
	ReviewNone      ReviewOutcome = "none"
	ReviewConfirmed ReviewOutcome = "confirmed"
	ReviewModified  ReviewOutcome = "modified"
)

// ErrorRecord is a classified error attached to a node.
type ErrorRecord struct {
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// NodeDiagnostic is the diagnostics entry for one discovered command.
type NodeDiagnostic struct {
	Path     []string      `json:"path" yaml:"path"`
	Outcome  Outcome       `json:"outcome" yaml:"outcome"`
	Retries  int           `json:"retries" yaml:"retries"`
	Cache    CacheStatus   `json:"cache" yaml:"cache"`
	Review   ReviewOutcome `json:"review" yaml:"review"`
	Warnings []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors   []ErrorRecord `json:"errors,omitempty" yaml:"errors,omitempty"`
	Changes  []string      `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// Summary aggregates the per-node diagnostics of a run.
type Summary struct {
	VisitedCommands  int  `json:"visited_commands" yaml:"visited_commands"`
	Succeeded        int  `json:"succeeded" yaml:"succeeded"`
	Failed           int  `json:"failed" yaml:"failed"`
	CacheHits        int  `json:"cache_hits" yaml:"cache_hits"`
	Timeouts         int  `json:"timeouts" yaml:"timeouts"`
	Retries          int  `json:"retries" yaml:"retries"`
	VersionExtracted bool `json:"version_extracted" yaml:"version_extracted"`
}

// CmdSawResult is the output envelope handed to code generation.
type CmdSawResult struct {
	SchemaVersion int              `json:"schema_version" yaml:"schema_version"`
	Tool          ToolDoc          `json:"tool" yaml:"tool"`
	Diagnostics   []NodeDiagnostic `json:"diagnostics" yaml:"diagnostics"`
	Summary       Summary          `json:"summary" yaml:"summary"`
}

// Summarize recomputes Summary from the tool document and diagnostics.
// Timeouts counts error records of kind "timeout".
func (r *CmdSawResult) Summarize() {
	s := Summary{VersionExtracted: r.Tool.Version != nil}
	for _, d := range r.Diagnostics {
		s.VisitedCommands++
		s.Retries += d.Retries
		switch d.Outcome {
		case OutcomeSucceeded:
			s.Succeeded++
		case OutcomeFailed:
			s.Failed++
		case OutcomeCacheHit:
			s.CacheHits++
		}
		for _, e := range d.Errors {
			if e.Kind == "timeout" {
				s.Timeouts++
			}
		}
	}
	r.Summary = s
}

// Diagnostic returns the diagnostics entry for path, or nil.
func (r *CmdSawResult) Diagnostic(path ...string) *NodeDiagnostic {
	for i := range r.Diagnostics {
		if equalPath(r.Diagnostics[i].Path, path) {
			return &r.Diagnostics[i]
		}
	}
	return nil
}

func equalPath(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
