// Package extract turns help text into contract-checked JSON using a language model.
//
// Information Hiding:
// - Prompt wording, few-shot examples and per-task instructions hidden
// - Contract schemas (embedded) and their compilation hidden
// - Provider error classification hidden behind ErrorKind
// - Rate limiting and per-call deadlines hidden inside LLMClient
package extract

import (
	"context"
	"encoding/json"
	"strings"
)

// Task selects what an extraction call asks for.
type Task string

const (
	// TaskCommand extracts one CommandDoc from a node's help text.
	TaskCommand Task = "command"
	// TaskSubcommands re-extracts a CommandDoc with emphasis on the child list.
	TaskSubcommands Task = "subcommands"
	// TaskReconcile checks a candidate against its help text and reports corrections.
	TaskReconcile Task = "reconcile"
	// TaskRevise rewrites a whole ToolDoc according to human instructions.
	TaskRevise Task = "revise"
)

// Request is one extraction call.
type Request struct {
	Task        Task
	CommandPath []string
	HelpText    string
	// Contract overrides the task's default contract.
	Contract *Contract
	// Feedback is the reason the previous attempt was rejected.
	Feedback string
	// Candidate is the document under reconcile or revision.
	Candidate json.RawMessage
	// Instructions are free-text issues raised by a reviewer.
	Instructions string
}

// Result is a contract-valid extraction.
type Result struct {
	Raw json.RawMessage
}

// Client performs extraction calls.
type Client interface {
	// Extract runs one call. Failures are *Error values, except for
	// cancellation of ctx, which is returned as is.
	Extract(ctx context.Context, req Request) (Result, error)
	// ModelID identifies the model behind the client; it is part of every
	// cache fingerprint.
	ModelID() string
}

// ContractFor returns the contract a request is checked against.
func (r Request) ContractFor() *Contract {
	if r.Contract != nil {
		return r.Contract
	}
	switch r.Task {
	case TaskReconcile:
		return ReconcileContract
	case TaskRevise:
		return ToolContract
	default:
		return CommandContract
	}
}

func (r Request) path() string {
	return strings.Join(r.CommandPath, " ")
}
