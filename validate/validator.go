// Package validate turns extraction results into trusted CommandDocs.
//
// Information Hiding:
// - Repair loop with failure feedback hidden
// - Transient retry with exponential backoff hidden
// - Double-check (reconcile) pass and its merge rules hidden
package validate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/richinex/cmdsaw/extract"
	"github.com/richinex/cmdsaw/model"
)

const (
	DefaultRepairAttempts   = 3
	DefaultTransientRetries = 3
	DefaultBaseBackoff      = 100 * time.Millisecond
	DefaultMaxBackoff       = 5 * time.Second

	maxFeedback = 600
)

// Options configures a Validator.
type Options struct {
	// RepairAttempts is the total number of extraction attempts on malformed output.
	RepairAttempts int
	// TransientRetries is how often a connect/timeout/rate-limit failure is re-issued.
	TransientRetries int
	// SkipDoubleCheck disables the reconcile pass, which runs by default.
	SkipDoubleCheck bool
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Logger      *log.Logger
}

// DefaultOptions returns the standard settings.
func DefaultOptions() Options {
	return Options{
		RepairAttempts:   DefaultRepairAttempts,
		TransientRetries: DefaultTransientRetries,
		BaseBackoff:      DefaultBaseBackoff,
		MaxBackoff:       DefaultMaxBackoff,
	}
}

// Input is one node to validate.
type Input struct {
	CommandPath []string
	HelpText    string
}

// Outcome is a validated node plus what it took to get there.
type Outcome struct {
	Doc      model.CommandDoc
	Retries  int
	Changes  []string
	Warnings []string
}

// ValidationError reports a node whose output never satisfied the contract.
type ValidationError struct {
	Attempts int
	Reason   string
	// Partial holds whatever decoded from the last attempt; name and path are always set.
	Partial model.CommandDoc
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed after %d attempts: %s", e.Attempts, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validator runs the repair loop and the double-check pass.
type Validator struct {
	client extract.Client
	opts   Options
	logger *log.Logger
}

// New creates a Validator. Zero-valued counts and durations take their defaults.
func New(client extract.Client, opts Options) *Validator {
	if opts.RepairAttempts <= 0 {
		opts.RepairAttempts = DefaultRepairAttempts
	}
	if opts.TransientRetries < 0 {
		opts.TransientRetries = 0
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = DefaultBaseBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Validator{client: client, opts: opts, logger: logger}
}

// Run extracts, repairs, normalizes and double-checks one node. On failure
// the returned Outcome still carries the retries spent.
func (v *Validator) Run(ctx context.Context, in Input) (Outcome, error) {
	var out Outcome

	doc, retries, err := v.extractCommand(ctx, in)
	out.Retries += retries
	if err != nil {
		return out, err
	}
	out.Warnings = append(out.Warnings, doc.Normalize()...)

	if !v.opts.SkipDoubleCheck {
		changes, retries, err := v.doubleCheck(ctx, in, &doc)
		out.Retries += retries
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			v.logger.Warn("double-check failed, keeping candidate", "path", pathString(in.CommandPath), "err", err)
			out.Warnings = append(out.Warnings, fmt.Sprintf("double-check failed: %v", err))
		}
		out.Changes = changes
	}

	out.Doc = doc
	return out, nil
}

func (v *Validator) extractCommand(ctx context.Context, in Input) (model.CommandDoc, int, error) {
	var (
		retries  int
		feedback string
		reason   string
		partial  json.RawMessage
		last     error
	)
	for attempt := 1; attempt <= v.opts.RepairAttempts; attempt++ {
		if attempt > 1 {
			retries++
		}
		res, n, err := v.call(ctx, extract.Request{
			Task:        extract.TaskCommand,
			CommandPath: in.CommandPath,
			HelpText:    in.HelpText,
			Feedback:    feedback,
		})
		retries += n
		if err == nil {
			doc, derr := decodeCommand(res.Raw, in.CommandPath)
			if derr == nil {
				return doc, retries, nil
			}
			err = &extract.Error{Kind: extract.KindMalformed, Partial: res.Raw, Err: derr}
		}

		var xerr *extract.Error
		if !errors.As(err, &xerr) || xerr.Kind != extract.KindMalformed {
			return model.CommandDoc{}, retries, err
		}
		last = xerr
		reason = xerr.Err.Error()
		if xerr.Partial != nil {
			partial = xerr.Partial
		}
		feedback = truncate(reason, maxFeedback)
		v.logger.Debug("malformed extraction", "path", pathString(in.CommandPath), "attempt", attempt, "reason", reason)
	}

	return model.CommandDoc{}, retries, &ValidationError{
		Attempts: v.opts.RepairAttempts,
		Reason:   reason,
		Partial:  partialCommand(partial, in.CommandPath),
		Err:      last,
	}
}

// call issues one extraction, re-issuing it on transient failures. The int
// result counts re-issued calls.
func (v *Validator) call(ctx context.Context, req extract.Request) (extract.Result, int, error) {
	retries := 0
	for {
		res, err := v.client.Extract(ctx, req)
		if err == nil {
			return res, retries, nil
		}
		kind, ok := extract.KindOf(err)
		if !ok || !kind.Transient() || retries >= v.opts.TransientRetries {
			return extract.Result{}, retries, err
		}

		delay := v.backoff(retries)
		v.logger.Warn("transient extraction failure, retrying",
			"task", req.Task, "path", pathString(req.CommandPath), "kind", kind, "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return extract.Result{}, retries, ctx.Err()
		case <-timer.C:
		}
		retries++
	}
}

// backoff returns BaseBackoff·2^n capped at MaxBackoff.
func (v *Validator) backoff(n int) time.Duration {
	d := v.opts.BaseBackoff
	for i := 0; i < n && d < v.opts.MaxBackoff; i++ {
		d *= 2
	}
	if d > v.opts.MaxBackoff {
		d = v.opts.MaxBackoff
	}
	return d
}

func (v *Validator) doubleCheck(ctx context.Context, in Input, doc *model.CommandDoc) ([]string, int, error) {
	candidate, err := json.Marshal(doc)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal candidate: %w", err)
	}
	res, retries, err := v.call(ctx, extract.Request{
		Task:        extract.TaskReconcile,
		CommandPath: in.CommandPath,
		HelpText:    in.HelpText,
		Candidate:   candidate,
	})
	if err != nil {
		return nil, retries, err
	}

	var report Report
	if err := json.Unmarshal(res.Raw, &report); err != nil {
		return nil, retries, fmt.Errorf("decode reconcile report: %w", err)
	}
	changes, warnings := report.Merge(doc)
	for _, w := range warnings {
		v.logger.Debug("reconcile", "path", pathString(in.CommandPath), "note", w)
	}
	return changes, retries, nil
}

func decodeCommand(raw json.RawMessage, path []string) (model.CommandDoc, error) {
	var doc model.CommandDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.CommandDoc{}, fmt.Errorf("decode command: %w", err)
	}
	stamp(&doc, path)
	return doc, nil
}

// partialCommand decodes as much of raw as it can.
func partialCommand(raw json.RawMessage, path []string) model.CommandDoc {
	var doc model.CommandDoc
	if len(raw) > 0 {
		// Type errors leave the offending field zero and decode the rest.
		_ = json.Unmarshal(raw, &doc)
	}
	stamp(&doc, path)
	doc.Normalize()
	return doc
}

// stamp forces identity fields from the request and drops fields the model
// has no say in.
func stamp(doc *model.CommandDoc, path []string) {
	doc.Path = append([]string{}, path...)
	if len(path) > 0 {
		doc.Name = path[len(path)-1]
	}
	doc.Children = nil
	doc.HelpText = ""
	doc.Kind = ""
}

func pathString(path []string) string {
	return model.CommandDoc{Path: path}.PathString()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
