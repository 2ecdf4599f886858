// Package discovery walks a tool's command tree and assembles a CmdSawResult.
//
// Information Hiding:
// - Breadth-first traversal with a per-level barrier hidden
// - Bounded worker pool (one shared semaphore) hidden
// - Child filtering: dedup, denylist, cycle and depth guards hidden
// - Per-node failure containment and diagnostics bookkeeping hidden
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/richinex/cmdsaw/cache"
	"github.com/richinex/cmdsaw/extract"
	"github.com/richinex/cmdsaw/model"
	"github.com/richinex/cmdsaw/runner"
	"github.com/richinex/cmdsaw/validate"
)

const (
	DefaultMaxDepth    = 1
	DefaultConcurrency = 4
)

// SubcommandReviewer lets a human adjust the root's child list before
// discovery descends into it.
type SubcommandReviewer interface {
	ReviewSubcommands(ctx context.Context, cmd model.CommandDoc, names []string) ([]string, model.ReviewOutcome, error)
}

// DocumentReviewer lets a human adjust the assembled document.
type DocumentReviewer interface {
	ReviewDocument(ctx context.Context, doc model.ToolDoc) (model.ToolDoc, model.ReviewOutcome, error)
}

// Options configures an Engine.
type Options struct {
	// MaxDepth bounds descent: the root is depth 0.
	MaxDepth int
	// Concurrency is the width of the shared worker pool.
	Concurrency int
	// TextFallback scans help text for child names when extraction lists none.
	TextFallback bool
	// IncludeHelpText keeps raw help text on each CommandDoc.
	IncludeHelpText bool

	Probe    runner.ProbeConfig
	Validate validate.Options

	SubcommandReviewer SubcommandReviewer
	DocumentReviewer   DocumentReviewer

	// LookPath resolves the tool name; nil uses exec.LookPath.
	LookPath func(file string) (string, error)
	Logger   *log.Logger
}

// Engine discovers command trees.
type Engine struct {
	executor  runner.Executor
	client    extract.Client
	validator *validate.Validator
	cache     *cache.Cache
	opts      Options
	logger    *log.Logger
}

// NewEngine creates an engine. store may be nil to disable caching.
func NewEngine(executor runner.Executor, client extract.Client, store *cache.Cache, opts Options) *Engine {
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Validate.Logger == nil {
		opts.Validate.Logger = logger
	}
	return &Engine{
		executor:  executor,
		client:    client,
		validator: validate.New(client, opts.Validate),
		cache:     store,
		opts:      opts,
		logger:    logger,
	}
}

// node is one command in the in-progress tree. It is mutated only by the
// worker visiting it, and linked to its children after the level barrier.
type node struct {
	path      []string
	ancestors map[string]bool
	helpText  string
	doc       model.CommandDoc
	diag      model.NodeDiagnostic
	failed    bool
	children  []*node
}

// run is the state of one Discover call.
type run struct {
	tool       string
	executable string
	prober     *runner.Prober
	sem        *semaphore.Weighted
}

// Discover walks tool breadth-first and returns the assembled result. It
// fails only when the tool cannot be resolved, its root help text cannot be
// obtained, ctx is cancelled, or a reviewer aborts; no partial result is
// returned in those cases.
func (e *Engine) Discover(ctx context.Context, tool string) (*model.CmdSawResult, error) {
	executable, err := e.opts.LookPath(tool)
	if err != nil {
		return nil, &FatalError{Tool: tool, Err: &runner.ExecutionError{Kind: runner.ExecNotFound, Path: tool, Err: err}}
	}
	r := &run{
		tool:       filepath.Base(tool),
		executable: executable,
		prober:     runner.NewProber(e.executor, executable, e.opts.Probe),
		sem:        semaphore.NewWeighted(int64(e.opts.Concurrency)),
	}
	e.logger.Debug("discovering", "tool", r.tool, "executable", executable, "max_depth", e.opts.MaxDepth, "concurrency", e.opts.Concurrency)

	var version *string
	if v, ok := r.prober.Version(ctx); ok {
		version = &v
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := &node{path: []string{r.tool}, ancestors: map[string]bool{r.tool: true}}
	level := []*node{root}
	for depth := 0; len(level) > 0; depth++ {
		if err := e.runLevel(ctx, r, level); err != nil {
			return nil, err
		}
		var next []*node
		for _, n := range level {
			if err := e.expand(ctx, n, depth, n == root); err != nil {
				return nil, err
			}
			next = append(next, n.children...)
		}
		level = next
	}

	doc := model.ToolDoc{
		Name:        r.tool,
		Version:     version,
		Description: root.doc.Description,
		Executable:  executable,
		Commands:    []model.CommandDoc{assemble(root)},
	}
	diags := make(map[string]model.NodeDiagnostic)
	collectDiagnostics(root, diags)

	if e.opts.DocumentReviewer != nil {
		reviewed, outcome, err := e.opts.DocumentReviewer.ReviewDocument(ctx, doc.Clone())
		if err != nil {
			return nil, fmt.Errorf("document review: %w", err)
		}
		if outcome == model.ReviewModified {
			markReviewed(doc, reviewed, diags)
			doc = reviewed
		} else if outcome == model.ReviewConfirmed {
			markReviewed(doc, doc, diags)
		}
	}

	result := &model.CmdSawResult{SchemaVersion: model.SchemaVersion, Tool: doc}
	doc.Walk(func(cmd *model.CommandDoc) {
		d, ok := diags[pathKey(cmd.Path)]
		if !ok {
			d = model.NodeDiagnostic{
				Path:     cmd.Path,
				Outcome:  model.OutcomeSucceeded,
				Cache:    model.CacheBypassed,
				Review:   model.ReviewModified,
				Warnings: []string{"added during review"},
			}
		}
		result.Diagnostics = append(result.Diagnostics, d)
	})
	result.Summarize()
	e.logger.Debug("discovery finished", "tool", r.tool,
		"visited", result.Summary.VisitedCommands, "failed", result.Summary.Failed, "cache_hits", result.Summary.CacheHits)
	return result, nil
}

// runLevel visits every node of one level on the shared pool and waits for
// all of them to settle.
func (e *Engine) runLevel(ctx context.Context, r *run, level []*node) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, n := range level {
		g.Go(func() error {
			if err := r.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer r.sem.Release(1)
			return e.visit(gctx, r, n)
		})
	}
	return g.Wait()
}

// visit runs one node's pipeline: help, cache, extract and validate.
// Node-level failures are recorded on the node; only root help failure and
// cancellation are returned.
func (e *Engine) visit(ctx context.Context, r *run, n *node) error {
	n.diag = model.NodeDiagnostic{Path: n.path, Cache: model.CacheBypassed, Review: model.ReviewNone}
	n.doc = emptyDoc(n.path)

	help, err := r.prober.Help(ctx, n.path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(n.path) == 1 {
			return &FatalError{Tool: r.tool, Err: err}
		}
		kind := string(runner.KindOf(err))
		if kind == "" {
			kind = "execution"
		}
		e.fail(n, kind, err)
		return nil
	}
	n.helpText = help

	key := cache.Key{
		ToolPath:        r.executable,
		CommandPath:     n.path,
		HelpText:        help,
		ContractVersion: extract.ContractVersion,
		ModelID:         e.client.ModelID(),
	}
	cached, status, cerr := e.cache.Lookup(ctx, key)
	n.diag.Cache = status
	if cerr != nil {
		n.diag.Warnings = append(n.diag.Warnings, cerr.Error())
	}
	if status == model.CacheHit {
		cached.Path = append([]string{}, n.path...)
		cached.Name = n.path[len(n.path)-1]
		n.doc = cached
		n.diag.Outcome = model.OutcomeCacheHit
		return nil
	}

	out, err := e.validator.Run(ctx, validate.Input{CommandPath: n.path, HelpText: help})
	n.diag.Retries = out.Retries
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			n.doc = verr.Partial
			e.fail(n, "validation", err)
			return nil
		}
		kind := "extraction"
		if k, ok := extract.KindOf(err); ok {
			kind = string(k)
		}
		e.fail(n, kind, err)
		return nil
	}

	n.doc = out.Doc
	n.diag.Outcome = model.OutcomeSucceeded
	n.diag.Warnings = append(n.diag.Warnings, out.Warnings...)
	n.diag.Changes = out.Changes
	if err := e.cache.Store(ctx, key, out.Doc); err != nil {
		n.diag.Warnings = append(n.diag.Warnings, err.Error())
	}
	return nil
}

func (e *Engine) fail(n *node, kind string, err error) {
	e.logger.Warn("command failed", "path", strings.Join(n.path, " "), "kind", kind, "err", err)
	n.failed = true
	n.diag.Outcome = model.OutcomeFailed
	n.diag.Errors = append(n.diag.Errors, model.ErrorRecord{Kind: kind, Message: err.Error()})
}

// expand decides a visited node's children. It runs after the level
// barrier, so nodes are expanded in source order.
func (e *Engine) expand(ctx context.Context, n *node, depth int, isRoot bool) error {
	if e.opts.IncludeHelpText {
		n.doc.HelpText = n.helpText
	}
	n.doc.Kind = model.KindTerminal
	if n.failed {
		n.doc.Subcommands = e.filterChildren(n, n.doc.Subcommands)
		return nil
	}

	names := e.filterChildren(n, n.doc.Subcommands)
	if len(names) == 0 && e.opts.TextFallback && n.helpText != "" {
		if scanned := e.filterChildren(n, scanSubcommands(n.helpText)); len(scanned) > 0 {
			n.diag.Warnings = append(n.diag.Warnings,
				fmt.Sprintf("subcommands %s found by help text scan (lower confidence)", strings.Join(scanned, ", ")))
			names = scanned
		}
	}

	if isRoot && e.opts.SubcommandReviewer != nil && len(names) > 0 && depth < e.opts.MaxDepth {
		cmd := n.doc.Clone()
		cmd.Subcommands = names
		cmd.HelpText = n.helpText
		reviewed, outcome, err := e.opts.SubcommandReviewer.ReviewSubcommands(ctx, cmd, names)
		if err != nil {
			return fmt.Errorf("subcommand review: %w", err)
		}
		n.diag.Review = outcome
		if outcome == model.ReviewModified {
			names = e.filterChildren(n, reviewed)
		}
	}
	n.doc.Subcommands = names

	if depth >= e.opts.MaxDepth || len(names) == 0 {
		return nil
	}
	n.doc.Kind = model.KindRouter
	for _, name := range names {
		childPath := append(append([]string{}, n.path...), name)
		if len(childPath) > e.opts.MaxDepth+1 {
			derr := &DiscoveryError{Kind: DepthExceeded, Path: n.path, Name: name}
			n.diag.Warnings = append(n.diag.Warnings, derr.Error())
			continue
		}
		ancestors := make(map[string]bool, len(n.ancestors)+1)
		for a := range n.ancestors {
			ancestors[a] = true
		}
		ancestors[name] = true
		n.children = append(n.children, &node{path: childPath, ancestors: ancestors})
	}
	if len(n.children) == 0 {
		n.doc.Kind = model.KindTerminal
	}
	return nil
}

// denied are entries tools list among their commands that are not commands
// worth documenting.
var denied = map[string]bool{
	"help":       true,
	"version":    true,
	"usage":      true,
	"completion": true,
}

// filterChildren drops empty, denied, duplicate and cyclic names, keeping
// the first occurrence and the reported order.
func (e *Engine) filterChildren(n *node, names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" || strings.HasPrefix(name, "-") || denied[strings.ToLower(name)] {
			continue
		}
		if seen[name] {
			n.diag.Warnings = append(n.diag.Warnings, fmt.Sprintf("dropped duplicate subcommand %s", name))
			continue
		}
		seen[name] = true
		if n.ancestors[name] {
			derr := &DiscoveryError{Kind: CycleDetected, Path: n.path, Name: name}
			n.diag.Warnings = append(n.diag.Warnings, derr.Error())
			continue
		}
		out = append(out, name)
	}
	return out
}

// assemble converts the node tree into CommandDocs, children in source order.
func assemble(n *node) model.CommandDoc {
	doc := n.doc
	doc.Children = nil
	if len(n.children) > 0 {
		doc.Children = make([]model.CommandDoc, 0, len(n.children))
		for _, c := range n.children {
			doc.Children = append(doc.Children, assemble(c))
		}
	}
	return doc
}

func collectDiagnostics(n *node, into map[string]model.NodeDiagnostic) {
	into[pathKey(n.path)] = n.diag
	for _, c := range n.children {
		collectDiagnostics(c, into)
	}
}

// markReviewed records the document review on every node that survived it.
func markReviewed(before, after model.ToolDoc, diags map[string]model.NodeDiagnostic) {
	after.Walk(func(cmd *model.CommandDoc) {
		key := pathKey(cmd.Path)
		d, ok := diags[key]
		if !ok {
			return
		}
		prev := before.Find(cmd.Path)
		switch {
		case prev == nil || !sameNode(*prev, *cmd):
			d.Review = model.ReviewModified
		case d.Review == model.ReviewNone:
			d.Review = model.ReviewConfirmed
		}
		diags[key] = d
	})
}

// sameNode compares two commands ignoring their children.
func sameNode(a, b model.CommandDoc) bool {
	a.Children, b.Children = nil, nil
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}

func emptyDoc(path []string) model.CommandDoc {
	return model.CommandDoc{
		Name:        path[len(path)-1],
		Path:        append([]string{}, path...),
		Options:     []model.OptionDoc{},
		Positionals: []model.PositionalDoc{},
		Subcommands: []string{},
	}
}

func pathKey(path []string) string {
	return strings.Join(path, "\x00")
}
