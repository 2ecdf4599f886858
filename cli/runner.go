// Command execution for CLI commands.
//
// Information Hiding:
// - Provider, cache, engine and reviewer wiring hidden
// - Output formatting (JSON/YAML, cache tables) hidden
// - Flag-over-environment precedence hidden behind Settings

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/richinex/cmdsaw/cache"
	"github.com/richinex/cmdsaw/config"
	"github.com/richinex/cmdsaw/discovery"
	"github.com/richinex/cmdsaw/extract"
	"github.com/richinex/cmdsaw/llm"
	"github.com/richinex/cmdsaw/model"
	"github.com/richinex/cmdsaw/review"
	"github.com/richinex/cmdsaw/runner"
	"github.com/richinex/cmdsaw/validate"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Model    string
	Verbose  bool
}

// DiscoverOptions holds the per-run switches of the discover command.
type DiscoverOptions struct {
	Format          string
	Output          string
	Review          bool
	ReviewDocument  bool
	IncludeHelpText bool
	Bust            bool
}

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// LoadSettings reads configuration for the selected provider and applies a
// model override.
func LoadSettings(opts Options) (config.Settings, error) {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return config.Settings{}, err
	}
	if opts.Model != "" {
		settings.LLM.Model = opts.Model
	}
	return settings, nil
}

// Discover runs discovery for tool and writes the result.
func Discover(ctx context.Context, tool string, settings config.Settings, dopts DiscoverOptions, opts Options) error {
	format, err := parseFormat(dopts.Format)
	if err != nil {
		return err
	}
	helpFormat, err := runner.ParseHelpFormat(settings.Discovery.HelpFormat)
	if err != nil {
		return err
	}
	logger := newLogger(opts.Verbose)

	provider, err := createProvider(settings.LLM)
	if err != nil {
		return err
	}
	var limiter *rate.Limiter
	if settings.LLM.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(settings.LLM.RequestsPerSecond), 1)
	}
	client := extract.NewLLMClient(provider, extract.LLMOptions{
		Limiter:     limiter,
		CallTimeout: settings.LLM.CallTimeout,
		Logger:      logger,
	})

	var store *cache.Cache
	if !settings.Cache.Disabled {
		s, err := cache.OpenSQLite(settings.Cache.Path)
		if err != nil {
			return err
		}
		store = cache.New(s, cache.Options{Bust: dopts.Bust, Logger: logger})
		defer store.Close()
	}

	engineOpts := discovery.Options{
		MaxDepth:        settings.Discovery.MaxDepth,
		Concurrency:     settings.Discovery.Concurrency,
		TextFallback:    settings.Discovery.TextFallback,
		IncludeHelpText: dopts.IncludeHelpText,
		Probe: runner.ProbeConfig{
			HelpFlags: settings.Discovery.HelpFlags,
			Format:    helpFormat,
			Timeout:   settings.Discovery.Timeout,
		},
		Validate: validate.Options{
			RepairAttempts:   settings.Discovery.RepairAttempts,
			TransientRetries: settings.Discovery.TransientRetries,
			SkipDoubleCheck:  !settings.Discovery.DoubleCheck,
			BaseBackoff:      validate.DefaultBaseBackoff,
			MaxBackoff:       validate.DefaultMaxBackoff,
			Logger:           logger,
		},
		Logger: logger,
	}
	if dopts.Review || dopts.ReviewDocument {
		term, err := review.NewTerminalPrompter()
		if err != nil {
			return err
		}
		defer term.Close()
		if dopts.Review {
			engineOpts.SubcommandReviewer = review.NewSubcommandReview(term.Lists(), client, logger)
		}
		if dopts.ReviewDocument {
			engineOpts.DocumentReviewer = review.NewDocumentReview(term.Documents(), client, logger)
		}
	}

	engine := discovery.NewEngine(runner.NewProcessExecutor(), client, store, engineOpts)
	logger.Info("discovering", "tool", tool, "provider", settings.LLM.Provider, "model", settings.LLM.Model)
	result, err := engine.Discover(ctx, tool)
	if err != nil {
		if errors.Is(err, review.ErrAborted) {
			return fmt.Errorf("discovery of %s aborted during review", tool)
		}
		return err
	}

	if err := writeOutput(dopts.Output, result, format); err != nil {
		return err
	}
	printSummary(os.Stderr, result)
	return nil
}

func writeOutput(path string, result *model.CmdSawResult, format string) error {
	if path == "" || path == "-" {
		return writeResult(os.Stdout, result, format)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeResult(f, result, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeResult encodes result as indented JSON or YAML.
func writeResult(w io.Writer, result *model.CmdSawResult, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	default:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
}

func parseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json or yaml)", s)
	}
}

func printSummary(w io.Writer, result *model.CmdSawResult) {
	s := result.Summary
	fmt.Fprintf(w, "Discovered %s: %d commands, %d succeeded, %d failed, %d from cache, %d retries\n",
		result.Tool.Name, s.VisitedCommands, s.Succeeded, s.Failed, s.CacheHits, s.Retries)
	for _, d := range result.Diagnostics {
		for _, e := range d.Errors {
			fmt.Fprintf(w, "  %s: %s: %s\n", strings.Join(d.Path, " "), e.Kind, truncateString(e.Message, maxErrorLen))
		}
	}
}

// ListCache prints cache entries, newest first, optionally for one tool.
func ListCache(ctx context.Context, w io.Writer, path, tool string) error {
	store, err := openCache(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Entries(ctx, tool)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No cache entries.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tCOMMAND\tMODEL\tCONTRACT\tFINGERPRINT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime),
			strings.Join(e.CommandPath, " "),
			e.ModelID,
			e.ContractVersion,
			truncateString(e.Fingerprint, fingerprintLen))
	}
	return tw.Flush()
}

// CacheStats summarizes the cache contents.
type CacheStats struct {
	Entries      int
	Fingerprints int
	Tools        []string
	Models       []string
	Newest       time.Time
}

// ComputeCacheStats reads every entry and aggregates them.
func ComputeCacheStats(ctx context.Context, path string) (CacheStats, error) {
	store, err := openCache(path)
	if err != nil {
		return CacheStats{}, err
	}
	defer store.Close()

	entries, err := store.Entries(ctx, "")
	if err != nil {
		return CacheStats{}, err
	}
	fingerprints := make(map[string]bool)
	tools := make(map[string]bool)
	models := make(map[string]bool)
	stats := CacheStats{Entries: len(entries)}
	for _, e := range entries {
		fingerprints[e.Fingerprint] = true
		tools[e.ToolPath] = true
		models[e.ModelID] = true
		if e.CreatedAt.After(stats.Newest) {
			stats.Newest = e.CreatedAt
		}
	}
	stats.Fingerprints = len(fingerprints)
	stats.Tools = sortedKeys(tools)
	stats.Models = sortedKeys(models)
	return stats, nil
}

// PrintCacheStats prints ComputeCacheStats for the cache at path.
func PrintCacheStats(ctx context.Context, w io.Writer, path string) error {
	stats, err := ComputeCacheStats(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Cache: %s\n", path)
	fmt.Fprintf(w, "  Entries: %d\n", stats.Entries)
	fmt.Fprintf(w, "  Distinct fingerprints: %d\n", stats.Fingerprints)
	fmt.Fprintf(w, "  Tools: %s\n", joinOrNone(stats.Tools))
	fmt.Fprintf(w, "  Models: %s\n", joinOrNone(stats.Models))
	if !stats.Newest.IsZero() {
		fmt.Fprintf(w, "  Newest entry: %s\n", stats.Newest.Local().Format(time.DateTime))
	}
	return nil
}

// ListProviders prints the supported providers with their default models
// and whether their API key is set.
func ListProviders(w io.Writer) {
	fmt.Fprintln(w, "Available providers:")
	fmt.Fprintln(w)
	for _, p := range llm.ProviderTypes {
		modelName, err := config.ModelFor(p.String())
		if err != nil {
			modelName = p.DefaultModel()
		}
		fmt.Fprintf(w, "  %s\n", p)
		fmt.Fprintf(w, "    model: %s\n", modelName)
		switch env := p.EnvVar(); {
		case env == "":
			fmt.Fprintf(w, "    api key: not required (host %s)\n", llm.OllamaBaseURL(os.Getenv("OLLAMA_HOST")))
		case os.Getenv(env) != "":
			fmt.Fprintf(w, "    api key: %s is set\n", env)
		default:
			fmt.Fprintf(w, "    api key: %s is not set\n", env)
		}
		fmt.Fprintln(w)
	}
}

// Helper functions

const (
	maxErrorLen    = 160
	fingerprintLen = 12
)

func createProvider(cfg config.LLMConfig) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(cfg.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(cfg.Provider)
	if err != nil {
		return nil, err
	}

	return llm.NewProviderBuilder(providerType).
		Model(cfg.Model).
		Host(cfg.Host).
		MaxTokens(cfg.MaxTokens).
		Temperature(float32(cfg.Temperature)).
		APIKey(apiKey)
}

func openCache(path string) (*cache.Cache, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no cache at %s: %w", path, err)
	}
	s, err := cache.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return cache.New(s, cache.Options{}), nil
}

func newLogger(verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Prefix:          "cmdsaw",
		ReportTimestamp: verbose,
	})
}

// truncateString truncates a string to maxLen runes, preserving UTF-8 boundaries.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// Verify the review adapters and extraction client satisfy the interfaces
// the engine depends on.
var (
	_ discovery.SubcommandReviewer = (*review.SubcommandReview)(nil)
	_ discovery.DocumentReviewer   = (*review.DocumentReview)(nil)
	_ extract.Client               = (*extract.LLMClient)(nil)
)
