// Package main provides the cmdsaw CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/cmdsaw/cli"
	"github.com/richinex/cmdsaw/config"
)

var (
	// Global flags
	provider string
	modelID  string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "cmdsaw",
		Short: "Discover the command surface of a CLI tool",
		Long: `cmdsaw runs a tool's help, asks an LLM to extract a structured description
of its commands, options and positionals, validates the answer against a
schema, and walks subcommands to build a documented command tree.

Extractions are cached by help text, so repeat runs are fast and identical.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider ("+joinProviders()+")")
	rootCmd.PersistentFlags().StringVarP(&modelID, "model", "m", "", "Model override for the selected provider")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(discoverCmd())
	rootCmd.AddCommand(cacheCmd())
	rootCmd.AddCommand(providersCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func globalOptions() cli.Options {
	return cli.Options{Provider: provider, Model: modelID, Verbose: verbose}
}

func discoverCmd() *cobra.Command {
	var (
		dopts        cli.DiscoverOptions
		maxDepth     int
		concurrency  int
		timeout      time.Duration
		helpFlags    []string
		helpFormat   string
		textFallback bool
		noCache      bool
		cachePath    string
		noDouble     bool
	)

	cmd := &cobra.Command{
		Use:   "discover <tool>",
		Short: "Discover a tool's commands and print the result",
		Long: `Discover a tool's command tree.

The tool is resolved on PATH. Each command's help is extracted by the
configured LLM, validated, cached and, with --review, confirmed interactively.
Flags override the CMDSAW_* environment variables.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := globalOptions()
			settings, err := cli.LoadSettings(opts)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("max-depth") {
				settings.Discovery.MaxDepth = maxDepth
			}
			if flags.Changed("concurrency") {
				settings.Discovery.Concurrency = concurrency
			}
			if flags.Changed("timeout") {
				settings.Discovery.Timeout = timeout
			}
			if flags.Changed("help-flags") {
				settings.Discovery.HelpFlags = helpFlags
			}
			if flags.Changed("help-format") {
				settings.Discovery.HelpFormat = helpFormat
			}
			if flags.Changed("text-fallback") {
				settings.Discovery.TextFallback = textFallback
			}
			if flags.Changed("no-double-check") {
				settings.Discovery.DoubleCheck = !noDouble
			}
			if flags.Changed("no-cache") {
				settings.Cache.Disabled = noCache
			}
			if flags.Changed("cache-path") {
				settings.Cache.Path = cachePath
			}
			if settings.Discovery.MaxDepth < 0 {
				return fmt.Errorf("--max-depth must not be negative")
			}
			if settings.Discovery.Concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			if settings.Discovery.Timeout <= 0 {
				return fmt.Errorf("--timeout must be positive")
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cli.Discover(ctx, args[0], settings, dopts, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&maxDepth, "max-depth", 1, "Maximum subcommand depth below the tool")
	f.IntVar(&concurrency, "concurrency", 4, "Maximum concurrent help probes and extractions")
	f.DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for each help invocation")
	f.StringSliceVar(&helpFlags, "help-flags", nil, "Help flags to try, in order (default --help,-h,help)")
	f.StringVar(&helpFormat, "help-format", "subcommand-help", "How subcommand help is requested (subcommand-help, help-subcommand, subcommand-only)")
	f.BoolVar(&textFallback, "text-fallback", false, "Scan help text for subcommands when extraction lists none")
	f.BoolVar(&noDouble, "no-double-check", false, "Skip the second extraction pass")
	f.BoolVar(&noCache, "no-cache", false, "Do not read or write the extraction cache")
	f.StringVar(&cachePath, "cache-path", config.DefaultCachePath(), "Extraction cache database")
	f.BoolVar(&dopts.Bust, "bust", false, "Ignore cached extractions and store fresh ones")
	f.StringVarP(&dopts.Format, "format", "f", cli.FormatJSON, "Output format (json, yaml)")
	f.StringVarP(&dopts.Output, "output", "o", "", "Write the result to a file instead of stdout")
	f.BoolVar(&dopts.Review, "review", false, "Review the root's subcommand list interactively")
	f.BoolVar(&dopts.ReviewDocument, "review-doc", false, "Review the finished document interactively")
	f.BoolVar(&dopts.IncludeHelpText, "include-help", false, "Keep raw help text in the result")

	return cmd
}

func cacheCmd() *cobra.Command {
	var cachePath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the extraction cache",
	}
	cmd.PersistentFlags().StringVar(&cachePath, "cache-path", "", "Extraction cache database (default from CMDSAW_CACHE_PATH)")

	resolve := func() (string, error) {
		if cachePath != "" {
			return cachePath, nil
		}
		settings, err := cli.LoadSettings(globalOptions())
		if err != nil {
			return "", err
		}
		return settings.Cache.Path, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls [tool]",
		Short: "List cache entries, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolve()
			if err != nil {
				return err
			}
			tool := ""
			if len(args) == 1 {
				tool = args[0]
			}
			return cli.ListCache(commandContext(cmd), os.Stdout, path, tool)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Summarize the cache contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolve()
			if err != nil {
				return err
			}
			return cli.PrintCacheStats(commandContext(cmd), os.Stdout, path)
		},
	})

	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List available LLM providers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cli.ListProviders(os.Stdout)
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func joinProviders() string {
	out := ""
	for i, p := range config.SupportedProviders() {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
