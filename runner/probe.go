package runner

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// HelpFormat selects how help for a subcommand is requested.
type HelpFormat string

const (
	// FormatSubcommandHelp runs `tool sub --help`.
	FormatSubcommandHelp HelpFormat = "subcommand-help"
	// FormatHelpSubcommand runs `tool help sub`.
	FormatHelpSubcommand HelpFormat = "help-subcommand"
	// FormatSubcommandOnly runs `tool sub` and relies on it printing usage.
	FormatSubcommandOnly HelpFormat = "subcommand-only"
)

// ParseHelpFormat validates a help format name. An empty name selects
// FormatSubcommandHelp.
func ParseHelpFormat(s string) (HelpFormat, error) {
	switch HelpFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatSubcommandHelp:
		return FormatSubcommandHelp, nil
	case FormatHelpSubcommand:
		return FormatHelpSubcommand, nil
	case FormatSubcommandOnly:
		return FormatSubcommandOnly, nil
	default:
		return "", fmt.Errorf("unknown help format: %q", s)
	}
}

// DefaultHelpFlags are tried in order until one yields output.
var DefaultHelpFlags = []string{"--help", "-h", "help"}

var versionFlags = []string{"--version", "-v"}

var (
	ansiPattern    = regexp.MustCompile(`\x1b\[[0-9;]*[mK]`)
	versionPattern = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+){0,2}(?:[-+][A-Za-z0-9.]+)?)`)
)

// ProbeConfig configures a Prober.
type ProbeConfig struct {
	HelpFlags []string
	Format    HelpFormat
	Timeout   time.Duration
	Env       map[string]string
	Dir       string
}

// Prober captures help and version text for a tool's commands.
type Prober struct {
	exec       Executor
	executable string
	config     ProbeConfig
}

// NewProber creates a prober for the resolved executable.
func NewProber(exec Executor, executable string, config ProbeConfig) *Prober {
	if len(config.HelpFlags) == 0 {
		config.HelpFlags = DefaultHelpFlags
	}
	if config.Format == "" {
		config.Format = FormatSubcommandHelp
	}
	return &Prober{exec: exec, executable: executable, config: config}
}

// Executable returns the resolved path of the probed tool.
func (p *Prober) Executable() string {
	return p.executable
}

// Help returns help text for the command at path. path[0] is the tool name
// and is replaced by the resolved executable.
//
// Output is accepted from stdout, falling back to stderr, even when the tool
// exits non-zero; many tools print usage and exit 1. When no attempt produces
// text the last execution error is returned.
func (p *Prober) Help(ctx context.Context, path []string) (string, error) {
	var sub []string
	if len(path) > 1 {
		sub = path[1:]
	}

	var lastErr error
	for _, args := range p.helpArgs(sub) {
		out, err := p.exec.Execute(ctx, Invocation{
			Path:    p.executable,
			Args:    args,
			Timeout: p.config.Timeout,
			Env:     p.config.Env,
			Dir:     p.config.Dir,
		})
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if text := pickOutput(out); text != "" {
			return text, nil
		}
		if err != nil {
			lastErr = err
			if KindOf(err) == ExecNotFound {
				break
			}
		}
	}
	if lastErr == nil {
		lastErr = &ExecutionError{
			Kind: ExecNonZeroExit,
			Path: p.executable,
			Args: append(append([]string(nil), sub...), p.config.HelpFlags[0]),
			Err:  fmt.Errorf("no help output"),
		}
	}
	return "", lastErr
}

// helpArgs lists the argument vectors to try, in order.
func (p *Prober) helpArgs(sub []string) [][]string {
	var attempts [][]string
	if len(sub) > 0 {
		switch p.config.Format {
		case FormatHelpSubcommand:
			attempts = append(attempts, append([]string{"help"}, sub...))
		case FormatSubcommandOnly:
			attempts = append(attempts, append([]string(nil), sub...))
		}
	}
	for _, flag := range p.config.HelpFlags {
		args := append(append([]string(nil), sub...), flag)
		attempts = append(attempts, args)
	}
	return attempts
}

// Version runs the root version flags and extracts a version string from the
// first line of output.
func (p *Prober) Version(ctx context.Context) (string, bool) {
	for _, flag := range versionFlags {
		out, _ := p.exec.Execute(ctx, Invocation{
			Path:    p.executable,
			Args:    []string{flag},
			Timeout: p.config.Timeout,
			Env:     p.config.Env,
			Dir:     p.config.Dir,
		})
		if ctx.Err() != nil {
			return "", false
		}
		if v, ok := ParseVersion(pickOutput(out)); ok {
			return v, true
		}
	}
	return "", false
}

// ParseVersion extracts a version number from the first non-empty line of text.
func ParseVersion(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := versionPattern.FindStringSubmatch(line)
		if m == nil {
			return "", false
		}
		return m[1], true
	}
	return "", false
}

// StripANSI removes colour and erase-line escape sequences.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func pickOutput(out Output) string {
	text := strings.TrimSpace(StripANSI(out.Stdout))
	if text == "" {
		text = strings.TrimSpace(StripANSI(out.Stderr))
	}
	return text
}
