package model

import (
	"fmt"
	"sort"
	"strings"
)

// helpOptions are spellings of help/version options. They are documented but
// never rendered as task inputs.
var helpOptions = map[string]bool{
	"--help":    true,
	"-h":        true,
	"-help":     true,
	"--usage":   true,
	"--version": true,
	"-version":  true,
	"-V":        true,
}

// IsHelpOption reports whether the option is a help/version equivalent.
func IsHelpOption(o OptionDoc) bool {
	if helpOptions[o.Long] || helpOptions[o.Short] {
		return true
	}
	for _, a := range o.Aliases {
		if helpOptions[a] {
			return true
		}
	}
	return false
}

// Normalize enforces the document invariants on a freshly extracted command
// and returns a warning for every repair it made:
//   - options without a name are dropped, duplicates keep the first occurrence
//   - help/version options are tagged ExcludeFromGeneration
//   - value types are mapped onto the known set
//   - positional indices are made contiguous from 0
//   - nil slices become empty so serialisation is stable
func (c *CommandDoc) Normalize() []string {
	var warnings []string

	options := make([]OptionDoc, 0, len(c.Options))
	seen := make(map[string]bool, len(c.Options))
	for _, o := range c.Options {
		o.Long = strings.TrimSpace(o.Long)
		o.Short = strings.TrimSpace(o.Short)
		name := o.Name()
		if name == "" {
			warnings = append(warnings, "dropped option without a name")
			continue
		}
		if seen[name] {
			warnings = append(warnings, fmt.Sprintf("dropped duplicate option %s", name))
			continue
		}
		seen[name] = true
		o.Type = ParseValueType(string(o.Type))
		o.ExcludeFromGeneration = IsHelpOption(o)
		if o.Aliases == nil {
			o.Aliases = []string{}
		}
		options = append(options, o)
	}
	c.Options = options

	if c.Positionals == nil {
		c.Positionals = []PositionalDoc{}
	}
	sort.SliceStable(c.Positionals, func(i, j int) bool {
		return c.Positionals[i].Index < c.Positionals[j].Index
	})
	renumbered := false
	for i := range c.Positionals {
		c.Positionals[i].Type = ParseValueType(string(c.Positionals[i].Type))
		if c.Positionals[i].Index != i {
			c.Positionals[i].Index = i
			renumbered = true
		}
	}
	if renumbered {
		warnings = append(warnings, "renumbered positional indices to be contiguous")
	}

	if c.Subcommands == nil {
		c.Subcommands = []string{}
	}
	return warnings
}
