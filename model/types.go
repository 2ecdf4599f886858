// Package model provides domain types shared across packages.
//
// The types here are the document cmdsaw produces: a ToolDoc holding a tree
// of CommandDoc nodes, wrapped with per-node diagnostics in a CmdSawResult.
package model

import "strings"

// SchemaVersion is the version of the CmdSawResult envelope.
const SchemaVersion = 1

// ValueType is the type of value an option or positional accepts.
type ValueType string

const (
	TypePath    ValueType = "path"
	TypeInteger ValueType = "integer"
	TypeFloat   ValueType = "float"
	TypeString  ValueType = "string"
	TypeFlag    ValueType = "flag"
)

// ValueTypes lists every accepted value type, in contract order.
var ValueTypes = []ValueType{TypePath, TypeInteger, TypeFloat, TypeString, TypeFlag}

// ParseValueType maps loose type names (int, str, bool, file, dir, ...) onto
// a ValueType. Unrecognised names become TypeString.
func ParseValueType(s string) ValueType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "path", "file", "dir", "directory", "filename":
		return TypePath
	case "integer", "int", "number":
		return TypeInteger
	case "float", "double", "decimal":
		return TypeFloat
	case "flag", "bool", "boolean":
		return TypeFlag
	default:
		return TypeString
	}
}

// NodeKind marks whether a command is invocable or only a namespace.
type NodeKind string

const (
	// KindTerminal is a command with no further subcommands to descend into.
	KindTerminal NodeKind = "terminal"
	// KindRouter is a command that exists to group subcommands.
	KindRouter NodeKind = "router"
)

// OptionDoc describes a named flag or option.
type OptionDoc struct {
	Long                  string    `json:"long,omitempty" yaml:"long,omitempty"`
	Short                 string    `json:"short,omitempty" yaml:"short,omitempty"`
	Aliases               []string  `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Type                  ValueType `json:"type" yaml:"type"`
	Choices               []string  `json:"choices,omitempty" yaml:"choices,omitempty"`
	Required              bool      `json:"required" yaml:"required"`
	Default               *string   `json:"default" yaml:"default"`
	Description           string    `json:"description" yaml:"description"`
	Repeatable            bool      `json:"repeatable,omitempty" yaml:"repeatable,omitempty"`
	EnvVar                string    `json:"envvar,omitempty" yaml:"envvar,omitempty"`
	ExcludeFromGeneration bool      `json:"exclude_from_generation,omitempty" yaml:"exclude_from_generation,omitempty"`
}

// Name returns the canonical name: the long form when present, else the short form.
func (o OptionDoc) Name() string {
	if o.Long != "" {
		return o.Long
	}
	return o.Short
}

// Matches reports whether name refers to this option by any of its spellings.
func (o OptionDoc) Matches(name string) bool {
	if name == "" {
		return false
	}
	if name == o.Long || name == o.Short {
		return true
	}
	for _, a := range o.Aliases {
		if a == name {
			return true
		}
	}
	return false
}

// PositionalDoc describes a positional argument.
type PositionalDoc struct {
	Name        string    `json:"name" yaml:"name"`
	Index       int       `json:"index" yaml:"index"`
	Type        ValueType `json:"type" yaml:"type"`
	Required    bool      `json:"required" yaml:"required"`
	Variadic    bool      `json:"variadic,omitempty" yaml:"variadic,omitempty"`
	Description string    `json:"description" yaml:"description"`
}

// CommandDoc describes one command or subcommand.
//
// Subcommands holds the child names the tool reported (after filtering);
// Children holds the discovered CommandDocs in that same order.
type CommandDoc struct {
	Name        string          `json:"name" yaml:"name"`
	Path        []string        `json:"path" yaml:"path"`
	Description string          `json:"description" yaml:"description"`
	Kind        NodeKind        `json:"kind,omitempty" yaml:"kind,omitempty"`
	Options     []OptionDoc     `json:"options" yaml:"options"`
	Positionals []PositionalDoc `json:"positionals" yaml:"positionals"`
	Subcommands []string        `json:"subcommands" yaml:"subcommands"`
	Children    []CommandDoc    `json:"children,omitempty" yaml:"children,omitempty"`
	HelpText    string          `json:"help_text,omitempty" yaml:"help_text,omitempty"`
}

// PathString returns the invocation path joined with spaces.
func (c CommandDoc) PathString() string {
	return strings.Join(c.Path, " ")
}

// OptionIndex returns the index of the option matching name, or -1.
func (c CommandDoc) OptionIndex(name string) int {
	for i, o := range c.Options {
		if o.Matches(name) {
			return i
		}
	}
	return -1
}

// PositionalIndex returns the slice index of the positional named name, or -1.
func (c CommandDoc) PositionalIndex(name string) int {
	for i, p := range c.Positionals {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

// Child returns the direct child named name.
func (c *CommandDoc) Child(name string) *CommandDoc {
	for i := range c.Children {
		if c.Children[i].Name == name {
			return &c.Children[i]
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c CommandDoc) Clone() CommandDoc {
	out := c
	out.Path = cloneStrings(c.Path)
	out.Subcommands = cloneStrings(c.Subcommands)
	if c.Options != nil {
		out.Options = make([]OptionDoc, len(c.Options))
		for i, o := range c.Options {
			o.Aliases = cloneStrings(o.Aliases)
			o.Choices = cloneStrings(o.Choices)
			if o.Default != nil {
				d := *o.Default
				o.Default = &d
			}
			out.Options[i] = o
		}
	}
	if c.Positionals != nil {
		out.Positionals = make([]PositionalDoc, len(c.Positionals))
		copy(out.Positionals, c.Positionals)
	}
	if c.Children != nil {
		out.Children = make([]CommandDoc, len(c.Children))
		for i, child := range c.Children {
			out.Children[i] = child.Clone()
		}
	}
	return out
}

// ToolDoc is the root of a discovered command surface.
type ToolDoc struct {
	Name        string       `json:"name" yaml:"name"`
	Version     *string      `json:"version" yaml:"version"`
	Description string       `json:"description" yaml:"description"`
	Executable  string       `json:"executable" yaml:"executable"`
	Commands    []CommandDoc `json:"commands" yaml:"commands"`
}

// Root returns the root command, or nil for an empty document.
func (t *ToolDoc) Root() *CommandDoc {
	if len(t.Commands) == 0 {
		return nil
	}
	return &t.Commands[0]
}

// Find returns the command at the given invocation path (tool name included).
func (t *ToolDoc) Find(path []string) *CommandDoc {
	for i := range t.Commands {
		cmd := &t.Commands[i]
		if len(path) == 0 || cmd.Name != path[0] {
			continue
		}
		for _, seg := range path[1:] {
			if cmd = cmd.Child(seg); cmd == nil {
				return nil
			}
		}
		return cmd
	}
	return nil
}

// Walk visits every command in pre-order, siblings in document order.
func (t *ToolDoc) Walk(fn func(cmd *CommandDoc)) {
	var visit func(cmd *CommandDoc)
	visit = func(cmd *CommandDoc) {
		fn(cmd)
		for i := range cmd.Children {
			visit(&cmd.Children[i])
		}
	}
	for i := range t.Commands {
		visit(&t.Commands[i])
	}
}

// Clone returns a deep copy.
func (t ToolDoc) Clone() ToolDoc {
	out := t
	if t.Version != nil {
		v := *t.Version
		out.Version = &v
	}
	if t.Commands != nil {
		out.Commands = make([]CommandDoc, len(t.Commands))
		for i, c := range t.Commands {
			out.Commands[i] = c.Clone()
		}
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
