package review

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/richinex/cmdsaw/model"
)

// NameList is a list of subcommand names.
type NameList []string

// WithItem appends name.
func (l NameList) WithItem(name string) (NameList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return l, fmt.Errorf("empty subcommand name")
	}
	if strings.ContainsAny(name, " \t") {
		return l, fmt.Errorf("subcommand name %q contains whitespace", name)
	}
	if slices.Contains(l, name) {
		return l, fmt.Errorf("%s is already listed", name)
	}
	out := slices.Clone(l)
	return append(out, name), nil
}

// WithoutItem removes name.
func (l NameList) WithoutItem(name string) (NameList, error) {
	name = strings.TrimSpace(name)
	i := slices.Index(l, name)
	if i < 0 {
		return l, fmt.Errorf("%s is not listed", name)
	}
	out := slices.Clone(l)
	return slices.Delete(out, i, i+1), nil
}

// Equal reports whether both lists hold the same names in the same order.
func (l NameList) Equal(other NameList) bool {
	return slices.Equal(l, other)
}

// Document is a whole tool document. Items are command paths written as
// space-separated words, tool name first.
type Document struct {
	Tool model.ToolDoc
}

// WithItem adds an empty terminal command at path under its existing parent.
func (d Document) WithItem(item string) (Document, error) {
	path := strings.Fields(item)
	if len(path) < 2 {
		return d, fmt.Errorf("%q: a command path needs the tool name and at least one subcommand", item)
	}
	out := Document{Tool: d.Tool.Clone()}
	parent := out.Tool.Find(path[:len(path)-1])
	if parent == nil {
		return d, fmt.Errorf("%s does not exist", strings.Join(path[:len(path)-1], " "))
	}
	name := path[len(path)-1]
	if parent.Child(name) != nil || slices.Contains(parent.Subcommands, name) {
		return d, fmt.Errorf("%s already exists", strings.Join(path, " "))
	}
	parent.Children = append(parent.Children, model.CommandDoc{
		Name:        name,
		Path:        path,
		Kind:        model.KindTerminal,
		Options:     []model.OptionDoc{},
		Positionals: []model.PositionalDoc{},
		Subcommands: []string{},
	})
	parent.Subcommands = append(parent.Subcommands, name)
	parent.Kind = model.KindRouter
	return out, nil
}

// WithoutItem removes the command at path and everything below it.
func (d Document) WithoutItem(item string) (Document, error) {
	path := strings.Fields(item)
	if len(path) < 2 {
		return d, fmt.Errorf("%q: the root command cannot be removed", item)
	}
	out := Document{Tool: d.Tool.Clone()}
	parent := out.Tool.Find(path[:len(path)-1])
	name := path[len(path)-1]
	if parent == nil || parent.Child(name) == nil {
		return d, fmt.Errorf("%s does not exist", strings.Join(path, " "))
	}
	parent.Children = slices.DeleteFunc(parent.Children, func(c model.CommandDoc) bool { return c.Name == name })
	parent.Subcommands = slices.DeleteFunc(parent.Subcommands, func(s string) bool { return s == name })
	if len(parent.Children) == 0 {
		parent.Children = nil
		parent.Kind = model.KindTerminal
	}
	return out, nil
}

// Equal compares the serialized documents.
func (d Document) Equal(other Document) bool {
	a, errA := json.Marshal(d.Tool)
	b, errB := json.Marshal(other.Tool)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}
