package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/richinex/cmdsaw/model"
)

// Report is the double-check result for one command.
type Report struct {
	MissingOptions     []model.OptionDoc     `json:"missing_options"`
	MissingPositionals []model.PositionalDoc `json:"missing_positionals"`
	TypeFixes          []TypeFix             `json:"type_fixes"`
	DescriptionFixes   []DescriptionFix      `json:"description_fixes"`
	Confirmed          []string              `json:"confirmed"`
}

// TypeFix corrects the value type of an option or positional.
type TypeFix struct {
	Target string `json:"target"`
	Kind   string `json:"kind"`
	Type   string `json:"type"`
}

// DescriptionFix corrects the description of an option or positional.
type DescriptionFix struct {
	Target      string `json:"target"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

const (
	targetOption     = "option"
	targetPositional = "positional"
)

// Merge applies the report to doc in place. It returns one change entry per
// correction that altered doc, and notes for corrections it had to ignore.
func (r Report) Merge(doc *model.CommandDoc) (changes, notes []string) {
	for _, o := range r.MissingOptions {
		o.Long = strings.TrimSpace(o.Long)
		o.Short = strings.TrimSpace(o.Short)
		if o.Name() == "" {
			notes = append(notes, "ignored missing option without a name")
			continue
		}
		if (o.Long != "" && doc.OptionIndex(o.Long) >= 0) || (o.Short != "" && doc.OptionIndex(o.Short) >= 0) {
			continue
		}
		o.Type = model.ParseValueType(string(o.Type))
		o.ExcludeFromGeneration = model.IsHelpOption(o)
		if o.Aliases == nil {
			o.Aliases = []string{}
		}
		doc.Options = append(doc.Options, o)
		changes = append(changes, fmt.Sprintf("added option %s", o.Name()))
	}

	addedPositional := false
	for _, p := range r.MissingPositionals {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			notes = append(notes, "ignored missing positional without a name")
			continue
		}
		if doc.PositionalIndex(p.Name) >= 0 {
			continue
		}
		p.Type = model.ParseValueType(string(p.Type))
		// Positionals are contiguous, so the reported index is also the slot.
		at := p.Index
		if at < 0 || at > len(doc.Positionals) {
			at = len(doc.Positionals)
		}
		doc.Positionals = slices.Insert(doc.Positionals, at, p)
		addedPositional = true
		changes = append(changes, fmt.Sprintf("added positional %s", p.Name))
	}
	if addedPositional {
		renumberPositionals(doc)
	}

	for _, fix := range r.TypeFixes {
		typ := model.ParseValueType(fix.Type)
		switch fix.Kind {
		case targetOption:
			i := doc.OptionIndex(fix.Target)
			if i < 0 {
				notes = append(notes, fmt.Sprintf("type fix for unknown option %s", fix.Target))
				continue
			}
			if doc.Options[i].Type == typ {
				continue
			}
			changes = append(changes, fmt.Sprintf("changed type of option %s from %s to %s", doc.Options[i].Name(), doc.Options[i].Type, typ))
			doc.Options[i].Type = typ
		case targetPositional:
			i := doc.PositionalIndex(fix.Target)
			if i < 0 {
				notes = append(notes, fmt.Sprintf("type fix for unknown positional %s", fix.Target))
				continue
			}
			if doc.Positionals[i].Type == typ {
				continue
			}
			changes = append(changes, fmt.Sprintf("changed type of positional %s from %s to %s", doc.Positionals[i].Name, doc.Positionals[i].Type, typ))
			doc.Positionals[i].Type = typ
		default:
			notes = append(notes, fmt.Sprintf("type fix with unknown kind %q", fix.Kind))
		}
	}

	for _, fix := range r.DescriptionFixes {
		desc := strings.TrimSpace(fix.Description)
		if desc == "" {
			continue
		}
		switch fix.Kind {
		case targetOption:
			i := doc.OptionIndex(fix.Target)
			if i < 0 {
				notes = append(notes, fmt.Sprintf("description fix for unknown option %s", fix.Target))
				continue
			}
			if strings.TrimSpace(doc.Options[i].Description) == desc {
				continue
			}
			doc.Options[i].Description = desc
			changes = append(changes, fmt.Sprintf("updated description of option %s", doc.Options[i].Name()))
		case targetPositional:
			i := doc.PositionalIndex(fix.Target)
			if i < 0 {
				notes = append(notes, fmt.Sprintf("description fix for unknown positional %s", fix.Target))
				continue
			}
			if strings.TrimSpace(doc.Positionals[i].Description) == desc {
				continue
			}
			doc.Positionals[i].Description = desc
			changes = append(changes, fmt.Sprintf("updated description of positional %s", doc.Positionals[i].Name))
		default:
			notes = append(notes, fmt.Sprintf("description fix with unknown kind %q", fix.Kind))
		}
	}

	return changes, notes
}

func renumberPositionals(doc *model.CommandDoc) {
	for i := range doc.Positionals {
		doc.Positionals[i].Index = i
	}
}
