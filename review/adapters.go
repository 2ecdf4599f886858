package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/richinex/cmdsaw/extract"
	"github.com/richinex/cmdsaw/model"
)

// SubcommandReview reviews the root's child list. Re-extraction uses the
// subcommand-focused prompt.
type SubcommandReview struct {
	prompter Prompter[NameList]
	client   extract.Client
	logger   *log.Logger
}

// NewSubcommandReview creates the list reviewer. client may be nil, which
// disables re-extraction.
func NewSubcommandReview(prompter Prompter[NameList], client extract.Client, logger *log.Logger) *SubcommandReview {
	return &SubcommandReview{prompter: prompter, client: client, logger: logger}
}

// ReviewSubcommands runs the review over names.
func (r *SubcommandReview) ReviewSubcommands(ctx context.Context, cmd model.CommandDoc, names []string) ([]string, model.ReviewOutcome, error) {
	d := &Driver[NameList]{
		Prompter: r.prompter,
		Logger:   r.logger,
	}
	if r.client != nil {
		d.Reprompt = func(ctx context.Context, _ NameList, hint string) (NameList, error) {
			return r.reextract(ctx, cmd, hint)
		}
	}
	v, outcome, err := d.Run(ctx, NameList(append([]string{}, names...)))
	return []string(v), outcome, err
}

func (r *SubcommandReview) reextract(ctx context.Context, cmd model.CommandDoc, hint string) (NameList, error) {
	feedback := "A reviewer asked for the subcommand list to be checked again."
	if hint != "" {
		feedback = "A reviewer says the subcommand list is wrong: " + hint
	}
	res, err := r.client.Extract(ctx, extract.Request{
		Task:        extract.TaskSubcommands,
		CommandPath: cmd.Path,
		HelpText:    cmd.HelpText,
		Feedback:    feedback,
	})
	if err != nil {
		return nil, err
	}
	var doc model.CommandDoc
	if err := json.Unmarshal(res.Raw, &doc); err != nil {
		return nil, fmt.Errorf("decode subcommands: %w", err)
	}
	if doc.Subcommands == nil {
		return NameList{}, nil
	}
	return NameList(doc.Subcommands), nil
}

// DocumentReview reviews the assembled document. Re-extraction revises the
// whole document according to the reviewer's notes.
type DocumentReview struct {
	prompter Prompter[Document]
	client   extract.Client
	logger   *log.Logger
}

// NewDocumentReview creates the document reviewer. client may be nil, which
// disables revision.
func NewDocumentReview(prompter Prompter[Document], client extract.Client, logger *log.Logger) *DocumentReview {
	return &DocumentReview{prompter: prompter, client: client, logger: logger}
}

// ReviewDocument runs the review over doc.
func (r *DocumentReview) ReviewDocument(ctx context.Context, doc model.ToolDoc) (model.ToolDoc, model.ReviewOutcome, error) {
	d := &Driver[Document]{
		Prompter: r.prompter,
		Logger:   r.logger,
	}
	if r.client != nil {
		d.Reprompt = r.revise
	}
	v, outcome, err := d.Run(ctx, Document{Tool: doc})
	return v.Tool, outcome, err
}

func (r *DocumentReview) revise(ctx context.Context, current Document, notes string) (Document, error) {
	if notes == "" {
		return current, errors.New("describe the issues to fix")
	}
	candidate, err := json.Marshal(current.Tool)
	if err != nil {
		return current, fmt.Errorf("marshal document: %w", err)
	}
	res, err := r.client.Extract(ctx, extract.Request{
		Task:         extract.TaskRevise,
		CommandPath:  []string{current.Tool.Name},
		Candidate:    candidate,
		Instructions: notes,
	})
	if err != nil {
		return current, err
	}
	var revised model.ToolDoc
	if err := json.Unmarshal(res.Raw, &revised); err != nil {
		return current, fmt.Errorf("decode revised document: %w", err)
	}
	revised.Walk(func(cmd *model.CommandDoc) {
		cmd.Normalize()
	})
	return Document{Tool: revised}, nil
}
