package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/richinex/cmdsaw/model"
)

// TerminalPrompter reads review commands from the terminal.
type TerminalPrompter struct {
	rl   *readline.Instance
	out  io.Writer
	comp *completer
}

// NewTerminalPrompter opens a readline session on the controlling terminal.
func NewTerminalPrompter() (*TerminalPrompter, error) {
	cyan := color.New(color.FgCyan).SprintFunc()
	comp := newCompleter()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("review> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "q",
		HistorySearchFold: true,
		AutoComplete:      comp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &TerminalPrompter{rl: rl, out: rl.Stdout(), comp: comp}, nil
}

// Close releases the terminal.
func (t *TerminalPrompter) Close() error {
	return t.rl.Close()
}

// Lists returns a prompter for subcommand lists.
func (t *TerminalPrompter) Lists() Prompter[NameList] {
	return &listTerminal{term: t}
}

// Documents returns a prompter for whole documents.
func (t *TerminalPrompter) Documents() Prompter[Document] {
	return &documentTerminal{term: t, readFile: os.ReadFile}
}

// readLine returns the next non-empty line. Ctrl-C re-prompts; Ctrl-D is
// reported as io.EOF.
func (t *TerminalPrompter) readLine(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line, err := t.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return "", err
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
}

func (t *TerminalPrompter) report(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(t.out, "%s %v\n", red("Error:"), err)
}

// queue holds events produced by one input line that carries several items.
type queue[T any] struct {
	pending []Event[T]
}

func (q *queue[T]) pop() (Event[T], bool) {
	if len(q.pending) == 0 {
		return Event[T]{}, false
	}
	ev := q.pending[0]
	q.pending = q.pending[1:]
	return ev, true
}

type listTerminal struct {
	term *TerminalPrompter
	queue[NameList]
}

const listUsage = `c            confirm
a x,y        add subcommands
r x,y        remove subcommands
e x,y,z      replace the whole list
p [hint]     ask the model to extract the list again
q            abort`

var listCommands = []string{"confirm", "add", "remove", "edit", "reprompt", "quit"}

func (p *listTerminal) Present(_ context.Context, s State[NameList]) error {
	if len(p.pending) > 0 {
		return nil
	}
	p.term.comp.reset(listCommands, s.Value, false)
	bold := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(p.term.out, "\n%s\n", bold(fmt.Sprintf("Subcommands (%d)", len(s.Value))))
	for i, name := range s.Value {
		fmt.Fprintf(p.term.out, "  %s %s\n", green(fmt.Sprintf("%2d.", i+1)), name)
	}
	fmt.Fprintln(p.term.out, color.New(color.Faint).Sprint(listUsage))
	return nil
}

func (p *listTerminal) Next(ctx context.Context) (Event[NameList], error) {
	for {
		if ev, ok := p.pop(); ok {
			return ev, nil
		}
		line, err := p.term.readLine(ctx)
		if errors.Is(err, io.EOF) {
			return Abort[NameList](), nil
		}
		if err != nil {
			return Event[NameList]{}, err
		}
		events, err := parseListCommand(line)
		if err != nil {
			p.term.report(err)
			continue
		}
		p.pending = append(p.pending, events...)
	}
}

func (p *listTerminal) Report(err error) { p.term.report(err) }

// parseListCommand turns one input line into list review events.
func parseListCommand(line string) ([]Event[NameList], error) {
	cmd, arg := splitCommand(line)
	switch cmd {
	case "c", "confirm":
		return []Event[NameList]{Confirm[NameList]()}, nil
	case "q", "quit", "abort":
		return []Event[NameList]{Abort[NameList]()}, nil
	case "p", "reprompt":
		return []Event[NameList]{Reprompt[NameList](arg)}, nil
	case "a", "add":
		names := splitNames(arg)
		if len(names) == 0 {
			return nil, fmt.Errorf("usage: a name[,name...]")
		}
		events := make([]Event[NameList], 0, len(names))
		for _, n := range names {
			events = append(events, Add[NameList](n))
		}
		return events, nil
	case "r", "remove":
		names := splitNames(arg)
		if len(names) == 0 {
			return nil, fmt.Errorf("usage: r name[,name...]")
		}
		events := make([]Event[NameList], 0, len(names))
		for _, n := range names {
			events = append(events, Remove[NameList](n))
		}
		return events, nil
	case "e", "edit":
		return []Event[NameList]{Edit(NameList(splitNames(arg)))}, nil
	default:
		return nil, fmt.Errorf("unknown command %q\n%s", cmd, listUsage)
	}
}

type documentTerminal struct {
	term     *TerminalPrompter
	current  model.ToolDoc
	readFile func(string) ([]byte, error)
	queue[Document]
}

const documentUsage = `c              confirm
v              view the document as JSON
a tool sub     add an empty command
r tool sub     remove a command and its children
e file.json    replace the document with the contents of a file
f issues...    ask the model to fix the described issues
q              abort`

var documentCommands = []string{"confirm", "view", "add", "remove", "edit", "fix", "quit"}

func (p *documentTerminal) Present(_ context.Context, s State[Document]) error {
	p.current = s.Value.Tool
	var paths []string
	s.Value.Tool.Walk(func(cmd *model.CommandDoc) {
		paths = append(paths, strings.Join(cmd.Path, " "))
	})
	p.term.comp.reset(documentCommands, paths, true)
	bold := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	title := s.Value.Tool.Name
	if s.Value.Tool.Version != nil {
		title += " " + *s.Value.Tool.Version
	}
	fmt.Fprintf(p.term.out, "\n%s\n", bold(title))
	s.Value.Tool.Walk(func(cmd *model.CommandDoc) {
		indent := strings.Repeat("  ", len(cmd.Path))
		fmt.Fprintf(p.term.out, "%s%s %s\n", indent, cmd.Name,
			yellow(fmt.Sprintf("[%s, %d options, %d positionals]", cmd.Kind, len(cmd.Options), len(cmd.Positionals))))
	})
	fmt.Fprintln(p.term.out, color.New(color.Faint).Sprint(documentUsage))
	return nil
}

func (p *documentTerminal) Next(ctx context.Context) (Event[Document], error) {
	for {
		if ev, ok := p.pop(); ok {
			return ev, nil
		}
		line, err := p.term.readLine(ctx)
		if errors.Is(err, io.EOF) {
			return Abort[Document](), nil
		}
		if err != nil {
			return Event[Document]{}, err
		}
		if cmd, _ := splitCommand(line); cmd == "v" || cmd == "view" {
			data, err := json.MarshalIndent(p.current, "", "  ")
			if err != nil {
				p.term.report(err)
				continue
			}
			fmt.Fprintln(p.term.out, string(data))
			continue
		}
		events, err := parseDocumentCommand(line, p.readFile)
		if err != nil {
			p.term.report(err)
			continue
		}
		p.pending = append(p.pending, events...)
	}
}

func (p *documentTerminal) Report(err error) { p.term.report(err) }

// parseDocumentCommand turns one input line into document review events.
func parseDocumentCommand(line string, readFile func(string) ([]byte, error)) ([]Event[Document], error) {
	cmd, arg := splitCommand(line)
	switch cmd {
	case "c", "confirm":
		return []Event[Document]{Confirm[Document]()}, nil
	case "q", "quit", "abort":
		return []Event[Document]{Abort[Document]()}, nil
	case "a", "add":
		if arg == "" {
			return nil, fmt.Errorf("usage: a tool sub [sub...]")
		}
		return []Event[Document]{Add[Document](arg)}, nil
	case "r", "remove":
		if arg == "" {
			return nil, fmt.Errorf("usage: r tool sub [sub...]")
		}
		return []Event[Document]{Remove[Document](arg)}, nil
	case "f", "fix":
		if arg == "" {
			return nil, fmt.Errorf("usage: f describe the issues")
		}
		return []Event[Document]{Reprompt[Document](arg)}, nil
	case "e", "edit":
		if arg == "" {
			return nil, fmt.Errorf("usage: e file.json")
		}
		data, err := readFile(arg)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", arg, err)
		}
		var doc model.ToolDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", arg, err)
		}
		if len(doc.Commands) == 0 {
			return nil, fmt.Errorf("%s has no commands", arg)
		}
		return []Event[Document]{Edit(Document{Tool: doc})}, nil
	default:
		return nil, fmt.Errorf("unknown command %q\n%s", cmd, documentUsage)
	}
}

func splitCommand(line string) (cmd, arg string) {
	line = strings.TrimSpace(line)
	cmd, arg, _ = strings.Cut(line, " ")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}

func splitNames(arg string) []string {
	var names []string
	for _, n := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Verify terminal prompters implement Prompter
var (
	_ Prompter[NameList] = (*listTerminal)(nil)
	_ Prompter[Document] = (*documentTerminal)(nil)
)
