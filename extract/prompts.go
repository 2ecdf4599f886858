package extract

import (
	"fmt"
	"strings"

	"github.com/richinex/cmdsaw/llm"
)

const commandRules = `You convert raw CLI help text into a structured JSON object for one command node.

Rules:
- Output MUST be valid JSON matching the provided schema.
- Do not invent items. Every option, positional and subcommand must appear in the help text.
- Types: integer, float, flag (no value), path (file or directory), string when unclear.
- Choices from braces or clear prose.
- Positionals ordered from USAGE or headings. Index 0-based.
- Subcommands list immediate child names only.
- Repeatable if stated or shown with '...'.
- "path" is the list of words used to invoke the command, tool name first.`

const subcommandEmphasis = `
CRITICAL: SUBCOMMAND DISCOVERY
Finding ALL available subcommands is the most important part of this task.
- Look for sections like "Commands:", "Available Commands:", "Subcommands:", "COMMANDS:".
- Check "Usage:" lines that show the command hierarchy.
- Subcommands are often listed with a short description; extract the name from each line.
- Include every subcommand name found, even across different sections.
- List immediate child subcommand names only, not nested ones.`

const reconcileRules = `You audit a structured description of a CLI command against its raw help text.

Go through the help text line by line and report only real discrepancies:
- missing_options: options present in the help text but absent from the candidate.
- missing_positionals: positional arguments present in the help text but absent from the candidate.
- type_fixes: options or positionals whose value type is wrong (target is the option's long or short name, or the positional's name).
- description_fixes: descriptions that contradict the help text.
- confirmed: names you checked and found correct.

Use empty lists when there is nothing to report. Do not restate items that are already correct as fixes.`

const reviseRules = `You revise a structured description of a CLI tool according to a reviewer's notes.

Rules:
- Output the complete corrected document as JSON matching the provided schema.
- Change only what the notes ask for; keep every other field exactly as given.
- Do not invent commands, options or arguments that the notes do not mention.`

const jsonOnly = "\nReturn only JSON."

// fewShot pairs are shown before command extractions.
var fewShot = []struct {
	path     string
	helpText string
	json     string
}{
	{
		path: "imgkit",
		helpText: `imgkit 1.4.0

USAGE:
  imgkit [OPTIONS] <INPUT> [OUTPUT]

OPTIONS:
  -q, --quality INT           JPEG quality (default: 90)
      --format {png|jpg|webp} Output format
  -v, --verbose               Increase verbosity
  -t, --threads INT           Number of worker threads (default: 4)
      --no-color              Disable colored output

ARGUMENTS:
  INPUT                        Source file path
  OUTPUT                       Destination path
`,
		json: `{"name":"imgkit","path":["imgkit"],"description":"","options":[` +
			`{"long":"--quality","short":"-q","type":"integer","required":false,"default":"90","description":"JPEG quality"},` +
			`{"long":"--format","type":"string","choices":["png","jpg","webp"],"required":false,"default":null,"description":"Output format"},` +
			`{"long":"--verbose","short":"-v","type":"flag","required":false,"default":null,"description":"Increase verbosity","repeatable":true},` +
			`{"long":"--threads","short":"-t","type":"integer","required":false,"default":"4","description":"Number of worker threads"},` +
			`{"long":"--no-color","type":"flag","required":false,"default":null,"description":"Disable colored output"}],` +
			`"positionals":[` +
			`{"name":"INPUT","index":0,"type":"path","required":true,"description":"Source file path"},` +
			`{"name":"OUTPUT","index":1,"type":"path","required":false,"description":"Destination path"}],` +
			`"subcommands":[]}`,
	},
	{
		path: "datactl",
		helpText: `datactl

Manage datasets.

Usage:
  datactl [command]

Available Commands:
  pull        Download a dataset
  push        Upload a dataset
  info        Show dataset info

Flags:
  -h, --help     help for datactl
      --profile  Profile name
`,
		json: `{"name":"datactl","path":["datactl"],"description":"Manage datasets.","options":[` +
			`{"long":"--help","short":"-h","type":"flag","required":false,"default":null,"description":"help for datactl"},` +
			`{"long":"--profile","type":"string","required":false,"default":null,"description":"Profile name"}],` +
			`"positionals":[],"subcommands":["pull","push","info"]}`,
	},
}

// buildMessages assembles the conversation for a request.
func buildMessages(req Request, contract *Contract) []llm.ChatMessage {
	var system string
	switch req.Task {
	case TaskSubcommands:
		system = commandRules + "\n" + subcommandEmphasis + jsonOnly
	case TaskReconcile:
		system = reconcileRules + jsonOnly
	case TaskRevise:
		system = reviseRules + jsonOnly
	default:
		system = commandRules + jsonOnly
	}

	messages := []llm.ChatMessage{llm.SystemMessage(system)}
	if req.Task == TaskCommand || req.Task == TaskSubcommands {
		for _, ex := range fewShot {
			messages = append(messages,
				llm.UserMessage(commandPrompt(ex.path, ex.helpText)),
				llm.AssistantMessage(ex.json),
			)
		}
	}

	var user strings.Builder
	switch req.Task {
	case TaskReconcile:
		fmt.Fprintf(&user, "Command path: %s\n\nHelp text:\n```\n%s\n```\n\nCandidate:\n%s\n", req.path(), req.HelpText, req.Candidate)
	case TaskRevise:
		fmt.Fprintf(&user, "Document:\n%s\n\nReviewer notes:\n%s\n", req.Candidate, req.Instructions)
	default:
		user.WriteString(commandPrompt(req.path(), req.HelpText))
	}
	fmt.Fprintf(&user, "\nJSON schema:\n%s\n", contract.Schema())
	if req.Feedback != "" {
		fmt.Fprintf(&user, "\nYour previous answer was rejected: %s\nReturn corrected JSON.\n", req.Feedback)
	}
	messages = append(messages, llm.UserMessage(user.String()))
	return messages
}

func commandPrompt(path, helpText string) string {
	return fmt.Sprintf("Command path: %s\n\nHelp text:\n```\n%s\n```\n", path, helpText)
}
