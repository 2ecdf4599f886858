package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanSubcommands(t *testing.T) {
	tests := []struct {
		name string
		help string
		want []string
	}{
		{
			name: "cobra style",
			help: `Usage:
  kubectl [command]

Available Commands:
  get         Display one or many resources
  describe    Show details of a specific resource
  apply       Apply a configuration

Flags:
  -h, --help   help for kubectl`,
			want: []string{"get", "describe", "apply"},
		},
		{
			name: "click style with wrapped description",
			help: `Usage: datactl [OPTIONS] COMMAND [ARGS]...

Options:
  --help  Show this message and exit.

Commands:
  view  Show a table on the terminal, paging when the output
        is longer than the screen.
  sort  Sort a table by one or more columns.`,
			want: []string{"view", "sort"},
		},
		{
			name: "tab indented subcommands heading",
			help: "Subcommands:\n\tinit\t\tcreate a project\n\tbuild\n",
			want: []string{"init", "build"},
		},
		{
			name: "no commands section",
			help: "Usage: imgkit [--verbose] FILE\n\nOptions:\n  --verbose  More output",
			want: nil,
		},
		{
			name: "section ends at unindented text",
			help: "Commands:\n  push   Upload\nSee also: pull\n  stray  Not a command",
			want: []string{"push"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scanSubcommands(tt.help))
		})
	}
}
