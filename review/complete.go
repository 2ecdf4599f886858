package review

import (
	"strings"
	"sync"

	"github.com/richinex/cmdsaw/internal/dsa"
)

// completer offers tab completion for review commands and their arguments.
// It is refreshed on every Present and read from readline's goroutine.
type completer struct {
	mu       sync.Mutex
	commands *dsa.Trie[struct{}]
	args     *dsa.Trie[struct{}]
	// phrase completes the whole argument rather than its last word, for
	// arguments that are space-separated command paths.
	phrase bool
}

func newCompleter() *completer {
	return &completer{
		commands: dsa.NewTrie[struct{}](),
		args:     dsa.NewTrie[struct{}](),
	}
}

// reset replaces the completion words.
func (c *completer) reset(commands, args []string, phrase bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = dsa.NewTrie[struct{}]()
	for _, w := range commands {
		c.commands.Insert(w, struct{}{})
	}
	c.args = dsa.NewTrie[struct{}]()
	for _, w := range args {
		c.args.Insert(w, struct{}{})
	}
	c.phrase = phrase
}

// Do implements readline.AutoCompleter. Candidates are the suffixes that
// complete the word before the cursor.
func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := string(line[:pos])
	index := c.commands
	prefix := text
	if _, arg, found := strings.Cut(strings.TrimLeft(text, " "), " "); found {
		index = c.args
		prefix = strings.TrimLeft(arg, " ")
		if !c.phrase {
			if i := strings.LastIndexAny(prefix, " ,"); i >= 0 {
				prefix = prefix[i+1:]
			}
		}
	}

	var out [][]rune
	for _, key := range index.StartsWith(prefix) {
		if key == prefix {
			continue
		}
		out = append(out, []rune(key[len(prefix):]))
	}
	return out, len([]rune(prefix))
}
