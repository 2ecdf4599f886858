package discovery

import (
	"regexp"
	"strings"
)

var (
	commandsHeader = regexp.MustCompile(`(?i)^\s*(available\s+|additional\s+)?(sub)?commands?(\s+\([^)]*\))?\s*:?\s*$`)
	commandLine    = regexp.MustCompile(`^(?: {2,8}|\t)([A-Za-z][A-Za-z0-9_.-]*)(,?\s{2,}\S|\s*$)`)
)

// scanSubcommands finds child names listed under a "Commands:"-style heading
// of help text. The result is lower confidence than an extracted list.
func scanSubcommands(helpText string) []string {
	var names []string
	inSection := false
	for _, line := range strings.Split(helpText, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if commandsHeader.MatchString(line) {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		if line == "" {
			inSection = false
			continue
		}
		m := commandLine.FindStringSubmatch(line)
		if m == nil {
			// Continuation lines of a wrapped description are deeper indented.
			if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
				continue
			}
			inSection = false
			continue
		}
		names = append(names, m[1])
	}
	return names
}
