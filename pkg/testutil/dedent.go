package testutil

import "strings"

// Dedent removes the common leading whitespace from every non-blank line in
// text, and drops the initial newline if there is one. Blank lines are
// emptied.
//
// This makes it possible to write multi-line code fixtures as indented raw
// strings.
func Dedent(text string) string {
	text = strings.TrimPrefix(text, "\n")
	lines := strings.Split(text, "\n")
	margin := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if n := len(line) - len(trimmed); margin == -1 || n < margin {
			margin = n
		}
	}
	for i, line := range lines {
		if strings.TrimLeft(line, " \t") == "" {
			lines[i] = ""
		} else if margin > 0 {
			lines[i] = line[margin:]
		}
	}
	return strings.Join(lines, "\n")
}
