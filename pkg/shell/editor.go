package shell

import (
	"bufio"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/peterh/liner"
)

// The line editor used by the REPL.
type editor interface {
	// Prompt writes the prompt and reads one line, without the trailing
	// newline. It returns errAborted when the user cancels the line, and
	// io.EOF when input ends.
	Prompt(prompt string) (string, error)
	AppendHistory(code string)
	Close() error
}

var errAborted = errors.New("aborted")

// An editor that reads from a terminal with line editing, history and
// completion.
type linerEditor struct {
	state *liner.State
}

func newLinerEditor(history []string, complete func() []string) *linerEditor {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetTabCompletionStyle(liner.TabPrints)
	state.SetWordCompleter(func(line string, pos int) (string, []string, string) {
		return completeWord(line, pos, complete())
	})
	for _, code := range history {
		state.AppendHistory(code)
	}
	return &linerEditor{state}
}

func (ed *linerEditor) Prompt(prompt string) (string, error) {
	line, err := ed.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", errAborted
	}
	return line, err
}

func (ed *linerEditor) AppendHistory(code string) {
	// liner keeps single lines; multi-line code is recalled joined.
	ed.state.AppendHistory(strings.ReplaceAll(code, "\n", " "))
}

func (ed *linerEditor) Close() error { return ed.state.Close() }

// Completes the word before pos from candidates, which need not be sorted.
func completeWord(line string, pos int, candidates []string) (head string, completions []string, tail string) {
	if pos > len(line) {
		pos = len(line)
	}
	start := pos
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	head, word, tail := line[:start], line[start:pos], line[pos:]
	if word == "" {
		return head, nil, tail
	}
	for _, c := range candidates {
		if strings.HasPrefix(c, word) {
			completions = append(completions, c)
		}
	}
	sort.Strings(completions)
	return head, completions, tail
}

func isWordByte(b byte) bool {
	return b == '_' || b == ':' || b == '.' ||
		'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || '0' <= b && b <= '9'
}

// A minimal editor for input that is not a terminal. Prompts are written to
// w, normally stderr, so that they don't mix with results.
type minEditor struct {
	in  *bufio.Reader
	out io.Writer
}

func newMinEditor(in io.Reader, out io.Writer) *minEditor {
	return &minEditor{bufio.NewReader(in), out}
}

func (ed *minEditor) Prompt(prompt string) (string, error) {
	io.WriteString(ed.out, prompt)
	line, err := ed.in.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

func (*minEditor) AppendHistory(string) {}

func (*minEditor) Close() error { return nil }
