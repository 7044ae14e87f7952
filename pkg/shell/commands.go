package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sandcalc/sandcalc/pkg/diag"
	"github.com/sandcalc/sandcalc/pkg/observability"
	"github.com/sandcalc/sandcalc/pkg/sandbox"
	"github.com/sandcalc/sandcalc/pkg/store/storedefs"
	"github.com/sandcalc/sandcalc/pkg/sys"
)

var errQuit = errors.New("quit")

var errNoStore = errors.New("history is not available")

// Number of entries shown by :history without an argument.
const defaultHistoryCount = 10

type command struct {
	name  string
	usage string
	run   func(s *session, args []string) error
}

var commands = []command{
	{"history", ":history [n]  show the last n calculations", (*session).history},
	{"save", ":save NAME    save the current bindings as a session", (*session).save},
	{"load", ":load NAME    replace the current bindings with a saved session", (*session).load},
	{"sessions", ":sessions     list saved sessions", (*session).sessions},
	{"vars", ":vars         show the current bindings", (*session).vars},
	{"reset", ":reset        remove all bindings", (*session).reset},
	{"stats", ":stats        show the number of calculations by outcome", (*session).stats},
	{"help", ":help         show this help", nil},
	{"quit", ":quit         leave the REPL", nil},
}

// Runs a REPL command. It returns errQuit when the REPL should end; other
// errors are shown.
func (s *session) command(line string) error {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		diag.Complain(s.stderr, "empty command; try :help")
		return nil
	}
	name, args := fields[0], fields[1:]
	switch name {
	case "quit", "exit":
		return errQuit
	case "help":
		for _, c := range commands {
			fmt.Fprintln(s.stdout, c.usage)
		}
		return nil
	}
	for _, c := range commands {
		if c.name == name {
			if err := c.run(s, args); err != nil {
				diag.Complainf(s.stderr, ":%s: %v", name, err)
			}
			return nil
		}
	}
	diag.Complainf(s.stderr, "unknown command :%s; try :help", name)
	return nil
}

func (s *session) history(args []string) error {
	if s.cfg.Store == nil {
		return errNoStore
	}
	n := defaultHistoryCount
	if len(args) > 1 {
		return errors.New("at most one argument may be given")
	} else if len(args) == 1 {
		var err error
		n, err = strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("count must be a positive integer, got %q", args[0])
		}
	}
	upto, err := s.cfg.Store.NextCalcSeq()
	if err != nil {
		return err
	}
	calcs, err := s.cfg.Store.CalcsWithSeq(max(upto-n, 0), upto)
	if err != nil {
		return err
	}
	for _, c := range calcs {
		fmt.Fprintf(s.stdout, "%5d  %s\n", c.Seq, strings.ReplaceAll(c.Expr, "\n", "\n       "))
		fmt.Fprintf(s.stdout, "       => %s\n", c.Result)
	}
	return nil
}

func sessionName(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("exactly one session name must be given")
	}
	return args[0], nil
}

func (s *session) save(args []string) error {
	if s.cfg.Store == nil {
		return errNoStore
	}
	name, err := sessionName(args)
	if err != nil {
		return err
	}
	data, err := marshalBindings(s.bindings)
	if err != nil {
		return err
	}
	if err := s.cfg.Store.SaveSession(name, data); err != nil {
		return err
	}
	fmt.Fprintf(s.stdout, "saved %d bindings as %s\n", len(s.bindings), name)
	return nil
}

func (s *session) load(args []string) error {
	if s.cfg.Store == nil {
		return errNoStore
	}
	name, err := sessionName(args)
	if err != nil {
		return err
	}
	data, err := s.cfg.Store.Session(name)
	if errors.Is(err, storedefs.ErrNoSession) {
		return fmt.Errorf("no session named %s", name)
	} else if err != nil {
		return err
	}
	bindings, err := unmarshalBindings(data)
	if err != nil {
		return fmt.Errorf("session %s is corrupt: %w", name, err)
	}
	s.bindings = bindings
	fmt.Fprintf(s.stdout, "loaded %d bindings from %s\n", len(bindings), name)
	return nil
}

func (s *session) sessions(args []string) error {
	if s.cfg.Store == nil {
		return errNoStore
	}
	names, err := s.cfg.Store.SessionNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(s.stdout, name)
	}
	return nil
}

func (s *session) vars(args []string) error {
	_, width := sys.WinSize(s.stdout)
	for _, name := range sortedNames(s.bindings) {
		line := name + " = " + formatValue(s.bindings[name], s.cfg.Precision)
		if width > 0 {
			line = truncate(line, width)
		}
		fmt.Fprintln(s.stdout, line)
	}
	return nil
}

// Truncates s to at most width runes, marking the truncation with an
// ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width || width < 1 {
		return s
	}
	return string(r[:width-1]) + "…"
}

func (s *session) reset(args []string) error {
	s.bindings = map[string]any{}
	return nil
}

func (s *session) stats(args []string) error {
	if s.cfg.Stats == nil {
		return errors.New("statistics are not available")
	}
	counts, err := s.cfg.Stats.Counts(context.Background())
	if err != nil {
		return err
	}
	for _, o := range observability.Outcomes {
		fmt.Fprintf(s.stdout, "%-16s %d\n", o, counts[o])
	}
	return nil
}

func marshalBindings(bindings map[string]any) ([]byte, error) {
	encoded, err := sandbox.EncodeBindings(bindings)
	if err != nil {
		return nil, err
	}
	return json.Marshal(encoded)
}

func unmarshalBindings(data []byte) (map[string]any, error) {
	var encoded map[string]sandbox.Value
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, err
	}
	bindings, err := sandbox.DecodeBindings(encoded)
	if err != nil {
		return nil, err
	}
	if bindings == nil {
		bindings = map[string]any{}
	}
	return bindings, nil
}
