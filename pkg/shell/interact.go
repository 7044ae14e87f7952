package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/sandcalc/sandcalc/pkg/eval"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/observability"
	"github.com/sandcalc/sandcalc/pkg/parse"
	"github.com/sandcalc/sandcalc/pkg/sandbox"
	"github.com/sandcalc/sandcalc/pkg/store/storedefs"
	"github.com/sandcalc/sandcalc/pkg/sys"
)

const (
	ps1 = ">>> "
	ps2 = "... "
)

// Number of history entries loaded into the line editor.
const historyPreload = 500

// InteractConfig keeps configuration for the REPL.
type InteractConfig struct {
	Runner    sandbox.Runner
	Decimal   bool
	Timeout   time.Duration
	Precision int
	// Calculation history and saved sessions. May be nil.
	Store storedefs.Store
	// Outcome counts shown by :stats. May be nil.
	Stats *observability.Stats
}

// A REPL session. The worker is stateless, so the session keeps the bindings
// and seeds them into each request.
type session struct {
	cfg      *InteractConfig
	stdout   *os.File
	stderr   *os.File
	bindings map[string]any
}

// Interact runs a REPL until input ends or the user quits.
func Interact(fds [3]*os.File, cfg *InteractConfig) {
	s := &session{cfg: cfg, stdout: fds[1], stderr: fds[2], bindings: map[string]any{}}

	var ed editor
	if sys.IsATTY(fds[0].Fd()) {
		ed = newLinerEditor(s.loadHistory(), s.completions)
	} else {
		ed = newMinEditor(fds[0], fds[2])
	}
	defer func() {
		if err := ed.Close(); err != nil {
			logger.Println("failed to close editor:", err)
		}
	}()

	for {
		code, err := readCode(ed)
		if err == errAborted {
			continue
		} else if err == io.EOF {
			fmt.Fprintln(fds[2])
			return
		} else if err != nil {
			fmt.Fprintln(fds[2], "Cannot read input:", err)
			return
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		ed.AppendHistory(code)
		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			if s.command(strings.TrimSpace(code)) == errQuit {
				return
			}
			continue
		}
		s.calculate(code)
	}
}

// Reads a complete piece of code. Lines are read with the continuation prompt
// while the code ends in the middle of a construct. Code whose first line
// opens a block continues until a blank line.
func readCode(ed editor) (string, error) {
	line, err := ed.Prompt(ps1)
	if err != nil {
		return "", err
	}
	code := line
	block := strings.HasSuffix(strings.TrimSpace(line), ":") &&
		!strings.HasPrefix(strings.TrimSpace(line), ":")
	for {
		if block {
			if strings.TrimSpace(line) == "" {
				return code, nil
			}
		} else if !needsMore(code) {
			return code, nil
		}
		line, err = ed.Prompt(ps2)
		if err == io.EOF {
			return code, nil
		} else if err != nil {
			return "", err
		}
		code += "\n" + line
	}
}

func needsMore(code string) bool {
	_, err := parse.Parse(parse.Source{Name: "[interactive]", Code: code})
	e := parse.UnpackError(err)
	return e != nil && e.Partial
}

func (s *session) calculate(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	resp, err := s.cfg.Runner.Calculate(ctx, sandbox.Request{
		Expr: code, Decimal: s.cfg.Decimal, Bindings: s.bindings})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(s.stderr, "KeyboardInterrupt")
		} else {
			showError(s.stderr, err)
		}
		s.record(code, errorKind(err)+": "+err.Error())
		return
	}
	s.bindings = resp.Bindings
	if s.bindings == nil {
		s.bindings = map[string]any{}
	}
	result := formatValue(resp.Value, s.cfg.Precision)
	if resp.Value != vals.None {
		fmt.Fprintln(s.stdout, result)
	}
	s.record(code, result)
}

func (s *session) record(code, result string) {
	if s.cfg.Store == nil {
		return
	}
	if _, err := s.cfg.Store.AddCalc(code, result); err != nil {
		logger.Println("failed to add calculation to history:", err)
	}
}

func (s *session) loadHistory() []string {
	if s.cfg.Store == nil {
		return nil
	}
	upto, err := s.cfg.Store.NextCalcSeq()
	if err != nil {
		logger.Println("failed to read history:", err)
		return nil
	}
	calcs, err := s.cfg.Store.CalcsWithSeq(max(upto-historyPreload, 0), upto)
	if err != nil {
		logger.Println("failed to read history:", err)
		return nil
	}
	history := make([]string, len(calcs))
	for i, c := range calcs {
		history[i] = c.Expr
	}
	return history
}

// Names offered by completion: globals, current bindings and commands.
func (s *session) completions() []string {
	var names []string
	for name := range eval.Globals(s.cfg.Decimal) {
		names = append(names, name)
	}
	for name := range s.bindings {
		names = append(names, name)
	}
	for _, c := range commands {
		names = append(names, ":"+c.name)
	}
	return names
}
