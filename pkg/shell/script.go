package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sandcalc/sandcalc/pkg/diag"
	"github.com/sandcalc/sandcalc/pkg/eval"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/parse"
	"github.com/sandcalc/sandcalc/pkg/sandbox"
)

// ScriptConfig keeps configuration for the script mode.
type ScriptConfig struct {
	Runner    sandbox.Runner
	Decimal   bool
	Timeout   time.Duration
	Precision int

	CompileOnly bool
	JSON        bool
}

// Script runs one calculation and returns the exit status.
func Script(fds [3]*os.File, src parse.Source, cfg *ScriptConfig) int {
	if cfg.CompileOnly {
		return checkOnly(fds, src, cfg.JSON)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	resp, err := cfg.Runner.Calculate(ctx,
		sandbox.Request{Expr: src.Code, Decimal: cfg.Decimal})

	if cfg.JSON {
		out, encErr := resultJSON(resp, err)
		if encErr != nil {
			fmt.Fprintln(fds[2], encErr)
			return 2
		}
		fmt.Fprintf(fds[1], "%s\n", out)
		if err != nil {
			return 2
		}
		return 0
	}

	if err != nil {
		showError(fds[2], err)
		return 2
	}
	if resp.Value != vals.None {
		fmt.Fprintln(fds[1], formatValue(resp.Value, cfg.Precision))
	}
	writeBindings(fds[1], resp.Bindings, cfg.Precision)
	return 0
}

type jsonResult struct {
	Value    *sandbox.Value           `json:"value,omitempty"`
	Bindings map[string]sandbox.Value `json:"bindings,omitempty"`
	Error    *sandbox.Error           `json:"error,omitempty"`
}

func resultJSON(resp *sandbox.Response, err error) ([]byte, error) {
	if err != nil {
		return json.Marshal(jsonResult{Error: sandbox.EncodeError(err)})
	}
	v, err := sandbox.EncodeValue(resp.Value)
	if err != nil {
		return nil, err
	}
	bindings, err := sandbox.EncodeBindings(resp.Bindings)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonResult{Value: &v, Bindings: bindings})
}

// Checks the source without running it.
func checkOnly(fds [3]*os.File, src parse.Source, jsonOut bool) int {
	violations, err := eval.Check(src)
	var shown []error
	if err != nil {
		shown = append(shown, err)
	}
	for _, v := range violations {
		shown = append(shown, v)
	}
	if jsonOut {
		fmt.Fprintf(fds[1], "%s\n", errorsToJSON(shown))
	} else {
		for _, e := range shown {
			diag.ShowError(fds[2], e)
		}
	}
	if len(shown) > 0 {
		return 2
	}
	return 0
}

// An auxiliary struct for converting errors with diagnostics information to
// JSON.
type errorInJSON struct {
	FileName string `json:"fileName"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Message  string `json:"message"`
}

// Converts parse errors and policy violations to a JSON array.
func errorsToJSON(errs []error) []byte {
	var entries []errorInJSON
	for _, err := range errs {
		switch e := err.(type) {
		case *parse.Error:
			entries = append(entries, errorInJSON{e.Context.Name, e.Context.From, e.Context.To, e.Message})
		case *eval.BadSyntax:
			entries = append(entries, errorInJSON{e.Context.Name, e.Context.From, e.Context.To, e.Message})
		default:
			entries = append(entries, errorInJSON{Message: err.Error()})
		}
	}
	if entries == nil {
		return []byte("[]")
	}
	out, err := json.Marshal(entries)
	if err != nil {
		return []byte(`[{"message":"unable to convert the errors to JSON"}]`)
	}
	return out
}
