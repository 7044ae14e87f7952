package shell

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/sandcalc/sandcalc/pkg/diag"
	"github.com/sandcalc/sandcalc/pkg/eval"
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/parse"
	"github.com/sandcalc/sandcalc/pkg/sandbox"
)

// Formats a result. With a positive precision, floats are shown with that
// many significant digits instead of their repr.
func formatValue(v any, precision int) string {
	if f, ok := v.(float64); ok && precision > 0 {
		return strconv.FormatFloat(f, 'g', precision, 64)
	}
	return vals.Repr(v)
}

// Writes the bindings as "name = repr" lines, sorted by name.
func writeBindings(w io.Writer, bindings map[string]any, precision int) {
	for _, name := range sortedNames(bindings) {
		fmt.Fprintf(w, "%s = %s\n", name, formatValue(bindings[name], precision))
	}
}

func sortedNames(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Names the category of an error, as shown before errors that don't show
// their own category.
func errorKind(err error) string {
	switch {
	case parse.UnpackError(err) != nil:
		return "syntax error"
	case eval.UnpackBadSyntax(err) != nil:
		return "policy violation"
	case errors.Is(err, sandbox.ErrTimeout):
		return "timeout"
	case errors.Is(err, sandbox.ErrOutOfMemory):
		return "out of memory"
	case errors.Is(err, sandbox.ErrWorkerCrashed):
		return "crash"
	}
	var exc *errs.Exception
	if errors.As(err, &exc) {
		return "native error"
	}
	var ni errs.NotImplemented
	if errors.As(err, &ni) {
		return "not implemented"
	}
	return "internal error"
}

// Shows an error. Syntax errors and policy violations show the culprit;
// other errors are prefixed with their category.
func showError(w io.Writer, err error) {
	if _, ok := err.(diag.Shower); ok {
		diag.ShowError(w, err)
		return
	}
	diag.Complainf(w, "%s: %v", errorKind(err), err)
}
