// Package eval implements the restricted evaluator.
//
// The evaluator walks the syntax tree produced by package parse and computes
// values directly from it. Every node kind is either handled, rejected with a
// *BadSyntax error naming the construct, or, if the evaluator has no entry
// for it at all, reported with errs.NotImplemented.
//
// Names resolve first in the scope stack and then in a read-only table of
// globals: the built-in callables, a few numeric constants and the modules in
// package mods. Attribute reads are restricted by the allowlists in package
// policy.
package eval

import (
	"context"
	"maps"
	"math"

	"github.com/sandcalc/sandcalc/pkg/eval/policy"
	"github.com/sandcalc/sandcalc/pkg/eval/scope"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/logutil"
	"github.com/sandcalc/sandcalc/pkg/mods"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

var logger = logutil.GetLogger("[eval] ")

// Config keeps configurations for an Evaluator.
type Config struct {
	// Decimal selects decimal mode. In decimal mode every int and float
	// literal evaluates to a *vals.Decimal, and range accepts non-integer
	// arguments.
	Decimal bool
}

// Evaluator evaluates code. Bindings in its root frame persist across calls
// to Run. An Evaluator is not safe for concurrent use.
type Evaluator struct {
	cfg     Config
	scope   *scope.Stack
	globals map[string]any

	// Set for the extent of a RunContext call.
	ctx context.Context
	src parse.Source
}

// Result is the outcome of a successful run.
type Result struct {
	// The value of the last top-level statement if it was an expression
	// statement, and vals.None otherwise.
	Value any
	// The bindings of the root frame after the run.
	Bindings map[string]any
}

// New creates a new Evaluator.
func New(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg, scope: scope.New(), globals: Globals(cfg.Decimal)}
}

// Globals returns a new copy of the table of names visible to all code: the
// built-in callables, the numeric constants and the modules.
func Globals(decimal bool) map[string]any {
	g := make(map[string]any, len(policy.Builtins)+len(policy.Constants)+4)
	for _, name := range policy.Builtins {
		g[name] = builtins[name]
	}
	if decimal {
		g["range"] = decimalRange
	}
	constants := map[string]float64{
		"pi": math.Pi, "e": math.E, "tau": 2 * math.Pi, "inf": math.Inf(1), "nan": math.NaN(),
	}
	for _, name := range policy.Constants {
		g[name] = constants[name]
	}
	for name, m := range mods.All() {
		g[name] = m
	}
	return g
}

// Calculate evaluates expr with a fresh Evaluator. It is the entry point used
// by the sandbox worker.
func Calculate(expr string, decimal bool) (Result, error) {
	return New(Config{Decimal: decimal}).Run(expr)
}

// Run evaluates code.
func (ev *Evaluator) Run(code string) (Result, error) {
	return ev.RunContext(context.Background(), parse.Source{Name: "[calc]", Code: code})
}

// RunContext evaluates src, checking for cancellation of ctx at every
// iteration of a loop or comprehension. When ctx is cancelled, the error
// returned is ctx.Err().
func (ev *Evaluator) RunContext(ctx context.Context, src parse.Source) (Result, error) {
	mod, err := parse.Parse(src)
	if err != nil {
		return Result{}, err
	}
	ev.ctx, ev.src = ctx, src
	defer func() { ev.ctx = nil }()

	var value any = vals.None
	for _, st := range mod.Body {
		if es, ok := st.(*parse.ExprStmt); ok {
			v, err := ev.expr(es.Value)
			if err != nil {
				return Result{}, err
			}
			value = v
			continue
		}
		value = vals.None
		// A break or continue outside of a loop only ends the block it
		// appears in.
		if _, err := ev.exec(st); err != nil {
			return Result{}, err
		}
	}
	return Result{value, ev.Bindings()}, nil
}

// Bind installs bindings in the root frame, as if they had been assigned by
// an earlier run.
func (ev *Evaluator) Bind(bindings map[string]any) {
	maps.Copy(ev.scope.Root(), bindings)
}

// Bindings returns a copy of the bindings of the root frame.
func (ev *Evaluator) Bindings() map[string]any {
	return maps.Clone(map[string]any(ev.scope.Root()))
}

// Reset removes all bindings.
func (ev *Evaluator) Reset() {
	ev.scope = scope.New()
}

func (ev *Evaluator) lookup(name string) (any, error) {
	if v, ok := ev.scope.Lookup(name); ok {
		return v, nil
	}
	if v, ok := ev.globals[name]; ok {
		return v, nil
	}
	return nil, scope.NameError(name)
}

func (ev *Evaluator) checkCancel() error {
	if ev.ctx == nil {
		return nil
	}
	if err := ev.ctx.Err(); err != nil {
		logger.Println("evaluation cancelled:", err)
		return err
	}
	return nil
}
