package eval

import (
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

// An interrupt is requested by break and continue, and stops the execution
// of the enclosing statement list until a loop handles it.
type interrupt int

const (
	normal interrupt = iota
	breakLoop
	continueLoop
)

type stmtFunc func(ev *Evaluator, n parse.Stmt) (interrupt, error)

var stmtHandlers map[parse.Kind]stmtFunc

func stmt[N parse.Stmt](f func(*Evaluator, N) (interrupt, error)) stmtFunc {
	return func(ev *Evaluator, n parse.Stmt) (interrupt, error) { return f(ev, n.(N)) }
}

func init() {
	stmtHandlers = map[parse.Kind]stmtFunc{
		parse.KindExprStmt:  stmt(execExprStmt),
		parse.KindAssign:    stmt(execAssign),
		parse.KindAugAssign: stmt(execAugAssign),
		parse.KindDelete:    stmt(execDelete),
		parse.KindPass:      stmt(func(*Evaluator, *parse.Pass) (interrupt, error) { return normal, nil }),
		parse.KindBreak:     stmt(func(*Evaluator, *parse.Break) (interrupt, error) { return breakLoop, nil }),
		parse.KindContinue: stmt(func(*Evaluator, *parse.Continue) (interrupt, error) {
			return continueLoop, nil
		}),
		parse.KindIf:    stmt(execIf),
		parse.KindFor:   stmt(execFor),
		parse.KindWhile: stmt(execWhile),
	}
}

func (ev *Evaluator) exec(n parse.Stmt) (interrupt, error) {
	if msg, ok := rejectedMessage(n.Kind()); ok {
		return normal, ev.badSyntax(n, "%s", msg)
	}
	h, ok := stmtHandlers[n.Kind()]
	if !ok {
		return normal, errs.NotImplemented{What: n.Kind().String()}
	}
	return h(ev, n)
}

// Executes a list of statements, stopping at the first interrupt.
func (ev *Evaluator) execBlock(body []parse.Stmt) (interrupt, error) {
	for _, st := range body {
		it, err := ev.exec(st)
		if err != nil || it != normal {
			return it, err
		}
	}
	return normal, nil
}

func execExprStmt(ev *Evaluator, n *parse.ExprStmt) (interrupt, error) {
	_, err := ev.expr(n.Value)
	return normal, err
}

func execIf(ev *Evaluator, n *parse.If) (interrupt, error) {
	test, err := ev.expr(n.Test)
	if err != nil {
		return normal, err
	}
	if vals.Truthy(test) {
		return ev.execBlock(n.Body)
	}
	return ev.execBlock(n.Orelse)
}

// Runs one iteration of a loop body. It reports whether the loop should stop
// because of a break.
func (ev *Evaluator) loopBody(body []parse.Stmt) (bool, error) {
	if err := ev.checkCancel(); err != nil {
		return true, err
	}
	it, err := ev.execBlock(body)
	return it == breakLoop, err
}

func execFor(ev *Evaluator, n *parse.For) (interrupt, error) {
	if err := ev.checkTarget(n.Target, assignVerb); err != nil {
		return normal, err
	}
	iterable, err := ev.expr(n.Iter)
	if err != nil {
		return normal, err
	}
	iter, err := vals.Iter(iterable)
	if err != nil {
		return normal, err
	}
	for {
		v, ok, err := iter.Next()
		if err != nil {
			return normal, err
		}
		if !ok {
			break
		}
		if err := ev.assign(n.Target, v); err != nil {
			return normal, err
		}
		stop, err := ev.loopBody(n.Body)
		if err != nil {
			return normal, err
		}
		if stop {
			return normal, nil
		}
	}
	return ev.execBlock(n.Orelse)
}

func execWhile(ev *Evaluator, n *parse.While) (interrupt, error) {
	for {
		test, err := ev.expr(n.Test)
		if err != nil {
			return normal, err
		}
		if !vals.Truthy(test) {
			break
		}
		stop, err := ev.loopBody(n.Body)
		if err != nil {
			return normal, err
		}
		if stop {
			return normal, nil
		}
	}
	return ev.execBlock(n.Orelse)
}
