package eval

import (
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

func evalListComp(ev *Evaluator, n *parse.ListComp) (any, error) {
	l := vals.NewList()
	err := ev.comprehend(n.Generators, func() error {
		v, err := ev.expr(n.Elt)
		if err != nil {
			return err
		}
		l.Elems = append(l.Elems, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func evalSetComp(ev *Evaluator, n *parse.SetComp) (any, error) {
	s, _ := vals.NewSet()
	err := ev.comprehend(n.Generators, func() error {
		v, err := ev.expr(n.Elt)
		if err != nil {
			return err
		}
		return s.Add(v)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func evalDictComp(ev *Evaluator, n *parse.DictComp) (any, error) {
	d := vals.NewDict()
	err := ev.comprehend(n.Generators, func() error {
		k, err := ev.expr(n.Key)
		if err != nil {
			return err
		}
		v, err := ev.expr(n.Value)
		if err != nil {
			return err
		}
		return d.Set(k, v)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Runs the first clause of gens in a new frame. For each value that passes
// all the conditions of the clause, it recurses into the remaining clauses,
// or calls emit if there are none. After each value, the names bound by the
// clause's target are deleted from the frame.
func (ev *Evaluator) comprehend(gens []*parse.Comprehension, emit func() error) error {
	g := gens[0]
	if g.Async {
		return ev.badSyntax(g, "asynchronous comprehensions are not allowed")
	}
	if err := ev.checkTarget(g.Target, assignVerb); err != nil {
		return err
	}
	iterable, err := ev.expr(g.Iter)
	if err != nil {
		return err
	}
	iter, err := vals.Iter(iterable)
	if err != nil {
		return err
	}
	return ev.scope.With(func() error {
		for {
			if err := ev.checkCancel(); err != nil {
				return err
			}
			v, ok, err := iter.Next()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := ev.assign(g.Target, v); err != nil {
				return err
			}
			pass, err := ev.allTrue(g.Ifs)
			if err != nil {
				return err
			}
			if pass {
				if len(gens) > 1 {
					err = ev.comprehend(gens[1:], emit)
				} else {
					err = emit()
				}
				if err != nil {
					return err
				}
			}
			for _, name := range targetNames(g.Target, nil) {
				// Missing if the target appears twice, as in "for x, x in".
				_ = ev.scope.Delete(name)
			}
		}
	})
}

func (ev *Evaluator) allTrue(conds []parse.Expr) (bool, error) {
	for _, cond := range conds {
		v, err := ev.expr(cond)
		if err != nil {
			return false, err
		}
		if !vals.Truthy(v) {
			return false, nil
		}
	}
	return true, nil
}

// Appends the names bound by an assignment target to names.
func targetNames(target parse.Expr, names []string) []string {
	switch t := target.(type) {
	case *parse.Name:
		names = append(names, t.ID)
	case *parse.Tuple:
		for _, elt := range t.Elts {
			names = targetNames(elt, names)
		}
	case *parse.List:
		for _, elt := range t.Elts {
			names = targetNames(elt, names)
		}
	}
	return names
}
