package eval

import (
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/policy"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

func execAssign(ev *Evaluator, n *parse.Assign) (interrupt, error) {
	for _, target := range n.Targets {
		if err := ev.checkTarget(target, assignVerb); err != nil {
			return normal, err
		}
	}
	v, err := ev.expr(n.Value)
	if err != nil {
		return normal, err
	}
	for _, target := range n.Targets {
		if err := ev.assign(target, v); err != nil {
			return normal, err
		}
	}
	return normal, nil
}

// Binds v to a target that has passed checkTarget.
func (ev *Evaluator) assign(target parse.Expr, v any) error {
	switch t := target.(type) {
	case *parse.Name:
		ev.scope.Set(t.ID, v)
		return nil
	case *parse.Tuple:
		return ev.unpack(t.Elts, v)
	case *parse.List:
		return ev.unpack(t.Elts, v)
	case *parse.Subscript:
		base, err := ev.expr(t.Value)
		if err != nil {
			return err
		}
		index, err := ev.expr(t.Slice)
		if err != nil {
			return err
		}
		return vals.SetIndex(base, index, v)
	}
	return ev.checkTarget(target, assignVerb)
}

// Pairs the targets with the values of v one at a time. Targets before the
// point where a length mismatch is found are bound.
func (ev *Evaluator) unpack(targets []parse.Expr, v any) error {
	if !vals.CanIterate(v) {
		return errs.Newf(errs.TypeError, "cannot unpack non-iterable %s object", vals.TypeName(v))
	}
	iter, err := vals.Iter(v)
	if err != nil {
		return err
	}
	for i, target := range targets {
		elem, ok, err := iter.Next()
		if err != nil {
			return err
		}
		if !ok {
			return errs.Newf(errs.ValueError,
				"not enough values to unpack (expected %d, got %d)", len(targets), i)
		}
		if err := ev.assign(target, elem); err != nil {
			return err
		}
	}
	_, more, err := iter.Next()
	if err != nil {
		return err
	}
	if more {
		return errs.Newf(errs.ValueError, "too many values to unpack (expected %d)", len(targets))
	}
	return nil
}

func execAugAssign(ev *Evaluator, n *parse.AugAssign) (interrupt, error) {
	if err := ev.checkTarget(n.Target, augAssignVerb); err != nil {
		return normal, err
	}
	op, ok := policy.BinOps[n.Op]
	if !ok {
		return normal, errs.NotImplemented{What: "augmented " + n.Op.String()}
	}
	switch t := n.Target.(type) {
	case *parse.Name:
		old, err := ev.lookup(t.ID)
		if err != nil {
			return normal, err
		}
		v, err := ev.expr(n.Value)
		if err != nil {
			return normal, err
		}
		result, err := inplace(n.Op, op, old, v)
		if err != nil {
			return normal, err
		}
		ev.scope.Set(t.ID, result)
		return normal, nil
	case *parse.Subscript:
		base, err := ev.expr(t.Value)
		if err != nil {
			return normal, err
		}
		index, err := ev.expr(t.Slice)
		if err != nil {
			return normal, err
		}
		old, err := vals.Index(base, index)
		if err != nil {
			return normal, err
		}
		v, err := ev.expr(n.Value)
		if err != nil {
			return normal, err
		}
		result, err := inplace(n.Op, op, old, v)
		if err != nil {
			return normal, err
		}
		return normal, vals.SetIndex(base, index, result)
	}
	return normal, ev.checkTarget(n.Target, augAssignVerb)
}

// Implements the in-place forms of the operators that mutate lists, sets and
// dicts. Other combinations fall back to the binary operator.
func inplace(k parse.Kind, op policy.BinaryFunc, a, b any) (any, error) {
	switch a := a.(type) {
	case *vals.List:
		switch k {
		case parse.Add:
			return a, a.Extend(b)
		case parse.Mult:
			r, err := op(a, b)
			if err != nil {
				return nil, err
			}
			a.Elems = r.(*vals.List).Elems
			return a, nil
		}
	case *vals.Set:
		if _, ok := b.(*vals.Set); ok && !a.Frozen {
			switch k {
			case parse.BitOr, parse.BitAnd, parse.BitXor, parse.Sub:
				r, err := op(a, b)
				if err != nil {
					return nil, err
				}
				elems := r.(*vals.Set).Elems()
				a.Clear()
				for _, e := range elems {
					if err := a.Add(e); err != nil {
						return nil, err
					}
				}
				return a, nil
			}
		}
	case *vals.Dict:
		if k == parse.BitOr {
			if _, ok := b.(*vals.Dict); ok {
				return a, vals.UpdateDict(a, "dict.update", []any{b}, nil)
			}
		}
	}
	return op(a, b)
}

func execDelete(ev *Evaluator, n *parse.Delete) (interrupt, error) {
	for _, target := range n.Targets {
		if err := ev.checkTarget(target, deleteVerb); err != nil {
			return normal, err
		}
	}
	for _, target := range n.Targets {
		if err := ev.delete(target); err != nil {
			return normal, err
		}
	}
	return normal, nil
}

func (ev *Evaluator) delete(target parse.Expr) error {
	switch t := target.(type) {
	case *parse.Name:
		return ev.scope.Delete(t.ID)
	case *parse.Tuple:
		return ev.deleteAll(t.Elts)
	case *parse.List:
		return ev.deleteAll(t.Elts)
	case *parse.Subscript:
		base, err := ev.expr(t.Value)
		if err != nil {
			return err
		}
		index, err := ev.expr(t.Slice)
		if err != nil {
			return err
		}
		return vals.DelIndex(base, index)
	}
	return ev.checkTarget(target, deleteVerb)
}

func (ev *Evaluator) deleteAll(targets []parse.Expr) error {
	for _, target := range targets {
		if err := ev.delete(target); err != nil {
			return err
		}
	}
	return nil
}
