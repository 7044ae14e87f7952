package eval

import (
	"math/big"
	"strings"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/policy"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

type exprFunc func(ev *Evaluator, n parse.Expr) (any, error)

var exprHandlers map[parse.Kind]exprFunc

func expr[N parse.Expr](f func(*Evaluator, N) (any, error)) exprFunc {
	return func(ev *Evaluator, n parse.Expr) (any, error) { return f(ev, n.(N)) }
}

func init() {
	exprHandlers = map[parse.Kind]exprFunc{
		parse.KindConstant:       expr(evalConstant),
		parse.KindName:           expr(evalName),
		parse.KindBoolOp:         expr(evalBoolOp),
		parse.KindNamedExpr:      expr(evalNamedExpr),
		parse.KindBinOp:          expr(evalBinOp),
		parse.KindUnaryOp:        expr(evalUnaryOp),
		parse.KindIfExp:          expr(evalIfExp),
		parse.KindCompare:        expr(evalCompare),
		parse.KindDict:           expr(evalDict),
		parse.KindSet:            expr(evalSet),
		parse.KindList:           expr(evalList),
		parse.KindTuple:          expr(evalTuple),
		parse.KindListComp:       expr(evalListComp),
		parse.KindSetComp:        expr(evalSetComp),
		parse.KindDictComp:       expr(evalDictComp),
		parse.KindCall:           expr(evalCall),
		parse.KindFormattedValue: expr(evalFormattedValue),
		parse.KindJoinedStr:      expr(evalJoinedStr),
		parse.KindAttribute:      expr(evalAttribute),
		parse.KindSubscript:      expr(evalSubscript),
		parse.KindSlice:          expr(evalSlice),
		parse.KindStarred: expr(func(ev *Evaluator, n *parse.Starred) (any, error) {
			return nil, ev.badSyntax(n, "starred expressions are not allowed here")
		}),
	}
}

func (ev *Evaluator) expr(n parse.Expr) (any, error) {
	if msg, ok := rejectedMessage(n.Kind()); ok {
		return nil, ev.badSyntax(n, "%s", msg)
	}
	h, ok := exprHandlers[n.Kind()]
	if !ok {
		return nil, errs.NotImplemented{What: n.Kind().String()}
	}
	return h(ev, n)
}

func evalConstant(ev *Evaluator, n *parse.Constant) (any, error) {
	switch v := n.Value.(type) {
	case parse.NoneType:
		return vals.None, nil
	case parse.EllipsisType:
		return vals.Ellipsis, nil
	case []byte:
		return vals.Bytes(v), nil
	case int, *big.Int, float64:
		if ev.cfg.Decimal {
			d, err := vals.ParseDecimal(vals.Str(v))
			if err != nil {
				return nil, err
			}
			return d, nil
		}
	}
	return n.Value, nil
}

func evalName(ev *Evaluator, n *parse.Name) (any, error) {
	return ev.lookup(n.ID)
}

// Boolean operators combine every operand, from left to right, starting
// from True. Unlike the reference language, all operands are evaluated even
// when the result is already decided, and "or" always yields True. This is
// intentional and observable.
func evalBoolOp(ev *Evaluator, n *parse.BoolOp) (any, error) {
	op, ok := policy.BoolOps[n.Op]
	if !ok {
		return nil, errs.NotImplemented{What: n.Op.String()}
	}
	result := op.Start
	for _, operand := range n.Values {
		v, err := ev.expr(operand)
		if err != nil {
			return nil, err
		}
		result = op.Combine(result, v)
	}
	return result, nil
}

func evalNamedExpr(ev *Evaluator, n *parse.NamedExpr) (any, error) {
	v, err := ev.expr(n.Value)
	if err != nil {
		return nil, err
	}
	ev.scope.Set(n.Target.ID, v)
	return v, nil
}

func evalBinOp(ev *Evaluator, n *parse.BinOp) (any, error) {
	op, ok := policy.BinOps[n.Op]
	if !ok {
		return nil, errs.NotImplemented{What: n.Op.String()}
	}
	left, err := ev.expr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := ev.expr(n.Right)
	if err != nil {
		return nil, err
	}
	return op(left, right)
}

func evalUnaryOp(ev *Evaluator, n *parse.UnaryOp) (any, error) {
	op, ok := policy.UnaryOps[n.Op]
	if !ok {
		return nil, errs.NotImplemented{What: n.Op.String()}
	}
	v, err := ev.expr(n.Operand)
	if err != nil {
		return nil, err
	}
	return op(v)
}

func evalIfExp(ev *Evaluator, n *parse.IfExp) (any, error) {
	test, err := ev.expr(n.Test)
	if err != nil {
		return nil, err
	}
	if vals.Truthy(test) {
		return ev.expr(n.Body)
	}
	return ev.expr(n.Orelse)
}

// Every comparator is evaluated. Once a comparison is false, the remaining
// operators are no longer applied.
func evalCompare(ev *Evaluator, n *parse.Compare) (any, error) {
	left, err := ev.expr(n.Left)
	if err != nil {
		return nil, err
	}
	var result any = true
	for i, k := range n.Ops {
		op, ok := policy.CmpOps[k]
		if !ok {
			return nil, errs.NotImplemented{What: k.String()}
		}
		right, err := ev.expr(n.Comparators[i])
		if err != nil {
			return nil, err
		}
		if vals.Truthy(result) {
			if result, err = op(left, right); err != nil {
				return nil, err
			}
		}
		left = right
	}
	return result, nil
}

// Evaluates the elements of a display, expanding starred elements.
func (ev *Evaluator) elems(elts []parse.Expr) ([]any, error) {
	out := make([]any, 0, len(elts))
	for _, elt := range elts {
		if s, ok := elt.(*parse.Starred); ok {
			v, err := ev.expr(s.Value)
			if err != nil {
				return nil, err
			}
			if !vals.CanIterate(v) {
				return nil, errs.Newf(errs.TypeError,
					"Value after * must be an iterable, not %s", vals.TypeName(v))
			}
			if err := vals.Iterate(v, func(e any) error {
				out = append(out, e)
				return nil
			}); err != nil {
				return nil, err
			}
			continue
		}
		v, err := ev.expr(elt)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func evalList(ev *Evaluator, n *parse.List) (any, error) {
	elems, err := ev.elems(n.Elts)
	if err != nil {
		return nil, err
	}
	return vals.NewList(elems...), nil
}

func evalTuple(ev *Evaluator, n *parse.Tuple) (any, error) {
	elems, err := ev.elems(n.Elts)
	if err != nil {
		return nil, err
	}
	return vals.Tuple(elems), nil
}

func evalSet(ev *Evaluator, n *parse.Set) (any, error) {
	elems, err := ev.elems(n.Elts)
	if err != nil {
		return nil, err
	}
	return vals.NewSet(elems...)
}

func evalDict(ev *Evaluator, n *parse.Dict) (any, error) {
	d := vals.NewDict()
	for i, keyExpr := range n.Keys {
		v, err := ev.expr(n.Values[i])
		if err != nil {
			return nil, err
		}
		if keyExpr == nil {
			m, ok := v.(*vals.Dict)
			if !ok {
				return nil, errs.Newf(errs.TypeError, "'%s' object is not a mapping", vals.TypeName(v))
			}
			var setErr error
			m.Each(func(k, v any) bool {
				setErr = d.Set(k, v)
				return setErr == nil
			})
			if setErr != nil {
				return nil, setErr
			}
			continue
		}
		k, err := ev.expr(keyExpr)
		if err != nil {
			return nil, err
		}
		if err := d.Set(k, v); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func evalCall(ev *Evaluator, n *parse.Call) (any, error) {
	fn, err := ev.expr(n.Func)
	if err != nil {
		return nil, err
	}
	args, err := ev.elems(n.Args)
	if err != nil {
		return nil, err
	}
	var kw vals.Kwargs
	seen := map[string]bool{}
	add := func(name string, v any) error {
		if seen[name] {
			return errs.Newf(errs.TypeError, "%s() got multiple values for keyword argument '%s'",
				callableName(fn), name)
		}
		seen[name] = true
		kw = append(kw, vals.Kwarg{Name: name, Value: v})
		return nil
	}
	for _, k := range n.Keywords {
		v, err := ev.expr(k.Value)
		if err != nil {
			return nil, err
		}
		if k.Arg != "" {
			if err := add(k.Arg, v); err != nil {
				return nil, err
			}
			continue
		}
		m, ok := v.(*vals.Dict)
		if !ok {
			return nil, errs.Newf(errs.TypeError, "argument after ** must be a mapping, not %s", vals.TypeName(v))
		}
		var addErr error
		m.Each(func(key, v any) bool {
			name, ok := key.(string)
			if !ok {
				addErr = errs.New(errs.TypeError, "keywords must be strings")
				return false
			}
			addErr = add(name, v)
			return addErr == nil
		})
		if addErr != nil {
			return nil, addErr
		}
	}
	return vals.Call(fn, args, kw)
}

func callableName(fn any) string {
	switch fn := fn.(type) {
	case *vals.Builtin:
		return fn.Name
	case *vals.BoundMethod:
		return fn.Name
	case *vals.Type:
		return fn.Name
	}
	return vals.TypeName(fn)
}

func evalFormattedValue(ev *Evaluator, n *parse.FormattedValue) (any, error) {
	v, err := ev.expr(n.Value)
	if err != nil {
		return nil, err
	}
	switch n.Conversion {
	case 's':
		v = vals.Str(v)
	case 'r':
		v = vals.Repr(v)
	case 'a':
		v = vals.ASCII(v)
	}
	spec := ""
	if n.FormatSpec != nil {
		s, err := evalJoinedStr(ev, n.FormatSpec)
		if err != nil {
			return nil, err
		}
		spec = s.(string)
	}
	return vals.Format(v, spec)
}

func evalJoinedStr(ev *Evaluator, n *parse.JoinedStr) (any, error) {
	var sb strings.Builder
	for _, part := range n.Values {
		v, err := ev.expr(part)
		if err != nil {
			return nil, err
		}
		sb.WriteString(vals.Str(v))
	}
	return sb.String(), nil
}

func evalAttribute(ev *Evaluator, n *parse.Attribute) (any, error) {
	base, err := ev.expr(n.Value)
	if err != nil {
		return nil, err
	}
	if ok, msg := policy.CheckAttr(base, n.Attr); !ok {
		return nil, ev.badSyntax(n, "%s", msg)
	}
	return vals.GetAttr(base, n.Attr)
}

func evalSubscript(ev *Evaluator, n *parse.Subscript) (any, error) {
	base, err := ev.expr(n.Value)
	if err != nil {
		return nil, err
	}
	index, err := ev.expr(n.Slice)
	if err != nil {
		return nil, err
	}
	return vals.Index(base, index)
}

func evalSlice(ev *Evaluator, n *parse.Slice) (any, error) {
	var bounds [3]any
	for i, e := range [3]parse.Expr{n.Lower, n.Upper, n.Step} {
		bounds[i] = vals.None
		if e == nil {
			continue
		}
		v, err := ev.expr(e)
		if err != nil {
			return nil, err
		}
		bounds[i] = v
	}
	return vals.Slice{Start: bounds[0], Stop: bounds[1], Step: bounds[2]}, nil
}
