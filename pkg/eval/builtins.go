package eval

import (
	"math"
	"math/big"
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
)

// The built-in callables, keyed by name. Only the names in policy.Builtins
// are visible.
var builtins = map[string]any{
	"bool":      vals.BoolType,
	"complex":   vals.ComplexType,
	"dict":      vals.DictType,
	"float":     vals.FloatType,
	"frozenset": vals.FrozenSetType,
	"int":       vals.IntType,
	"list":      vals.ListType,
	"range":     vals.RangeType,
	"set":       vals.SetType,
	"slice":     vals.SliceType,
	"str":       vals.StrType,
	"tuple":     vals.TupleType,
	"type":      vals.TypeType,
	"Decimal":   vals.DecimalType,

	"abs":        vals.NewGoFn("abs", vals.Abs),
	"divmod":     vals.NewGoFn("divmod", vals.DivMod),
	"repr":       vals.NewGoFn("repr", vals.Repr),
	"len":        vals.NewGoFn("len", vals.Len),
	"all":        vals.NewGoFn("all", func(v any) (bool, error) { return allAny(v, true) }),
	"any":        vals.NewGoFn("any", func(v any) (bool, error) { return allAny(v, false) }),
	"bin":        vals.NewGoFn("bin", func(v any) (string, error) { return intFormat(v, "#b") }),
	"oct":        vals.NewGoFn("oct", func(v any) (string, error) { return intFormat(v, "#o") }),
	"hex":        vals.NewGoFn("hex", func(v any) (string, error) { return intFormat(v, "#x") }),
	"chr":        vals.NewGoFn("chr", chr),
	"ord":        vals.NewGoFn("ord", ord),
	"isinstance": vals.NewGoFn("isinstance", isinstance),

	"format":    vals.NewBuiltin("format", format),
	"pow":       vals.NewBuiltin("pow", pow),
	"round":     vals.NewBuiltin("round", round),
	"sum":       vals.NewBuiltin("sum", sum),
	"max":       vals.NewBuiltin("max", func(args []any, kw vals.Kwargs) (any, error) { return minMax("max", vals.Gt, args, kw) }),
	"min":       vals.NewBuiltin("min", func(args []any, kw vals.Kwargs) (any, error) { return minMax("min", vals.Lt, args, kw) }),
	"sorted":    vals.NewBuiltin("sorted", sorted),
	"reversed":  vals.NewBuiltin("reversed", reversed),
	"enumerate": vals.NewBuiltin("enumerate", enumerate),
	"filter":    vals.NewBuiltin("filter", filter),
	"map":       vals.NewBuiltin("map", mapFn),
	"zip":       vals.NewBuiltin("zip", zip),
}

// The range of decimal mode, which accepts non-integer arguments.
var decimalRange = vals.NewBuiltin("range", func(args []any, kw vals.Kwargs) (any, error) {
	if err := vals.NoKwargs("range", kw); err != nil {
		return nil, err
	}
	r, err := vals.NewDecimalRange(args...)
	if err != nil {
		return nil, err
	}
	return r, nil
})

func allAny(v any, all bool) (bool, error) {
	iter, err := vals.Iter(v)
	if err != nil {
		return false, err
	}
	for {
		e, ok, err := iter.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			return all, nil
		}
		if vals.Truthy(e) != all {
			return !all, nil
		}
	}
}

// Converts an argument that must be an integer. Integral Decimals are
// accepted, since every literal is a Decimal in decimal mode.
func intArg(v any) (any, error) {
	switch v := v.(type) {
	case bool, int, *big.Int:
		return v, nil
	case *vals.Decimal:
		if v.IsInteger() {
			return v.Trunc()
		}
	}
	return nil, errs.Newf(errs.TypeError, "'%s' object cannot be interpreted as an integer", vals.TypeName(v))
}

func intFormat(v any, spec string) (string, error) {
	n, err := intArg(v)
	if err != nil {
		return "", err
	}
	return vals.Format(n, spec)
}

func chr(v any) (string, error) {
	n, err := intArg(v)
	if err != nil {
		return "", err
	}
	i, err := vals.ToIndex(n)
	if err != nil || i < 0 || i > utf8.MaxRune {
		return "", errs.New(errs.ValueError, "chr() arg not in range(0x110000)")
	}
	return string(rune(i)), nil
}

func ord(v any) (int, error) {
	switch v := v.(type) {
	case string:
		if utf8.RuneCountInString(v) == 1 {
			r, _ := utf8.DecodeRuneInString(v)
			return int(r), nil
		}
		return 0, errs.Newf(errs.TypeError,
			"ord() expected a character, but string of length %d found", utf8.RuneCountInString(v))
	case vals.Bytes:
		if len(v) == 1 {
			return int(v[0]), nil
		}
		return 0, errs.Newf(errs.TypeError,
			"ord() expected a character, but string of length %d found", len(v))
	}
	return 0, errs.Newf(errs.TypeError,
		"ord() expected string of length 1, but %s found", vals.TypeName(v))
}

func isinstance(v, classinfo any) (bool, error) {
	switch c := classinfo.(type) {
	case *vals.Type:
		return vals.TypeOf(v).IsSubtype(c), nil
	case vals.Tuple:
		for _, elem := range c {
			ok, err := isinstance(v, elem)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
	return false, errs.New(errs.TypeError,
		"isinstance() arg 2 must be a type, a tuple of types, or a union")
}

func format(args []any, kw vals.Kwargs) (any, error) {
	a, err := vals.Bind("format", args, kw, []string{"value", "format_spec", "/"}, 1)
	if err != nil {
		return nil, err
	}
	spec := ""
	if a[1] != nil {
		s, ok := a[1].(string)
		if !ok {
			return nil, errs.Newf(errs.TypeError,
				"format() argument 2 must be str, not %s", vals.TypeName(a[1]))
		}
		spec = s
	}
	return vals.Format(a[0], spec)
}

func pow(args []any, kw vals.Kwargs) (any, error) {
	a, err := vals.Bind("pow", args, kw, []string{"base", "exp", "mod"}, 2)
	if err != nil {
		return nil, err
	}
	if a[2] == nil || a[2] == vals.None {
		return vals.Pow(a[0], a[1])
	}
	return vals.PowMod(a[0], a[1], a[2])
}

func round(args []any, kw vals.Kwargs) (any, error) {
	a, err := vals.Bind("round", args, kw, []string{"number", "ndigits"}, 1)
	if err != nil {
		return nil, err
	}
	x := a[0]
	if a[1] == nil || a[1] == vals.None {
		switch x := x.(type) {
		case bool, int, *big.Int:
			return vals.ToInt(x)
		case float64:
			return vals.ToInt(math.RoundToEven(x))
		case *vals.Decimal:
			r, err := x.ToIntegral()
			if err != nil {
				return nil, err
			}
			return r.Trunc()
		}
		return nil, errs.Newf(errs.TypeError, "type %s doesn't define __round__ method", vals.TypeName(x))
	}
	n, err := vals.ToIndex(a[1])
	if err != nil {
		return nil, err
	}
	switch x := x.(type) {
	case bool, int, *big.Int:
		z, _ := vals.ToBigInt(x)
		return roundInt(z, n), nil
	case float64:
		return roundFloat(x, n), nil
	case *vals.Decimal:
		return x.RoundTo(n)
	}
	return nil, errs.Newf(errs.TypeError, "type %s doesn't define __round__ method", vals.TypeName(x))
}

// Rounds z to n digits after the decimal point, half to even.
func roundInt(z *big.Int, n int) any {
	if n >= 0 {
		return vals.NormalizeBigInt(z)
	}
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-n)), nil)
	q, r := new(big.Int).DivMod(z, unit, new(big.Int))
	switch c := new(big.Int).Lsh(r, 1).Cmp(unit); {
	case c > 0, c == 0 && q.Bit(0) == 1:
		q.Add(q, big.NewInt(1))
	}
	return vals.NormalizeBigInt(q.Mul(q, unit))
}

// Rounds f to n digits after the decimal point. For n >= 0 the result is
// correctly rounded from the exact binary value, as strconv does.
func roundFloat(f float64, n int) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) || n > 323 {
		return f
	}
	if n >= 0 {
		r, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'f', n, 64), 64)
		return r
	}
	if n < -308 {
		return math.Copysign(0, f)
	}
	unit := math.Pow10(-n)
	return math.RoundToEven(f/unit) * unit
}

func sum(args []any, kw vals.Kwargs) (any, error) {
	a, err := vals.Bind("sum", args, kw, []string{"iterable", "/", "start"}, 1)
	if err != nil {
		return nil, err
	}
	var total any = 0
	if a[1] != nil {
		total = a[1]
	}
	switch total.(type) {
	case string:
		return nil, errs.New(errs.TypeError, "sum() can't sum strings [use ''.join(seq) instead]")
	case vals.Bytes:
		return nil, errs.New(errs.TypeError, "sum() can't sum bytes [use b''.join(seq) instead]")
	}
	err = vals.Iterate(a[0], func(e any) error {
		total, err = vals.Add(total, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

func minMax(fn string, better func(a, b any) (any, error), args []any, kw vals.Kwargs) (any, error) {
	var key, dflt any
	hasDefault := false
	for _, a := range kw {
		switch a.Name {
		case "key":
			key = a.Value
		case "default":
			dflt, hasDefault = a.Value, true
		default:
			return nil, errs.Newf(errs.TypeError, "%s() got an unexpected keyword argument '%s'", fn, a.Name)
		}
	}
	var items []any
	switch {
	case len(args) == 0:
		return nil, errs.Newf(errs.TypeError, "%s expected at least 1 argument, got 0", fn)
	case len(args) == 1:
		var err error
		if items, err = vals.Collect(args[0]); err != nil {
			return nil, err
		}
	case hasDefault:
		return nil, errs.Newf(errs.TypeError,
			"Cannot specify a default for %s() with multiple positional arguments", fn)
	default:
		items = args
	}
	if len(items) == 0 {
		if hasDefault {
			return dflt, nil
		}
		return nil, errs.Newf(errs.ValueError, "%s() iterable argument is empty", fn)
	}
	keyOf := func(v any) (any, error) {
		if key == nil || key == vals.None {
			return v, nil
		}
		return vals.Call(key, []any{v}, nil)
	}
	best := items[0]
	bestKey, err := keyOf(best)
	if err != nil {
		return nil, err
	}
	for _, item := range items[1:] {
		k, err := keyOf(item)
		if err != nil {
			return nil, err
		}
		b, err := better(k, bestKey)
		if err != nil {
			return nil, err
		}
		if vals.Truthy(b) {
			best, bestKey = item, k
		}
	}
	return best, nil
}

func sorted(args []any, kw vals.Kwargs) (any, error) {
	a, err := vals.Bind("sorted", args, kw, []string{"iterable", "/", "*", "key", "reverse"}, 1)
	if err != nil {
		return nil, err
	}
	elems, err := vals.Collect(a[0])
	if err != nil {
		return nil, err
	}
	reverse := a[2] != nil && vals.Truthy(a[2])
	elems, err = vals.Sort(elems, a[1], reverse)
	if err != nil {
		return nil, err
	}
	return vals.NewList(elems...), nil
}

func reversed(args []any, kw vals.Kwargs) (any, error) {
	if err := vals.CheckArity("reversed", args, kw, 1, 1); err != nil {
		return nil, err
	}
	switch args[0].(type) {
	case string, vals.Bytes, *vals.List, vals.Tuple, vals.Range, *vals.DecimalRange, *vals.Dict:
	default:
		return nil, errs.Newf(errs.TypeError, "'%s' object is not reversible", vals.TypeName(args[0]))
	}
	elems, err := vals.Collect(args[0])
	if err != nil {
		return nil, err
	}
	slices.Reverse(elems)
	return sliceIterator("reversed", elems), nil
}

func sliceIterator(name string, elems []any) *vals.Iterator {
	i := 0
	return vals.NewIterator(name, func() (any, bool, error) {
		if i >= len(elems) {
			return nil, false, nil
		}
		i++
		return elems[i-1], true, nil
	})
}

func enumerate(args []any, kw vals.Kwargs) (any, error) {
	a, err := vals.Bind("enumerate", args, kw, []string{"iterable", "start"}, 1)
	if err != nil {
		return nil, err
	}
	iter, err := vals.Iter(a[0])
	if err != nil {
		return nil, err
	}
	var count any = 0
	if a[1] != nil {
		if count, err = intArg(a[1]); err != nil {
			return nil, err
		}
	}
	return vals.NewIterator("enumerate", func() (any, bool, error) {
		v, ok, err := iter.Next()
		if !ok || err != nil {
			return nil, false, err
		}
		t := vals.Tuple{count, v}
		count, err = vals.Add(count, 1)
		return t, true, err
	}), nil
}

func filter(args []any, kw vals.Kwargs) (any, error) {
	if err := vals.CheckArity("filter", args, kw, 2, 2); err != nil {
		return nil, err
	}
	pred := args[0]
	iter, err := vals.Iter(args[1])
	if err != nil {
		return nil, err
	}
	return vals.NewIterator("filter", func() (any, bool, error) {
		for {
			v, ok, err := iter.Next()
			if !ok || err != nil {
				return nil, false, err
			}
			keep := v
			if pred != vals.None {
				if keep, err = vals.Call(pred, []any{v}, nil); err != nil {
					return nil, false, err
				}
			}
			if vals.Truthy(keep) {
				return v, true, nil
			}
		}
	}), nil
}

func iters(iterables []any) ([]*vals.Iterator, error) {
	out := make([]*vals.Iterator, len(iterables))
	for i, v := range iterables {
		if !vals.CanIterate(v) {
			return nil, errs.Newf(errs.TypeError, "'%s' object is not iterable", vals.TypeName(v))
		}
		iter, err := vals.Iter(v)
		if err != nil {
			return nil, err
		}
		out[i] = iter
	}
	return out, nil
}

func mapFn(args []any, kw vals.Kwargs) (any, error) {
	if err := vals.CheckArity("map", args, kw, 2, -1); err != nil {
		return nil, err
	}
	fn := args[0]
	its, err := iters(args[1:])
	if err != nil {
		return nil, err
	}
	return vals.NewIterator("map", func() (any, bool, error) {
		fnArgs := make([]any, len(its))
		for i, iter := range its {
			v, ok, err := iter.Next()
			if !ok || err != nil {
				return nil, false, err
			}
			fnArgs[i] = v
		}
		v, err := vals.Call(fn, fnArgs, nil)
		return v, err == nil, err
	}), nil
}

func zip(args []any, kw vals.Kwargs) (any, error) {
	strict := false
	for _, a := range kw {
		if a.Name != "strict" {
			return nil, errs.Newf(errs.TypeError, "zip() got an unexpected keyword argument '%s'", a.Name)
		}
		strict = vals.Truthy(a.Value)
	}
	its, err := iters(args)
	if err != nil {
		return nil, err
	}
	return vals.NewIterator("zip", func() (any, bool, error) {
		if len(its) == 0 {
			return nil, false, nil
		}
		t := make(vals.Tuple, len(its))
		for i, iter := range its {
			v, ok, err := iter.Next()
			if err != nil {
				return nil, false, err
			}
			if !ok {
				if strict {
					return nil, false, zipMismatch(its, i)
				}
				return nil, false, nil
			}
			t[i] = v
		}
		return t, true, nil
	}), nil
}

// Returns the error of a strict zip whose argument i ended first, or nil if
// all the arguments ended together.
func zipMismatch(its []*vals.Iterator, i int) error {
	if i > 0 {
		return errs.Newf(errs.ValueError, "zip() argument %d is shorter than %s", i+1, zipArgs(i))
	}
	for j, iter := range its[1:] {
		_, ok, err := iter.Next()
		if err != nil {
			return err
		}
		if ok {
			return errs.Newf(errs.ValueError, "zip() argument %d is longer than %s", j+2, zipArgs(j+1))
		}
	}
	return nil
}

func zipArgs(n int) string {
	if n == 1 {
		return "argument 1"
	}
	return "arguments 1-" + strconv.Itoa(n)
}
