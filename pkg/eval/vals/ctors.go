package vals

import (
	"math"
	"strconv"
	"strings"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

func init() {
	IntType.New = newInt
	BoolType.New = func(args []any, kw Kwargs) (any, error) {
		if err := CheckArity("bool", args, kw, 0, 1); err != nil {
			return nil, err
		}
		return len(args) == 1 && Truthy(args[0]), nil
	}
	FloatType.New = func(args []any, kw Kwargs) (any, error) {
		if err := CheckArity("float", args, kw, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return 0.0, nil
		}
		return NewFloat(args[0])
	}
	ComplexType.New = newComplex
	DecimalType.New = func(args []any, kw Kwargs) (any, error) {
		a, err := Bind("Decimal", args, kw, []string{"value", "context"}, 0)
		if err != nil {
			return nil, err
		}
		if a[1] != nil {
			return nil, errs.New(errs.TypeError, "Decimal() context argument is not supported")
		}
		if a[0] == nil {
			return DecimalFromInt(0), nil
		}
		return NewDecimal(a[0])
	}
	DecimalType.Attrs = map[string]any{
		"from_float": Method(DecimalType, "from_float", func(args []any, kw Kwargs) (any, error) {
			if err := CheckArity("from_float", args, kw, 1, 1); err != nil {
				return nil, err
			}
			if _, ok := args[0].(float64); ok || isInt(args[0]) {
				d, _ := ToDecimal(args[0])
				return d, nil
			}
			return nil, errs.New(errs.TypeError, "argument must be int or float")
		}),
	}
	StrType.New = func(args []any, kw Kwargs) (any, error) {
		a, err := Bind("str", args, kw, []string{"object"}, 0)
		if err != nil {
			return nil, err
		}
		if a[0] == nil {
			return "", nil
		}
		return Str(a[0]), nil
	}
	ListType.New = func(args []any, kw Kwargs) (any, error) {
		elems, err := optIterable("list", args, kw)
		return NewList(elems...), err
	}
	TupleType.New = func(args []any, kw Kwargs) (any, error) {
		elems, err := optIterable("tuple", args, kw)
		if err != nil {
			return nil, err
		}
		if elems == nil {
			elems = []any{}
		}
		return Tuple(elems), nil
	}
	DictType.New = func(args []any, kw Kwargs) (any, error) {
		d := NewDict()
		return d, UpdateDict(d, "dict", args, kw)
	}
	DictType.Attrs = map[string]any{"fromkeys": Method(DictType, "fromkeys", dictFromKeys)}
	SetType.New = func(args []any, kw Kwargs) (any, error) {
		elems, err := optIterable("set", args, kw)
		if err != nil {
			return nil, err
		}
		return NewSet(elems...)
	}
	FrozenSetType.New = func(args []any, kw Kwargs) (any, error) {
		elems, err := optIterable("frozenset", args, kw)
		if err != nil {
			return nil, err
		}
		return NewFrozenSet(elems...)
	}
	RangeType.New = func(args []any, kw Kwargs) (any, error) {
		if err := NoKwargs("range", kw); err != nil {
			return nil, err
		}
		return NewRange(args...)
	}
	SliceType.New = func(args []any, kw Kwargs) (any, error) {
		if err := CheckArity("slice", args, kw, 1, 3); err != nil {
			return nil, err
		}
		if len(args) == 1 {
			return Slice{None, args[0], None}, nil
		}
		s := Slice{args[0], args[1], None}
		if len(args) == 3 {
			s.Step = args[2]
		}
		return s, nil
	}
	TypeType.New = func(args []any, kw Kwargs) (any, error) {
		if len(args) != 1 || len(kw) > 0 {
			return nil, errs.New(errs.TypeError, "type() takes 1 argument")
		}
		return TypeOf(args[0]), nil
	}
}

// Implements the constructors taking an optional iterable.
func optIterable(fn string, args []any, kw Kwargs) ([]any, error) {
	if err := CheckArity(fn, args, kw, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, nil
	}
	return Collect(args[0])
}

func newInt(args []any, kw Kwargs) (any, error) {
	a, err := Bind("int", args, kw, []string{"x", "/", "base"}, 0)
	if err != nil {
		return nil, err
	}
	if a[0] == nil {
		if a[1] != nil {
			return nil, errs.New(errs.TypeError, "int() missing string argument")
		}
		return 0, nil
	}
	if a[1] == nil {
		return ToInt(a[0])
	}
	s, ok := a[0].(string)
	if !ok {
		return nil, errs.New(errs.TypeError, "int() can't convert non-string with explicit base")
	}
	base, err := ToIndex(a[1])
	if err != nil {
		return nil, err
	}
	return ParseInt(s, base)
}

// NewFloat implements float() with one argument.
func NewFloat(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return ToFloat(v)
	}
	f, err := parseFloat(s)
	if err != nil {
		return nil, errs.Newf(errs.ValueError, "could not convert string to float: %s", Quote(s))
	}
	return f, nil
}

func parseFloat(s string) (float64, error) {
	t := strings.TrimSpace(s)
	switch strings.ToLower(strings.TrimLeft(t, "+-")) {
	case "inf", "infinity":
		if strings.HasPrefix(t, "-") {
			return math.Inf(-1), nil
		}
		return math.Inf(1), nil
	case "nan":
		return math.NaN(), nil
	case "":
		return 0, strconv.ErrSyntax
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimLeft(t, "+-")), "0x") ||
		strings.HasPrefix(t, "_") || strings.HasSuffix(t, "_") || strings.Contains(t, "__") {
		return 0, strconv.ErrSyntax
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(t, "_", ""), 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, nil
		}
		return 0, err
	}
	return f, nil
}

func newComplex(args []any, kw Kwargs) (any, error) {
	a, err := Bind("complex", args, kw, []string{"real", "imag"}, 0)
	if err != nil {
		return nil, err
	}
	if s, ok := a[0].(string); ok {
		if a[1] != nil {
			return nil, errs.New(errs.TypeError, "complex() can't take second arg if first is a string")
		}
		t := strings.TrimSpace(s)
		c, err := strconv.ParseComplex(strings.ReplaceAll(strings.ReplaceAll(t, "j", "i"), "J", "i"), 128)
		if err != nil || strings.ContainsAny(t, "iI") {
			return nil, errs.New(errs.ValueError, "complex() arg is a malformed string")
		}
		return c, nil
	}
	var re, im complex128
	if a[0] != nil {
		if re, err = complexArg(a[0], "first"); err != nil {
			return nil, err
		}
	}
	if a[1] != nil {
		if im, err = complexArg(a[1], "second"); err != nil {
			return nil, err
		}
	}
	// complex(a, b) is a + b*1j, computed without the rounding of a
	// multiplication.
	return complex(real(re)-imag(im), imag(re)+real(im)), nil
}

func complexArg(v any, which string) (complex128, error) {
	if !isNumber(v) {
		return 0, errs.Newf(errs.TypeError, "complex() %s argument must be a string or a number, not '%s'",
			which, TypeName(v))
	}
	return ToComplex(v)
}
