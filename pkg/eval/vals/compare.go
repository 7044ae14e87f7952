package vals

import (
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// Equaler is implemented by values defined outside this package that define
// their own equality.
type Equaler interface {
	Equal(other any) bool
}

// Equal reports whether two values are equal, as with the == operator.
func Equal(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		return numEqual(a, b)
	}
	switch a := a.(type) {
	case NoneType, EllipsisType:
		return a == b
	case string:
		b, ok := b.(string)
		return ok && a == b
	case Bytes:
		b, ok := b.(Bytes)
		return ok && a == b
	case *List:
		return a == b || a.Equal(b)
	case Tuple:
		b, ok := b.(Tuple)
		return ok && seqEqual(a, b)
	case *Dict:
		return a == b || a.Equal(b)
	case *Set:
		return a == b || a.Equal(b)
	case DictView:
		b, ok := b.(DictView)
		if !ok || a.Kind != b.Kind || a.Kind == DictValues {
			return ok && a == b
		}
		return viewSet(a).Equal(viewSet(b))
	case *Type, *Module, *Builtin, *Iterator:
		return a == b
	case *BoundMethod:
		b, ok := b.(*BoundMethod)
		return ok && a.Name == b.Name && Is(a.Recv, b.Recv)
	case Equaler:
		return a.Equal(b)
	}
	return false
}

// Returns the elements of a keys or items view as a set.
func viewSet(v DictView) *Set {
	s, _ := NewSet()
	v.Dict.Each(func(k, val any) bool {
		s.Add(v.elem(k, val))
		return true
	})
	return s
}

func seqEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Is(a[i], b[i]) && !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Is reports whether two values are the same object, as with the is
// operator. Values with reference semantics are compared by identity; other
// values are the same object when they have the same type and value.
func Is(a, b any) bool {
	switch a := a.(type) {
	case *List, *Dict, *Set, *Type, *Module, *Builtin, *BoundMethod, *Iterator, *Decimal, *DecimalRange:
		return a == b
	case *big.Int:
		b, ok := b.(*big.Int)
		return ok && a == b
	case Tuple:
		b, ok := b.(Tuple)
		return ok && len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
	case DictView:
		return a == b
	case complex128, float64, bool, int, string, Bytes, NoneType, EllipsisType, Range:
		return a == b
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if reflect.TypeOf(a) == nil || !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}

// Compares numbers exactly, without converting between types.
func numEqual(a, b any) bool {
	if ac, ok := a.(complex128); ok {
		return complexEqual(ac, b)
	}
	if bc, ok := b.(complex128); ok {
		return complexEqual(bc, a)
	}
	c, ok := numCmp(a, b)
	return ok && c == 0
}

func complexEqual(c complex128, other any) bool {
	if oc, ok := other.(complex128); ok {
		return c == oc
	}
	return imag(c) == 0 && numEqual(real(c), other)
}

// Compares two real numbers exactly. It reports false if either is a NaN.
func numCmp(a, b any) (int, bool) {
	if ai, ok := smallInt(a); ok {
		if bi, ok := smallInt(b); ok {
			return cmpInts(ai, bi), true
		}
	}
	_, aDec := a.(*Decimal)
	_, bDec := b.(*Decimal)
	if aDec || bDec {
		ad, _ := ToDecimal(a)
		bd, _ := ToDecimal(b)
		if ad.IsNaN() || bd.IsNaN() {
			return 0, false
		}
		return ad.d.Cmp(&bd.d), true
	}
	if af, ok := a.(float64); ok {
		return floatCmp(af, b)
	}
	if bf, ok := b.(float64); ok {
		c, ok := floatCmp(bf, a)
		return -c, ok
	}
	ab, _ := bigOf(a)
	bb, _ := bigOf(b)
	return ab.Cmp(bb), true
}

func floatCmp(f float64, other any) (int, bool) {
	if math.IsNaN(f) {
		return 0, false
	}
	switch o := other.(type) {
	case float64:
		if math.IsNaN(o) {
			return 0, false
		}
		return cmpFloats(f, o), true
	default:
		z, _ := bigOf(o)
		if math.IsInf(f, 0) {
			if f > 0 {
				return 1, true
			}
			return -1, true
		}
		fr, _ := new(big.Float).SetFloat64(f).Rat(nil)
		return fr.Cmp(new(big.Rat).SetInt(z)), true
	}
}

func cmpInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Comparer is implemented by values defined outside this package that
// support the ordering operators. Compare reports false if the values cannot
// be ordered.
type Comparer interface {
	Compare(other any) (int, bool)
}

// Ordering is the result of comparing two values.
type Ordering uint8

// Possible results of comparison.
const (
	CmpLess Ordering = iota
	CmpEqual
	CmpMore
	// Both values are numbers, but one of them is a NaN. All ordering
	// comparisons are false.
	CmpUnordered
	// The values cannot be ordered; ordering comparisons are errors.
	CmpUncomparable
)

func orderingOf(c int) Ordering {
	return Ordering(c + 1)
}

// Cmp compares two values for ordering.
func Cmp(a, b any) (Ordering, error) { return cmpWith("<", a, b) }

// Like Cmp, but uses the given operator in error messages about elements of
// sequences.
func cmpWith(sym string, a, b any) (Ordering, error) {
	switch {
	case isNumber(a) && isNumber(b):
		if _, ok := a.(complex128); ok {
			return CmpUncomparable, nil
		}
		if _, ok := b.(complex128); ok {
			return CmpUncomparable, nil
		}
		if ad, ok := a.(*Decimal); ok && ad.d.Form == apd.NaN {
			return CmpUncomparable, errs.New(errs.InvalidOperation, "[<class 'decimal.InvalidOperation'>]")
		}
		if bd, ok := b.(*Decimal); ok && bd.d.Form == apd.NaN {
			return CmpUncomparable, errs.New(errs.InvalidOperation, "[<class 'decimal.InvalidOperation'>]")
		}
		c, ok := numCmp(a, b)
		if !ok {
			return CmpUnordered, nil
		}
		return orderingOf(c), nil
	}
	switch a := a.(type) {
	case string:
		if b, ok := b.(string); ok {
			return orderingOf(strings.Compare(a, b)), nil
		}
	case Bytes:
		if b, ok := b.(Bytes); ok {
			return orderingOf(strings.Compare(string(a), string(b))), nil
		}
	case *List:
		if b, ok := b.(*List); ok {
			return seqCmp(sym, a.Elems, b.Elems)
		}
	case Tuple:
		if b, ok := b.(Tuple); ok {
			return seqCmp(sym, a, b)
		}
	case Comparer:
		if c, ok := a.Compare(b); ok {
			return orderingOf(c), nil
		}
	}
	return CmpUncomparable, nil
}

// Compares sequences lexicographically: the first pair of elements that are
// not equal decides the result.
func seqCmp(sym string, a, b []any) (Ordering, error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		if Is(a[i], b[i]) || Equal(a[i], b[i]) {
			continue
		}
		o, err := cmpWith(sym, a[i], b[i])
		if err != nil {
			return CmpUncomparable, err
		}
		if o == CmpUncomparable {
			return o, errs.Newf(errs.TypeError, "'%s' not supported between instances of '%s' and '%s'",
				sym, TypeName(a[i]), TypeName(b[i]))
		}
		return o, nil
	}
	return orderingOf(cmpInts(len(a), len(b))), nil
}

// Returns the result of an ordering operator, given the orderings that make
// it true.
func ordered(sym string, a, b any, want ...Ordering) (any, error) {
	if sa, ok := a.(*Set); ok {
		if sb, ok := b.(*Set); ok {
			return setOrdered(sym, sa, sb), nil
		}
	}
	if va, ok := a.(DictView); ok && va.Kind != DictValues {
		if vb, ok := b.(DictView); ok && vb.Kind != DictValues {
			return setOrdered(sym, viewSet(va), viewSet(vb)), nil
		}
	}
	o, err := cmpWith(sym, a, b)
	if err != nil {
		return nil, err
	}
	if o == CmpUncomparable {
		return nil, errs.Newf(errs.TypeError, "'%s' not supported between instances of '%s' and '%s'",
			sym, TypeName(a), TypeName(b))
	}
	for _, w := range want {
		if o == w {
			return true, nil
		}
	}
	return false, nil
}

// Sets are ordered by inclusion.
func setOrdered(sym string, a, b *Set) bool {
	switch sym {
	case "<":
		return a.Len() < b.Len() && a.IsSubset(b)
	case "<=":
		return a.IsSubset(b)
	case ">":
		return a.Len() > b.Len() && b.IsSubset(a)
	default:
		return b.IsSubset(a)
	}
}

// Comparison operators.

func Eq(a, b any) (any, error)    { return Equal(a, b), nil }
func NotEq(a, b any) (any, error) { return !Equal(a, b), nil }
func Lt(a, b any) (any, error)    { return ordered("<", a, b, CmpLess) }
func LtE(a, b any) (any, error)   { return ordered("<=", a, b, CmpLess, CmpEqual) }
func Gt(a, b any) (any, error)    { return ordered(">", a, b, CmpMore) }
func GtE(a, b any) (any, error)   { return ordered(">=", a, b, CmpMore, CmpEqual) }
func IsOp(a, b any) (any, error)  { return Is(a, b), nil }
func IsNot(a, b any) (any, error) { return !Is(a, b), nil }

// In implements "a in b".
func In(a, b any) (any, error) { return Contains(b, a) }

// NotIn implements "a not in b".
func NotIn(a, b any) (any, error) {
	ok, err := Contains(b, a)
	return !ok, err
}

// Container is implemented by values defined outside this package that
// support the in operator.
type Container interface {
	Contains(v any) bool
}

// Contains reports whether container contains v, as with "v in container".
func Contains(container, v any) (bool, error) {
	switch c := container.(type) {
	case string:
		s, ok := v.(string)
		if !ok {
			return false, errs.Newf(errs.TypeError, "'in <string>' requires string as left operand, not %s", TypeName(v))
		}
		return strings.Contains(c, s), nil
	case Bytes:
		switch v := v.(type) {
		case Bytes:
			return strings.Contains(string(c), string(v)), nil
		case int:
			if v < 0 || v > 255 {
				return false, errs.New(errs.ValueError, "byte must be in range(0, 256)")
			}
			return strings.IndexByte(string(c), byte(v)) >= 0, nil
		}
		return false, errs.Newf(errs.TypeError, "a bytes-like object is required, not '%s'", TypeName(v))
	case *List:
		return seqContains(c.Elems, v), nil
	case Tuple:
		return seqContains(c, v), nil
	case *Dict:
		_, ok, err := c.Get(v)
		return ok, err
	case *Set:
		return c.Has(v)
	case DictView:
		if c.Kind == DictKeys {
			_, ok, err := c.Dict.Get(v)
			return ok, err
		}
	case Range:
		return c.Contains(v), nil
	case Container:
		return c.Contains(v), nil
	}
	found := false
	err := Iterate(container, func(elem any) error {
		if Is(elem, v) || Equal(elem, v) {
			found = true
			return errStopIteration
		}
		return nil
	})
	if err == errStopIteration {
		return true, nil
	}
	if err != nil && !CanIterate(container) {
		return false, errs.Newf(errs.TypeError, "argument of type '%s' is not iterable", TypeName(container))
	}
	return found, err
}

var errStopIteration = errs.New(errs.InvalidKind, "StopIteration")

func seqContains(elems []any, v any) bool {
	for _, e := range elems {
		if Is(e, v) || Equal(e, v) {
			return true
		}
	}
	return false
}
