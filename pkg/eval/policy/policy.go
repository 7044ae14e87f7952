// Package policy holds the allowlists that decide what sandboxed code may
// reach, and the tables that map operator kinds to their implementations.
//
// All tables are keyed by stable symbolic names: modules by their name, like
// "math", classes and runtime types by their qualified name, like
// "datetime.date". The tables are never mutated after initialization and may
// be shared by any number of evaluators.
package policy

import (
	"strings"

	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

// Attrs is a set of attribute names.
type Attrs map[string]bool

func attrs(names string) Attrs {
	a := make(Attrs)
	for _, name := range strings.Fields(names) {
		a[name] = true
	}
	return a
}

// Modules maps the name of each module reachable from sandboxed code to the
// attributes that may be read from it.
var Modules = map[string]Attrs{
	"math": attrs(`
		pi e tau inf nan
		ceil floor trunc fabs copysign fmod modf frexp ldexp remainder
		sqrt isqrt cbrt exp exp2 expm1 log log2 log10 log1p pow
		sin cos tan asin acos atan atan2 sinh cosh tanh asinh acosh atanh
		degrees radians hypot dist
		factorial gcd lcm comb perm prod fsum isclose
		isfinite isinf isnan`),
	"statistics": attrs(`
		mean fmean geometric_mean harmonic_mean
		median median_low median_high mode multimode
		stdev variance pstdev pvariance`),
	"datetime": attrs(`date datetime timedelta MINYEAR MAXYEAR`),
	"random": attrs(`random randint randrange choice uniform shuffle sample`),
}

// Classes maps the qualified name of each class reachable from sandboxed
// code to the members that may be read from the class object itself, in
// addition to the members every class has through the "type" entry of
// Instances. Classes with nothing extra, like int, have no entry; int.from_bytes
// is not reachable.
var Classes = map[string]Attrs{
	"datetime.date":      attrs(`today fromisoformat fromtimestamp min max`),
	"datetime.datetime":  attrs(`now today fromisoformat fromtimestamp min max`),
	"datetime.timedelta": attrs(`min max`),
	"dict":               attrs(`fromkeys`),
	"decimal.Decimal":    attrs(`from_float`),
}

var (
	numberAttrs  = `real imag conjugate`
	intAttrs     = numberAttrs + ` numerator denominator is_integer as_integer_ratio bit_length bit_count`
	setReadAttrs = `union intersection difference symmetric_difference issubset issuperset isdisjoint copy`
)

// Instances maps the qualified name of each runtime type to the members that
// may be read from its instances. Dunder names are never listed. The format
// method of strings is absent on purpose: its replacement fields can reach
// arbitrary attributes.
var Instances = map[string]Attrs{
	"str": attrs(`
		upper lower casefold title capitalize swapcase
		strip lstrip rstrip split rsplit splitlines join partition rpartition
		find rfind index rindex count startswith endswith replace
		removeprefix removesuffix center ljust rjust zfill
		isdigit isdecimal isnumeric isalpha isalnum isspace isupper islower istitle`),
	"list": attrs(`append extend insert remove pop clear copy count index reverse sort`),
	"tuple": attrs(`count index`),
	"dict": attrs(`keys values items get pop popitem setdefault update clear copy`),
	"set": attrs(setReadAttrs + ` add discard remove pop clear update
		intersection_update difference_update symmetric_difference_update`),
	"frozenset": attrs(setReadAttrs),
	"bool":      attrs(intAttrs),
	"int":       attrs(intAttrs),
	"float":     attrs(numberAttrs + ` is_integer as_integer_ratio`),
	"complex":   attrs(numberAttrs),
	"decimal.Decimal": attrs(numberAttrs + `
		sqrt exp ln log10 normalize to_integral_value to_integral quantize
		copy_abs copy_negate adjusted as_integer_ratio
		is_nan is_infinite is_finite is_zero is_signed`),
	"range": attrs(`start stop step count index`),
	"slice": attrs(`start stop step indices`),
	"datetime.date": attrs(`
		year month day weekday isoweekday isoformat strftime replace
		toordinal isocalendar ctime timetuple`),
	"datetime.datetime": attrs(`
		year month day hour minute second microsecond
		weekday isoweekday isoformat strftime replace date timestamp
		toordinal isocalendar ctime timetuple`),
	"datetime.timedelta": attrs(`days seconds microseconds total_seconds`),
	"type":               attrs(`__name__`),
}

// Builtins lists the names of the built-in callables visible to sandboxed
// code.
var Builtins = strings.Fields(`
	abs all any bin bool chr complex dict divmod enumerate filter float format
	frozenset hex int isinstance len list map max min oct ord pow range repr
	reversed round set slice sorted str sum tuple type zip Decimal`)

// Constants lists the names of the numeric constants visible to sandboxed
// code.
var Constants = strings.Fields(`pi e tau inf nan`)

// BinaryFunc implements a binary operator.
type BinaryFunc func(a, b any) (any, error)

// UnaryFunc implements a unary operator.
type UnaryFunc func(a any) (any, error)

// BoolFunc combines two operands of a boolean operator.
type BoolFunc func(a, b any) any

// BinOps maps binary operator kinds to their implementations. The same table
// serves augmented assignments.
var BinOps = map[parse.Kind]BinaryFunc{
	parse.Add:      vals.Add,
	parse.Sub:      vals.Sub,
	parse.Mult:     vals.Mul,
	parse.MatMult:  vals.MatMult,
	parse.Div:      vals.TrueDiv,
	parse.FloorDiv: vals.FloorDiv,
	parse.Mod:      vals.Mod,
	parse.Pow:      vals.Pow,
	parse.LShift:   vals.LShift,
	parse.RShift:   vals.RShift,
	parse.BitOr:    vals.BitOr,
	parse.BitXor:   vals.BitXor,
	parse.BitAnd:   vals.BitAnd,
}

// UnaryOps maps unary operator kinds to their implementations.
var UnaryOps = map[parse.Kind]UnaryFunc{
	parse.Invert: vals.Invert,
	parse.Not:    vals.Not,
	parse.UAdd:   vals.Pos,
	parse.USub:   vals.Neg,
}

// BoolOps maps boolean operator kinds to their combining function and the
// value the combination starts from. Both operators start from True, so an
// "or" chain always folds to True.
var BoolOps = map[parse.Kind]struct {
	Combine BoolFunc
	Start   any
}{
	parse.And: {func(a, b any) any {
		if !vals.Truthy(a) {
			return a
		}
		return b
	}, true},
	parse.Or: {func(a, b any) any {
		if vals.Truthy(a) {
			return a
		}
		return b
	}, true},
}

// CmpOps maps comparison operator kinds to their implementations.
var CmpOps = map[parse.Kind]BinaryFunc{
	parse.Eq:    vals.Eq,
	parse.NotEq: vals.NotEq,
	parse.Lt:    vals.Lt,
	parse.LtE:   vals.LtE,
	parse.Gt:    vals.Gt,
	parse.GtE:   vals.GtE,
	parse.Is:    vals.IsOp,
	parse.IsNot: vals.IsNot,
	parse.In:    vals.In,
	parse.NotIn: vals.NotIn,
}
