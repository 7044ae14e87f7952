// Package math implements the math module visible to sandboxed code.
package math

import (
	"math"
	"math/big"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
)

// Module is the math module.
var Module = vals.BuildModule("math").
	AddValues(map[string]any{
		"pi":  math.Pi,
		"e":   math.E,
		"tau": 2 * math.Pi,
		"inf": math.Inf(1),
		"nan": math.NaN(),
	}).
	AddGoFns(map[string]any{
		"fabs":      math.Abs,
		"copysign":  math.Copysign,
		"fmod":      f2(math.Mod),
		"modf":      modf,
		"frexp":     frexp,
		"ldexp":     ldexp,
		"remainder": f2(math.Remainder),
		"sqrt":      f1(math.Sqrt),
		"cbrt":      math.Cbrt,
		"exp":       f1(math.Exp),
		"exp2":      f1(math.Exp2),
		"expm1":     f1(math.Expm1),
		"log":       log,
		"log2":      logf(math.Log2),
		"log10":     logf(math.Log10),
		"log1p":     f1(math.Log1p),
		"pow":       pow,
		"sin":       f1(math.Sin),
		"cos":       f1(math.Cos),
		"tan":       f1(math.Tan),
		"asin":      f1(math.Asin),
		"acos":      f1(math.Acos),
		"atan":      math.Atan,
		"atan2":     math.Atan2,
		"sinh":      f1(math.Sinh),
		"cosh":      f1(math.Cosh),
		"tanh":      math.Tanh,
		"asinh":     math.Asinh,
		"acosh":     f1(math.Acosh),
		"atanh":     f1(math.Atanh),
		"degrees":   func(x float64) float64 { return x * 180 / math.Pi },
		"radians":   func(x float64) float64 { return x * math.Pi / 180 },
		"hypot":     hypot,
		"dist":      dist,
		"isfinite":  func(x float64) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) },
		"isinf":     func(x float64) bool { return math.IsInf(x, 0) },
		"isnan":     math.IsNaN,

		"ceil":      ceil,
		"floor":     floor,
		"trunc":     trunc,
		"factorial": factorial,
		"gcd":       gcd,
		"lcm":       lcm,
		"comb":      comb,
		"perm":      perm,
		"isqrt":     isqrt,
		"prod":      prod,
		"fsum":      fsum,
		"isclose":   isclose,
	}).
	Module()

var (
	errDomain = errs.New(errs.ValueError, "math domain error")
	errRange  = errs.New(errs.OverflowError, "math range error")
)

// Checks the result of a float function the way the reference math module
// does: a NaN from non-NaN arguments is a domain error, an infinity from
// finite arguments is a range error.
func checkResult(r float64, args ...float64) (float64, error) {
	anyNaN, anyInf := false, false
	for _, a := range args {
		anyNaN = anyNaN || math.IsNaN(a)
		anyInf = anyInf || math.IsInf(a, 0)
	}
	switch {
	case math.IsNaN(r) && !anyNaN:
		return 0, errDomain
	case math.IsInf(r, 0) && !anyInf && !anyNaN:
		return 0, errRange
	}
	return r, nil
}

func f1(f func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) { return checkResult(f(x), x) }
}

func f2(f func(float64, float64) float64) func(float64, float64) (float64, error) {
	return func(x, y float64) (float64, error) { return checkResult(f(x, y), x, y) }
}

// Logarithms of zero are domain errors rather than -inf.
func logf(f func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) {
		if x <= 0 {
			return 0, errDomain
		}
		return f(x), nil
	}
}

func log(args []any, kw vals.Kwargs) (any, error) {
	if err := vals.CheckArity("log", args, kw, 1, 2); err != nil {
		return nil, err
	}
	x, err := logOf(args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return x, nil
	}
	base, err := logOf(args[1])
	if err != nil {
		return nil, err
	}
	if base == 0 {
		return nil, errs.New(errs.ZeroDivisionError, "float division by zero")
	}
	return x / base, nil
}

// Natural logarithm that also works for ints too large for a float.
func logOf(v any) (float64, error) {
	if z, ok := v.(*big.Int); ok && z.Sign() > 0 {
		shift := max(z.BitLen()-64, 0)
		f, _ := new(big.Float).SetInt(new(big.Int).Rsh(z, uint(shift))).Float64()
		return math.Log(f) + float64(shift)*math.Ln2, nil
	}
	x, err := vals.ToFloat(v)
	if err != nil {
		return 0, err
	}
	if x <= 0 {
		return 0, errDomain
	}
	return math.Log(x), nil
}

func pow(x, y float64) (float64, error) {
	if x == 0 && y < 0 {
		return 0, errDomain
	}
	return checkResult(math.Pow(x, y), x, y)
}

func modf(x float64) vals.Tuple {
	i, f := math.Modf(x)
	return vals.Tuple{f, i}
}

func frexp(x float64) vals.Tuple {
	m, e := math.Frexp(x)
	return vals.Tuple{m, e}
}

func ldexp(x float64, e int) (float64, error) {
	return checkResult(math.Ldexp(x, e), x)
}

func hypot(xs ...float64) float64 {
	h := 0.0
	for _, x := range xs {
		h = math.Hypot(h, x)
	}
	return h
}

func dist(p, q any) (any, error) {
	ps, err := floats(p)
	if err != nil {
		return nil, err
	}
	qs, err := floats(q)
	if err != nil {
		return nil, err
	}
	if len(ps) != len(qs) {
		return nil, errs.New(errs.ValueError, "both points must have the same number of dimensions")
	}
	d := 0.0
	for i := range ps {
		d = math.Hypot(d, ps[i]-qs[i])
	}
	return d, nil
}

func floats(v any) ([]float64, error) {
	elems, err := vals.Collect(v)
	if err != nil {
		return nil, err
	}
	fs := make([]float64, len(elems))
	for i, e := range elems {
		if fs[i], err = vals.ToFloat(e); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// Rounds x to an integer with the given float function, or with the
// matching method of decimals.
func roundInt(x any, f func(float64) float64, d func(*vals.Decimal) (any, error)) (any, error) {
	switch x := x.(type) {
	case bool, int, *big.Int:
		return vals.ToInt(x)
	case *vals.Decimal:
		return d(x)
	}
	fl, err := vals.ToFloat(x)
	if err != nil {
		return nil, err
	}
	return vals.ToInt(f(fl))
}

func ceil(x any) (any, error) { return roundInt(x, math.Ceil, (*vals.Decimal).Ceil) }

func floor(x any) (any, error) { return roundInt(x, math.Floor, (*vals.Decimal).Floor) }

func trunc(x any) (any, error) { return roundInt(x, math.Trunc, (*vals.Decimal).Trunc) }

func nonNegative(fn string, v any) (*big.Int, error) {
	z, err := vals.ToBigInt(v)
	if err != nil {
		return nil, err
	}
	if z.Sign() < 0 {
		return nil, errs.Newf(errs.ValueError, "%s must be a non-negative integer", fn)
	}
	return z, nil
}

func factorial(n any) (any, error) {
	z, err := vals.ToBigInt(n)
	if err != nil {
		return nil, err
	}
	if z.Sign() < 0 {
		return nil, errs.New(errs.ValueError, "factorial() not defined for negative values")
	}
	if !z.IsInt64() || z.Int64() > 100000 {
		return nil, errs.New(errs.OverflowError, "factorial() argument should not exceed 100000")
	}
	return vals.NormalizeBigInt(new(big.Int).MulRange(1, z.Int64())), nil
}

func gcd(args ...any) (any, error) {
	g := new(big.Int)
	for _, a := range args {
		z, err := vals.ToBigInt(a)
		if err != nil {
			return nil, err
		}
		g.GCD(nil, nil, g, new(big.Int).Abs(z))
	}
	return vals.NormalizeBigInt(g), nil
}

func lcm(args ...any) (any, error) {
	l := big.NewInt(1)
	for _, a := range args {
		z, err := vals.ToBigInt(a)
		if err != nil {
			return nil, err
		}
		if z.Sign() == 0 {
			return 0, nil
		}
		z = new(big.Int).Abs(z)
		g := new(big.Int).GCD(nil, nil, l, z)
		l.Mul(l, new(big.Int).Quo(z, g))
	}
	return vals.NormalizeBigInt(l), nil
}

func comb(nv, kv any) (any, error) {
	n, err := nonNegative("n", nv)
	if err != nil {
		return nil, err
	}
	k, err := nonNegative("k", kv)
	if err != nil {
		return nil, err
	}
	if k.Cmp(n) > 0 {
		return 0, nil
	}
	if !n.IsInt64() {
		return nil, errs.New(errs.OverflowError, "n must not exceed 2**63-1")
	}
	return vals.NormalizeBigInt(new(big.Int).Binomial(n.Int64(), k.Int64())), nil
}

func perm(args []any, kw vals.Kwargs) (any, error) {
	if err := vals.CheckArity("perm", args, kw, 1, 2); err != nil {
		return nil, err
	}
	n, err := nonNegative("n", args[0])
	if err != nil {
		return nil, err
	}
	k := n
	if len(args) == 2 && args[1] != vals.None {
		if k, err = nonNegative("k", args[1]); err != nil {
			return nil, err
		}
	}
	if k.Cmp(n) > 0 {
		return 0, nil
	}
	if !n.IsInt64() {
		return nil, errs.New(errs.OverflowError, "n must not exceed 2**63-1")
	}
	nn, kk := n.Int64(), k.Int64()
	if kk == 0 {
		return 1, nil
	}
	return vals.NormalizeBigInt(new(big.Int).MulRange(nn-kk+1, nn)), nil
}

func isqrt(n any) (any, error) {
	z, err := vals.ToBigInt(n)
	if err != nil {
		return nil, err
	}
	if z.Sign() < 0 {
		return nil, errs.New(errs.ValueError, "isqrt() argument must be nonnegative")
	}
	return vals.NormalizeBigInt(new(big.Int).Sqrt(z)), nil
}

func prod(args []any, kw vals.Kwargs) (any, error) {
	a, err := vals.Bind("prod", args, kw, []string{"iterable", "/", "*", "start"}, 1)
	if err != nil {
		return nil, err
	}
	acc := a[1]
	if acc == nil {
		acc = 1
	}
	err = vals.Iterate(a[0], func(v any) error {
		acc, err = vals.Mul(acc, v)
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Implements fsum with Shewchuk's algorithm, which tracks the exact sum as a
// list of non-overlapping partials.
func fsum(iterable any) (any, error) {
	var partials []float64
	special, inf := 0.0, 0.0
	err := vals.Iterate(iterable, func(v any) error {
		x, err := vals.ToFloat(v)
		if err != nil {
			return err
		}
		if math.IsInf(x, 0) || math.IsNaN(x) {
			special += x
			inf += x
			return nil
		}
		i := 0
		for _, y := range partials {
			if math.Abs(x) < math.Abs(y) {
				x, y = y, x
			}
			hi := x + y
			lo := y - (hi - x)
			if lo != 0 {
				partials[i] = lo
				i++
			}
			x = hi
		}
		partials = append(partials[:i], x)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if special != 0 || math.IsNaN(special) {
		if math.IsNaN(inf) {
			return nil, errs.New(errs.ValueError, "-inf + inf in fsum")
		}
		return special, nil
	}
	hi := 0.0
	if n := len(partials); n > 0 {
		n--
		hi = partials[n]
		lo := 0.0
		for n > 0 {
			x := hi
			n--
			y := partials[n]
			hi = x + y
			yr := hi - x
			lo = y - yr
			if lo != 0 {
				break
			}
		}
		// Round half-even correctly when the remaining partials push the
		// sum across a rounding boundary.
		if n > 0 && ((lo < 0 && partials[n-1] < 0) || (lo > 0 && partials[n-1] > 0)) {
			y := lo * 2
			x := hi + y
			yr := x - hi
			if y == yr {
				hi = x
			}
		}
	}
	return hi, nil
}

func isclose(args []any, kw vals.Kwargs) (any, error) {
	a, err := vals.Bind("isclose", args, kw, []string{"a", "b", "/", "*", "rel_tol", "abs_tol"}, 2)
	if err != nil {
		return nil, err
	}
	x, err := vals.ToFloat(a[0])
	if err != nil {
		return nil, err
	}
	y, err := vals.ToFloat(a[1])
	if err != nil {
		return nil, err
	}
	relTol, absTol := 1e-9, 0.0
	if a[2] != nil {
		if relTol, err = vals.ToFloat(a[2]); err != nil {
			return nil, err
		}
	}
	if a[3] != nil {
		if absTol, err = vals.ToFloat(a[3]); err != nil {
			return nil, err
		}
	}
	if relTol < 0 || absTol < 0 {
		return nil, errs.New(errs.ValueError, "tolerances must be non-negative")
	}
	if x == y {
		return true, nil
	}
	if math.IsInf(x, 0) || math.IsInf(y, 0) {
		return false, nil
	}
	diff := math.Abs(y - x)
	return diff <= math.Abs(relTol*y) || diff <= math.Abs(relTol*x) || diff <= absTol, nil
}
