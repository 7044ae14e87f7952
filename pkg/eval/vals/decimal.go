package vals

import (
	"math"
	"math/big"
	"math/bits"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// Decimal is an arbitrary-precision decimal number with the semantics of the
// decimal module's Decimal type under the default context: 28 significant
// digits, rounding half to even.
//
// Arithmetic methods accept any native real number as the other operand and
// convert it to a Decimal first, so that the result is always a *Decimal. A
// float operand is converted exactly.
//
// A Decimal is immutable once constructed.
type Decimal struct {
	d apd.Decimal
}

// DecimalTraps are the conditions that raise an error instead of producing a
// special value. They are the traps enabled in the default context of the
// decimal module.
const DecimalTraps = apd.SystemOverflow | apd.SystemUnderflow | apd.Overflow |
	apd.DivisionUndefined | apd.DivisionByZero | apd.DivisionImpossible |
	apd.InvalidOperation

// DecimalPrecision is the number of significant digits kept by operations on
// decimals.
const DecimalPrecision = 28

// DecimalContext is the context used for all decimal operations. It must not
// be modified.
var DecimalContext = &apd.Context{
	Precision:   DecimalPrecision,
	MaxExponent: apd.MaxExponent,
	MinExponent: apd.MinExponent,
	Rounding:    apd.RoundHalfEven,
	Traps:       DecimalTraps,
}

// NewDecimalFromApd wraps a copy of d.
func NewDecimalFromApd(d *apd.Decimal) *Decimal {
	x := &Decimal{}
	x.d.Set(d)
	return x
}

// Apd returns the underlying apd.Decimal. It must not be modified.
func (x *Decimal) Apd() *apd.Decimal { return &x.d }

// ParseDecimal parses a string the way the Decimal constructor does: leading
// and trailing whitespace is ignored, underscores may separate digits, and
// the special values "Infinity", "Inf" and "NaN" are recognized regardless of
// case.
func ParseDecimal(s string) (*Decimal, error) {
	s = strings.TrimSpace(s)
	body, neg := s, false
	if body != "" && (body[0] == '+' || body[0] == '-') {
		neg = body[0] == '-'
		body = body[1:]
	}
	x := &Decimal{}
	switch strings.ToLower(body) {
	case "inf", "infinity":
		x.d.Form = apd.Infinite
		x.d.Negative = neg
		return x, nil
	case "nan":
		x.d.Form = apd.NaN
		x.d.Negative = neg
		return x, nil
	}
	if !validDecimalLiteral(body) {
		return nil, errConversionSyntax
	}
	if _, _, err := x.d.SetString(strings.ReplaceAll(s, "_", "")); err != nil {
		return nil, errConversionSyntax
	}
	return x, nil
}

var errConversionSyntax = errs.New(errs.InvalidOperation, "[<class 'decimal.ConversionSyntax'>]")

// Reports whether s (without the sign) is a decimal literal: digits with an
// optional fraction and exponent, where single underscores may appear between
// digits.
func validDecimalLiteral(s string) bool {
	digits := func(s string) (rest string, n int) {
		for len(s) > 0 {
			switch {
			case '0' <= s[0] && s[0] <= '9':
				n++
				s = s[1:]
			case s[0] == '_' && n > 0 && len(s) > 1 && '0' <= s[1] && s[1] <= '9':
				s = s[1:]
			default:
				return s, n
			}
		}
		return s, n
	}
	s, intDigits := digits(s)
	fracDigits := 0
	if strings.HasPrefix(s, ".") {
		s, fracDigits = digits(s[1:])
	}
	if intDigits+fracDigits == 0 {
		return false
	}
	if s != "" && (s[0] == 'e' || s[0] == 'E') {
		s = s[1:]
		if s != "" && (s[0] == '+' || s[0] == '-') {
			s = s[1:]
		}
		var expDigits int
		s, expDigits = digits(s)
		if expDigits == 0 {
			return false
		}
	}
	return s == ""
}

// DecimalFromInt converts an int to a Decimal.
func DecimalFromInt(i int) *Decimal {
	x := &Decimal{}
	x.d.SetInt64(int64(i))
	return x
}

// DecimalFromBig converts a *big.Int to a Decimal.
func DecimalFromBig(z *big.Int) *Decimal {
	x := &Decimal{}
	x.d.Coeff.SetMathBigInt(new(big.Int).Abs(z))
	x.d.Negative = z.Sign() < 0
	return x
}

// DecimalFromFloat converts a float64 to the Decimal with exactly the same
// value, like Decimal.from_float.
func DecimalFromFloat(f float64) *Decimal {
	x := &Decimal{}
	switch {
	case math.IsNaN(f):
		x.d.Form = apd.NaN
		return x
	case math.IsInf(f, 0):
		x.d.Form = apd.Infinite
		x.d.Negative = f < 0
		return x
	}
	x.d.Negative = math.Signbit(f)
	frac, exp := math.Frexp(math.Abs(f))
	mant := uint64(math.Ldexp(frac, 53))
	exp -= 53
	if mant == 0 {
		return x
	}
	tz := bits.TrailingZeros64(mant)
	mant >>= tz
	exp += tz
	coeff := new(big.Int).SetUint64(mant)
	if exp >= 0 {
		coeff.Lsh(coeff, uint(exp))
	} else {
		// mant / 2**k == mant * 5**k / 10**k
		k := int64(-exp)
		coeff.Mul(coeff, new(big.Int).Exp(big.NewInt(5), big.NewInt(k), nil))
		x.d.Exponent = int32(-k)
	}
	x.d.Coeff.SetMathBigInt(coeff)
	return x
}

// NewDecimal implements the Decimal constructor with one argument.
func NewDecimal(v any) (*Decimal, error) {
	switch v := v.(type) {
	case string:
		return ParseDecimal(v)
	case *Decimal:
		return v, nil
	}
	if d, ok := ToDecimal(v); ok {
		return d, nil
	}
	return nil, errs.Newf(errs.TypeError, "conversion from %s to Decimal is not supported", TypeName(v))
}

// ToDecimal converts a native real number or a Decimal to a Decimal. It
// reports false for any other value.
func ToDecimal(v any) (*Decimal, bool) {
	switch v := v.(type) {
	case *Decimal:
		return v, true
	case bool:
		return DecimalFromInt(boolToInt(v)), true
	case int:
		return DecimalFromInt(v), true
	case *big.Int:
		return DecimalFromBig(v), true
	case float64:
		return DecimalFromFloat(v), true
	}
	return nil, false
}

// String returns the value in scientific string form, like str() on a
// Decimal.
func (x *Decimal) String() string { return x.d.Text('G') }

// Repr returns the value in the form Decimal('1.5').
func (x *Decimal) Repr() string { return "Decimal('" + x.String() + "')" }

// Equal reports whether other is a Decimal with the same numeric value.
func (x *Decimal) Equal(other any) bool {
	y, ok := other.(*Decimal)
	if !ok || x.IsNaN() || y.IsNaN() {
		return false
	}
	return x.d.Cmp(&y.d) == 0
}

func (x *Decimal) IsNaN() bool {
	return x.d.Form == apd.NaN || x.d.Form == apd.NaNSignaling
}

func (x *Decimal) IsInf() bool { return x.d.Form == apd.Infinite }

// IsInteger reports whether x is finite and has no fractional part.
func (x *Decimal) IsInteger() bool {
	if x.d.Form != apd.Finite {
		return false
	}
	var integ, frac apd.Decimal
	x.d.Modf(&integ, &frac)
	return frac.IsZero()
}

// Sign returns -1, 0 or 1 according to the sign of x. It returns 0 for NaN.
func (x *Decimal) Sign() int {
	if x.IsNaN() {
		return 0
	}
	return x.d.Sign()
}

// Float64 converts x to the nearest float64.
func (x *Decimal) Float64() float64 {
	switch x.d.Form {
	case apd.Infinite:
		if x.d.Negative {
			return math.Inf(-1)
		}
		return math.Inf(1)
	case apd.NaN, apd.NaNSignaling:
		return math.NaN()
	}
	f, err := x.d.Float64()
	if err != nil {
		// ParseFloat reports out-of-range values with ±Inf as the result.
		if x.d.Negative {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	return f
}

// BigInt returns the value of x as a *big.Int if x is an integer.
func (x *Decimal) BigInt() (*big.Int, bool) {
	if !x.IsInteger() {
		return nil, false
	}
	return decimalToBig(&x.d), true
}

// Converts an integral finite decimal to a *big.Int.
func decimalToBig(d *apd.Decimal) *big.Int {
	z := d.Coeff.MathBigInt()
	if d.Exponent > 0 {
		z.Mul(z, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Exponent)), nil))
	} else if d.Exponent < 0 {
		z.Quo(z, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-d.Exponent)), nil))
	}
	if d.Negative {
		z.Neg(z)
	}
	return z
}

// Trunc returns the integer part of x as an int, like int() on a Decimal.
func (x *Decimal) Trunc() (any, error) {
	switch x.d.Form {
	case apd.NaN, apd.NaNSignaling:
		return nil, errs.New(errs.ValueError, "cannot convert NaN to integer")
	case apd.Infinite:
		return nil, errs.New(errs.OverflowError, "cannot convert Infinity to integer")
	}
	var integ, frac apd.Decimal
	x.d.Modf(&integ, &frac)
	return NormalizeBigInt(decimalToBig(&integ)), nil
}

// Cmp compares x with y, returning -1, 0 or 1. NaNs are reported as an
// InvalidOperation error, as with the ordering operators of the decimal
// module.
func (x *Decimal) Cmp(y *Decimal) (int, error) {
	if x.IsNaN() || y.IsNaN() {
		return 0, errs.New(errs.InvalidOperation, "[<class 'decimal.InvalidOperation'>]")
	}
	return x.d.Cmp(&y.d), nil
}

// Converts an error from an apd operation to the exception the decimal module
// raises under the default traps.
func decimalError(cond apd.Condition, err error) error {
	switch {
	case cond.DivisionByZero():
		return errs.New(errs.ZeroDivisionError, "[<class 'decimal.DivisionByZero'>]")
	case cond.DivisionUndefined():
		return errs.New(errs.InvalidOperation, "[<class 'decimal.DivisionUndefined'>]")
	case cond.DivisionImpossible():
		return errs.New(errs.InvalidOperation, "[<class 'decimal.DivisionImpossible'>]")
	case cond.Overflow(), cond.SystemOverflow():
		return errs.New(errs.OverflowError, "[<class 'decimal.Overflow'>]")
	case cond.SystemUnderflow():
		return errs.New(errs.InvalidOperation, "[<class 'decimal.Underflow'>]")
	case cond.InvalidOperation():
		return errs.New(errs.InvalidOperation, "[<class 'decimal.InvalidOperation'>]")
	}
	return errs.New(errs.InvalidOperation, err.Error())
}

func decimalOp(f func(d *apd.Decimal) (apd.Condition, error)) (*Decimal, error) {
	z := &Decimal{}
	cond, err := f(&z.d)
	if err != nil {
		return nil, decimalError(cond, err)
	}
	return z, nil
}

// Removes trailing zeros of an exact result until its exponent reaches ideal.
func reduceToIdeal(d *apd.Decimal, ideal int32) {
	if d.Form != apd.Finite || d.Exponent >= ideal {
		return
	}
	coeff := d.Coeff.MathBigInt()
	if coeff.Sign() == 0 {
		d.Exponent = ideal
		return
	}
	ten := big.NewInt(10)
	var q, r big.Int
	for d.Exponent < ideal {
		q.QuoRem(coeff, ten, &r)
		if r.Sign() != 0 {
			break
		}
		coeff.Set(&q)
		d.Exponent++
	}
	d.Coeff.SetMathBigInt(coeff)
}

func (x *Decimal) Neg() (*Decimal, error) {
	return decimalOp(func(d *apd.Decimal) (apd.Condition, error) {
		return DecimalContext.Neg(d, &x.d)
	})
}

// Pos rounds x to the context precision.
func (x *Decimal) Pos() (*Decimal, error) {
	return decimalOp(func(d *apd.Decimal) (apd.Condition, error) {
		return DecimalContext.Round(d, &x.d)
	})
}

func (x *Decimal) Abs() (*Decimal, error) {
	return decimalOp(func(d *apd.Decimal) (apd.Condition, error) {
		return DecimalContext.Abs(d, &x.d)
	})
}

// Converts the other operand of a binary operator. The reflected flag
// determines the operand order in the error message.
func decimalOperand(x *Decimal, y any, op string, reflected bool) (*Decimal, error) {
	if _, ok := y.(complex128); !ok {
		if d, ok := ToDecimal(y); ok {
			return d, nil
		}
	}
	if reflected {
		return nil, unsupportedOperands(op, y, x)
	}
	return nil, unsupportedOperands(op, x, y)
}

type decimalBinOp func(d, x, y *apd.Decimal) (apd.Condition, error)

func (x *Decimal) binary(y any, op string, reflected bool, f decimalBinOp) (*Decimal, error) {
	yd, err := decimalOperand(x, y, op, reflected)
	if err != nil {
		return nil, err
	}
	a, b := x, yd
	if reflected {
		a, b = yd, x
	}
	return decimalOp(func(d *apd.Decimal) (apd.Condition, error) {
		return f(d, &a.d, &b.d)
	})
}

func (x *Decimal) Add(y any) (*Decimal, error)  { return x.binary(y, "+", false, DecimalContext.Add) }
func (x *Decimal) RAdd(y any) (*Decimal, error) { return x.binary(y, "+", true, DecimalContext.Add) }
func (x *Decimal) Sub(y any) (*Decimal, error)  { return x.binary(y, "-", false, DecimalContext.Sub) }
func (x *Decimal) RSub(y any) (*Decimal, error) { return x.binary(y, "-", true, DecimalContext.Sub) }
func (x *Decimal) Mul(y any) (*Decimal, error)  { return x.binary(y, "*", false, DecimalContext.Mul) }
func (x *Decimal) RMul(y any) (*Decimal, error) { return x.binary(y, "*", true, DecimalContext.Mul) }

func (x *Decimal) TrueDiv(y any) (*Decimal, error)  { return x.binary(y, "/", false, quoExact) }
func (x *Decimal) RTrueDiv(y any) (*Decimal, error) { return x.binary(y, "/", true, quoExact) }

// FloorDiv returns the integer part of the quotient, truncated toward zero as
// with the // operator on decimals.
func (x *Decimal) FloorDiv(y any) (*Decimal, error) {
	return x.binary(y, "//", false, DecimalContext.QuoInteger)
}

func (x *Decimal) RFloorDiv(y any) (*Decimal, error) {
	return x.binary(y, "//", true, DecimalContext.QuoInteger)
}

// Mod returns the remainder of FloorDiv, which has the sign of the dividend.
func (x *Decimal) Mod(y any) (*Decimal, error) {
	return x.binary(y, "%", false, DecimalContext.Rem)
}

func (x *Decimal) RMod(y any) (*Decimal, error) {
	return x.binary(y, "%", true, DecimalContext.Rem)
}

// DivMod returns the results of FloorDiv and Mod.
func (x *Decimal) DivMod(y any) (*Decimal, *Decimal, error) {
	yd, err := decimalOperand(x, y, "divmod()", false)
	if err != nil {
		return nil, nil, err
	}
	return decimalDivMod(x, yd)
}

func (x *Decimal) RDivMod(y any) (*Decimal, *Decimal, error) {
	yd, err := decimalOperand(x, y, "divmod()", true)
	if err != nil {
		return nil, nil, err
	}
	return decimalDivMod(yd, x)
}

func decimalDivMod(x, y *Decimal) (*Decimal, *Decimal, error) {
	q, err := x.FloorDiv(y)
	if err != nil {
		return nil, nil, err
	}
	r, err := x.Mod(y)
	if err != nil {
		return nil, nil, err
	}
	return q, r, nil
}

// Pow raises x to the power y. If mod is not nil, the result is reduced
// modulo mod, in which case all three operands must be integers.
func (x *Decimal) Pow(y, mod any) (*Decimal, error) {
	yd, err := decimalOperand(x, y, "** or pow()", false)
	if err != nil {
		return nil, err
	}
	return decimalPow(x, yd, mod)
}

func (x *Decimal) RPow(y, mod any) (*Decimal, error) {
	yd, err := decimalOperand(x, y, "** or pow()", true)
	if err != nil {
		return nil, err
	}
	return decimalPow(yd, x, mod)
}

func decimalPow(x, y *Decimal, mod any) (*Decimal, error) {
	if mod != nil && mod != None {
		md, err := decimalOperand(x, mod, "pow()", false)
		if err != nil {
			return nil, err
		}
		return decimalModPow(x, y, md)
	}
	z, err := decimalOp(func(d *apd.Decimal) (apd.Condition, error) {
		return DecimalContext.Pow(d, &x.d, &y.d)
	})
	if err != nil {
		return nil, err
	}
	if y.IsInteger() && z.d.Form == apd.Finite {
		// An exact integral power has the exponent x.exp * y when it can be
		// represented within the precision.
		if n, err := y.d.Int64(); err == nil && n > 0 && n < math.MaxInt32 {
			if ideal := int64(x.d.Exponent) * n; ideal >= math.MinInt32 && ideal <= 0 {
				if exactPow(x, n, z) {
					reduceToIdeal(&z.d, int32(ideal))
				}
			}
		} else if err == nil && n < 0 {
			reduceToIdeal(&z.d, 0)
		}
	}
	return z, nil
}

// Reports whether z is exactly x**n, by checking the digit count of the
// exact result against the precision.
func exactPow(x *Decimal, n int64, z *Decimal) bool {
	digits := int64(len(x.d.Coeff.MathBigInt().String()))
	return digits*n <= DecimalPrecision || z.d.NumDigits() < DecimalPrecision
}

func decimalModPow(x, y, mod *Decimal) (*Decimal, error) {
	xi, ok1 := x.BigInt()
	yi, ok2 := y.BigInt()
	mi, ok3 := mod.BigInt()
	if !ok1 || !ok2 || !ok3 {
		return nil, errs.New(errs.InvalidOperation, "[<class 'decimal.InvalidOperation'>]")
	}
	if yi.Sign() < 0 || mi.Sign() == 0 {
		return nil, errs.New(errs.InvalidOperation, "[<class 'decimal.InvalidOperation'>]")
	}
	am := new(big.Int).Abs(mi)
	r := new(big.Int).Exp(new(big.Int).Abs(xi), yi, am)
	if xi.Sign() < 0 && yi.Bit(0) == 1 && r.Sign() != 0 {
		// The result takes the sign of x**y, with the magnitude of the
		// remainder.
		r.Neg(r)
	}
	return DecimalFromBig(r), nil
}

// Divides with the ideal exponent for exact quotients.
func quoExact(d, x, y *apd.Decimal) (apd.Condition, error) {
	cond, err := DecimalContext.Quo(d, x, y)
	if err != nil {
		return cond, err
	}
	if !cond.Inexact() {
		reduceToIdeal(d, x.Exponent-y.Exponent)
	}
	return cond, nil
}

// Sqrt returns the square root of x.
func (x *Decimal) Sqrt() (*Decimal, error) {
	if x.Sign() < 0 {
		return nil, errs.New(errs.InvalidOperation, "[<class 'decimal.InvalidOperation'>]")
	}
	z, err := decimalOp(func(d *apd.Decimal) (apd.Condition, error) {
		return DecimalContext.Sqrt(d, &x.d)
	})
	if err != nil {
		return nil, err
	}
	var sq apd.Decimal
	if _, err := DecimalContext.Mul(&sq, &z.d, &z.d); err == nil && sq.Cmp(&x.d) == 0 {
		ideal := x.d.Exponent / 2
		if x.d.Exponent < 0 && x.d.Exponent%2 != 0 {
			ideal--
		}
		reduceToIdeal(&z.d, ideal)
	}
	return z, nil
}

func (x *Decimal) Exp() (*Decimal, error) {
	return decimalOp(func(d *apd.Decimal) (apd.Condition, error) {
		return DecimalContext.Exp(d, &x.d)
	})
}

func (x *Decimal) Ln() (*Decimal, error) {
	if x.Sign() < 0 {
		return nil, errs.New(errs.InvalidOperation, "[<class 'decimal.InvalidOperation'>]")
	}
	return decimalOp(func(d *apd.Decimal) (apd.Condition, error) {
		return DecimalContext.Ln(d, &x.d)
	})
}

func (x *Decimal) Log10() (*Decimal, error) {
	if x.Sign() < 0 {
		return nil, errs.New(errs.InvalidOperation, "[<class 'decimal.InvalidOperation'>]")
	}
	z, err := decimalOp(func(d *apd.Decimal) (apd.Condition, error) {
		return DecimalContext.Log10(d, &x.d)
	})
	if err != nil {
		return nil, err
	}
	if z.IsInteger() {
		reduceToIdeal(&z.d, 0)
	}
	return z, nil
}

// Quantize rounds x to have the same exponent as exp.
func (x *Decimal) Quantize(exp *Decimal) (*Decimal, error) {
	if exp.d.Form != apd.Finite {
		return nil, errs.New(errs.InvalidOperation, "[<class 'decimal.InvalidOperation'>]")
	}
	return decimalOp(func(d *apd.Decimal) (apd.Condition, error) {
		return DecimalContext.Quantize(d, &x.d, exp.d.Exponent)
	})
}

// RoundTo rounds x to n digits after the decimal point, like round() with two
// arguments.
func (x *Decimal) RoundTo(n int) (*Decimal, error) {
	if x.d.Form != apd.Finite {
		return x, nil
	}
	return decimalOp(func(d *apd.Decimal) (apd.Condition, error) {
		return DecimalContext.Quantize(d, &x.d, int32(-n))
	})
}

// ToIntegral rounds x to an integer, half to even, keeping the Decimal type.
func (x *Decimal) ToIntegral() (*Decimal, error) {
	return decimalOp(func(d *apd.Decimal) (apd.Condition, error) {
		return DecimalContext.RoundToIntegralValue(d, &x.d)
	})
}

// Floor and Ceil return integers, like math.floor and math.ceil on decimals.
func (x *Decimal) Floor() (any, error) { return x.roundInt(DecimalContext.Floor) }
func (x *Decimal) Ceil() (any, error)  { return x.roundInt(DecimalContext.Ceil) }

func (x *Decimal) roundInt(f func(d, x *apd.Decimal) (apd.Condition, error)) (any, error) {
	if x.d.Form != apd.Finite {
		return x.Trunc()
	}
	z, err := decimalOp(func(d *apd.Decimal) (apd.Condition, error) { return f(d, &x.d) })
	if err != nil {
		return nil, err
	}
	return z.Trunc()
}

// Normalize strips trailing zeros, like Decimal.normalize.
func (x *Decimal) Normalize() (*Decimal, error) {
	return decimalOp(func(d *apd.Decimal) (apd.Condition, error) {
		_, cond, err := DecimalContext.Reduce(d, &x.d)
		return cond, err
	})
}

// Adjusted returns the exponent of the most significant digit.
func (x *Decimal) Adjusted() int {
	if x.d.Form != apd.Finite || x.d.IsZero() {
		return int(x.d.Exponent)
	}
	return int(x.d.Exponent) + int(x.d.NumDigits()) - 1
}
