package vals

import (
	"math"
	"math/big"
	"math/bits"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

func constMethod(recv any, name string, v any) *BoundMethod {
	return posMethod(recv, name, 0, 0, func([]any) (any, error) { return v, nil })
}

func intAttr(v any, name string) (any, bool) {
	// Attributes of bools are those of the int with the same value.
	if b, ok := v.(bool); ok {
		v = boolToInt(b)
	}
	switch name {
	case "real", "numerator":
		return v, true
	case "imag":
		return 0, true
	case "denominator":
		return 1, true
	case "conjugate":
		return constMethod(v, name, v), true
	case "is_integer":
		return constMethod(v, name, true), true
	case "as_integer_ratio":
		return constMethod(v, name, Tuple{v, 1}), true
	case "bit_length":
		z, _ := bigOf(v)
		return constMethod(v, name, z.BitLen()), true
	case "bit_count":
		z, _ := bigOf(v)
		n := 0
		for _, w := range new(big.Int).Abs(z).Bits() {
			n += bits.OnesCount(uint(w))
		}
		return constMethod(v, name, n), true
	}
	return nil, false
}

func floatAttr(f float64, name string) (any, bool) {
	switch name {
	case "real":
		return f, true
	case "imag":
		return 0.0, true
	case "conjugate":
		return constMethod(f, name, f), true
	case "is_integer":
		return constMethod(f, name, !math.IsInf(f, 0) && f == math.Trunc(f)), true
	case "as_integer_ratio":
		return posMethod(f, name, 0, 0, func([]any) (any, error) {
			if math.IsInf(f, 0) {
				return nil, errs.New(errs.OverflowError, "cannot convert Infinity to integer ratio")
			}
			if math.IsNaN(f) {
				return nil, errs.New(errs.ValueError, "cannot convert NaN to integer ratio")
			}
			r := new(big.Rat).SetFloat64(f)
			return Tuple{NormalizeBigInt(r.Num()), NormalizeBigInt(r.Denom())}, nil
		}), true
	}
	return nil, false
}

func complexAttr(c complex128, name string) (any, bool) {
	switch name {
	case "real":
		return real(c), true
	case "imag":
		return imag(c), true
	case "conjugate":
		return constMethod(c, name, complex(real(c), -imag(c))), true
	}
	return nil, false
}

func decimalMethod(x *Decimal, name string, f func() (*Decimal, error)) *BoundMethod {
	return posMethod(x, name, 0, 0, func([]any) (any, error) { return f() })
}

func decimalAttr(x *Decimal, name string) (any, bool) {
	switch name {
	case "real":
		return x, true
	case "imag":
		return DecimalFromInt(0), true
	case "conjugate":
		return constMethod(x, name, x), true
	case "sqrt":
		return decimalMethod(x, name, x.Sqrt), true
	case "exp":
		return decimalMethod(x, name, x.Exp), true
	case "ln":
		return decimalMethod(x, name, x.Ln), true
	case "log10":
		return decimalMethod(x, name, x.Log10), true
	case "normalize":
		return decimalMethod(x, name, x.Normalize), true
	case "to_integral_value", "to_integral":
		return decimalMethod(x, name, x.ToIntegral), true
	case "copy_abs":
		return decimalMethod(x, name, func() (*Decimal, error) {
			z := &Decimal{}
			z.d.Abs(&x.d)
			return z, nil
		}), true
	case "copy_negate":
		return decimalMethod(x, name, func() (*Decimal, error) {
			z := &Decimal{}
			z.d.Neg(&x.d)
			return z, nil
		}), true
	case "quantize":
		return posMethod(x, name, 1, 1, func(args []any) (any, error) {
			exp, ok := ToDecimal(args[0])
			if !ok {
				return nil, errs.Newf(errs.TypeError, "conversion from %s to Decimal is not supported",
					TypeName(args[0]))
			}
			return x.Quantize(exp)
		}), true
	case "adjusted":
		return constMethod(x, name, x.Adjusted()), true
	case "is_nan":
		return constMethod(x, name, x.IsNaN()), true
	case "is_infinite":
		return constMethod(x, name, x.IsInf()), true
	case "is_finite":
		return constMethod(x, name, x.d.Form == apd.Finite), true
	case "is_zero":
		return constMethod(x, name, x.d.Form == apd.Finite && x.d.IsZero()), true
	case "is_signed":
		return constMethod(x, name, x.d.Negative), true
	case "as_integer_ratio":
		return posMethod(x, name, 0, 0, func([]any) (any, error) {
			switch {
			case x.IsNaN():
				return nil, errs.New(errs.ValueError, "cannot convert NaN to integer ratio")
			case x.IsInf():
				return nil, errs.New(errs.OverflowError, "cannot convert Infinity to integer ratio")
			}
			num := x.d.Coeff.MathBigInt()
			if x.d.Negative {
				num.Neg(num)
			}
			den := big.NewInt(1)
			pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(int(x.d.Exponent)))), nil)
			if x.d.Exponent >= 0 {
				num.Mul(num, pow)
			} else {
				den = pow
			}
			r := new(big.Rat).SetFrac(num, den)
			return Tuple{NormalizeBigInt(r.Num()), NormalizeBigInt(r.Denom())}, nil
		}), true
	}
	return nil, false
}
