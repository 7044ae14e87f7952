package vals

import (
	"math"
	"math/big"
	"strings"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// NormalizeBigInt returns z as an int if it fits, or z itself otherwise. All
// integers produced by this package are normalized this way, so that equal
// integers always have the same Go type.
func NormalizeBigInt(z *big.Int) any {
	if z.IsInt64() {
		if i := z.Int64(); int64(int(i)) == i {
			return int(i)
		}
	}
	return z
}

// Reports whether v is an integer, including bools.
func isInt(v any) bool {
	switch v.(type) {
	case bool, int, *big.Int:
		return true
	}
	return false
}

// Reports whether v is a number of the built-in numeric tower, including bools
// and decimals.
func isNumber(v any) bool {
	switch v.(type) {
	case bool, int, *big.Int, float64, complex128, *Decimal:
		return true
	}
	return false
}

// Returns the integer v as a *big.Int. The result must not be modified.
func bigOf(v any) (*big.Int, bool) {
	switch v := v.(type) {
	case bool:
		if v {
			return big1, true
		}
		return big0, true
	case int:
		return big.NewInt(int64(v)), true
	case *big.Int:
		return v, true
	}
	return nil, false
}

// ToBigInt converts an integer, or an integral Decimal, to a *big.Int. The
// result must not be modified.
func ToBigInt(v any) (*big.Int, error) {
	if z, ok := bigOf(v); ok {
		return z, nil
	}
	if d, ok := v.(*Decimal); ok {
		if z, ok := d.BigInt(); ok {
			return z, nil
		}
	}
	return nil, errs.Newf(errs.TypeError, "'%s' object cannot be interpreted as an integer", TypeName(v))
}

var (
	big0 = big.NewInt(0)
	big1 = big.NewInt(1)
)

// Converts an integer to an int, reporting false for non-integers.
func smallInt(v any) (int, bool) {
	switch v := v.(type) {
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case int:
		return v, true
	}
	return 0, false
}

var errIntTooLargeForFloat = errs.New(errs.OverflowError, "int too large to convert to float")

// ToFloat converts a real number to a float64, following the conversion rules
// of float().
func ToFloat(v any) (float64, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case int:
		return float64(v), nil
	case *big.Int:
		f, acc := new(big.Float).SetInt(v).Float64()
		if math.IsInf(f, 0) && acc != big.Exact {
			return 0, errIntTooLargeForFloat
		}
		return f, nil
	case float64:
		return v, nil
	case *Decimal:
		return v.Float64(), nil
	}
	return 0, errs.Newf(errs.TypeError, "must be real number, not %s", TypeName(v))
}

// ToComplex converts a number to a complex128.
func ToComplex(v any) (complex128, error) {
	if c, ok := v.(complex128); ok {
		return c, nil
	}
	f, err := ToFloat(v)
	if err != nil {
		return 0, err
	}
	return complex(f, 0), nil
}

// ToIndex converts a value used as an index or a count to an int. Integral
// decimals are accepted, since every literal is a decimal in decimal mode.
func ToIndex(v any) (int, error) {
	i, ok, err := indexOf(v)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errs.Newf(errs.TypeError, "'%s' object cannot be interpreted as an integer", TypeName(v))
	}
	return i, nil
}

func indexOf(v any) (int, bool, error) {
	switch v := v.(type) {
	case bool, int:
		i, _ := smallInt(v)
		return i, true, nil
	case *big.Int:
		return 0, true, errs.Newf(errs.IndexError, "cannot fit 'int' into an index-sized integer")
	case *Decimal:
		if z, ok := v.BigInt(); ok {
			n, ok := NormalizeBigInt(z).(int)
			if !ok {
				return 0, true, errs.Newf(errs.IndexError, "cannot fit 'int' into an index-sized integer")
			}
			return n, true, nil
		}
	}
	return 0, false, nil
}

// ToInt converts a value to an integer following the rules of int() with a
// single argument: floats and decimals are truncated toward zero.
func ToInt(v any) (any, error) {
	switch v := v.(type) {
	case bool:
		i, _ := smallInt(v)
		return i, nil
	case int, *big.Int:
		return v, nil
	case float64:
		if math.IsInf(v, 0) {
			return nil, errs.New(errs.OverflowError, "cannot convert float infinity to integer")
		}
		if math.IsNaN(v) {
			return nil, errs.New(errs.ValueError, "cannot convert float NaN to integer")
		}
		z, _ := big.NewFloat(math.Trunc(v)).Int(nil)
		return NormalizeBigInt(z), nil
	case *Decimal:
		return v.Trunc()
	case string:
		return ParseInt(v, 10)
	}
	return nil, errs.Newf(errs.TypeError,
		"int() argument must be a string, a bytes-like object or a real number, not '%s'", TypeName(v))
}

// Converts a float with an integral value to an integer.
func floatToInt(f float64) any {
	z, _ := big.NewFloat(f).Int(nil)
	return NormalizeBigInt(z)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ParseInt implements int() with a string argument. Base 0 infers the base
// from the prefix, as for integer literals.
func ParseInt(s string, base int) (any, error) {
	invalid := errs.Newf(errs.ValueError, "invalid literal for int() with base %d: %s", base, Quote(s))
	if base != 0 && (base < 2 || base > 36) {
		return nil, errs.New(errs.ValueError, "int() base must be >= 2 and <= 36, or 0")
	}
	t := strings.TrimSpace(s)
	neg := false
	if t != "" && (t[0] == '+' || t[0] == '-') {
		neg = t[0] == '-'
		t = t[1:]
	}
	if len(t) >= 2 && t[0] == '0' {
		prefixBase := map[byte]int{'x': 16, 'X': 16, 'o': 8, 'O': 8, 'b': 2, 'B': 2}[t[1]]
		if prefixBase != 0 && (base == 0 || base == prefixBase) {
			base = prefixBase
			t = t[2:]
			if strings.HasPrefix(t, "_") {
				t = t[1:]
			}
		}
	}
	if base == 0 {
		if len(t) > 1 && strings.Trim(t, "0_") != "" && t[0] == '0' {
			return nil, invalid
		}
		base = 10
	}
	if t == "" || strings.ContainsAny(t[:1], "_+-") || t[len(t)-1] == '_' || strings.Contains(t, "__") {
		return nil, invalid
	}
	z, ok := new(big.Int).SetString(strings.ReplaceAll(t, "_", ""), base)
	if !ok {
		return nil, invalid
	}
	if neg {
		z.Neg(z)
	}
	return NormalizeBigInt(z), nil
}
