package vals

import (
	"math"
	"math/big"
	"math/bits"
	"math/cmplx"
	"strings"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// BinaryOper is implemented by values defined outside this package that
// support arithmetic operators. The operator is given by its symbol, like
// "+". When reflected is true, the receiver is the right operand. The
// returned bool is false if the operation is not supported for the operands.
type BinaryOper interface {
	BinaryOp(op string, other any, reflected bool) (any, bool, error)
}

func unsupportedOperands(op string, a, b any) error {
	return errs.Newf(errs.TypeError, "unsupported operand type(s) for %s: '%s' and '%s'",
		op, TypeName(a), TypeName(b))
}

// Rank of a number in the numeric tower. Decimals absorb every real number.
const (
	rankInt = iota
	rankFloat
	rankComplex
	rankDecimal
	rankNone
)

func numRank(v any) int {
	switch v.(type) {
	case bool, int, *big.Int:
		return rankInt
	case float64:
		return rankFloat
	case complex128:
		return rankComplex
	case *Decimal:
		return rankDecimal
	}
	return rankNone
}

// Implementations of a numeric operator for each rank. A nil field means the
// operator is not supported for that rank.
type numOp struct {
	sym      string
	small    func(a, b int) (int, bool)
	ints     func(a, b *big.Int) (any, error)
	floats   func(a, b float64) (any, error)
	complex  func(a, b complex128) (any, error)
	decimals func(a *Decimal, b any) (*Decimal, error)
}

// Applies a numeric operator. The bool result is false if either operand is
// not a number.
func (op *numOp) apply(a, b any) (any, bool, error) {
	ra, rb := numRank(a), numRank(b)
	if ra == rankNone || rb == rankNone {
		return nil, false, nil
	}
	r := max(ra, rb)
	if r == rankDecimal && min(ra, rb) == rankComplex {
		return nil, true, unsupportedOperands(op.sym, a, b)
	}
	var v any
	var err error
	switch r {
	case rankInt:
		if op.small != nil {
			ai, aok := smallInt(a)
			bi, bok := smallInt(b)
			if aok && bok {
				if c, ok := op.small(ai, bi); ok {
					return c, true, nil
				}
			}
		}
		if op.ints == nil {
			return nil, true, unsupportedOperands(op.sym, a, b)
		}
		ab, _ := bigOf(a)
		bb, _ := bigOf(b)
		v, err = op.ints(ab, bb)
	case rankFloat:
		if op.floats == nil {
			return nil, true, unsupportedOperands(op.sym, a, b)
		}
		var af, bf float64
		if af, err = ToFloat(a); err == nil {
			if bf, err = ToFloat(b); err == nil {
				v, err = op.floats(af, bf)
			}
		}
	case rankComplex:
		if op.complex == nil {
			return nil, true, unsupportedOperands(op.sym, a, b)
		}
		var ac, bc complex128
		if ac, err = ToComplex(a); err == nil {
			if bc, err = ToComplex(b); err == nil {
				v, err = op.complex(ac, bc)
			}
		}
	case rankDecimal:
		if op.decimals == nil {
			return nil, true, unsupportedOperands(op.sym, a, b)
		}
		if ad, ok := a.(*Decimal); ok {
			v, err = op.decimals(ad, b)
		} else {
			// Reflected: convert the left operand and keep the order.
			ad, _ := ToDecimal(a)
			v, err = op.decimals(ad, b)
		}
	}
	if err != nil {
		return nil, true, err
	}
	return v, true, nil
}

// Tries the BinaryOper implementations of the operands.
func externalOp(sym string, a, b any) (any, bool, error) {
	if bo, ok := a.(BinaryOper); ok {
		if v, ok, err := bo.BinaryOp(sym, b, false); ok || err != nil {
			return v, true, err
		}
	}
	if bo, ok := b.(BinaryOper); ok {
		if v, ok, err := bo.BinaryOp(sym, a, true); ok || err != nil {
			return v, true, err
		}
	}
	return nil, false, nil
}

func binary(op *numOp, a, b any) (any, error) {
	if v, ok, err := op.apply(a, b); ok {
		return v, err
	}
	if v, ok, err := externalOp(op.sym, a, b); ok {
		return v, err
	}
	return nil, unsupportedOperands(op.sym, a, b)
}

func bigResult(z *big.Int) (any, error) { return NormalizeBigInt(z), nil }

var addOp = &numOp{
	sym: "+",
	small: func(a, b int) (int, bool) {
		c := a + b
		return c, (c > a) == (b > 0)
	},
	ints:     func(a, b *big.Int) (any, error) { return bigResult(new(big.Int).Add(a, b)) },
	floats:   func(a, b float64) (any, error) { return a + b, nil },
	complex:  func(a, b complex128) (any, error) { return a + b, nil },
	decimals: (*Decimal).Add,
}

var subOp = &numOp{
	sym: "-",
	small: func(a, b int) (int, bool) {
		c := a - b
		return c, (c < a) == (b > 0)
	},
	ints:     func(a, b *big.Int) (any, error) { return bigResult(new(big.Int).Sub(a, b)) },
	floats:   func(a, b float64) (any, error) { return a - b, nil },
	complex:  func(a, b complex128) (any, error) { return a - b, nil },
	decimals: (*Decimal).Sub,
}

var mulOp = &numOp{
	sym: "*",
	small: func(a, b int) (int, bool) {
		if a == 0 || b == 0 {
			return 0, true
		}
		c := a * b
		return c, c/b == a && !(a == -1 && b == math.MinInt) && !(b == -1 && a == math.MinInt)
	},
	ints:     func(a, b *big.Int) (any, error) { return bigResult(new(big.Int).Mul(a, b)) },
	floats:   func(a, b float64) (any, error) { return a * b, nil },
	complex:  func(a, b complex128) (any, error) { return a * b, nil },
	decimals: (*Decimal).Mul,
}

var trueDivOp = &numOp{
	sym: "/",
	ints: func(a, b *big.Int) (any, error) {
		if b.Sign() == 0 {
			return nil, errs.New(errs.ZeroDivisionError, "division by zero")
		}
		f, _ := new(big.Rat).SetFrac(a, b).Float64()
		if math.IsInf(f, 0) {
			return nil, errs.New(errs.OverflowError, "integer division result too large for a float")
		}
		return f, nil
	},
	floats: func(a, b float64) (any, error) {
		if b == 0 {
			return nil, errs.New(errs.ZeroDivisionError, "float division by zero")
		}
		return a / b, nil
	},
	complex: func(a, b complex128) (any, error) {
		if b == 0 {
			return nil, errs.New(errs.ZeroDivisionError, "complex division by zero")
		}
		return a / b, nil
	},
	decimals: (*Decimal).TrueDiv,
}

// Floor division and modulo on *big.Int, rounding toward negative infinity.
func bigFloorDivMod(a, b *big.Int) (*big.Int, *big.Int) {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 && r.Sign() != b.Sign() {
		q.Sub(q, big1)
		r.Add(r, b)
	}
	return q, r
}

// Floor division and modulo on floats, following the reference algorithm
// so that the results satisfy a == q*b + r as closely as possible.
func floatDivMod(a, b float64) (float64, float64) {
	mod := math.Mod(a, b)
	div := (a - mod) / b
	if mod != 0 {
		if (b < 0) != (mod < 0) {
			mod += b
			div -= 1
		}
	} else {
		mod = math.Copysign(0, b)
	}
	var floordiv float64
	if div != 0 {
		floordiv = math.Floor(div)
		if div-floordiv > 0.5 {
			floordiv += 1
		}
	} else {
		floordiv = math.Copysign(0, a/b)
	}
	return floordiv, mod
}

var floorDivOp = &numOp{
	sym: "//",
	ints: func(a, b *big.Int) (any, error) {
		if b.Sign() == 0 {
			return nil, errs.New(errs.ZeroDivisionError, "integer division or modulo by zero")
		}
		q, _ := bigFloorDivMod(a, b)
		return NormalizeBigInt(q), nil
	},
	floats: func(a, b float64) (any, error) {
		if b == 0 {
			return nil, errs.New(errs.ZeroDivisionError, "float floor division by zero")
		}
		q, _ := floatDivMod(a, b)
		return q, nil
	},
	decimals: (*Decimal).FloorDiv,
}

var modOp = &numOp{
	sym: "%",
	ints: func(a, b *big.Int) (any, error) {
		if b.Sign() == 0 {
			return nil, errs.New(errs.ZeroDivisionError, "integer modulo by zero")
		}
		_, r := bigFloorDivMod(a, b)
		return NormalizeBigInt(r), nil
	},
	floats: func(a, b float64) (any, error) {
		if b == 0 {
			return nil, errs.New(errs.ZeroDivisionError, "float modulo")
		}
		_, r := floatDivMod(a, b)
		return r, nil
	},
	decimals: (*Decimal).Mod,
}

var powOp = &numOp{
	sym: "** or pow()",
	ints: func(a, b *big.Int) (any, error) {
		if b.Sign() < 0 {
			af, _ := new(big.Float).SetInt(a).Float64()
			bf, _ := new(big.Float).SetInt(b).Float64()
			return floatPow(af, bf)
		}
		return NormalizeBigInt(new(big.Int).Exp(a, b, nil)), nil
	},
	floats: floatPow,
	complex: func(a, b complex128) (any, error) {
		if a == 0 {
			if real(b) < 0 || imag(b) != 0 {
				return nil, errs.New(errs.ZeroDivisionError, "0.0 to a negative or complex power")
			}
			if b == 0 {
				return complex(1, 0), nil
			}
			return complex(0, 0), nil
		}
		return cmplx.Pow(a, b), nil
	},
	decimals: func(a *Decimal, b any) (*Decimal, error) { return a.Pow(b, nil) },
}

func floatPow(a, b float64) (any, error) {
	if a == 0 && b < 0 {
		return nil, errs.New(errs.ZeroDivisionError, "0.0 cannot be raised to a negative power")
	}
	if a < 0 && b != math.Trunc(b) && !math.IsInf(b, 0) {
		// A negative base with a fractional exponent has a complex result.
		return cmplx.Pow(complex(a, 0), complex(b, 0)), nil
	}
	r := math.Pow(a, b)
	if math.IsInf(r, 0) && !math.IsInf(a, 0) && !math.IsInf(b, 0) {
		return nil, errs.New(errs.OverflowError, "(34, 'Numerical result out of range')")
	}
	return r, nil
}

// Bitwise operators only apply to integers. The result of combining two bools
// with &, | and ^ is a bool.
func bitwise(sym string, a, b any, f func(z, x, y *big.Int) *big.Int, fb func(x, y bool) bool) (any, error) {
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok && fb != nil {
			return fb(ab, bb), nil
		}
	}
	if isInt(a) && isInt(b) {
		x, _ := bigOf(a)
		y, _ := bigOf(b)
		return NormalizeBigInt(f(new(big.Int), x, y)), nil
	}
	if sa, ok := a.(*Set); ok {
		if sb, ok := b.(*Set); ok {
			switch sym {
			case "|":
				return sa.Union(sb), nil
			case "&":
				return sa.Intersection(sb), nil
			case "^":
				return sa.SymmetricDifference(sb), nil
			}
		}
	}
	if da, ok := a.(*Dict); ok && sym == "|" {
		if db, ok := b.(*Dict); ok {
			d := da.Copy()
			var err error
			db.Each(func(k, v any) bool {
				err = d.Set(k, v)
				return err == nil
			})
			return d, err
		}
	}
	if v, ok, err := externalOp(sym, a, b); ok {
		return v, err
	}
	return nil, unsupportedOperands(sym, a, b)
}

const maxShift = 1 << 24

func shift(sym string, a, b any, left bool) (any, error) {
	if !isInt(a) || !isInt(b) {
		if v, ok, err := externalOp(sym, a, b); ok {
			return v, err
		}
		return nil, unsupportedOperands(sym, a, b)
	}
	x, _ := bigOf(a)
	y, _ := bigOf(b)
	if y.Sign() < 0 {
		return nil, errs.New(errs.ValueError, "negative shift count")
	}
	if !y.IsInt64() || y.Int64() > maxShift {
		if !left {
			if x.Sign() < 0 {
				return -1, nil
			}
			return 0, nil
		}
		if x.Sign() == 0 {
			return 0, nil
		}
		return nil, errs.New(errs.OverflowError, "too many digits in integer")
	}
	n := uint(y.Int64())
	if left {
		if xi, ok := smallInt(a); ok && n < 63 && bits.Len64(uint64(abs(xi)))+int(n) < 63 {
			return xi << n, nil
		}
		return NormalizeBigInt(new(big.Int).Lsh(x, n)), nil
	}
	return NormalizeBigInt(new(big.Int).Rsh(x, n)), nil
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// Arithmetic operators.

// Add implements a + b.
func Add(a, b any) (any, error) {
	switch a := a.(type) {
	case string:
		if b, ok := b.(string); ok {
			return a + b, nil
		}
		if isNumber(b) || b == None {
			return nil, errs.Newf(errs.TypeError, `can only concatenate str (not "%s") to str`, TypeName(b))
		}
	case Bytes:
		if b, ok := b.(Bytes); ok {
			return a + b, nil
		}
	case *List:
		if b, ok := b.(*List); ok {
			elems := make([]any, 0, len(a.Elems)+len(b.Elems))
			return &List{append(append(elems, a.Elems...), b.Elems...)}, nil
		}
		return nil, errs.Newf(errs.TypeError, `can only concatenate list (not "%s") to list`, TypeName(b))
	case Tuple:
		if b, ok := b.(Tuple); ok {
			elems := make(Tuple, 0, len(a)+len(b))
			return append(append(elems, a...), b...), nil
		}
		return nil, errs.Newf(errs.TypeError, `can only concatenate tuple (not "%s") to tuple`, TypeName(b))
	}
	return binary(addOp, a, b)
}

// Sub implements a - b.
func Sub(a, b any) (any, error) {
	if sa, ok := a.(*Set); ok {
		if sb, ok := b.(*Set); ok {
			return sa.Difference(sb), nil
		}
	}
	return binary(subOp, a, b)
}

// Mul implements a * b.
func Mul(a, b any) (any, error) {
	if v, ok, err := repeat(a, b); ok {
		return v, err
	}
	if v, ok, err := repeat(b, a); ok {
		return v, err
	}
	return binary(mulOp, a, b)
}

// Implements multiplication of a sequence by an integer.
func repeat(seq, n any) (any, bool, error) {
	switch seq.(type) {
	case string, Bytes, *List, Tuple:
	default:
		return nil, false, nil
	}
	count, ok, err := indexOf(n)
	if err != nil {
		return nil, true, errs.Newf(errs.OverflowError, "cannot fit 'int' into an index-sized integer")
	}
	if !ok {
		if _, external := n.(BinaryOper); external {
			return nil, false, nil
		}
		return nil, true, errs.Newf(errs.TypeError, "can't multiply sequence by non-int of type '%s'", TypeName(n))
	}
	if count < 0 {
		count = 0
	}
	switch seq := seq.(type) {
	case string:
		return strings.Repeat(seq, count), true, nil
	case Bytes:
		return Bytes(strings.Repeat(string(seq), count)), true, nil
	case *List:
		return &List{repeatSlice(seq.Elems, count)}, true, nil
	case Tuple:
		return Tuple(repeatSlice(seq, count)), true, nil
	}
	return nil, false, nil
}

func repeatSlice(elems []any, n int) []any {
	r := make([]any, 0, len(elems)*n)
	for i := 0; i < n; i++ {
		r = append(r, elems...)
	}
	return r
}

// MatMult implements a @ b. No built-in value supports it.
func MatMult(a, b any) (any, error) {
	if v, ok, err := externalOp("@", a, b); ok {
		return v, err
	}
	return nil, unsupportedOperands("@", a, b)
}

// TrueDiv implements a / b.
func TrueDiv(a, b any) (any, error) { return binary(trueDivOp, a, b) }

// FloorDiv implements a // b.
func FloorDiv(a, b any) (any, error) { return binary(floorDivOp, a, b) }

// Mod implements a % b. When a is a string, it is a format string
// interpolated with b.
func Mod(a, b any) (any, error) {
	if s, ok := a.(string); ok {
		return Interpolate(s, b)
	}
	return binary(modOp, a, b)
}

// DivMod implements divmod().
func DivMod(a, b any) (any, error) {
	if ad, ok := a.(*Decimal); ok {
		q, r, err := ad.DivMod(b)
		if err != nil {
			return nil, err
		}
		return Tuple{q, r}, nil
	}
	if bd, ok := b.(*Decimal); ok {
		q, r, err := bd.RDivMod(a)
		if err != nil {
			return nil, err
		}
		return Tuple{q, r}, nil
	}
	ra, rb := numRank(a), numRank(b)
	switch {
	case ra == rankInt && rb == rankInt:
		x, _ := bigOf(a)
		y, _ := bigOf(b)
		if y.Sign() == 0 {
			return nil, errs.New(errs.ZeroDivisionError, "integer division or modulo by zero")
		}
		q, r := bigFloorDivMod(x, y)
		return Tuple{NormalizeBigInt(q), NormalizeBigInt(r)}, nil
	case ra <= rankFloat && rb <= rankFloat:
		x, err := ToFloat(a)
		if err != nil {
			return nil, err
		}
		y, err := ToFloat(b)
		if err != nil {
			return nil, err
		}
		if y == 0 {
			return nil, errs.New(errs.ZeroDivisionError, "float divmod()")
		}
		q, r := floatDivMod(x, y)
		return Tuple{q, r}, nil
	}
	return nil, unsupportedOperands("divmod()", a, b)
}

// Pow implements a ** b.
func Pow(a, b any) (any, error) { return binary(powOp, a, b) }

// PowMod implements pow() with three arguments.
func PowMod(a, b, m any) (any, error) {
	if m == nil || m == None {
		return Pow(a, b)
	}
	if ad, ok := a.(*Decimal); ok {
		return ad.Pow(b, m)
	}
	if _, ok := b.(*Decimal); ok {
		ad, _ := ToDecimal(a)
		if ad != nil {
			return ad.Pow(b, m)
		}
	}
	if _, ok := m.(*Decimal); ok {
		if ad, ok := ToDecimal(a); ok {
			return ad.Pow(b, m)
		}
	}
	if !isInt(a) || !isInt(b) || !isInt(m) {
		return nil, errs.New(errs.TypeError, "pow() 3rd argument not allowed unless all arguments are integers")
	}
	x, _ := bigOf(a)
	y, _ := bigOf(b)
	z, _ := bigOf(m)
	if z.Sign() == 0 {
		return nil, errs.New(errs.ValueError, "pow() 3rd argument cannot be 0")
	}
	mod := new(big.Int).Abs(z)
	base := new(big.Int).Mod(x, mod)
	if y.Sign() < 0 {
		if base.ModInverse(base, mod) == nil {
			return nil, errs.New(errs.ValueError, "base is not invertible for the given modulus")
		}
		y = new(big.Int).Neg(y)
	}
	r := new(big.Int).Exp(base, y, mod)
	if z.Sign() < 0 && r.Sign() != 0 {
		r.Add(r, z)
	}
	return NormalizeBigInt(r), nil
}

// LShift implements a << b.
func LShift(a, b any) (any, error) { return shift("<<", a, b, true) }

// RShift implements a >> b.
func RShift(a, b any) (any, error) { return shift(">>", a, b, false) }

// BitOr implements a | b.
func BitOr(a, b any) (any, error) {
	return bitwise("|", a, b, (*big.Int).Or, func(x, y bool) bool { return x || y })
}

// BitXor implements a ^ b.
func BitXor(a, b any) (any, error) {
	return bitwise("^", a, b, (*big.Int).Xor, func(x, y bool) bool { return x != y })
}

// BitAnd implements a & b.
func BitAnd(a, b any) (any, error) {
	return bitwise("&", a, b, (*big.Int).And, func(x, y bool) bool { return x && y })
}

// Unary operators.

// UnaryOper is implemented by values defined outside this package that
// support unary operators. The operator is "-", "+" or "abs". The returned
// bool is false if the operator is not supported.
type UnaryOper interface {
	UnaryOp(op string) (any, bool, error)
}

func externalUnary(op string, a any) (any, bool, error) {
	if uo, ok := a.(UnaryOper); ok {
		return uo.UnaryOp(op)
	}
	return nil, false, nil
}

// Neg implements -a.
func Neg(a any) (any, error) {
	switch a := a.(type) {
	case bool:
		return -boolToInt(a), nil
	case int:
		if a == math.MinInt {
			return new(big.Int).Neg(big.NewInt(int64(a))), nil
		}
		return -a, nil
	case *big.Int:
		return NormalizeBigInt(new(big.Int).Neg(a)), nil
	case float64:
		return -a, nil
	case complex128:
		return -a, nil
	case *Decimal:
		return a.Neg()
	}
	if v, ok, err := externalUnary("-", a); ok {
		return v, err
	}
	return nil, badOperand("-", a)
}

// Pos implements +a.
func Pos(a any) (any, error) {
	switch a := a.(type) {
	case bool:
		return boolToInt(a), nil
	case int, *big.Int, float64, complex128:
		return a, nil
	case *Decimal:
		return a.Pos()
	}
	if v, ok, err := externalUnary("+", a); ok {
		return v, err
	}
	return nil, badOperand("+", a)
}

// Invert implements ~a.
func Invert(a any) (any, error) {
	if isInt(a) {
		x, _ := bigOf(a)
		return NormalizeBigInt(new(big.Int).Not(x)), nil
	}
	return nil, badOperand("~", a)
}

// Not implements "not a".
func Not(a any) (any, error) { return !Truthy(a), nil }

func badOperand(op string, a any) error {
	return errs.Newf(errs.TypeError, "bad operand type for unary %s: '%s'", op, TypeName(a))
}

// Abs implements abs().
func Abs(a any) (any, error) {
	switch a := a.(type) {
	case bool:
		return boolToInt(a), nil
	case int:
		if a < 0 {
			return Neg(a)
		}
		return a, nil
	case *big.Int:
		return NormalizeBigInt(new(big.Int).Abs(a)), nil
	case float64:
		return math.Abs(a), nil
	case complex128:
		return cmplx.Abs(a), nil
	case *Decimal:
		return a.Abs()
	}
	if v, ok, err := externalUnary("abs", a); ok {
		return v, err
	}
	return nil, errs.Newf(errs.TypeError, "bad operand type for abs(): '%s'", TypeName(a))
}
