package vals

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

// Reprer is implemented by values defined outside this package to provide
// their representation.
type Reprer interface {
	Repr() string
}

// Stringer is implemented by values defined outside this package whose str()
// differs from their representation.
type Stringer interface {
	String() string
}

// Repr returns the representation of a value, like repr().
func Repr(v any) string {
	var sb strings.Builder
	r := reprer{&sb, map[any]bool{}}
	r.repr(v)
	return sb.String()
}

// ASCII is like Repr, but escapes the non-ASCII characters of the result,
// like ascii().
func ASCII(v any) string {
	var sb strings.Builder
	for _, r := range Repr(v) {
		switch {
		case r < 0x80:
			sb.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&sb, "\\x%02x", r)
		case r <= 0xffff:
			fmt.Fprintf(&sb, "\\u%04x", r)
		default:
			fmt.Fprintf(&sb, "\\U%08x", r)
		}
	}
	return sb.String()
}

type reprer struct {
	sb *strings.Builder
	// Containers being printed, to detect cycles.
	active map[any]bool
}

func (r reprer) enter(c any, self string) bool {
	if r.active[c] {
		r.sb.WriteString(self)
		return false
	}
	r.active[c] = true
	return true
}

func (r reprer) elems(open, close string, elems []any) {
	r.sb.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			r.sb.WriteString(", ")
		}
		r.repr(e)
	}
	r.sb.WriteString(close)
}

func (r reprer) repr(v any) {
	sb := r.sb
	switch v := v.(type) {
	case NoneType:
		sb.WriteString("None")
	case EllipsisType:
		sb.WriteString("Ellipsis")
	case bool:
		if v {
			sb.WriteString("True")
		} else {
			sb.WriteString("False")
		}
	case int:
		sb.WriteString(strconv.Itoa(v))
	case *big.Int:
		sb.WriteString(v.String())
	case float64:
		sb.WriteString(FormatFloat(v))
	case complex128:
		sb.WriteString(formatComplex(v))
	case string:
		sb.WriteString(Quote(v))
	case Bytes:
		sb.WriteString(quoteBytes(v))
	case *List:
		if r.enter(v, "[...]") {
			r.elems("[", "]", v.Elems)
			delete(r.active, v)
		}
	case Tuple:
		if len(v) == 1 {
			sb.WriteString("(")
			r.repr(v[0])
			sb.WriteString(",)")
			return
		}
		r.elems("(", ")", v)
	case *Dict:
		if !r.enter(v, "{...}") {
			return
		}
		sb.WriteString("{")
		first := true
		v.Each(func(k, val any) bool {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			r.repr(k)
			sb.WriteString(": ")
			r.repr(val)
			return true
		})
		sb.WriteString("}")
		delete(r.active, v)
	case *Set:
		elems := v.Elems()
		switch {
		case v.Frozen && len(elems) == 0:
			sb.WriteString("frozenset()")
		case v.Frozen:
			r.elems("frozenset({", "})", elems)
		case len(elems) == 0:
			sb.WriteString("set()")
		default:
			r.elems("{", "}", elems)
		}
	case DictView:
		sb.WriteString(v.typeName())
		var elems []any
		v.Dict.Each(func(k, val any) bool {
			elems = append(elems, v.elem(k, val))
			return true
		})
		r.elems("([", "])", elems)
	case Opaque:
		sb.WriteString(v.Repr)
	case Reprer:
		sb.WriteString(v.Repr())
	default:
		sb.WriteString("<" + TypeName(v) + " object>")
	}
}

// Str returns the string form of a value, like str().
func Str(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case *Decimal:
		return v.String()
	case Stringer:
		return v.String()
	}
	return Repr(v)
}

// FormatFloat formats a float the way repr() does: the shortest
// representation that round-trips, in positional notation when the decimal
// exponent is between -4 and 16.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

func formatComplex(c complex128) string {
	re, im := real(c), imag(c)
	imStr := formatComplexPart(im) + "j"
	if re == 0 && !math.Signbit(re) {
		return imStr
	}
	sign := "+"
	if math.Signbit(im) && !math.IsNaN(im) {
		sign = ""
	}
	return "(" + formatComplexPart(re) + sign + imStr + ")"
}

// Parts of complex numbers drop the ".0" of integral values.
func formatComplexPart(f float64) string {
	s := FormatFloat(f)
	return strings.TrimSuffix(s, ".0")
}

// Quote quotes a string the way repr() does: single quotes are preferred
// unless the string contains single quotes but no double quotes.
func Quote(s string) string {
	q := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		q = '"'
	}
	var sb strings.Builder
	sb.WriteByte(q)
	for _, r := range s {
		switch {
		case r == rune(q) || r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			sb.WriteString(`\x`)
			sb.WriteString(hex2(int(r)))
		case r > 0x7f && !unicode.IsPrint(r):
			switch {
			case r <= 0xff:
				sb.WriteString(`\x` + hex2(int(r)))
			case r <= 0xffff:
				sb.WriteString(`\u` + leftPad(strconv.FormatInt(int64(r), 16), 4))
			default:
				sb.WriteString(`\U` + leftPad(strconv.FormatInt(int64(r), 16), 8))
			}
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte(q)
	return sb.String()
}

func quoteBytes(b Bytes) string {
	q := byte('\'')
	if strings.IndexByte(string(b), '\'') >= 0 && strings.IndexByte(string(b), '"') < 0 {
		q = '"'
	}
	var sb strings.Builder
	sb.WriteString("b")
	sb.WriteByte(q)
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == q || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			sb.WriteString(`\x` + hex2(int(c)))
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(q)
	return sb.String()
}

func hex2(i int) string { return leftPad(strconv.FormatInt(int64(i), 16), 2) }

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

// Truthy returns the truth value of a value, as tested by if and while.
func Truthy(v any) bool {
	switch v := v.(type) {
	case NoneType:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case *big.Int:
		return v.Sign() != 0
	case float64:
		return v != 0
	case complex128:
		return v != 0
	case *Decimal:
		return v.IsNaN() || v.d.Sign() != 0
	case string:
		return v != ""
	case Bytes:
		return v != ""
	case *List:
		return len(v.Elems) > 0
	case Tuple:
		return len(v) > 0
	case *Dict:
		return v.Len() > 0
	case *Set:
		return v.Len() > 0
	case DictView:
		return v.Dict.Len() > 0
	case Range:
		return v.Len() > 0
	case *DecimalRange:
		n, _ := v.Len()
		return n > 0
	case Lener:
		return v.Len() > 0
	case Booler:
		return v.Bool()
	}
	return true
}

// Booler is implemented by values defined outside this package that can be
// false.
type Booler interface {
	Bool() bool
}
