package vals

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// Formatter is implemented by values defined outside this package that have
// their own format-spec syntax, like dates.
type Formatter interface {
	Format(spec string) (string, error)
}

// A parsed format spec:
//
//	[[fill]align][sign]["z"]["#"]["0"][width][grouping]["." precision][type]
type formatSpec struct {
	fill      string
	align     byte
	sign      byte
	noNegZero bool
	alt       bool
	zero      bool
	width     int
	grouping  byte
	prec      int
	typ       byte
}

func isAlign(c byte) bool { return c == '<' || c == '>' || c == '^' || c == '=' }

func parseFormatSpec(s, typeName string) (formatSpec, error) {
	invalid := errs.Newf(errs.ValueError, "Invalid format specifier '%s' for object of type '%s'", s, typeName)
	spec := formatSpec{prec: -1}
	rest := s
	if r, n := utf8.DecodeRuneInString(rest); n > 0 && n < len(rest) && isAlign(rest[n]) {
		spec.fill, spec.align = string(r), rest[n]
		rest = rest[n+1:]
	} else if rest != "" && isAlign(rest[0]) {
		spec.align = rest[0]
		rest = rest[1:]
	}
	if rest != "" && (rest[0] == '+' || rest[0] == '-' || rest[0] == ' ') {
		spec.sign = rest[0]
		rest = rest[1:]
	}
	if strings.HasPrefix(rest, "z") {
		spec.noNegZero = true
		rest = rest[1:]
	}
	if strings.HasPrefix(rest, "#") {
		spec.alt = true
		rest = rest[1:]
	}
	if strings.HasPrefix(rest, "0") {
		spec.zero = true
		rest = rest[1:]
	}
	digits := func() (int, bool) {
		i := 0
		for i < len(rest) && '0' <= rest[i] && rest[i] <= '9' {
			i++
		}
		if i == 0 {
			return 0, false
		}
		n, err := strconv.Atoi(rest[:i])
		rest = rest[i:]
		return n, err == nil
	}
	if n, ok := digits(); ok {
		spec.width = n
	}
	if rest != "" && (rest[0] == ',' || rest[0] == '_') {
		spec.grouping = rest[0]
		rest = rest[1:]
	}
	if strings.HasPrefix(rest, ".") {
		rest = rest[1:]
		n, ok := digits()
		if !ok {
			return spec, errs.New(errs.ValueError, "Format specifier missing precision")
		}
		spec.prec = n
	}
	if len(rest) > 1 {
		return spec, invalid
	}
	if rest != "" {
		spec.typ = rest[0]
	}
	if spec.zero && spec.align == 0 {
		spec.fill, spec.align = "0", '='
	}
	if spec.fill == "" {
		spec.fill = " "
	}
	return spec, nil
}

// Format implements format() and the format specs of formatted string
// literals.
func Format(v any, spec string) (string, error) {
	if f, ok := v.(Formatter); ok {
		return f.Format(spec)
	}
	if spec == "" {
		return Str(v), nil
	}
	typeName := TypeName(v)
	switch v.(type) {
	case string, bool, int, *big.Int, float64, complex128, *Decimal:
	default:
		return "", errs.Newf(errs.TypeError, "unsupported format string passed to %s.__format__", typeName)
	}
	fs, err := parseFormatSpec(spec, typeName)
	if err != nil {
		return "", err
	}
	switch v := v.(type) {
	case string:
		return formatString(v, fs, typeName)
	case bool, int, *big.Int:
		return formatInt(v, fs, typeName)
	case float64:
		return formatFloat(v, fs, typeName)
	case complex128:
		return formatComplexSpec(v, fs, typeName)
	case *Decimal:
		return formatDecimal(v, fs, typeName)
	}
	panic("unreachable")
}

func unknownFormatCode(typ byte, typeName string) error {
	return errs.Newf(errs.ValueError, "Unknown format code '%c' for object of type '%s'", typ, typeName)
}

func formatString(s string, fs formatSpec, typeName string) (string, error) {
	if fs.typ != 0 && fs.typ != 's' {
		return "", unknownFormatCode(fs.typ, typeName)
	}
	switch {
	case fs.sign != 0:
		return "", errs.New(errs.ValueError, "Sign not allowed in string format specifier")
	case fs.alt:
		return "", errs.New(errs.ValueError, "Alternate form (#) not allowed in string format specifier")
	case fs.align == '=':
		return "", errs.New(errs.ValueError, "'=' alignment not allowed in string format specifier")
	case fs.grouping != 0:
		return "", errs.Newf(errs.ValueError, "Cannot specify '%c' with 's'.", fs.grouping)
	}
	if fs.prec >= 0 && utf8.RuneCountInString(s) > fs.prec {
		s = string([]rune(s)[:fs.prec])
	}
	align := fs.align
	if align == 0 {
		align = '<'
	}
	return pad("", s, fs.width, fs.fill, align), nil
}

// Pads a formatted value to width. The sign is kept separate so that '='
// alignment can pad between the sign and the digits.
func pad(sign, body string, width int, fill string, align byte) string {
	n := width - utf8.RuneCountInString(sign) - utf8.RuneCountInString(body)
	if n <= 0 {
		return sign + body
	}
	switch align {
	case '<':
		return sign + body + strings.Repeat(fill, n)
	case '^':
		return strings.Repeat(fill, n/2) + sign + body + strings.Repeat(fill, n-n/2)
	case '=':
		return sign + strings.Repeat(fill, n) + body
	default:
		return strings.Repeat(fill, n) + sign + body
	}
}

// Returns the sign prefix of a number.
func signOf(neg bool, fs formatSpec) string {
	switch {
	case neg:
		return "-"
	case fs.sign == '+':
		return "+"
	case fs.sign == ' ':
		return " "
	}
	return ""
}

// Inserts a separator every n digits of the integer part intPart. When
// zero-padding to width, the padding is grouped as well.
func groupDigits(intPart string, sep byte, n, minWidth int) string {
	if sep == 0 {
		return intPart
	}
	var groups []string
	for len(intPart) > n {
		groups = append(groups, intPart[len(intPart)-n:])
		intPart = intPart[:len(intPart)-n]
	}
	groups = append(groups, intPart)
	length := func() int {
		l := len(groups) - 1
		for _, g := range groups {
			l += len(g)
		}
		return l
	}
	for length() < minWidth {
		last := len(groups) - 1
		if len(groups[last]) < n {
			groups[last] = "0" + groups[last]
		} else {
			groups = append(groups, "0")
		}
	}
	var sb strings.Builder
	for i := len(groups) - 1; i >= 0; i-- {
		sb.WriteString(groups[i])
		if i > 0 {
			sb.WriteByte(sep)
		}
	}
	return sb.String()
}

// Assembles a formatted number from its sign and prefix, the digits of its
// integer part and the rest (fraction, exponent and suffix).
func finishNumber(sign, intPart, rest string, fs formatSpec, groupEvery int) string {
	align := fs.align
	if align == 0 {
		align = '>'
	}
	minWidth := 0
	if fs.zero && fs.fill == "0" && align == '=' {
		minWidth = fs.width - len(sign) - utf8.RuneCountInString(rest)
	}
	body := groupDigits(intPart, fs.grouping, groupEvery, minWidth) + rest
	return pad(sign, body, fs.width, fs.fill, align)
}

func formatInt(v any, fs formatSpec, typeName string) (string, error) {
	z, _ := bigOf(v)
	switch fs.typ {
	case 'e', 'E', 'f', 'F', 'g', 'G', '%':
		f, err := ToFloat(v)
		if err != nil {
			return "", err
		}
		return formatFloat(f, fs, typeName)
	}
	if fs.prec >= 0 {
		return "", errs.New(errs.ValueError, "Precision not allowed in integer format specifier")
	}
	base, prefix := 10, ""
	switch fs.typ {
	case 0, 'd', 'n':
	case 'b':
		base, prefix = 2, "0b"
	case 'o':
		base, prefix = 8, "0o"
	case 'x', 'X':
		base, prefix = 16, "0x"
	case 'c':
		if fs.sign != 0 {
			return "", errs.New(errs.ValueError, "Sign not allowed with integer format specifier 'c'")
		}
		if !z.IsInt64() || z.Int64() < 0 || z.Int64() > utf8.MaxRune {
			return "", errs.New(errs.OverflowError, "%c arg not in range(0x110000)")
		}
		align := fs.align
		if align == 0 {
			align = '<'
		}
		return pad("", string(rune(z.Int64())), fs.width, fs.fill, align), nil
	default:
		return "", unknownFormatCode(fs.typ, typeName)
	}
	if fs.grouping == ',' && base != 10 {
		return "", errs.Newf(errs.ValueError, "Cannot specify ',' with '%c'.", fs.typ)
	}
	digits := new(big.Int).Abs(z).Text(base)
	if fs.typ == 'X' {
		digits = strings.ToUpper(digits)
		prefix = "0X"
	}
	groupEvery := 3
	if base != 10 {
		groupEvery = 4
	}
	if !fs.alt {
		prefix = ""
	}
	// The prefix goes between the sign and any '=' padding.
	return finishNumber(signOf(z.Sign() < 0, fs)+prefix, digits, "", fs, groupEvery), nil
}

// Splits a formatted non-negative number into the integer digits and the
// rest.
func splitIntPart(s string) (string, string) {
	i := 0
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}

func formatFloat(f float64, fs formatSpec, typeName string) (string, error) {
	neg := math.Signbit(f) && !math.IsNaN(f)
	a := math.Abs(f)
	prec := fs.prec
	var body string
	switch fs.typ {
	case 'f', 'F', '%':
		if prec < 0 {
			prec = 6
		}
		x := a
		if fs.typ == '%' {
			x *= 100
		}
		body = strconv.FormatFloat(x, 'f', prec, 64)
		if fs.alt && prec == 0 {
			body += "."
		}
		if fs.typ == '%' {
			body += "%"
		}
	case 'e', 'E':
		if prec < 0 {
			prec = 6
		}
		body = strconv.FormatFloat(a, 'e', prec, 64)
		if fs.alt && prec == 0 {
			body = strings.Replace(body, "e", ".e", 1)
		}
	case 'g', 'G', 'n':
		if prec < 0 {
			prec = 6
		} else if prec == 0 {
			prec = 1
		}
		body = strconv.FormatFloat(a, 'g', prec, 64)
	case 0:
		if prec < 0 {
			body = FormatFloat(a)
		} else {
			body = strconv.FormatFloat(a, 'g', max(prec, 1), 64)
			if !strings.ContainsAny(body, ".e") {
				body += ".0"
			}
		}
	default:
		return "", unknownFormatCode(fs.typ, typeName)
	}
	switch {
	case math.IsInf(f, 0):
		body = "inf"
		if fs.typ == '%' {
			body += "%"
		}
	case math.IsNaN(f):
		body = "nan"
		if fs.typ == '%' {
			body += "%"
		}
	}
	if fs.typ == 'E' || fs.typ == 'F' || fs.typ == 'G' {
		body = strings.ToUpper(body)
	}
	if neg && fs.noNegZero && strings.Trim(body, "0.%") == "" {
		neg = false
	}
	intPart, rest := splitIntPart(body)
	return finishNumber(signOf(neg, fs), intPart, rest, fs, 3), nil
}

func formatComplexSpec(c complex128, fs formatSpec, typeName string) (string, error) {
	switch fs.typ {
	case 0, 'e', 'E', 'f', 'F', 'g', 'G', 'n':
	default:
		return "", unknownFormatCode(fs.typ, typeName)
	}
	if fs.zero {
		return "", errs.New(errs.ValueError, "Zero padding is not allowed in complex format specifier")
	}
	if fs.align == '=' {
		return "", errs.New(errs.ValueError, "'=' alignment flag is not allowed in complex format specifier")
	}
	var body string
	if fs.typ == 0 && fs.prec < 0 {
		body = formatComplex(c)
	} else {
		part := formatSpec{sign: fs.sign, prec: fs.prec, typ: fs.typ, fill: " ", grouping: fs.grouping}
		if part.typ == 0 {
			part.typ = 'g'
		}
		re, err := formatFloat(real(c), part, typeName)
		if err != nil {
			return "", err
		}
		part.sign = '+'
		im, err := formatFloat(imag(c), part, typeName)
		if err != nil {
			return "", err
		}
		body = re + im + "j"
	}
	align := fs.align
	if align == 0 {
		align = '>'
	}
	return pad("", body, fs.width, fs.fill, align), nil
}

// Context used to round decimals for formatting, with enough precision for
// any rescaling.
func formatContext(prec int64) *apd.Context {
	c := apd.BaseContext.WithPrecision(uint32(max(prec, 1)))
	c.Rounding = apd.RoundHalfEven
	c.Traps = 0
	return c
}

func formatDecimal(x *Decimal, fs formatSpec, typeName string) (string, error) {
	typ := fs.typ
	switch typ {
	case 0:
		typ = 'g'
	case 'e', 'E', 'f', 'F', 'g', 'G', '%', 'n':
	default:
		return "", unknownFormatCode(typ, typeName)
	}
	if typ == 'n' {
		typ = 'g'
	}
	d := new(apd.Decimal).Set(&x.d)
	neg := d.Negative
	if d.Form != apd.Finite {
		body := "Infinity"
		if d.Form != apd.Infinite {
			body = "NaN"
		}
		if typ == '%' {
			body += "%"
		}
		return pad(signOf(neg, fs), body, fs.width, fs.fill, alignOr(fs.align, '>')), nil
	}
	d.Negative = false
	if typ == '%' {
		d.Exponent += 2
	}
	if fs.prec >= 0 {
		switch typ {
		case 'e', 'E':
			formatContext(int64(fs.prec+1)).Round(d, d)
		case 'f', 'F', '%':
			target := int32(-fs.prec)
			diff := int64(d.Exponent) - int64(target)
			if diff < 0 {
				diff = -diff
			}
			formatContext(d.NumDigits()+diff+1).Quantize(d, d, target)
		case 'g', 'G':
			if d.NumDigits() > int64(fs.prec) {
				formatContext(int64(max(fs.prec, 1))).Round(d, d)
			}
		}
	}
	if d.IsZero() && d.Exponent > 0 && (typ == 'f' || typ == 'F' || typ == '%') {
		d.Exponent = 0
	}
	if d.IsZero() && fs.noNegZero {
		neg = false
	}
	coeff := d.Coeff.String()
	leftDigits := int(d.Exponent) + len(coeff)
	var dot int
	switch typ {
	case 'e', 'E':
		dot = 1
		if d.IsZero() && fs.prec >= 0 {
			dot = 1 - fs.prec
		}
	case 'f', 'F', '%':
		dot = leftDigits
	default:
		dot = 1
		if d.Exponent <= 0 && leftDigits > -6 {
			dot = leftDigits
		}
	}
	var intPart, frac string
	switch {
	case dot < 0:
		intPart, frac = "0", strings.Repeat("0", -dot)+coeff
	case dot > len(coeff):
		intPart = coeff + strings.Repeat("0", dot-len(coeff))
	default:
		intPart, frac = coeff[:dot], coeff[dot:]
		if intPart == "" {
			intPart = "0"
		}
	}
	exp := leftDigits - dot
	rest := ""
	if frac != "" || fs.alt {
		rest = "." + frac
	}
	if exp != 0 || typ == 'e' || typ == 'E' {
		echar := "e"
		if typ == 'E' || typ == 'G' {
			echar = "E"
		}
		rest += echar + strconv.FormatInt(int64(exp), 10)
		if exp >= 0 {
			rest = strings.Replace(rest, echar, echar+"+", 1)
		}
	}
	if typ == '%' {
		rest += "%"
	}
	return finishNumber(signOf(neg, fs), intPart, rest, fs, 3), nil
}

func alignOr(align, def byte) byte {
	if align == 0 {
		return def
	}
	return align
}
