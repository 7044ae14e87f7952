package vals

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// Interpolate implements printf-style formatting of strings, like
// format % args. The arguments may be a tuple for positional conversions, a
// dict for conversions like %(name)s, or any other single value.
func Interpolate(format string, args any) (string, error) {
	var positional []any
	mapping, _ := args.(*Dict)
	if t, ok := args.(Tuple); ok {
		positional = t
	} else {
		positional = []any{args}
	}
	next := 0
	nextArg := func() (any, error) {
		if next >= len(positional) {
			return nil, errs.New(errs.TypeError, "not enough arguments for format string")
		}
		next++
		return positional[next-1], nil
	}
	usedMapping := false

	var sb strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return "", errs.New(errs.ValueError, "incomplete format")
		}
		var arg any
		haveArg := false
		if format[i] == '(' {
			if mapping == nil {
				return "", errs.New(errs.TypeError, "format requires a mapping")
			}
			depth, j := 1, i+1
			for ; j < len(format) && depth > 0; j++ {
				switch format[j] {
				case '(':
					depth++
				case ')':
					depth--
				}
			}
			if depth > 0 {
				return "", errs.New(errs.ValueError, "incomplete format key")
			}
			key := format[i+1 : j-1]
			v, ok, err := mapping.Get(key)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", KeyError(key)
			}
			arg, haveArg, usedMapping = v, true, true
			i = j
		}
		fs := formatSpec{fill: " ", prec: -1}
		left := false
	flags:
		for ; i < len(format); i++ {
			switch format[i] {
			case '-':
				left = true
			case '+':
				fs.sign = '+'
			case ' ':
				if fs.sign == 0 {
					fs.sign = ' '
				}
			case '#':
				fs.alt = true
			case '0':
				fs.zero = true
			default:
				break flags
			}
		}
		// Reads a number or a '*', which takes the number from the arguments.
		readNum := func() (int, error) {
			if i < len(format) && format[i] == '*' {
				i++
				v, err := nextArg()
				if err != nil {
					return 0, err
				}
				n, ok := smallInt(v)
				if !ok {
					return 0, errs.New(errs.TypeError, "* wants int")
				}
				return n, nil
			}
			j := i
			for i < len(format) && '0' <= format[i] && format[i] <= '9' {
				i++
			}
			if j == i {
				return 0, nil
			}
			return strconv.Atoi(format[j:i])
		}
		width, err := readNum()
		if err != nil {
			return "", err
		}
		if width < 0 {
			left, width = true, -width
		}
		fs.width = width
		if i < len(format) && format[i] == '.' {
			i++
			if fs.prec, err = readNum(); err != nil {
				return "", err
			}
			fs.prec = max(fs.prec, 0)
		}
		// Length modifiers are accepted and ignored.
		for i < len(format) && strings.IndexByte("hlL", format[i]) >= 0 {
			i++
		}
		if i >= len(format) {
			return "", errs.New(errs.ValueError, "incomplete format")
		}
		conv := format[i]
		if conv == '%' {
			sb.WriteByte('%')
			continue
		}
		if !haveArg {
			if arg, err = nextArg(); err != nil {
				return "", err
			}
		}
		switch {
		case left:
			fs.align = '<'
		case fs.zero && conv != 's' && conv != 'r' && conv != 'a' && conv != 'c':
			fs.fill, fs.align = "0", '='
		default:
			fs.align = '>'
		}
		s, err := interpolateOne(conv, arg, fs, i)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	if !usedMapping && next < len(positional) && mapping == nil {
		return "", errs.New(errs.TypeError, "not all arguments converted during string formatting")
	}
	return sb.String(), nil
}

func interpolateOne(conv byte, arg any, fs formatSpec, index int) (string, error) {
	switch conv {
	case 's', 'r', 'a':
		s := Str(arg)
		if conv != 's' {
			s = Repr(arg)
		}
		fs.sign, fs.alt = 0, false
		return formatString(s, fs, "str")
	case 'd', 'i', 'u':
		if !isNumber(arg) {
			return "", errs.Newf(errs.TypeError, "%%%c format: a real number is required, not %s", conv, TypeName(arg))
		}
		n, err := ToInt(arg)
		if err != nil {
			return "", err
		}
		return formatIntPrec(n, fs, 'd')
	case 'o', 'x', 'X':
		if !isInt(arg) {
			return "", errs.Newf(errs.TypeError, "%%%c format: an integer is required, not %s", conv, TypeName(arg))
		}
		return formatIntPrec(arg, fs, conv)
	case 'e', 'E', 'f', 'F', 'g', 'G':
		f, err := ToFloat(arg)
		if err != nil {
			return "", errs.Newf(errs.TypeError, "must be real number, not %s", TypeName(arg))
		}
		fs.typ = conv
		if fs.prec < 0 {
			fs.prec = 6
		}
		if (conv == 'g' || conv == 'G') && fs.alt {
			fs.alt = false
		}
		return formatFloat(f, fs, "float")
	case 'c':
		switch a := arg.(type) {
		case string:
			if len([]rune(a)) != 1 {
				return "", errs.New(errs.TypeError, "%c requires an int or a unicode character, not a string of length "+
					strconv.Itoa(len([]rune(a))))
			}
			return formatString(a, formatSpec{fill: " ", align: fs.align, width: fs.width, prec: -1}, "str")
		}
		if !isInt(arg) {
			return "", errs.Newf(errs.TypeError, "%%c requires an int or a unicode character, not %s", TypeName(arg))
		}
		return formatInt(arg, formatSpec{fill: " ", align: fs.align, width: fs.width, prec: -1, typ: 'c'}, "int")
	}
	return "", errs.Newf(errs.ValueError, "unsupported format character '%c' (0x%x) at index %d", conv, conv, index)
}

// Formats an integer for a %d, %o or %x conversion, where the precision is
// the minimum number of digits.
func formatIntPrec(n any, fs formatSpec, conv byte) (string, error) {
	prec := fs.prec
	fs.prec = -1
	fs.typ = conv
	if prec <= 0 {
		return formatInt(n, fs, "int")
	}
	z, _ := bigOf(n)
	digits := new(big.Int).Abs(z).Text(map[byte]int{'d': 10, 'o': 8, 'x': 16, 'X': 16}[conv])
	if conv == 'X' {
		digits = strings.ToUpper(digits)
	}
	if len(digits) < prec {
		digits = strings.Repeat("0", prec-len(digits)) + digits
	}
	prefix := ""
	if fs.alt {
		prefix = map[byte]string{'d': "", 'o': "0o", 'x': "0x", 'X': "0X"}[conv]
	}
	return finishNumber(signOf(z.Sign() < 0, fs)+prefix, digits, "", fs, 3), nil
}
