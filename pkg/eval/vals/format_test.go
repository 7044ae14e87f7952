package vals

import (
	"math"
	"testing"

	"github.com/sandcalc/sandcalc/pkg/tt"
)

func TestFormat(t *testing.T) {
	tt.Test(t, Format,
		// Empty spec
		Args(1.0, "").Rets("1.0", nil),
		Args(1+2i, "").Rets("(1+2j)", nil),
		Args(list(1), "").Rets("[1]", nil),

		// Strings
		Args("ab", "^6").Rets("  ab  ", nil),
		Args("ab", "*>4").Rets("**ab", nil),
		Args("abcdef", ".3").Rets("abc", nil),
		Args("ab", "d").Rets("", valueErr("Unknown format code 'd' for object of type 'str'")),
		Args("ab", "+").Rets("", valueErr("Sign not allowed in string format specifier")),

		// Integers
		Args(42, "05d").Rets("00042", nil),
		Args(-42, "06").Rets("-00042", nil),
		Args(42, "+").Rets("+42", nil),
		Args(1234567, ",").Rets("1,234,567", nil),
		Args(1234567, "_").Rets("1_234_567", nil),
		Args(bigInt(z), ",").Rets("100,000,000,000,000,000,000", nil),
		Args(255, "x").Rets("ff", nil),
		Args(255, "#X").Rets("0XFF", nil),
		Args(255, "#010b").Rets("0b11111111", nil),
		Args(8, "#o").Rets("0o10", nil),
		Args(65, "c").Rets("A", nil),
		Args(3, ".2f").Rets("3.00", nil),
		Args(true, "d").Rets("1", nil),
		Args(42, ".2").Rets("", valueErr("Precision not allowed in integer format specifier")),
		Args(42, "q").Rets("", valueErr("Unknown format code 'q' for object of type 'int'")),

		// Floats
		Args(3.14159, ".2f").Rets("3.14", nil),
		Args(3.14159, "8.3f").Rets("   3.142", nil),
		Args(3.14159, "<8.3f").Rets("3.142   ", nil),
		Args(-3.14159, "=+9.2f").Rets("-    3.14", nil),
		Args(0.5, "%").Rets("50.000000%", nil),
		Args(0.125, ".1%").Rets("12.5%", nil),
		Args(1234.5, ",.1f").Rets("1,234.5", nil),
		Args(12345.678, "e").Rets("1.234568e+04", nil),
		Args(12345.678, ".2E").Rets("1.23E+04", nil),
		Args(0.0001, "g").Rets("0.0001", nil),
		Args(1e16, "g").Rets("1e+16", nil),
		Args(1.5, ".3").Rets("1.5", nil),
		Args(math.Inf(-1), "f").Rets("-inf", nil),
		Args(math.NaN(), "F").Rets("NAN", nil),
		Args(-0.0001, "z.1f").Rets("0.0", nil),

		// Complex numbers
		Args(1+2i, ".1f").Rets("1.0+2.0j", nil),
		Args(1+2i, "010").Rets("", valueErr("Zero padding is not allowed in complex format specifier")),

		// Decimals
		Args(dec("1.2345"), ".2f").Rets("1.23", nil),
		Args(dec("2.5"), ".0f").Rets("2", nil),
		Args(dec("3.5"), ".0f").Rets("4", nil),
		Args(dec("123.456"), "e").Rets("1.23456e+2", nil),
		Args(dec("1234567.5"), ",").Rets("1,234,567.5", nil),
		Args(dec("0.1"), "%").Rets("10%", nil),
		Args(dec("-1.5"), "08.2f").Rets("-0001.50", nil),
		Args(dec("Infinity"), "f").Rets("Infinity", nil),

		// Other types
		Args(list(), "x").Rets("", typeErr("unsupported format string passed to list.__format__")),
		Args(None, ">5").Rets("", typeErr("unsupported format string passed to NoneType.__format__")),
	)
}
