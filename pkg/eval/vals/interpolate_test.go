package vals

import (
	"testing"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/tt"
)

func TestInterpolate(t *testing.T) {
	tt.Test(t, Interpolate,
		Args("%d items", 3).Rets("3 items", nil),
		Args("%d", 3.9).Rets("3", nil),
		Args("%d", dec("-2.5")).Rets("-2", nil),
		Args("%s-%r", Tuple{"a", "b"}).Rets("a-'b'", nil),
		Args("%s", Tuple{Tuple{1, 2}}).Rets("(1, 2)", nil),
		Args("%s", list(1, 2)).Rets("[1, 2]", nil),
		Args("%5.2f|", 3.14159).Rets(" 3.14|", nil),
		Args("%-4d|", 7).Rets("7   |", nil),
		Args("%05d", -42).Rets("-0042", nil),
		Args("%+d", 5).Rets("+5", nil),
		Args("% d", 5).Rets(" 5", nil),
		Args("%x %#o %#X", Tuple{255, 8, 255}).Rets("ff 0o10 0XFF", nil),
		Args("%.3d", 5).Rets("005", nil),
		Args("%e", 12345.678).Rets("1.234568e+04", nil),
		Args("%g", 0.00001).Rets("1e-05", nil),
		Args("%c%c", Tuple{65, "b"}).Rets("Ab", nil),
		Args("%*d", Tuple{4, 1}).Rets("   1", nil),
		Args("%-*d|", Tuple{3, 1}).Rets("1  |", nil),
		Args("%.*f", Tuple{1, 2.25}).Rets("2.2", nil),
		Args("%ld", 3).Rets("3", nil),
		Args("100%%", Tuple{}).Rets("100%", nil),
		Args("%(a)s=%(b)d", dict("a", "x", "b", 2)).Rets("x=2", nil),

		Args("%d %d", Tuple{1}).Rets("",
			typeErr("not enough arguments for format string")),
		Args("%d", Tuple{1, 2}).Rets("",
			typeErr("not all arguments converted during string formatting")),
		Args("%d", "x").Rets("",
			typeErr("%d format: a real number is required, not str")),
		Args("%x", 1.5).Rets("",
			typeErr("%x format: an integer is required, not float")),
		Args("%f", "x").Rets("", typeErr("must be real number, not str")),
		Args("%(a)s", 1).Rets("", typeErr("format requires a mapping")),
		Args("%(a)s", dict()).Rets("", errs.New(errs.KeyError, "'a'")),
		Args("%y", 1).Rets("",
			valueErr("unsupported format character 'y' (0x79) at index 1")),
		Args("abc%", Tuple{}).Rets("", valueErr("incomplete format")),
	)
}
