package vals

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/sandcalc/sandcalc/pkg/tt"
)

func callFn(impl any, args ...any) string {
	return reprOrErr(NewGoFn("f", impl).Call(args, nil))
}

func TestNewGoFn(t *testing.T) {
	errBad := errors.New("bad")
	sum := func(xs ...float64) float64 {
		s := 0.0
		for _, x := range xs {
			s += x
		}
		return s
	}
	tt.Test(t, tt.Fn(callFn).Named("callFn"),
		Args(math.Sqrt, 4).Rets("2.0"),
		Args(math.Sqrt, dec("2.25")).Rets("1.5"),
		Args(math.Sqrt, true).Rets("1.0"),
		Args(math.Sqrt, "x").Rets("TypeError: must be real number, not str"),
		Args(math.Sqrt).Rets("TypeError: f() takes exactly one argument (0 given)"),
		Args(func(n int) int { return n * 2 }, dec("3")).Rets("6"),
		Args(func(n int) int { return n * 2 }, 1.0).Rets(
			"TypeError: 'float' object cannot be interpreted as an integer"),
		Args(strings.ToUpper, "a").Rets("'A'"),
		Args(strings.ToUpper, 1).Rets("TypeError: f() argument 1 must be str, not int"),
		Args(func(v any) any { return v }, list()).Rets("[]"),
		Args(sum, 1, 2.5).Rets("3.5"),
		Args(sum).Rets("0.0"),
		Args(func() (int, error) { return 0, errBad }).Rets("bad"),
		Args(func() {}).Rets("None"),
	)
	if _, err := NewGoFn("f", math.Sqrt).Call([]any{1}, Kwargs{{"x", 1}}); err == nil {
		t.Errorf("keyword argument accepted")
	}
}

func TestBuildModule(t *testing.T) {
	m := BuildModule("m").
		AddValues(map[string]any{"c": 1}).
		AddGoFns(map[string]any{"f": math.Abs}).
		Module()
	if m.Name != "m" || m.Attrs["c"] != 1 {
		t.Errorf("got %v", m)
	}
	if got := Repr(m.Attrs["f"]); got != "<built-in function f>" {
		t.Errorf("got %s", got)
	}
}
