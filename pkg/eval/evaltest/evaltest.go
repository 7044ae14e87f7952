// Package evaltest provides a framework for testing the evaluator and the
// modules visible to sandboxed code.
//
// The entry point for the framework is the Test function, which accepts a
// *testing.T and any number of test cases.
//
// Test cases are constructed using the That function, followed by method calls
// that add additional information to it.
//
// Example:
//
//	Test(t,
//	    That("1+2").Gives(3),
//	    That("a = 1").Binds("a", 1),
//	    That("1/0").Throws(ErrorWithKind(errs.ZeroDivisionError)))
//
// Decimal mode is tested with TestDecimal, and evaluators that need some
// setup with TestWithSetup.
package evaltest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandcalc/sandcalc/pkg/eval"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/must"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

// Case is a test case that can be used in Test.
type Case struct {
	codes  []string
	setup  func(ev *eval.Evaluator)
	verify func(t *testing.T, ev *eval.Evaluator)

	checkValue bool
	value      any
	bindings   map[string]any
	unbound    []string
	err        error
}

// That returns a new Case with the specified source code. Multiple arguments
// are joined with newlines. To specify multiple pieces of code that are
// run separately on the same Evaluator, use the Then method.
//
// When combined with subsequent method calls, a test case reads like English.
// For example, a test for the fact that "1+2" gives 3 reads:
//
//	That("1+2").Gives(3)
func That(lines ...string) Case {
	return Case{codes: []string{strings.Join(lines, "\n")}}
}

// Then returns a new Case that runs the given code in addition. Multiple
// arguments are joined with newlines.
func (c Case) Then(lines ...string) Case {
	c.codes = append(c.codes, strings.Join(lines, "\n"))
	return c
}

// WithSetup returns a new Case with the given setup function executed on the
// Evaluator before the code is run.
func (c Case) WithSetup(f func(*eval.Evaluator)) Case {
	c.setup = f
	return c
}

// Passes returns an altered Case that runs an additional verification
// function after the code is run.
func (c Case) Passes(f func(t *testing.T, ev *eval.Evaluator)) Case {
	c.verify = f
	return c
}

// Gives returns an altered Case that requires the value of the last run to be
// v. The value supports matchers constructed by functions like
// Approximately.
func (c Case) Gives(v any) Case {
	c.checkValue, c.value = true, v
	return c
}

// Binds returns an altered Case that requires the root frame to have the
// given bindings after the code is run. The arguments alternate between names
// and values; other bindings are not checked.
func (c Case) Binds(pairs ...any) Case {
	if len(pairs)%2 != 0 {
		panic("evaltest: Binds called with odd number of arguments")
	}
	if c.bindings == nil {
		c.bindings = map[string]any{}
	}
	for i := 0; i < len(pairs); i += 2 {
		c.bindings[pairs[i].(string)] = pairs[i+1]
	}
	return c
}

// DoesNotBind returns an altered Case that requires the root frame not to
// have the given names after the code is run.
func (c Case) DoesNotBind(names ...string) Case {
	c.unbound = append(c.unbound, names...)
	return c
}

// Throws returns an altered Case that requires the code to fail with the
// given error. The error supports matchers constructed by functions like
// ErrorWithKind; other errors are compared with errors.Is.
func (c Case) Throws(err error) Case {
	c.err = err
	return c
}

// RejectsWith returns an altered Case that requires the code to fail with a
// policy violation with the given message.
func (c Case) RejectsWith(msg string) Case {
	return c.Throws(badSyntax{msg})
}

// DoesNotParse returns an altered Case that requires the code to fail to
// parse.
func (c Case) DoesNotParse() Case {
	return c.Throws(parseError{})
}

// Test runs test cases in native mode.
func Test(t *testing.T, tests ...Case) {
	t.Helper()
	TestWithSetup(t, eval.Config{}, func(*eval.Evaluator) {}, tests...)
}

// TestDecimal runs test cases in decimal mode.
func TestDecimal(t *testing.T, tests ...Case) {
	t.Helper()
	TestWithSetup(t, eval.Config{Decimal: true}, func(*eval.Evaluator) {}, tests...)
}

// TestWithSetup runs test cases. For each test case, a new Evaluator is
// created with cfg and passed to the setup function.
func TestWithSetup(t *testing.T, cfg eval.Config, setup func(*eval.Evaluator), tests ...Case) {
	t.Helper()
	for _, tc := range tests {
		t.Run(strings.Join(tc.codes, "\n"), func(t *testing.T) {
			t.Helper()
			ev := eval.New(cfg)
			setup(ev)
			if tc.setup != nil {
				tc.setup(ev)
			}

			var r eval.Result
			var err error
			for _, code := range tc.codes {
				if r, err = ev.Run(code); err != nil {
					break
				}
			}

			if !matchErr(tc.err, err) {
				t.Errorf("got error %v (%T), want %v", err, err, tc.err)
			}
			if tc.checkValue && err == nil && !match(r.Value, tc.value) {
				t.Errorf("got value %s (%T), want %s\n%s", vals.Repr(r.Value), r.Value, show(tc.value),
					cmp.Diff(show(tc.value), vals.Repr(r.Value)))
			}
			bindings := ev.Bindings()
			for name, want := range tc.bindings {
				got, ok := bindings[name]
				if !ok {
					t.Errorf("%s is not bound, want %s", name, show(want))
				} else if !match(got, want) {
					t.Errorf("%s is bound to %s (%T), want %s", name, vals.Repr(got), got, show(want))
				}
			}
			for _, name := range tc.unbound {
				if got, ok := bindings[name]; ok {
					t.Errorf("%s is bound to %s, want unbound", name, vals.Repr(got))
				}
			}
			if tc.verify != nil {
				tc.verify(t, ev)
			}
		})
	}
}

func show(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		if _, isMatcher := v.(ValueMatcher); isMatcher {
			return s.String()
		}
	}
	return vals.Repr(v)
}

// D parses a Decimal, panicking on failure.
func D(s string) *vals.Decimal {
	return must.OK1(vals.ParseDecimal(s))
}

// L builds a list.
func L(elems ...any) *vals.List {
	return vals.NewList(elems...)
}

// T builds a tuple.
func T(elems ...any) vals.Tuple {
	return vals.Tuple(elems)
}

// Src builds a parse.Source named "[test]".
func Src(code string) parse.Source {
	return parse.Source{Name: "[test]", Code: code}
}
