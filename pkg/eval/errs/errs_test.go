package errs

import (
	"errors"
	"fmt"
	"testing"
)

var errorMessageTests = []struct {
	err     error
	wantMsg string
}{
	{
		New(NameError, "name 'x' is not defined"),
		"NameError: name 'x' is not defined",
	},
	{
		New(ZeroDivisionError, ""),
		"ZeroDivisionError",
	},
	{
		Newf(InvalidOperation, "[<class '%s'>]", "decimal.DivisionUndefined"),
		"decimal.InvalidOperation: [<class 'decimal.DivisionUndefined'>]",
	},
	{
		Arity("len", 1, 1, 2),
		"TypeError: len() takes exactly one argument (2 given)",
	},
	{
		Arity("abs", 0, 0, 1),
		"TypeError: abs() takes no arguments (1 given)",
	},
	{
		Arity("divmod", 2, 2, 3),
		"TypeError: divmod expected 2 arguments, got 3",
	},
	{
		Arity("max", 1, -1, 0),
		"TypeError: max expected at least 1 argument, got 0",
	},
	{
		Arity("range", 1, 3, 4),
		"TypeError: range expected at most 3 arguments, got 4",
	},
	{
		NotImplemented{"Match"},
		"not implemented: Match",
	},
}

func TestErrorMessages(t *testing.T) {
	for _, test := range errorMessageTests {
		if gotMsg := test.err.Error(); gotMsg != test.wantMsg {
			t.Errorf("got message %v, want %v", gotMsg, test.wantMsg)
		}
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(KeyError, "'a'"))
	if !Is(err, KeyError) {
		t.Errorf("Is(err, KeyError) = false, want true")
	}
	if Is(err, IndexError) {
		t.Errorf("Is(err, IndexError) = true, want false")
	}
	if k := KindOf(errors.New("plain")); k != InvalidKind {
		t.Errorf("KindOf(plain error) = %v, want InvalidKind", k)
	}
}

func TestParseKind(t *testing.T) {
	for k := TypeError; k <= RuntimeError; k++ {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = (%v, %v), want (%v, true)", k.String(), got, ok, k)
		}
	}
	if _, ok := ParseKind("Exception"); ok {
		t.Errorf("ParseKind(\"Exception\") succeeds, want failure")
	}
}
