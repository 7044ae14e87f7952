// Package errs declares the native exceptions raised while evaluating
// expressions, such as TypeError and ZeroDivisionError.
//
// These errors are the ones the reference language raises for the same
// operations, and their messages follow it. They are distinct from parse
// errors and policy violations, which are defined elsewhere.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies the class of an [Exception].
type Kind int

// Exception kinds.
const (
	InvalidKind Kind = iota
	TypeError
	ValueError
	NameError
	ZeroDivisionError
	IndexError
	KeyError
	AttributeError
	OverflowError
	UnboundLocalError
	// InvalidOperation is the decimal module's signal for operations without
	// a defined result, such as 0/0 on decimals.
	InvalidOperation
	// RecursionError is raised when the representation of a value nests too
	// deeply.
	RecursionError
	// RuntimeError is raised when a container changes size while being
	// iterated over.
	RuntimeError
	// StatisticsError is raised by the statistics module for data it cannot
	// summarize, such as an empty sequence.
	StatisticsError
)

var kindNames = [...]string{
	InvalidKind:       "Exception",
	TypeError:         "TypeError",
	ValueError:        "ValueError",
	NameError:         "NameError",
	ZeroDivisionError: "ZeroDivisionError",
	IndexError:        "IndexError",
	KeyError:          "KeyError",
	AttributeError:    "AttributeError",
	OverflowError:     "OverflowError",
	UnboundLocalError: "UnboundLocalError",
	InvalidOperation:  "decimal.InvalidOperation",
	RecursionError:    "RecursionError",
	RuntimeError:      "RuntimeError",
	StatisticsError:   "statistics.StatisticsError",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Exception"
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, bool) {
	for k, s := range kindNames {
		if s == name && k != int(InvalidKind) {
			return Kind(k), true
		}
	}
	return InvalidKind, false
}

// Exception is a native exception.
type Exception struct {
	Kind Kind
	Msg  string
}

// New creates a new Exception.
func New(k Kind, msg string) *Exception {
	return &Exception{k, msg}
}

// Newf creates a new Exception with a formatted message.
func Newf(k Kind, format string, args ...any) *Exception {
	return &Exception{k, fmt.Sprintf(format, args...)}
}

// Error returns the exception in the traceback format of the reference
// language, like "NameError: name 'x' is not defined".
func (e *Exception) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Msg
}

// Is reports whether target is an Exception with the same kind and message,
// for use with errors.Is.
func (e *Exception) Is(target error) bool {
	t, ok := target.(*Exception)
	return ok && t.Kind == e.Kind && t.Msg == e.Msg
}

// Is reports whether err wraps an Exception of kind k.
func Is(err error, k Kind) bool {
	return KindOf(err) == k
}

// KindOf returns the kind of the Exception wrapped in err, or InvalidKind if
// there is none.
func KindOf(err error) Kind {
	var exc *Exception
	if errors.As(err, &exc) {
		return exc.Kind
	}
	return InvalidKind
}

// Arity returns the TypeError raised when the callable named fn receives
// actual positional arguments, outside the range from low to high. A negative
// high means there is no upper bound.
func Arity(fn string, low, high, actual int) *Exception {
	switch {
	case low == high && low == 0:
		return Newf(TypeError, "%s() takes no arguments (%d given)", fn, actual)
	case low == high && low == 1:
		return Newf(TypeError, "%s() takes exactly one argument (%d given)", fn, actual)
	case low == high:
		return Newf(TypeError, "%s expected %d arguments, got %d", fn, low, actual)
	case actual < low:
		return Newf(TypeError, "%s expected at least %d %s, got %d", fn, low, plural(low, "argument"), actual)
	default:
		return Newf(TypeError, "%s expected at most %d %s, got %d", fn, high, plural(high, "argument"), actual)
	}
}

func plural(n int, s string) string {
	if n == 1 {
		return s
	}
	return s + "s"
}

// NotImplemented is raised when the evaluator meets a node kind that it has
// no handler for. It signals a gap in the evaluator rather than a problem
// with the input, and is never caught.
type NotImplemented struct {
	What string
}

func (e NotImplemented) Error() string {
	return "not implemented: " + e.What
}
