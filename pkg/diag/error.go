package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents an error with context that can be shown.
//
// The type parameter is a tag type that lets different kinds of errors (parse
// errors, policy violations) have distinct Go types while sharing the
// implementation.
type Error[T ErrorTag] struct {
	Message string
	Context Context
	// Indicates whether the error occurred at the end of the source. Used by
	// the REPL to decide whether to prompt for more input.
	Partial bool
}

// ErrorTag is used to parameterize [Error] into different concrete types.
type ErrorTag interface {
	ErrorTag() string
}

// Error returns a plain text representation of the error.
func (e *Error[T]) Error() string {
	return errorTag[T]() + ": " + e.Context.describeStart() + ": " + e.Message
}

// Range returns the range of the error.
func (e *Error[T]) Range() Ranging {
	return e.Context.Range()
}

var (
	messageStart = "\033[31;1m"
	messageEnd   = "\033[m"
)

// Show shows the error.
func (e *Error[T]) Show(indent string) string {
	return fmt.Sprintf("%s: %s%s%s\n%s%s",
		capitalize(errorTag[T]()), messageStart, e.Message, messageEnd,
		indent+"  ", e.Context.Show(indent+"  "))
}

func errorTag[T ErrorTag]() string {
	var t T
	return t.ErrorTag()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// UnpackError returns the *Error[T] wrapped in err, or nil if there is none.
func UnpackError[T ErrorTag](err error) *Error[T] {
	var e *Error[T]
	if errors.As(err, &e) {
		return e
	}
	return nil
}
