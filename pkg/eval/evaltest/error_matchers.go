package evaltest

import (
	"errors"
	"fmt"

	"github.com/sandcalc/sandcalc/pkg/eval"
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/parse"
)

type errorMatcher interface{ matchError(error) bool }

// AnyError is an error that matches any non-nil error.
var AnyError = anyError{}

type anyError struct{}

func (anyError) Error() string           { return "any error" }
func (anyError) matchError(e error) bool { return e != nil }

// ErrorWithKind returns an error that matches any *errs.Exception of the
// given kind.
func ErrorWithKind(k errs.Kind) error { return errorWithKind{k} }

type errorWithKind struct{ kind errs.Kind }

func (e errorWithKind) Error() string { return e.kind.String() + " with any message" }

func (e errorWithKind) matchError(e2 error) bool { return errs.Is(e2, e.kind) }

// ErrorWithMessage returns an error that matches any error with the given
// message.
func ErrorWithMessage(msg string) error { return errorWithMessage{msg} }

type errorWithMessage struct{ msg string }

func (e errorWithMessage) Error() string { return "error with message " + e.msg }

func (e errorWithMessage) matchError(e2 error) bool {
	return e2 != nil && e2.Error() == e.msg
}

// Exc returns an error that matches an *errs.Exception with the given kind and
// message.
func Exc(k errs.Kind, msg string) error { return errs.New(k, msg) }

type badSyntax struct{ msg string }

func (e badSyntax) Error() string { return fmt.Sprintf("bad syntax with message %q", e.msg) }

func (e badSyntax) matchError(e2 error) bool {
	b := eval.UnpackBadSyntax(e2)
	return b != nil && b.Message == e.msg
}

type parseError struct{}

func (parseError) Error() string { return "parse error" }

func (parseError) matchError(e2 error) bool { return parse.UnpackError(e2) != nil }

func matchErr(want, got error) bool {
	if want == nil {
		return got == nil
	}
	if matcher, ok := want.(errorMatcher); ok {
		return matcher.matchError(got)
	}
	return errors.Is(got, want)
}
