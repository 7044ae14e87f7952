// Package parse implements a parser for the host scripting grammar, the
// statement and expression syntax of Python 3.12.
//
// The parser produces an abstract syntax tree whose node types mirror those of
// the reference grammar. Every construct of the grammar is recognized, even
// those the evaluator refuses to run, so that such constructs are reported as
// policy violations rather than syntax errors. Each node records the byte
// range of the source it was parsed from.
package parse

import (
	"github.com/sandcalc/sandcalc/pkg/diag"
)

// Source describes a piece of source code.
type Source struct {
	Name string
	Code string
}

// Error is a parse error.
type Error = diag.Error[ErrorTag]

// ErrorTag parameterizes [diag.Error] to define [Error].
type ErrorTag struct{}

func (ErrorTag) ErrorTag() string { return "syntax error" }

// Parse parses the given source as a module. The returned error always has
// type *Error if it is not nil. Parsing stops at the first error.
func Parse(src Source) (*Module, error) {
	toks, err := tokenize(src.Name, src.Code, 0, len(src.Code), false)
	if err != nil {
		return nil, err
	}
	ps := &parser{srcName: src.Name, src: src.Code, toks: toks}
	return catch(func() *Module { return ps.module() })
}

// ParseExpr parses the given source as a single expression.
func ParseExpr(src Source) (Expr, error) {
	toks, err := tokenize(src.Name, src.Code, 0, len(src.Code), true)
	if err != nil {
		return nil, err
	}
	ps := &parser{srcName: src.Name, src: src.Code, toks: toks}
	return catch(func() Expr {
		e := ps.starExpressions()
		if ps.peek().typ != tokEOF {
			ps.invalidSyntax()
		}
		return e
	})
}

func catch[T any](f func() T) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch r := r.(type) {
			case parseError:
				err = r.err
			case lexError:
				err = r.err
			default:
				panic(r)
			}
		}
	}()
	return f(), nil
}

// UnpackError returns the parse error wrapped in err, or nil if there is
// none.
func UnpackError(err error) *Error {
	return diag.UnpackError[ErrorTag](err)
}
