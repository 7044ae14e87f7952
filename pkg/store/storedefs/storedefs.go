// Package storedefs contains definitions of the store API.
//
// It is a separate package so that packages that only depend on the store API
// does not need to depend on the concrete implementation.
package storedefs

import (
	"errors"
	"time"
)

// ErrNoMatchingCalc is the error returned when a calculation query completes
// with no result.
var ErrNoMatchingCalc = errors.New("no matching calculation")

// ErrNoSession is returned by Session when there is no session with the given
// name.
var ErrNoSession = errors.New("no such session")

// Store is an interface satisfied by the storage service.
type Store interface {
	NextCalcSeq() (int, error)
	AddCalc(expr, result string) (int, error)
	DelCalc(seq int) error
	Calc(seq int) (Calc, error)
	CalcsWithSeq(from, upto int) ([]Calc, error)
	NextCalc(from int, prefix string) (Calc, error)
	PrevCalc(upto int, prefix string) (Calc, error)

	// Session bindings are opaque to the store. The shell keeps them in the
	// wire encoding of the sandbox.
	SaveSession(name string, bindings []byte) error
	Session(name string) ([]byte, error)
	SessionNames() ([]string, error)
	DelSession(name string) error
}

// Calc is an entry in the calculation history.
type Calc struct {
	Seq    int       `json:"-"`
	ID     string    `json:"id"`
	Expr   string    `json:"expr"`
	Result string    `json:"result"`
	Time   time.Time `json:"time"`
}
