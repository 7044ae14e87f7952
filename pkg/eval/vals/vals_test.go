package vals

import (
	"math/big"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/tt"
)

var Args = tt.Args

// Test utilities.

const z = "100000000000000000000" // exceeds the range of int64

func bigInt(s string) *big.Int {
	z, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big int literal " + s)
	}
	return z
}

func dec(s string) *Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func list(elems ...any) *List { return NewList(elems...) }

func dict(kvs ...any) *Dict {
	d := NewDict()
	for i := 0; i+1 < len(kvs); i += 2 {
		if err := d.Set(kvs[i], kvs[i+1]); err != nil {
			panic(err)
		}
	}
	return d
}

func set(elems ...any) *Set {
	s, err := NewSet(elems...)
	if err != nil {
		panic(err)
	}
	return s
}

func typeErr(msg string) error { return errs.New(errs.TypeError, msg) }

func valueErr(msg string) error { return errs.New(errs.ValueError, msg) }

// Returns the repr of a result, or the error message.
func reprOrErr(v any, err error) string {
	if err != nil {
		return err.Error()
	}
	return Repr(v)
}
