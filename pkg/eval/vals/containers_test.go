package vals

import (
	"testing"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/tt"
)

func TestDict_NumericKeysCollide(t *testing.T) {
	d := NewDict()
	d.Set(1, "int")
	d.Set(1.0, "float")
	d.Set(true, "bool")
	d.Set(dec("1.0"), "decimal")
	if d.Len() != 1 {
		t.Fatalf("got %d entries, want 1", d.Len())
	}
	v, _, _ := d.Get(1)
	if v != "decimal" {
		t.Errorf("got %v, want decimal", v)
	}
	// The first key is kept.
	if k := d.Keys()[0]; k != 1 {
		t.Errorf("got key %v, want 1", Repr(k))
	}
}

func TestDict_OrderAfterDelete(t *testing.T) {
	d := dict("a", 1, "b", 2, "c", 3)
	d.Delete("b")
	d.Set("b", 4)
	if got := Repr(d); got != "{'a': 1, 'c': 3, 'b': 4}" {
		t.Errorf("got %s", got)
	}
	for i := 0; i < 100; i++ {
		d.Set(i, i)
		d.Delete(i)
	}
	if got := Repr(d); got != "{'a': 1, 'c': 3, 'b': 4}" {
		t.Errorf("after churn, got %s", got)
	}
}

func TestDict_UnhashableKey(t *testing.T) {
	err := NewDict().Set(list(), 1)
	if !errs.Is(err, errs.TypeError) {
		t.Errorf("got error %v, want TypeError", err)
	}
}

func TestDict_MutationDuringIteration(t *testing.T) {
	d := dict("a", 1)
	err := Iterate(d, func(any) error { return d.Set("b", 2) })
	want := errs.New(errs.RuntimeError, "dictionary changed size during iteration")
	if err == nil || err.Error() != want.Error() {
		t.Errorf("got %v, want %v", err, want)
	}
}

func TestSetOperations(t *testing.T) {
	a, b := set(1, 2, 3), set(3, 4)
	tt.Test(t, Repr,
		Args(a.Union(b)).Rets("{1, 2, 3, 4}"),
		Args(a.Intersection(b)).Rets("{3}"),
		Args(a.Difference(b)).Rets("{1, 2}"),
		Args(a.SymmetricDifference(b)).Rets("{1, 2, 4}"),
	)
	if _, err := NewSet(list()); !errs.Is(err, errs.TypeError) {
		t.Errorf("NewSet with a list element returns %v, want TypeError", err)
	}
}

func TestHash(t *testing.T) {
	tt.Test(t, func(a, b any) bool {
		ha, _ := Hash(a)
		hb, _ := Hash(b)
		return ha == hb
	},
		Args(1, 1.0).Rets(true),
		Args(1, true).Rets(true),
		Args(2, dec("2.000")).Rets(true),
		Args(0.5, dec("0.5")).Rets(true),
		Args(bigInt(z), dec(z)).Rets(true),
		Args(3, 3+0i).Rets(true),
		Args(Tuple{1, "a"}, Tuple{1.0, "a"}).Rets(true),
	)
	tt.Test(t, Hash,
		Args(list()).Rets(uint32(0), typeErr("unhashable type: 'list'")),
		Args(Tuple{1, dict()}).Rets(uint32(0), typeErr("unhashable type: 'dict'")),
	)
}

func TestIndex(t *testing.T) {
	tt.Test(t, Index,
		Args("héllo", 1).Rets("é", nil),
		Args("hello", -1).Rets("o", nil),
		Args("hello", Slice{1, 3, None}).Rets("el", nil),
		Args("hello", Slice{None, None, -1}).Rets("olleh", nil),
		Args(list(1, 2, 3), 0).Rets(1, nil),
		Args(list(1, 2, 3), dec("2")).Rets(3, nil),
		Args(list(1, 2, 3), Slice{None, None, 2}).Rets(list(1, 3), nil),
		Args(Tuple{1, 2}, -2).Rets(1, nil),
		Args(dict("a", 1), "a").Rets(1, nil),
		Args(Range{0, 10, 2}, 3).Rets(6, nil),
		Args(Range{0, 10, 2}, Slice{1, None, None}).Rets(Range{2, 10, 2}, nil),

		Args(list(1), 1).Rets(nil, errs.New(errs.IndexError, "list index out of range")),
		Args("", 0).Rets(nil, errs.New(errs.IndexError, "string index out of range")),
		Args(list(1), "a").Rets(nil, typeErr("list indices must be integers or slices, not str")),
		Args(list(1), 1.0).Rets(nil, typeErr("list indices must be integers or slices, not float")),
		Args(dict(), "x").Rets(nil, errs.New(errs.KeyError, "'x'")),
		Args(1, 0).Rets(nil, typeErr("'int' object is not subscriptable")),
	)
}

func TestSetIndex(t *testing.T) {
	l := list(1, 2, 3, 4)
	tt.Test(t, func(idx, val any) (string, error) {
		err := SetIndex(l, idx, val)
		return Repr(l), err
	},
		Args(0, "a").Rets("['a', 2, 3, 4]", nil),
		Args(Slice{1, 3, None}, list("x")).Rets("['a', 'x', 4]", nil),
		Args(Slice{None, None, 2}, Tuple{0, 0}).Rets("[0, 'x', 0]", nil),
		Args(Slice{None, None, 2}, Tuple{0}).Rets("[0, 'x', 0]",
			valueErr("attempt to assign sequence of size 1 to extended slice of size 2")),
		Args(5, 0).Rets("[0, 'x', 0]",
			errs.New(errs.IndexError, "list assignment index out of range")),
	)
	if err := SetIndex(Tuple{1}, 0, 2); err == nil ||
		err.Error() != "TypeError: 'tuple' object does not support item assignment" {
		t.Errorf("got %v", err)
	}
}

func TestDelIndex(t *testing.T) {
	l := list(0, 1, 2, 3, 4, 5)
	tt.Test(t, func(idx any) (string, error) {
		err := DelIndex(l, idx)
		return Repr(l), err
	},
		Args(0).Rets("[1, 2, 3, 4, 5]", nil),
		Args(Slice{None, None, 2}).Rets("[2, 4]", nil),
		Args(-1).Rets("[2]", nil),
	)
}
