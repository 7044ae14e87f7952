// Package storetest keeps test suites against storedefs.Store.
package storetest

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/sandcalc/sandcalc/pkg/store/storedefs"
)

var (
	exprs    = []string{"1 + 2", "x = 3", "x * 2", "1 + x"}
	results  = []string{"3", "None", "6", "4"}
	searches = []struct {
		next       bool
		seq        int
		prefix     string
		wantedSeq  int
		wantedExpr string
		wantedErr  error
	}{
		{false, 5, "1", 4, "1 + x", nil},
		{false, 5, "x", 3, "x * 2", nil},
		{false, 4, "1", 1, "1 + 2", nil},
		{false, 3, "f", 0, "", storedefs.ErrNoMatchingCalc},
		{false, -1, "", 0, "", storedefs.ErrNoMatchingCalc},

		{true, 1, "1", 1, "1 + 2", nil},
		{true, 1, "x", 2, "x = 3", nil},
		{true, 2, "1", 4, "1 + x", nil},
		{true, 4, "x", 0, "", storedefs.ErrNoMatchingCalc},
		{true, -3, "x", 2, "x = 3", nil},
	}
)

// TestCalc tests the calculation history functionality of a Store.
func TestCalc(t *testing.T, store storedefs.Store) {
	t.Helper()

	startSeq, err := store.NextCalcSeq()
	if startSeq != 1 || err != nil {
		t.Errorf("store.NextCalcSeq() => (%v, %v), want (1, nil)",
			startSeq, err)
	}

	// AddCalc
	for i, expr := range exprs {
		wantSeq := startSeq + i
		seq, err := store.AddCalc(expr, results[i])
		if seq != wantSeq || err != nil {
			t.Errorf("store.AddCalc(%q, %q) => (%v, %v), want (%v, nil)",
				expr, results[i], seq, err, wantSeq)
		}
	}

	endSeq, err := store.NextCalcSeq()
	wantedEndSeq := startSeq + len(exprs)
	if endSeq != wantedEndSeq || err != nil {
		t.Errorf("store.NextCalcSeq() => (%v, %v), want (%v, nil)",
			endSeq, err, wantedEndSeq)
	}

	// Calc
	ids := map[string]bool{}
	for i, wantedExpr := range exprs {
		seq := i + startSeq
		c, err := store.Calc(seq)
		if c.Seq != seq || c.Expr != wantedExpr || c.Result != results[i] || err != nil {
			t.Errorf("store.Calc(%v) => (%+v, %v), want expr %q and result %q",
				seq, c, err, wantedExpr, results[i])
		}
		if c.ID == "" || ids[c.ID] {
			t.Errorf("store.Calc(%v) has ID %q, want a fresh nonempty ID", seq, c.ID)
		}
		ids[c.ID] = true
		if c.Time.IsZero() {
			t.Errorf("store.Calc(%v) has zero Time", seq)
		}
	}

	// CalcsWithSeq
	calcs, err := store.CalcsWithSeq(-1, 1<<31-1)
	if len(calcs) != len(exprs) || err != nil {
		t.Errorf("store.CalcsWithSeq(-1, max) => (%v, %v), want %v calcs",
			calcs, err, len(exprs))
	}
	for i, c := range calcs {
		if c.Seq != startSeq+i || c.Expr != exprs[i] {
			t.Errorf("store.CalcsWithSeq(-1, max)[%v] = %+v, want seq %v and expr %q",
				i, c, startSeq+i, exprs[i])
		}
	}
	calcs, err = store.CalcsWithSeq(-5, 0)
	if len(calcs) != 0 || err != nil {
		t.Errorf("store.CalcsWithSeq(-5, 0) => (%v, %v), want no calcs", calcs, err)
	}
	calcs, err = store.CalcsWithSeq(2, 4)
	if got := calcExprs(calcs); !reflect.DeepEqual(got, exprs[1:3]) || err != nil {
		t.Errorf("store.CalcsWithSeq(2, 4) => (%v, %v), want (%v, nil)",
			got, err, exprs[1:3])
	}

	// NextCalc and PrevCalc
	for _, tt := range searches {
		f, fname := store.PrevCalc, "store.PrevCalc"
		if tt.next {
			f, fname = store.NextCalc, "store.NextCalc"
		}
		c, err := f(tt.seq, tt.prefix)
		if err != tt.wantedErr {
			t.Errorf("%s(%v, %q) => error %v, want %v",
				fname, tt.seq, tt.prefix, err, tt.wantedErr)
			continue
		}
		if err == nil && (c.Seq != tt.wantedSeq || c.Expr != tt.wantedExpr) {
			t.Errorf("%s(%v, %q) => (%v, %q), want (%v, %q)",
				fname, tt.seq, tt.prefix, c.Seq, c.Expr, tt.wantedSeq, tt.wantedExpr)
		}
	}

	// DelCalc
	if err := store.DelCalc(1); err != nil {
		t.Error("Failed to remove calculation")
	}
	if _, err := store.Calc(1); err != storedefs.ErrNoMatchingCalc {
		t.Errorf("store.Calc(1) after DelCalc => error %v, want %v",
			err, storedefs.ErrNoMatchingCalc)
	}
	if seq, err := store.NextCalcSeq(); seq != wantedEndSeq || err != nil {
		t.Errorf("store.NextCalcSeq() after DelCalc => (%v, %v), want (%v, nil)",
			seq, err, wantedEndSeq)
	}
}

func calcExprs(calcs []storedefs.Calc) []string {
	exprs := make([]string, len(calcs))
	for i, c := range calcs {
		exprs[i] = c.Expr
	}
	return exprs
}

// TestSession tests the session functionality of a Store.
func TestSession(t *testing.T, store storedefs.Store) {
	t.Helper()

	if _, err := store.Session("work"); err != storedefs.ErrNoSession {
		t.Errorf("store.Session(%q) => error %v, want %v", "work", err, storedefs.ErrNoSession)
	}

	work := []byte(`{"x":{"t":"int","v":"1"}}`)
	play := []byte(`{}`)
	if err := store.SaveSession("work", work); err != nil {
		t.Errorf("store.SaveSession(%q) => %v, want nil", "work", err)
	}
	if err := store.SaveSession("play", play); err != nil {
		t.Errorf("store.SaveSession(%q) => %v, want nil", "play", err)
	}

	if got, err := store.Session("work"); !bytes.Equal(got, work) || err != nil {
		t.Errorf("store.Session(%q) => (%s, %v), want (%s, nil)", "work", got, err, work)
	}
	names, err := store.SessionNames()
	if want := []string{"play", "work"}; !reflect.DeepEqual(names, want) || err != nil {
		t.Errorf("store.SessionNames() => (%v, %v), want (%v, nil)", names, err, want)
	}

	// Saving again replaces the old bindings.
	work2 := []byte(`{"x":{"t":"int","v":"2"}}`)
	if err := store.SaveSession("work", work2); err != nil {
		t.Errorf("store.SaveSession(%q) => %v, want nil", "work", err)
	}
	if got, err := store.Session("work"); !bytes.Equal(got, work2) || err != nil {
		t.Errorf("store.Session(%q) => (%s, %v), want (%s, nil)", "work", got, err, work2)
	}

	if err := store.DelSession("work"); err != nil {
		t.Errorf("store.DelSession(%q) => %v, want nil", "work", err)
	}
	if _, err := store.Session("work"); err != storedefs.ErrNoSession {
		t.Errorf("store.Session(%q) after DelSession => error %v, want %v",
			"work", err, storedefs.ErrNoSession)
	}
	if err := store.DelSession("no-such-session"); err != nil {
		t.Errorf("store.DelSession(%q) => %v, want nil", "no-such-session", err)
	}
	names, err = store.SessionNames()
	if want := []string{"play"}; !reflect.DeepEqual(names, want) || err != nil {
		t.Errorf("store.SessionNames() => (%v, %v), want (%v, nil)", names, err, want)
	}
}
