package store_test

import (
	"path/filepath"
	"testing"

	"github.com/sandcalc/sandcalc/pkg/store"
	"github.com/sandcalc/sandcalc/pkg/store/storedefs"
	"github.com/sandcalc/sandcalc/pkg/store/storetest"
	"github.com/sandcalc/sandcalc/pkg/testutil"
)

func TestCalc(t *testing.T) {
	storetest.TestCalc(t, store.MustTempStore(t))
}

func TestSession(t *testing.T) {
	storetest.TestSession(t, store.MustTempStore(t))
}

func TestNewStore_Persists(t *testing.T) {
	dbname := filepath.Join(testutil.TempDir(t), "db")
	st, err := store.NewStore(dbname)
	if err != nil {
		t.Fatal(err)
	}
	st.AddCalc("1 + 1", "2")
	st.Close()

	st, err = store.NewStore(dbname)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	c, err := st.Calc(1)
	if c.Expr != "1 + 1" || c.Result != "2" || err != nil {
		t.Errorf("Calc(1) after reopening => (%+v, %v)", c, err)
	}
	if _, err := st.Calc(2); err != storedefs.ErrNoMatchingCalc {
		t.Errorf("Calc(2) after reopening => error %v", err)
	}
}
