package sqlitestore_test

import (
	"path/filepath"
	"testing"

	"github.com/sandcalc/sandcalc/pkg/store/sqlitestore"
	"github.com/sandcalc/sandcalc/pkg/store/storedefs"
	"github.com/sandcalc/sandcalc/pkg/store/storetest"
	"github.com/sandcalc/sandcalc/pkg/testutil"
)

var _ storedefs.Store = (*sqlitestore.Store)(nil)

func mustNew(t *testing.T, path string) *sqlitestore.Store {
	t.Helper()
	st, err := sqlitestore.New(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestCalc(t *testing.T) {
	storetest.TestCalc(t, mustNew(t, ":memory:"))
}

func TestSession(t *testing.T) {
	storetest.TestSession(t, mustNew(t, ":memory:"))
}

func TestCalc_File(t *testing.T) {
	storetest.TestCalc(t, mustNew(t, filepath.Join(testutil.TempDir(t), "db")))
}
