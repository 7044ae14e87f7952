package store

import (
	"path/filepath"

	"github.com/sandcalc/sandcalc/pkg/testutil"
)

// MustTempStore returns a Store backed by a temporary file for testing. The
// Store and its file will be removed after the test finishes.
func MustTempStore(c testutil.Cleanuper) DBStore {
	st, err := NewStore(filepath.Join(testutil.TempDir(c), "db"))
	if err != nil {
		panic(err)
	}
	c.Cleanup(func() { st.Close() })
	return st
}
