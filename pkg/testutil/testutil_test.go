package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandcalc/sandcalc/pkg/env"
	"github.com/sandcalc/sandcalc/pkg/tt"
)

func TestDedent(t *testing.T) {
	tt.Test(t, Dedent,
		tt.Args("\n  a\n    b\n  c").Rets("a\n  b\nc"),
		tt.Args("  a\n\n  b\n").Rets("a\n\nb\n"),
		tt.Args("a\n b").Rets("a\n b"),
	)
}

func TestSet(t *testing.T) {
	x := 1
	t.Run("inner", func(t *testing.T) {
		Set(t, &x, 2)
		if x != 2 {
			t.Errorf("x = %d, want 2", x)
		}
	})
	if x != 1 {
		t.Errorf("x = %d after subtest, want 1", x)
	}
}

func TestScaled(t *testing.T) {
	Setenv(t, env.SANDCALC_TEST_TIME_SCALE, "2")
	if got := Scaled(time.Second); got != 2*time.Second {
		t.Errorf("Scaled -> %v, want 2s", got)
	}
	Setenv(t, env.SANDCALC_TEST_TIME_SCALE, "bad")
	if got := Scaled(time.Second); got != time.Second {
		t.Errorf("Scaled -> %v, want 1s", got)
	}
}

func TestInTempDir(t *testing.T) {
	dir := InTempDir(t)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if wd != dir {
		t.Errorf("working directory is %q, want %q", wd, dir)
	}
	resolved, _ := filepath.EvalSymlinks(dir)
	if resolved != dir {
		t.Errorf("TempDir returned unresolved path %q", dir)
	}
}

func TestSetenv(t *testing.T) {
	const name = "SANDCALC_TESTUTIL_VAR"
	os.Unsetenv(name)
	t.Run("inner", func(t *testing.T) {
		if got := Setenv(t, name, "x"); got != "x" || os.Getenv(name) != "x" {
			t.Errorf("Setenv didn't set %s", name)
		}
	})
	if _, ok := os.LookupEnv(name); ok {
		t.Errorf("%s still set after subtest", name)
	}
}
