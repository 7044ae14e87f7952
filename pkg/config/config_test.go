package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandcalc/sandcalc/pkg/env"
	"github.com/sandcalc/sandcalc/pkg/testutil"
	. "github.com/sandcalc/sandcalc/pkg/tt"
)

func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(`
decimal: false
timeout: 250ms
memory_limit: 1GiB
precision: 12
history_backend: sqlite
history_db: /tmp/h.db
log: /tmp/log
`))
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		Decimal: false, Timeout: 250 * time.Millisecond, MemoryLimit: 1 << 30,
		Precision: 12, HistoryBackend: BackendSQLite, HistoryDB: "/tmp/h.db", Log: "/tmp/log",
	}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestFromYAML_KeepsDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("precision: 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Precision = 3
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestFromYAML_ExpandsHome(t *testing.T) {
	home := testutil.TempDir(t)
	testutil.Setenv(t, "HOME", home)
	cfg, err := FromYAML([]byte("history_db: ~/h.db\n"))
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "h.db"); cfg.HistoryDB != want {
		t.Errorf("got HistoryDB %q, want %q", cfg.HistoryDB, want)
	}
}

func TestFromYAML_Errors(t *testing.T) {
	for _, test := range []struct{ yaml, wantErr string }{
		{"timeout: 0s", "timeout must be positive"},
		{"history_backend: redis", "history_backend must be bolt or sqlite"},
		{"precision: -1", "precision must not be negative"},
		{"memory_limit: lots", `bad size "lots"`},
		{"decimal: [", "parse yaml"},
	} {
		_, err := FromYAML([]byte(test.yaml))
		if err == nil || !strings.Contains(err.Error(), test.wantErr) {
			t.Errorf("FromYAML(%q) -> error %v, want containing %q", test.yaml, err, test.wantErr)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := testutil.TempDir(t)
	testutil.Unsetenv(t, env.SANDCALC_CONFIG)
	testutil.Setenv(t, env.XDG_CONFIG_HOME, dir)

	cfg, err := Load("")
	if err != nil || cfg != Default() {
		t.Errorf("Load(\"\") without a file -> (%+v, %v), want defaults", cfg, err)
	}

	os.MkdirAll(filepath.Join(dir, "sandcalc"), 0o755)
	os.WriteFile(filepath.Join(dir, "sandcalc", "config.yaml"), []byte("decimal: false\n"), 0o644)
	cfg, err = Load("")
	if err != nil || cfg.Decimal {
		t.Errorf("Load(\"\") with a file -> (%+v, %v), want decimal off", cfg, err)
	}

	_, err = Load(filepath.Join(dir, "no-such-file"))
	if err == nil {
		t.Errorf("Load of a missing explicit file succeeded")
	}
}

func TestDefaultPath(t *testing.T) {
	testutil.Unsetenv(t, env.SANDCALC_CONFIG)
	testutil.Setenv(t, env.XDG_CONFIG_HOME, "/xdg")
	if got, want := DefaultPath(), filepath.Join("/xdg", "sandcalc", "config.yaml"); got != want {
		t.Errorf("DefaultPath() -> %q, want %q", got, want)
	}
	testutil.Setenv(t, env.SANDCALC_CONFIG, "/etc/sandcalc.yaml")
	if got, want := DefaultPath(), "/etc/sandcalc.yaml"; got != want {
		t.Errorf("DefaultPath() with $SANDCALC_CONFIG -> %q, want %q", got, want)
	}
}

func TestParseByteSize(t *testing.T) {
	Test(t, ParseByteSize,
		Args("1024").Rets(ByteSize(1024), nil),
		Args("4KiB").Rets(ByteSize(4096), nil),
		Args("512 MiB").Rets(ByteSize(512<<20), nil),
		Args("2GB").Rets(ByteSize(2e9), nil),
		Args("x").Rets(ByteSize(0), Any),
	)
}
