// Package shell is the entry point for the terminal interface of sandcalc.
//
// With a script file, the -c flag or piped input, it runs one calculation and
// exits. With a terminal on stdin, it runs a REPL whose bindings persist from
// one calculation to the next.
package shell

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/sandcalc/sandcalc/pkg/config"
	"github.com/sandcalc/sandcalc/pkg/logutil"
	"github.com/sandcalc/sandcalc/pkg/observability"
	"github.com/sandcalc/sandcalc/pkg/parse"
	"github.com/sandcalc/sandcalc/pkg/prog"
	"github.com/sandcalc/sandcalc/pkg/sandbox"
	"github.com/sandcalc/sandcalc/pkg/store"
	"github.com/sandcalc/sandcalc/pkg/store/sqlitestore"
	"github.com/sandcalc/sandcalc/pkg/store/storedefs"
	"github.com/sandcalc/sandcalc/pkg/sys"
)

var logger = logutil.GetLogger("[shell] ")

// Program is the shell subprogram.
type Program struct {
	// Creates the runner of calculations. If nil, calculations run in worker
	// processes.
	NewRunner func(sandbox.Config) sandbox.Runner

	fs          *prog.FlagSet
	decimal     bool
	timeout     time.Duration
	memoryLimit config.ByteSize
	history     string
	codeInArg   bool
	compileOnly bool
	json        *bool
	configPath  *string
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	p.fs = fs
	fs.BoolVar(&p.decimal, "decimal", true,
		"Evaluate number literals as decimals")
	fs.DurationVar(&p.timeout, "timeout", sandbox.DefaultTimeout,
		"Deadline of each calculation")
	p.memoryLimit = sandbox.DefaultMemoryLimit
	fs.Var(&p.memoryLimit, "memory-limit",
		"Memory limit of the sandbox worker, like 512MiB")
	fs.StringVar(&p.history, "history", "",
		"Path to the history database; overrides history_db of the configuration file")
	fs.BoolVar(&p.codeInArg, "c", false,
		"Take the first argument as code to calculate")
	fs.BoolVar(&p.compileOnly, "compileonly", false,
		"Check the code for syntax errors and policy violations without running it")
	p.json = fs.JSON()
	p.configPath = fs.ConfigPath()
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	cfg, err := p.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Log != "" && !p.isSet("log") {
		if err := logutil.SetOutputFile(cfg.Log); err != nil {
			fmt.Fprintln(fds[2], "Warning:", err)
		}
	}
	scfg := sandbox.Config{Timeout: cfg.Timeout, MemoryLimit: int64(cfg.MemoryLimit)}
	var runner sandbox.Runner
	if p.NewRunner != nil {
		runner = p.NewRunner(scfg)
	} else {
		runner = sandbox.NewProcess(scfg)
	}

	if len(args) > 1 {
		return prog.BadUsage("at most one script may be given")
	}
	if p.codeInArg && len(args) == 0 {
		return prog.BadUsage("-c requires an argument")
	}

	if len(args) > 0 || !sys.IsATTY(fds[0].Fd()) {
		src, err := readSource(fds[0], args, p.codeInArg)
		if err != nil {
			fmt.Fprintln(fds[2], err)
			return prog.Exit(2)
		}
		return prog.Exit(Script(fds, src, &ScriptConfig{
			Runner:  observability.Instrument(runner),
			Decimal: cfg.Decimal, Timeout: cfg.Timeout, Precision: cfg.Precision,
			CompileOnly: p.compileOnly, JSON: *p.json}))
	}

	st, cleanup := openStore(cfg, fds[2])
	defer cleanup()
	icfg := &InteractConfig{
		Runner:  observability.Instrument(runner),
		Decimal: cfg.Decimal, Timeout: cfg.Timeout, Precision: cfg.Precision,
		Store: st,
	}
	if stats, err := observability.NewStats(); err != nil {
		logger.Println("cannot create stats:", err)
	} else {
		defer stats.Shutdown(context.Background())
		icfg.Stats = stats
		icfg.Runner = observability.Runner{
			Runner: runner, Metrics: stats, Spans: observability.NewSpanManager()}
	}
	Interact(fds, icfg)
	return nil
}

// Loads the configuration file and applies the flags that were given
// explicitly on top of it.
func (p *Program) loadConfig() (config.Config, error) {
	cfg, err := config.Load(*p.configPath)
	if err != nil {
		return cfg, err
	}
	if p.isSet("decimal") {
		cfg.Decimal = p.decimal
	}
	if p.isSet("timeout") {
		cfg.Timeout = p.timeout
	}
	if p.isSet("memory-limit") {
		cfg.MemoryLimit = p.memoryLimit
	}
	if p.isSet("history") {
		cfg.HistoryDB = p.history
	}
	return cfg, cfg.Validate()
}

func (p *Program) isSet(name string) bool {
	set := false
	p.fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func readSource(stdin *os.File, args []string, codeInArg bool) (parse.Source, error) {
	switch {
	case codeInArg:
		return parse.Source{Name: "code from -c", Code: args[0]}, nil
	case len(args) > 0:
		name, err := filepath.Abs(args[0])
		if err != nil {
			return parse.Source{}, fmt.Errorf("cannot get full path of script %q: %v", args[0], err)
		}
		code, err := readFileUTF8(name)
		if err != nil {
			return parse.Source{}, fmt.Errorf("cannot read script %q: %v", name, err)
		}
		return parse.Source{Name: name, Code: code}, nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return parse.Source{}, fmt.Errorf("cannot read stdin: %v", err)
		}
		if !utf8.Valid(data) {
			return parse.Source{}, fmt.Errorf("cannot read stdin: %v", errSourceNotUTF8)
		}
		return parse.Source{Name: "[stdin]", Code: string(data)}, nil
	}
}

var errSourceNotUTF8 = errors.New("source is not UTF-8")

func readFileUTF8(fname string) (string, error) {
	bytes, err := os.ReadFile(fname)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(bytes) {
		return "", errSourceNotUTF8
	}
	return string(bytes), nil
}

// Opens the history store. Failing to open it is not fatal; the REPL then runs
// without history.
func openStore(cfg config.Config, stderr io.Writer) (storedefs.Store, func()) {
	if cfg.HistoryDB == "" {
		return nil, func() {}
	}
	st, err := openStoreAt(cfg.HistoryBackend, cfg.HistoryDB)
	if err != nil {
		fmt.Fprintln(stderr, "Warning: cannot open history:", err)
		fmt.Fprintln(stderr, "History will not be saved.")
		return nil, func() {}
	}
	return st, func() {
		if err := st.Close(); err != nil {
			logger.Println("failed to close store:", err)
		}
	}
}

type closableStore interface {
	storedefs.Store
	Close() error
}

func openStoreAt(backend, path string) (closableStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if backend == config.BackendSQLite {
		return sqlitestore.New(path)
	}
	return store.NewStore(path)
}
