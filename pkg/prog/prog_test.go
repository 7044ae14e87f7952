package prog_test

import (
	"os"
	"testing"

	. "github.com/sandcalc/sandcalc/pkg/prog"
	"github.com/sandcalc/sandcalc/pkg/prog/progtest"
	"github.com/sandcalc/sandcalc/pkg/testutil"
)

var (
	Test         = progtest.Test
	ThatSandcalc = progtest.ThatSandcalc
)

func TestCommonFlagHandling(t *testing.T) {
	testutil.InTempDir(t)

	Test(t, testProgram{},
		ThatSandcalc("-bad-flag").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -bad-flag\nUsage:"),
		// -h is treated as a bad flag
		ThatSandcalc("-h").
			ExitsWith(2).
			WritesStderrContaining("flag provided but not defined: -h\nUsage:"),

		ThatSandcalc("-help").
			WritesStdoutContaining("Usage: sandcalc [flags] [script]"),

		ThatSandcalc("-cpuprofile", "cpuprof").DoesNothing(),
		ThatSandcalc("-cpuprofile", "/a/bad/path").
			WritesStderrContaining("Warning: cannot create CPU profile:"),

		ThatSandcalc("-log", "log").DoesNothing(),
	)

	// Check for the effect of -cpuprofile. There isn't much to test beyond a
	// sanity check that the profile file now exists.
	if _, err := os.Stat("cpuprof"); err != nil {
		t.Errorf("CPU profile file does not exist: %v", err)
	}
	if _, err := os.Stat("log"); err != nil {
		t.Errorf("log file does not exist: %v", err)
	}
}

func TestSharedFlags(t *testing.T) {
	Test(t,
		Composite(&flagsProgram{}, &flagsProgram{}),
		ThatSandcalc("-json", "-config", "x.yaml").WritesStdout("true x.yaml"),
	)
}

func TestNoSuitableSubprogram(t *testing.T) {
	Test(t, testProgram{next: true},
		ThatSandcalc().
			ExitsWith(2).
			WritesStderr("internal error: no suitable subprogram\n"),
	)
}

func TestComposite(t *testing.T) {
	Test(t,
		Composite(testProgram{next: true}, testProgram{writeOut: "program 2"}),
		ThatSandcalc().WritesStdout("program 2"),
	)
}

func TestComposite_NoSuitableSubprogram(t *testing.T) {
	Test(t,
		Composite(testProgram{next: true}, testProgram{next: true}),
		ThatSandcalc().
			ExitsWith(2).
			WritesStderr("internal error: no suitable subprogram\n"),
	)
}

func TestComposite_PreferEarlierSubprogram(t *testing.T) {
	Test(t,
		Composite(
			testProgram{writeOut: "program 1"}, testProgram{writeOut: "program 2"}),
		ThatSandcalc().WritesStdout("program 1"),
	)
}

func TestBadUsageError(t *testing.T) {
	Test(t,
		testProgram{returnErr: BadUsage("lorem ipsum")},
		ThatSandcalc().ExitsWith(2).WritesStderrContaining("lorem ipsum\n"),
	)
}

func TestExitError(t *testing.T) {
	Test(t, testProgram{returnErr: Exit(3)},
		ThatSandcalc().ExitsWith(3),
	)
}

func TestExitError_0(t *testing.T) {
	Test(t, testProgram{returnErr: Exit(0)},
		ThatSandcalc().ExitsWith(0),
	)
}

type testProgram struct {
	next      bool
	writeOut  string
	returnErr error
}

func (p testProgram) RegisterFlags(f *FlagSet) {}

func (p testProgram) Run(fds [3]*os.File, args []string) error {
	if p.next {
		return ErrNextProgram
	}
	fds[1].WriteString(p.writeOut)
	return p.returnErr
}

// Programs in a Composite see the same values of shared flags.
type flagsProgram struct {
	json   *bool
	config *string
}

func (p *flagsProgram) RegisterFlags(f *FlagSet) {
	p.json = f.JSON()
	p.config = f.ConfigPath()
}

func (p *flagsProgram) Run(fds [3]*os.File, args []string) error {
	if !*p.json {
		return ErrNextProgram
	}
	fds[1].WriteString("true " + *p.config)
	return nil
}
