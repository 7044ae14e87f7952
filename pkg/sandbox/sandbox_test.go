package sandbox

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandcalc/sandcalc/pkg/eval"
	"github.com/sandcalc/sandcalc/pkg/eval/errs"
	"github.com/sandcalc/sandcalc/pkg/eval/vals"
	"github.com/sandcalc/sandcalc/pkg/prog"
	"github.com/sandcalc/sandcalc/pkg/testutil"
)

const workerEnv = "SANDCALC_TEST_AS_WORKER"

// The test binary doubles as the worker binary.
func TestMain(m *testing.M) {
	if os.Getenv(workerEnv) == "1" {
		os.Exit(prog.Run([3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args, &Program{}))
	}
	os.Setenv(workerEnv, "1")
	code := m.Run()
	os.Unsetenv(workerEnv)
	os.Exit(code)
}

func testProcess(t *testing.T, timeout time.Duration, memoryLimit int64) *Process {
	t.Helper()
	bin, err := os.Executable()
	require.NoError(t, err)
	return NewProcess(Config{BinPath: bin, Timeout: timeout, MemoryLimit: memoryLimit})
}

var runners = []struct {
	name string
	new  func(t *testing.T) Runner
}{
	{"InProcess", func(*testing.T) Runner { return InProcess{} }},
	{"Process", func(t *testing.T) Runner { return testProcess(t, testutil.Scaled(10*time.Second), 0) }},
}

func TestRunner_Calculate(t *testing.T) {
	for _, r := range runners {
		t.Run(r.name, func(t *testing.T) {
			runner := r.new(t)
			ctx := context.Background()

			resp, err := runner.Calculate(ctx, Request{Expr: "x = 6\nx * 7"})
			require.NoError(t, err)
			assert.Equal(t, 42, resp.Value)
			assert.Equal(t, 6, resp.Bindings["x"])
			assert.NotEmpty(t, resp.ID)

			resp, err = runner.Calculate(ctx, Request{Expr: "0.1 + 0.2", Decimal: true})
			require.NoError(t, err)
			assert.Equal(t, "0.3", vals.Str(resp.Value))

			resp, err = runner.Calculate(ctx, Request{
				ID: "with-bindings", Expr: "y + len(xs)",
				Bindings: map[string]any{"y": 1, "xs": vals.NewList(1, 2)}})
			require.NoError(t, err)
			assert.Equal(t, "with-bindings", resp.ID)
			assert.Equal(t, 3, resp.Value)
		})
	}
}

func TestRunner_Errors(t *testing.T) {
	for _, r := range runners {
		t.Run(r.name, func(t *testing.T) {
			runner := r.new(t)
			ctx := context.Background()

			_, err := runner.Calculate(ctx, Request{Expr: "1 / 0"})
			assert.True(t, errs.Is(err, errs.ZeroDivisionError), "got %v", err)

			_, err = runner.Calculate(ctx, Request{Expr: "import os"})
			assert.NotNil(t, eval.UnpackBadSyntax(err), "got %v", err)

			_, err = runner.Calculate(ctx, Request{Expr: "1 +"})
			assert.Error(t, err)
			assert.Nil(t, eval.UnpackBadSyntax(err))
		})
	}
}

func TestRunner_Timeout(t *testing.T) {
	inProcess := func(t *testing.T) (Runner, context.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		t.Cleanup(cancel)
		return InProcess{}, ctx
	}
	process := func(t *testing.T) (Runner, context.Context) {
		return testProcess(t, testutil.Scaled(500*time.Millisecond), 0), context.Background()
	}
	for name, setup := range map[string]func(*testing.T) (Runner, context.Context){
		"InProcess": inProcess, "Process": process,
	} {
		t.Run(name, func(t *testing.T) {
			runner, ctx := setup(t)
			_, err := runner.Calculate(ctx, Request{Expr: "while True: pass"})
			assert.ErrorIs(t, err, ErrTimeout)
		})
	}
}

func TestProcess_TimeoutBeforeWorkerAnswers(t *testing.T) {
	_, err := testProcess(t, time.Millisecond, 0).Calculate(
		context.Background(), Request{Expr: "1"})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestProcess_TimeoutDuringEvaluation(t *testing.T) {
	timeout := testutil.Scaled(200 * time.Millisecond)
	p := testProcess(t, timeout, 0)
	ctx := context.Background()

	// The worker starts and answers well within the timeout...
	resp, err := p.Calculate(ctx, Request{Expr: "sum(range(10))"})
	require.NoError(t, err)
	assert.Equal(t, 45, resp.Value)

	// ...so this one is stopped while it is evaluating.
	start := time.Now()
	_, err = p.Calculate(ctx, Request{Expr: "sum(range(10 ** 12))"})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), timeout+testutil.Scaled(5*time.Second))
}

func TestProcess_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	_, err := testProcess(t, testutil.Scaled(10*time.Second), 0).Calculate(
		ctx, Request{Expr: "while True: pass"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcess_OutOfMemory(t *testing.T) {
	_, err := testProcess(t, testutil.Scaled(10*time.Second), 256<<20).Calculate(
		context.Background(), Request{Expr: "[0] * 10 ** 9"})
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestProcess_BadBinary(t *testing.T) {
	p := NewProcess(Config{BinPath: testutil.TempDir(t) + "/no-such-binary"})
	_, err := p.Calculate(context.Background(), Request{Expr: "1"})
	assert.Error(t, err)
}

func TestProcess_WorkerCrashed(t *testing.T) {
	// A binary that exits without answering.
	if _, err := os.Stat("/bin/true"); err != nil {
		t.Skip("no /bin/true")
	}
	p := NewProcess(Config{BinPath: "/bin/true"})
	_, err := p.Calculate(context.Background(), Request{Expr: "1"})
	assert.ErrorIs(t, err, ErrWorkerCrashed)
}

func TestNewProcess_Defaults(t *testing.T) {
	p := NewProcess(Config{})
	assert.Equal(t, DefaultTimeout, p.cfg.Timeout)
	assert.Equal(t, int64(DefaultMemoryLimit), p.cfg.MemoryLimit)
}

func TestCrashError(t *testing.T) {
	assert.ErrorIs(t,
		crashError("id", os.ErrClosed, nil, "fatal error: runtime: out of memory\n", false),
		ErrOutOfMemory)
	// The marker has scrolled out of the tail.
	assert.ErrorIs(t,
		crashError("id", os.ErrClosed, nil, "runtime/mgc.go:1794 +0x79\n", true),
		ErrOutOfMemory)
	err := crashError("id", os.ErrClosed, nil, "panic: oops\n\ngoroutine 1:\nmain.main()\n", false)
	assert.ErrorIs(t, err, ErrWorkerCrashed)
	assert.Contains(t, err.Error(), "main.main()")
}

func TestTailBuffer(t *testing.T) {
	b := &tailBuffer{max: 4}
	b.Write([]byte("ab"))
	b.Write([]byte("cdef"))
	assert.Equal(t, "cdef", b.String())
	assert.False(t, b.OOM())
}

func TestTailBuffer_RemembersOOMBeyondTail(t *testing.T) {
	b := &tailBuffer{max: 4096}
	// The marker is split across writes and followed by a long stack dump.
	b.Write([]byte("fatal error: runtime: out of me"))
	b.Write([]byte("mory\n\ngoroutine 1 [running]:\n"))
	for i := 0; i < 200; i++ {
		b.Write([]byte("runtime.mallocgc(0x3b9aca00, 0x0, 0x0)\n\t/usr/lib/go/src/runtime/malloc.go:1010 +0x5c5\n"))
	}
	assert.NotContains(t, b.String(), oomMarker)
	assert.True(t, b.OOM())

	err := crashError("id", os.ErrClosed, nil, b.String(), b.OOM())
	assert.ErrorIs(t, err, ErrOutOfMemory)
}
