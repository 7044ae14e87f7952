package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"
)

// Config keeps configurations for running workers.
type Config struct {
	// BinPath is the path to the sandcalc binary. If empty, it is
	// determined with os.Executable.
	BinPath string
	// Timeout bounds every calculation, on top of any deadline of the
	// context passed to Calculate. Zero means DefaultTimeout.
	Timeout time.Duration
	// MemoryLimit is the address space limit of workers in bytes. Zero
	// means DefaultMemoryLimit.
	MemoryLimit int64
}

// Process runs each calculation in a new worker process.
type Process struct {
	cfg Config
}

var _ Runner = (*Process)(nil)

// NewProcess creates a Process with the given configuration.
func NewProcess(cfg Config) *Process {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MemoryLimit == 0 {
		cfg.MemoryLimit = DefaultMemoryLimit
	}
	return &Process{cfg}
}

func (p *Process) Calculate(ctx context.Context, req Request) (*Response, error) {
	ensureID(&req)
	wreq, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}
	binPath := p.cfg.BinPath
	if binPath == "" {
		bin, err := os.Executable()
		if err != nil {
			return nil, errors.New("cannot find sandcalc: " + err.Error())
		}
		binPath = bin
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	cmd := exec.Command(binPath,
		"-worker", "-worker-memory", strconv.FormatInt(p.cfg.MemoryLimit, 10))
	cmd.SysProcAttr = procAttrForWorker()
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr := &tailBuffer{max: 4096}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	logger.Printf("request %s: started worker %d", req.ID, cmd.Process.Pid)

	conn := jsonrpc2.NewConn(context.Background(),
		jsonrpc2.NewBufferedStream(pipe{stdout, stdin}, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(func(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) (any, error) {
			return nil, errMethodNotFound
		}))
	var wresp wireResponse
	callErr := conn.Call(ctx, calculateMethod, wreq, &wresp)
	conn.Close()

	if ctxErr := ctx.Err(); ctxErr != nil {
		if err := killGroup(cmd.Process); err != nil {
			logger.Printf("request %s: failed to kill worker: %v", req.ID, err)
		}
		cmd.Wait()
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			logger.Printf("request %s: timed out", req.ID)
			return nil, ErrTimeout
		}
		return nil, ctxErr
	}

	waitErr := cmd.Wait()
	if callErr != nil {
		return nil, crashError(req.ID, callErr, waitErr, stderr.String(), stderr.OOM())
	}
	return wresp.decode()
}

// Printed by the Go runtime when an allocation fails, before the goroutine
// dump.
const oomMarker = "out of memory"

// Classifies the death of a worker. The oom flag reports whether the marker
// was seen anywhere in stderr, which may be longer than the kept tail.
func crashError(id string, callErr, waitErr error, stderr string, oom bool) error {
	logger.Printf("request %s: worker failed: %v; exit: %v; stderr: %s", id, callErr, waitErr, stderr)
	var exitErr *exec.ExitError
	if oom || strings.Contains(stderr, oomMarker) ||
		(errors.As(waitErr, &exitErr) && killedByOOM(exitErr)) {
		return ErrOutOfMemory
	}
	if stderr == "" {
		return fmt.Errorf("%w: %v", ErrWorkerCrashed, callErr)
	}
	return fmt.Errorf("%w: %s", ErrWorkerCrashed, lastLine(stderr))
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Keeps the last max bytes written to it, and remembers whether oomMarker
// was ever written, even across writes.
type tailBuffer struct {
	mu    sync.Mutex
	max   int
	buf   []byte
	carry []byte
	oom   bool
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.oom {
		scan := append(b.carry, p...)
		b.oom = strings.Contains(string(scan), oomMarker)
		if keep := len(oomMarker) - 1; len(scan) > keep {
			scan = scan[len(scan)-keep:]
		}
		b.carry = append([]byte(nil), scan...)
	}
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) OOM() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.oom
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
