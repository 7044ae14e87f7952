//go:build unix

package sandbox

import (
	"os"
	"os/exec"
	"runtime/debug"
	"syscall"

	"golang.org/x/sys/unix"
)

func procAttrForWorker() *syscall.SysProcAttr {
	// Put the worker in its own process group, so that it can be killed
	// together with anything it may start.
	return &syscall.SysProcAttr{Setpgid: true}
}

func killGroup(p *os.Process) error {
	return unix.Kill(-p.Pid, unix.SIGKILL)
}

// Reports whether the worker was killed with SIGKILL by someone other than
// the watchdog, which on Linux is usually the OOM killer.
func killedByOOM(err *exec.ExitError) bool {
	ws, ok := err.Sys().(syscall.WaitStatus)
	return ok && ws.Signaled() && ws.Signal() == syscall.SIGKILL
}

func limitMemory(limit int64) error {
	if limit <= 0 {
		return nil
	}
	// The soft limit makes the garbage collector work harder before the hard
	// limit turns allocations into fatal errors.
	debug.SetMemoryLimit(limit / 2)
	return unix.Setrlimit(unix.RLIMIT_AS, &unix.Rlimit{Cur: uint64(limit), Max: uint64(limit)})
}
