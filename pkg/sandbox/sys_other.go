//go:build !unix

package sandbox

import (
	"os"
	"os/exec"
	"runtime/debug"
	"syscall"
)

func procAttrForWorker() *syscall.SysProcAttr { return nil }

func killGroup(p *os.Process) error { return p.Kill() }

func killedByOOM(*exec.ExitError) bool { return false }

// Without rlimits, only the soft limit of the Go runtime is available.
func limitMemory(limit int64) error {
	if limit > 0 {
		debug.SetMemoryLimit(limit)
	}
	return nil
}
