//go:build !windows

package process

import (
	"os"
	"os/exec"
	"syscall"
)

// Workers get their own process group so a terminal interrupt reaches the
// primary only; the primary forwards cancellation.
func configureWorkerProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func interruptWorkerProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid
	if pid <= 0 {
		return nil
	}
	if pgid, err := syscall.Getpgid(pid); err == nil && pgid > 0 {
		return syscall.Kill(-pgid, syscall.SIGTERM)
	}

	return cmd.Process.Signal(os.Interrupt)
}
