//go:build windows

package process

import "os/exec"

func configureWorkerProcess(cmd *exec.Cmd) {}

func interruptWorkerProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
