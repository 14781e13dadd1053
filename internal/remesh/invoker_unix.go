//go:build unix

package remesh

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the tool in its own process group and signals
// the whole group on cancellation, so workers the tool forks are
// terminated with it when the timeout elapses.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
