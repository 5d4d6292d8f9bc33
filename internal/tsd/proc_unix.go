//go:build !windows

package tsd

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// setProcAttr starts tsd in its own process group so that cancellation
// also kills the node process it spawns.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}

	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}

		return err
	}
}
