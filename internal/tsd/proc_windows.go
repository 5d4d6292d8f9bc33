//go:build windows

package tsd

import (
	"os/exec"
	"strconv"
	"syscall"
)

// setProcAttr starts tsd.cmd in a new process group and kills the whole
// tree (cmd.exe and node) on cancellation.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}

	cmd.Cancel = func() error {
		kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid))
		if err := kill.Run(); err != nil {
			return cmd.Process.Kill()
		}

		return nil
	}
}
