package exec

import (
	"context"
	"log/slog"
	"os/exec"
)

var debug bool

type ExitError = exec.ExitError

// ErrNotFound is returned when an executable cannot be located on PATH.
var ErrNotFound = exec.ErrNotFound

func SetCommandDebug(v bool) {
	debug = v
}

// CommandContext returns the [exec.Cmd] struct to execute the named program
// in dir, killed when ctx is done.
func CommandContext(ctx context.Context, dir, name string, arg ...string) *exec.Cmd {
	if debug {
		slog.Debug("executing command", "name", name, "args", arg, "dir", dir)
	}

	cmd := exec.CommandContext(ctx, name, arg...)
	cmd.Dir = dir

	return cmd
}
