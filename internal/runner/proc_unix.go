//go:build !windows

package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

func shellCommand(ctx context.Context, command []string) *exec.Cmd {
	return exec.CommandContext(ctx, "sh", "-c", strings.Join(command, " "))
}

// setProcessGroup puts the child in its own process group so the shell and
// everything it spawned can be killed together.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcess(cmd *exec.Cmd) error {
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.ESRCH) {
		err = cmd.Process.Kill()
		if err == nil || errors.Is(err, os.ErrProcessDone) {
			return nil
		}
	}
	return err
}
