//go:build windows

package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"
)

func shellCommand(ctx context.Context, command []string) *exec.Cmd {
	return exec.CommandContext(ctx, "cmd", append([]string{"/C"}, command...)...)
}

func setProcessGroup(cmd *exec.Cmd) {}

func killProcess(cmd *exec.Cmd) error {
	err := cmd.Process.Kill()
	if err == nil || errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
