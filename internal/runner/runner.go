// Package runner owns the lifecycle of the user command.
//
// In the default mode every Run spawns the command through the platform shell
// and waits for it. In restart mode the runner keeps the most recent process
// alive and replaces it on the next Run: the old process (and its process
// group on Unix) is killed and reaped before the new one is spawned.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/TFMV/flash/internal/console"
	"go.uber.org/zap"
)

// waitDelay bounds how long Wait keeps copying output after a cancelled
// command was killed.
const waitDelay = 2 * time.Second

// handle is a process slot held in restart mode.
type handle interface {
	pid() int
	exited() bool
	terminate() error
}

// Runner executes the configured command. It is driven by a single goroutine
// and is not safe for concurrent use.
type Runner struct {
	command []string
	restart bool
	clear   bool

	current handle

	ctx     context.Context
	shell   []string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	console *console.Console
	logger  *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithConsole sets the console used for status lines.
func WithConsole(c *console.Console) Option {
	return func(r *Runner) { r.console = c }
}

// WithOutput redirects the command's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithContext ties spawned commands to ctx: when it ends, a running command
// (its process group in restart mode) is killed.
func WithContext(ctx context.Context) Option {
	return func(r *Runner) { r.ctx = ctx }
}

// WithStdin sets the command's stdin.
func WithStdin(stdin io.Reader) Option {
	return func(r *Runner) { r.stdin = stdin }
}

// WithShell overrides the platform shell. The joined command string is passed
// as the final argument, e.g. WithShell("bash", "-c").
func WithShell(name string, args ...string) Option {
	return func(r *Runner) { r.shell = append([]string{name}, args...) }
}

// New creates a Runner for the given argument vector.
func New(command []string, restart, clear bool, opts ...Option) *Runner {
	r := &Runner{
		command: command,
		restart: restart,
		clear:   clear,
		ctx:     context.Background(),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.console == nil {
		r.console = console.New(r.stdout)
	}
	return r
}

// Command returns the joined command string.
func (r *Runner) Command() string {
	return strings.Join(r.command, " ")
}

// Restart reports whether the runner is in restart mode.
func (r *Runner) Restart() bool {
	return r.restart
}

// Stop kills and reaps the held process, if any. It is called on shutdown so
// that a restart-mode command, which runs in its own process group, does not
// outlive flash.
func (r *Runner) Stop() {
	if r.current != nil {
		r.stopCurrent()
	}
}

// Held reports whether a process handle is currently held.
func (r *Runner) Held() bool {
	return r.current != nil
}

// Pid returns the pid of the held process, or 0.
func (r *Runner) Pid() int {
	if r.current == nil {
		return 0
	}
	return r.current.pid()
}

// Run executes the command once. A command that exits unsuccessfully is
// reported on the console and is not an error; only a failure to spawn is.
func (r *Runner) Run() error {
	if len(r.command) == 0 {
		return ErrEmptyCommand
	}

	if r.restart && r.current != nil {
		r.stopCurrent()
	}

	if r.clear {
		r.console.Clear()
	}

	r.console.Running(r.Command())

	cmd := r.buildCommand()
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if r.restart {
		setProcessGroup(cmd)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	if r.restart {
		r.current = startProcess(cmd)
		r.logger.Debug("command started", zap.Int("pid", cmd.Process.Pid))
		return nil
	}

	err := cmd.Wait()
	if err == nil {
		return nil
	}

	if r.ctx.Err() != nil {
		r.logger.Debug("command killed on shutdown", zap.String("command", r.Command()))
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		r.console.ExitStatus(exitStatus(exitErr))
		return nil
	}

	r.logger.Warn("command wait failed", zap.String("command", r.Command()), zap.Error(err))
	return nil
}

// DryRun performs the restart bookkeeping without spawning anything. In
// restart mode it leaves a simulated handle in the slot.
func (r *Runner) DryRun() error {
	if r.restart && r.current != nil {
		r.stopCurrent()
	}

	if len(r.command) == 0 {
		return ErrEmptyCommand
	}

	if r.restart {
		r.current = simulated{}
	}
	return nil
}

// stopCurrent kills and reaps the held process, then empties the slot.
func (r *Runner) stopCurrent() {
	pid := r.current.pid()
	if err := r.current.terminate(); err != nil {
		r.logger.Warn("failed to stop previous command", zap.Int("pid", pid), zap.Error(err))
	} else {
		r.logger.Debug("previous command stopped", zap.Int("pid", pid))
	}
	r.current = nil
}

func (r *Runner) buildCommand() *exec.Cmd {
	var cmd *exec.Cmd
	if len(r.shell) > 0 {
		args := append(append([]string{}, r.shell[1:]...), r.Command())
		cmd = exec.CommandContext(r.ctx, r.shell[0], args...)
	} else {
		cmd = shellCommand(r.ctx, r.command)
	}
	cmd.Cancel = func() error { return killProcess(cmd) }
	cmd.WaitDelay = waitDelay
	return cmd
}

func exitStatus(err *exec.ExitError) string {
	if code := err.ExitCode(); code >= 0 {
		return strconv.Itoa(code)
	}
	return err.ProcessState.String()
}

// process is a live child started in restart mode. A goroutine reaps it so
// that an early exit does not leave a zombie behind.
type process struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func startProcess(cmd *exec.Cmd) *process {
	p := &process{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()
	return p
}

func (p *process) pid() int {
	return p.cmd.Process.Pid
}

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// terminate blocks until the process has exited. No timeout is imposed.
func (p *process) terminate() error {
	if p.exited() {
		return nil
	}
	if err := killProcess(p.cmd); err != nil {
		return err
	}
	<-p.done
	return nil
}

// simulated stands in for a process during DryRun.
type simulated struct{}

func (simulated) pid() int         { return 0 }
func (simulated) exited() bool     { return false }
func (simulated) terminate() error { return nil }
