package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TFMV/flash/internal/console"
	"github.com/TFMV/flash/internal/debounce"
	"github.com/TFMV/flash/internal/policy"
	"github.com/TFMV/flash/internal/stats"
	"go.uber.org/zap"
)

// Runner executes the user command.
type Runner interface {
	Run() error
}

// Enqueue returns the backend callback. Successful callbacks are counted on
// st when it is non-nil; create, modify and remove events are split per path
// onto q and everything else is dropped.
func Enqueue(q *Queue, st *stats.Collector, logger *zap.Logger) Callback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ev Event, err error) {
		if err != nil {
			logger.Error("watcher error", zap.Error(err))
			return
		}
		if st != nil {
			st.RecordWatcherCall()
		}
		switch ev.Kind {
		case Create, Modify, Remove:
			for _, path := range ev.Paths {
				if err := q.Push(RawEvent{Kind: ev.Kind, Path: path}); err != nil {
					logger.Debug("dropping event", zap.String("path", path), zap.Error(err))
				}
			}
		}
	}
}

// Dispatcher drains the event queue. It owns the debounce registry and the
// runner, so it must be driven by a single goroutine.
type Dispatcher struct {
	policy   *policy.Policy
	registry *debounce.Registry
	window   time.Duration
	runner   Runner

	stats   *stats.Collector
	console *console.Console
	logger  *zap.Logger
	cwd     string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithStats counts dispatched changes on st.
func WithStats(st *stats.Collector) DispatcherOption {
	return func(d *Dispatcher) { d.stats = st }
}

// WithConsole sets the console for change announcements.
func WithConsole(c *console.Console) DispatcherOption {
	return func(d *Dispatcher) { d.console = c }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithWorkingDir sets the directory event paths are made relative to.
func WithWorkingDir(dir string) DispatcherOption {
	return func(d *Dispatcher) { d.cwd = dir }
}

// NewDispatcher creates a dispatcher filtering with p and debouncing with
// the given window.
func NewDispatcher(p *policy.Policy, window time.Duration, r Runner, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		policy:   p,
		registry: debounce.NewRegistry(),
		window:   window,
		runner:   r,
	}
	if wd, err := os.Getwd(); err == nil {
		d.cwd = wd
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.console == nil {
		d.console = console.New(nil)
	}
	if d.policy == nil {
		d.policy = &policy.Policy{}
	}
	return d
}

// RunInitial runs the command once before any event arrives. A failure is
// reported and does not stop the watcher.
func (d *Dispatcher) RunInitial() {
	if err := d.runner.Run(); err != nil {
		d.console.Error("Error running initial command:", err)
		d.logger.Debug("initial run failed", zap.Error(err))
	}
}

// HandleEvent filters one event and runs the command when it passes. It
// reports whether the command was dispatched.
func (d *Dispatcher) HandleEvent(ev RawEvent, now time.Time) bool {
	path := d.relative(ev.Path)

	if !d.policy.ShouldProcessAny(path, ev.Path) {
		d.logger.Debug("filtered", zap.String("path", path), zap.Stringer("kind", ev.Kind))
		return false
	}
	if !d.registry.ShouldDispatch(path, now, d.window) {
		d.logger.Debug("debounced", zap.String("path", path))
		return false
	}

	d.console.Change(path)
	if d.stats != nil {
		d.stats.RecordFileChange()
	}
	if err := d.runner.Run(); err != nil {
		d.console.Error("Error running command:", err)
		d.logger.Debug("run failed", zap.String("path", path), zap.Error(err))
	}
	return true
}

// Loop consumes events until ctx is cancelled or the queue is closed and
// drained.
func (d *Dispatcher) Loop(ctx context.Context, q *Queue) error {
	for {
		ev, err := q.Pop(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		d.HandleEvent(ev, time.Now())
	}
}

// relative rewrites a path below the working directory to a relative one so
// that patterns such as "src/**" match absolute backend paths.
func (d *Dispatcher) relative(path string) string {
	if d.cwd == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(d.cwd, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
