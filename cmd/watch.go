package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/TFMV/flash/internal/config"
	"github.com/TFMV/flash/internal/console"
	"github.com/TFMV/flash/internal/policy"
	"github.com/TFMV/flash/internal/runner"
	"github.com/TFMV/flash/internal/stats"
	"github.com/TFMV/flash/internal/watch"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// runWatch wires the pipeline together and blocks until ctx is cancelled.
// Errors before the "Ready" line abort startup; afterwards failures are only
// reported. A command still running when it returns is killed.
func runWatch(ctx context.Context, cfg config.Config, out *console.Console, logger *zap.Logger) error {
	out.Banner("🔥 Flash watching for changes...")

	pol, err := policy.New(cfg.Ext, cfg.Patterns, cfg.Ignore)
	if err != nil {
		return err
	}

	var st *stats.Collector
	if cfg.Stats {
		st = stats.NewCollector()
	}

	r := runner.New(cfg.Command, cfg.Restart, cfg.Clear,
		runner.WithContext(ctx),
		runner.WithOutput(out.Writer(), os.Stderr),
		runner.WithLogger(logger),
		runner.WithConsole(out),
	)
	defer r.Stop()
	logger.Debug("runner ready",
		zap.String("command", r.Command()),
		zap.Bool("restart", r.Restart()))
	d := watch.NewDispatcher(pol, cfg.DebounceWindow(), r,
		watch.WithStats(st),
		watch.WithConsole(out),
		watch.WithLogger(logger),
	)

	if cfg.Initial {
		d.RunInitial()
	}

	backend, err := watch.NewBackend(cfg.Backend, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("closing watcher", zap.Error(err))
		}
	}()

	q := watch.NewQueue()
	backend.Start(watch.Enqueue(q, st, logger))

	strategy := watch.Eager
	if cfg.FastStartup {
		strategy = watch.Lazy
	}
	regs, err := watch.Setup(ctx, backend, watch.SetupOptions{
		Specs:    cfg.Watch,
		Ignore:   cfg.Ignore,
		Strategy: strategy,
		Console:  out,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	logger.Debug("watch setup complete",
		zap.Int("directories", len(regs)),
		zap.String("backend", cfg.Backend))

	printSettings(out, cfg)
	out.Banner("Ready! Waiting for changes...")

	g, gctx := errgroup.WithContext(ctx)
	if st != nil {
		g.Go(func() error {
			return st.Run(gctx, cfg.StatsPeriod(), out)
		})
	}
	g.Go(func() error {
		return d.Loop(gctx, q)
	})
	err = g.Wait()
	q.Close()
	return err
}

func printSettings(out *console.Console, cfg config.Config) {
	if cfg.Ext != "" {
		out.Field("File extensions:", cfg.Ext)
	}
	if len(cfg.Patterns) > 0 {
		out.Field("Include patterns:", strings.Join(cfg.Patterns, ", "))
	}
	if len(cfg.Ignore) > 0 {
		out.Field("Ignore patterns:", strings.Join(cfg.Ignore, ", "))
	}
	out.Field("Will execute:", strings.Join(cfg.Command, " "))
	if cfg.Stats {
		out.Field("Performance stats enabled, interval:", fmt.Sprintf("%d seconds", cfg.StatsInterval))
	}
}
