package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/TFMV/flash/internal/console"
	"github.com/TFMV/flash/internal/policy"
	"github.com/TFMV/flash/internal/walk"
	"go.uber.org/zap"
)

// Strategy selects how glob watch specs are resolved.
type Strategy int

const (
	// Eager walks from the static base of the glob and registers every
	// matching directory.
	Eager Strategy = iota

	// Lazy registers only the static base and leaves filtering to the path
	// policy, trading precision for startup time.
	Lazy
)

// SetupOptions configure Setup.
type SetupOptions struct {
	Specs    []string
	Ignore   []string
	Strategy Strategy
	Console  *console.Console
	Logger   *zap.Logger
}

// Registration is a directory handed to the backend.
type Registration struct {
	Path string
	Spec string // the watch spec it came from
}

// Setup registers every watch spec with the backend. A spec naming an
// existing directory is watched recursively; anything else is a glob.
// Directories are deduplicated by absolute path. Setup fails when a glob is
// invalid, when the backend rejects a directory, or when nothing at all was
// registered. A glob that matches nothing only prints a warning.
func Setup(ctx context.Context, b Backend, opts SetupOptions) ([]Registration, error) {
	out := opts.Console
	if out == nil {
		out = console.New(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &setup{
		backend: b,
		seen:    make(map[string]struct{}),
		out:     out,
		logger:  logger,
	}
	skip := walk.NewSkipPolicy(opts.Ignore)

	for _, spec := range opts.Specs {
		if info, err := os.Stat(spec); err == nil && info.IsDir() {
			if _, err := s.register(spec, spec, false); err != nil {
				return s.regs, err
			}
			continue
		}

		if _, err := policy.Compile(spec); err != nil {
			return s.regs, fmt.Errorf("invalid watch pattern %s: %w", spec, err)
		}

		var matched bool
		switch opts.Strategy {
		case Lazy:
			base := walk.Base(spec)
			if info, err := os.Stat(base); err == nil && info.IsDir() {
				ok, err := s.register(base, spec, true)
				if err != nil {
					return s.regs, err
				}
				matched = ok
			}
		default:
			_, dirs, err := walk.Resolve(ctx, spec, walk.Options{Skip: skip.Skip, Logger: logger})
			if err != nil {
				return s.regs, fmt.Errorf("resolve watch pattern %s: %w", spec, err)
			}
			for _, dir := range dirs {
				ok, err := s.register(dir, spec, true)
				if err != nil {
					return s.regs, err
				}
				matched = matched || ok
			}
		}

		if !matched {
			out.Warn("No directories matched pattern: " + spec)
		}
	}

	if len(s.regs) == 0 {
		return nil, ErrNoWatchTargets
	}
	out.Field("Total watched paths:", strconv.Itoa(len(s.regs)))
	return s.regs, nil
}

type setup struct {
	backend Backend
	seen    map[string]struct{}
	regs    []Registration
	out     *console.Console
	logger  *zap.Logger
}

// register adds dir recursively unless it was already registered. It reports
// whether the directory was new.
func (s *setup) register(dir, spec string, fromPattern bool) (bool, error) {
	key := dir
	if abs, err := filepath.Abs(dir); err == nil {
		key = abs
	}
	if _, dup := s.seen[key]; dup {
		s.logger.Debug("directory already watched", zap.String("path", dir))
		return false, nil
	}

	if err := s.backend.Add(dir, true); err != nil {
		return false, fmt.Errorf("failed to watch path %s: %w", dir, err)
	}
	s.seen[key] = struct{}{}
	s.regs = append(s.regs, Registration{Path: dir, Spec: spec})

	if fromPattern {
		s.out.Field("Watching:", fmt.Sprintf("%s (from pattern: %s)", dir, spec))
	} else {
		s.out.Field("Watching:", dir)
	}
	return true, nil
}
