// Package walk traverses directory trees to find what the watcher should
// register.
//
// Traversal uses godirwalk, following symbolic links and visiting entries in
// directory order. Unreadable entries are skipped rather than aborting the
// walk.
package walk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/TFMV/flash/internal/policy"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/karrick/godirwalk"
	"go.uber.org/zap"
)

// Options tune a traversal.
type Options struct {
	// Skip prunes a directory below the root. The root itself is never
	// pruned.
	Skip func(path string) bool

	// Logger receives per-entry errors at debug level.
	Logger *zap.Logger
}

// Dirs returns root and every directory below it.
func Dirs(ctx context.Context, root string, opts Options) ([]string, error) {
	root = filepath.Clean(root)
	var dirs []string
	err := walkDirs(ctx, root, opts, func(path string) {
		dirs = append(dirs, path)
	})
	return dirs, err
}

// Resolve expands a glob watch spec to the directories it matches. The walk
// starts at the static prefix of the pattern, so "src/**/views" only visits
// the tree under "src". It returns the walk base with the matches.
func Resolve(ctx context.Context, pattern string, opts Options) (string, []string, error) {
	glob, err := policy.Compile(pattern)
	if err != nil {
		return "", nil, err
	}

	base := Base(pattern)
	if _, err := os.Stat(base); errors.Is(err, fs.ErrNotExist) {
		return base, nil, nil
	}
	var matches []string
	err = walkDirs(ctx, base, opts, func(path string) {
		if glob.Match(path) {
			matches = append(matches, path)
		}
	})
	return base, matches, err
}

// Base returns the directory a glob pattern is anchored at: the longest
// leading part without meta characters, or "." when there is none.
func Base(pattern string) string {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	if base == "" {
		return "."
	}
	return filepath.FromSlash(base)
}

func walkDirs(ctx context.Context, root string, opts Options, visit func(string)) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	err := godirwalk.Walk(root, &godirwalk.Options{
		FollowSymbolicLinks: true,
		Unsorted:            true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			isDir, err := de.IsDirOrSymlinkToDir()
			if err != nil || !isDir {
				return nil
			}
			if path != root && opts.Skip != nil && opts.Skip(path) {
				return filepath.SkipDir
			}
			visit(filepath.Clean(path))
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			if ctx.Err() != nil {
				return godirwalk.Halt
			}
			logger.Debug("skipping unreadable entry", zap.String("path", path), zap.Error(err))
			return godirwalk.SkipNode
		},
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil && !errors.Is(err, filepath.SkipDir) {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	return nil
}
