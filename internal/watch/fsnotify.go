package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/TFMV/flash/internal/walk"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FsnotifyBackend watches directories with fsnotify. fsnotify has no
// recursive mode, so a recursive Add registers every directory of the tree
// and directories created later below a recursive root are added when their
// Create event arrives.
type FsnotifyBackend struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	mu    sync.Mutex
	roots []string

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewFsnotifyBackend creates an fsnotify backed watcher.
func NewFsnotifyBackend(logger *zap.Logger) (*FsnotifyBackend, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FsnotifyBackend{
		watcher: w,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

func (b *FsnotifyBackend) Add(path string, recursive bool) error {
	if !recursive {
		if err := b.watcher.Add(path); err != nil {
			return fmt.Errorf("error watching directory %s: %w", path, err)
		}
		return nil
	}

	if err := b.addTree(path); err != nil {
		return err
	}
	if abs, err := filepath.Abs(path); err == nil {
		b.mu.Lock()
		b.roots = append(b.roots, abs)
		b.mu.Unlock()
	}
	return nil
}

func (b *FsnotifyBackend) addTree(root string) error {
	dirs, err := walk.Dirs(context.Background(), root, walk.Options{Logger: b.logger})
	if err != nil {
		return fmt.Errorf("error walking directory tree: %w", err)
	}
	for _, dir := range dirs {
		if err := b.watcher.Add(dir); err != nil {
			return fmt.Errorf("error watching directory %s: %w", dir, err)
		}
	}
	b.logger.Debug("registered directory tree", zap.String("root", root), zap.Int("dirs", len(dirs)))
	return nil
}

// underRecursiveRoot reports whether path lies below a recursive root.
func (b *FsnotifyBackend) underRecursiveRoot(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, root := range b.roots {
		if abs == root || strings.HasPrefix(abs, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (b *FsnotifyBackend) Start(cb Callback) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-b.done:
				return
			case event, ok := <-b.watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) && b.underRecursiveRoot(event.Name) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := b.addTree(event.Name); err != nil {
							cb(Event{}, fmt.Errorf("error watching new directory %s: %w", event.Name, err))
						}
					}
				}
				cb(Event{Kind: fsnotifyKind(event.Op), Paths: []string{event.Name}}, nil)
			case err, ok := <-b.watcher.Errors:
				if !ok {
					return
				}
				cb(Event{}, fmt.Errorf("watcher error: %w", err))
			}
		}
	}()
}

func (b *FsnotifyBackend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.watcher.Close()
		b.wg.Wait()
	})
	return err
}

// fsnotifyKind maps an fsnotify operation. A rename is reported on the old
// name and treated as a modification of it.
func fsnotifyKind(op fsnotify.Op) EventKind {
	switch {
	case op.Has(fsnotify.Create):
		return Create
	case op.Has(fsnotify.Write):
		return Modify
	case op.Has(fsnotify.Remove):
		return Remove
	case op.Has(fsnotify.Rename):
		return Modify
	default:
		return Other
	}
}
