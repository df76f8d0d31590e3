package watch

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rjeczalik/notify"
	"go.uber.org/zap"
)

// notifyBuffer sizes the event channel. notify drops events rather than
// block when the channel is full.
const notifyBuffer = 1024

// NotifyBackend watches directories with rjeczalik/notify, which supports
// recursive watches natively through the "/..." suffix.
type NotifyBackend struct {
	events chan notify.EventInfo
	logger *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewNotifyBackend creates a notify backed watcher.
func NewNotifyBackend(logger *zap.Logger) *NotifyBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifyBackend{
		events: make(chan notify.EventInfo, notifyBuffer),
		logger: logger,
		done:   make(chan struct{}),
	}
}

func (b *NotifyBackend) Add(path string, recursive bool) error {
	target := path
	if recursive {
		target = filepath.Join(path, "...")
	}
	if err := notify.Watch(target, b.events, notify.All); err != nil {
		return fmt.Errorf("failed to setup file watcher for %s: %w", path, err)
	}
	b.logger.Debug("registered watch", zap.String("path", target))
	return nil
}

func (b *NotifyBackend) Start(cb Callback) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-b.done:
				return
			case ei := <-b.events:
				cb(Event{Kind: notifyKind(ei.Event()), Paths: []string{ei.Path()}}, nil)
			}
		}
	}()
}

func (b *NotifyBackend) Close() error {
	b.closeOnce.Do(func() {
		notify.Stop(b.events)
		close(b.done)
		b.wg.Wait()
	})
	return nil
}

func notifyKind(ev notify.Event) EventKind {
	switch {
	case ev&notify.Create != 0:
		return Create
	case ev&notify.Write != 0:
		return Modify
	case ev&notify.Remove != 0:
		return Remove
	case ev&notify.Rename != 0:
		return Modify
	default:
		return Other
	}
}
