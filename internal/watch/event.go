// Package watch turns filesystem notifications into command runs.
//
// A Backend delivers events on its own goroutine. The callback built by
// Enqueue splits them per path onto an unbounded Queue, and a single
// Dispatcher goroutine drains the queue in arrival order, filtering each path
// through the policy and the debounce registry before running the command.
package watch

import (
	"fmt"

	"github.com/TFMV/flash/internal/config"
	"go.uber.org/zap"
)

// EventKind classifies a filesystem event.
type EventKind int

const (
	Other EventKind = iota
	Create
	Modify
	Remove
)

func (k EventKind) String() string {
	switch k {
	case Create:
		return "create"
	case Modify:
		return "modify"
	case Remove:
		return "remove"
	default:
		return "other"
	}
}

// Event is one notification from a backend. It may name several paths.
type Event struct {
	Kind  EventKind
	Paths []string
}

// RawEvent is a single-path event waiting in the queue.
type RawEvent struct {
	Kind EventKind
	Path string
}

// Callback receives backend events or errors. It is invoked from the
// backend's goroutine.
type Callback func(Event, error)

// Backend is a filesystem notification source.
type Backend interface {
	// Add registers a directory. With recursive set, its whole subtree is
	// watched.
	Add(path string, recursive bool) error

	// Start begins delivering events to cb. It returns immediately.
	Start(cb Callback)

	// Close stops delivery and releases the watches.
	Close() error
}

// NewBackend creates the backend with the given name.
func NewBackend(name string, logger *zap.Logger) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch name {
	case config.BackendFsnotify:
		return NewFsnotifyBackend(logger)
	case config.BackendNotify:
		return NewNotifyBackend(logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, name)
	}
}
