package watch

import "errors"

var (
	// ErrNoWatchTargets is returned when setup registered no directory.
	ErrNoWatchTargets = errors.New("no paths are being watched")

	// ErrQueueClosed is returned by a closed Queue.
	ErrQueueClosed = errors.New("event queue closed")
)
