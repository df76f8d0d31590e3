package watch

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO of raw events. Push never blocks, so a slow
// command run cannot stall the backend goroutine.
type Queue struct {
	mu     sync.Mutex
	items  []RawEvent
	closed bool

	ready chan struct{} // holds a token while items may be available
	done  chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Push appends an event. It fails with ErrQueueClosed after Close.
func (q *Queue) Push(ev RawEvent) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()
	q.signal()
	return nil
}

// Pop removes the oldest event, blocking until one is available. It returns
// ctx.Err() when the context ends and ErrQueueClosed once the queue is
// closed and drained.
func (q *Queue) Pop(ctx context.Context) (RawEvent, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items[0] = RawEvent{}
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()
			if remaining > 0 {
				q.signal()
			}
			return ev, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return RawEvent{}, ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return RawEvent{}, ctx.Err()
		case <-q.ready:
		case <-q.done:
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting events. Queued events can still be popped.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
