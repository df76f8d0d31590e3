// Package debounce suppresses repeated dispatches for the same path.
package debounce

import "time"

// Retention bounds how long a path stays in the table. It only limits memory
// and must stay well above any realistic debounce window.
const Retention = 10 * time.Second

// Registry maps a path to the instant it was last dispatched. It is owned by
// the dispatch loop and is not safe for concurrent use.
type Registry struct {
	last      map[string]time.Time
	retention time.Duration
}

// NewRegistry creates an empty registry using the default retention.
func NewRegistry() *Registry {
	return &Registry{
		last:      make(map[string]time.Time),
		retention: Retention,
	}
}

// ShouldDispatch reports whether path may be dispatched at now. A suppressed
// call leaves the recorded instant untouched, so a dense burst cannot push the
// next dispatch further than window past the original event.
func (r *Registry) ShouldDispatch(path string, now time.Time, window time.Duration) bool {
	if last, ok := r.last[path]; ok && now.Sub(last) < window {
		return false
	}
	r.last[path] = now
	r.sweep(now)
	return true
}

// Len returns the number of tracked paths.
func (r *Registry) Len() int {
	return len(r.last)
}

// sweep drops entries older than the retention window.
func (r *Registry) sweep(now time.Time) {
	for path, t := range r.last {
		if now.Sub(t) >= r.retention {
			delete(r.last, path)
		}
	}
}
