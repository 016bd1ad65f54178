// Package inflight tracks non-idempotent requests that are awaiting a response
// so a second submission to the same endpoint can be refused.
package inflight

import (
	"strings"
	"sync"
)

// Tracker is a set of in-flight request paths. The zero value is not usable;
// create one with New and share it by reference.
type Tracker struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{paths: make(map[string]struct{})}
}

// ExtractURL strips the query string so deduplication works on path identity.
func ExtractURL(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}

// IsRequesting reports whether url's path is in flight.
func (t *Tracker) IsRequesting(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.paths[ExtractURL(url)]
	return ok
}

// Add registers url's path as in flight.
func (t *Tracker) Add(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths[ExtractURL(url)] = struct{}{}
}

// Delete unregisters url's path. Deleting an absent path is a no-op.
func (t *Tracker) Delete(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.paths, ExtractURL(url))
}

// Acquire registers url's path unless it is already in flight. It reports
// whether the caller now owns the registration. When register is false the
// path is only checked, which is how endpoints declared repeatable behave.
func (t *Tracker) Acquire(url string, register bool) bool {
	path := ExtractURL(url)
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.paths[path]; ok {
		return false
	}
	if register {
		t.paths[path] = struct{}{}
	}
	return true
}

// Len returns the number of in-flight paths.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.paths)
}
