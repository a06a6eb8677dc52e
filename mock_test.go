package watchkit

import (
	"sync"
	"testing"
	"time"
)

// recorder collects change events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (r *recorder) record(ev ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ChangeEvent(nil), r.events...)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// waitFor polls a condition until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// settle gives in-flight timers a moment to fire.
func settle() {
	time.Sleep(150 * time.Millisecond)
}

// nopHandle is a backend handle that owns nothing.
type nopHandle struct{}

func (nopHandle) unbind() {}

// failBinder always rejects the bind.
func failBinder(err error) binder {
	return func(string, *Options, func(rawEvent)) (backendHandle, error) {
		return nil, err
	}
}

// captureBinder hands the Node's notify function to the test so raw
// notifications can be injected directly.
func captureBinder(out chan<- func(rawEvent)) binder {
	return func(path string, o *Options, notify func(rawEvent)) (backendHandle, error) {
		select {
		case out <- notify:
		default:
		}
		return nopHandle{}, nil
	}
}

// withBinders overrides the method table for a test.
func withBinders(m map[Method]binder) Option {
	return func(o *Options) {
		o.binders = m
	}
}

// countingFS counts existence checks per path on top of a real filesystem.
type countingFS struct {
	Filesystem
	mu     sync.Mutex
	exists map[string]int
}

func newCountingFS() *countingFS {
	return &countingFS{Filesystem: OSFilesystem(), exists: make(map[string]int)}
}

func (c *countingFS) Exists(path string) (bool, error) {
	c.mu.Lock()
	c.exists[path]++
	c.mu.Unlock()
	return c.Filesystem.Exists(path)
}

func (c *countingFS) existsCount(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exists[path]
}
