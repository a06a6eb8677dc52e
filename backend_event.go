package watchkit

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// eventBackend routes notifications from one shared fsnotify.Watcher to the
// per-path subscribers. fsnotify reports events for a directory's children
// under the child's name, so routing consults both the event name and its
// parent directory.
type eventBackend struct {
	mu   sync.Mutex
	w    *fsnotify.Watcher
	subs map[string]func(rawEvent)
}

var sharedEventBackend eventBackend

// bindEvent is the event-method binder.
func bindEvent(path string, o *Options, notify func(rawEvent)) (backendHandle, error) {
	return sharedEventBackend.add(path, notify)
}

func (b *eventBackend) add(path string, notify func(rawEvent)) (backendHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.w == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		b.w = w
		b.subs = make(map[string]func(rawEvent))
		go b.dispatch(w)
	}

	if err := b.w.Add(path); err != nil {
		if len(b.subs) == 0 {
			b.w.Close()
			b.w = nil
			b.subs = nil
		}
		return nil, err
	}
	b.subs[path] = notify
	return &eventHandle{b: b, path: path}, nil
}

// dispatch forwards fsnotify events and errors until the watcher closes.
func (b *eventBackend) dispatch(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			b.route(rawEvent{Op: ev.Op.String(), Name: ev.Name})
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			// A watcher-level error carries no path. Poke every
			// subscriber; reconciliation re-reads the filesystem, so a
			// spurious poke is harmless.
			_ = err
			b.routeAll()
		}
	}
}

// route delivers a raw event to the subscriber for the named path and to
// the subscriber watching its parent directory.
func (b *eventBackend) route(ev rawEvent) {
	name := filepath.Clean(ev.Name)
	parent := filepath.Dir(name)

	b.mu.Lock()
	var targets []func(rawEvent)
	if fn, ok := b.subs[name]; ok {
		targets = append(targets, fn)
	}
	if parent != name {
		if fn, ok := b.subs[parent]; ok {
			targets = append(targets, fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range targets {
		fn(ev)
	}
}

func (b *eventBackend) routeAll() {
	b.mu.Lock()
	targets := make([]func(rawEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		targets = append(targets, fn)
	}
	b.mu.Unlock()

	for _, fn := range targets {
		fn(rawEvent{Op: "error"})
	}
}

// eventHandle is one path's binding on the shared backend.
type eventHandle struct {
	b    *eventBackend
	path string
	once sync.Once
}

func (h *eventHandle) unbind() {
	h.once.Do(func() {
		h.b.mu.Lock()
		defer h.b.mu.Unlock()
		delete(h.b.subs, h.path)
		if h.b.w == nil {
			return
		}
		// Remove fails when the path is already gone; the kernel watch
		// died with the inode.
		_ = h.b.w.Remove(h.path)
		if len(h.b.subs) == 0 {
			h.b.w.Close()
			h.b.w = nil
			h.b.subs = nil
		}
	})
}
