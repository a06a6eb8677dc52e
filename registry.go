package watchkit

import (
	"path/filepath"
	"sync"
)

// stateMu is the process-wide watcher state lock: the Go rendition of the
// single logical execution context every Node state transition and
// children-map mutation runs on. Listener callbacks are never invoked while
// it is held.
var stateMu sync.Mutex

// registry maps absolute path → Node, giving at most one Node per path
// across every caller in the process. Entries are inserted on construction
// and cleared by a close subscription.
var registry = make(map[string]*Node)

// getOrCreate returns the registered Node for a path, creating and
// inserting one if needed. An existing Node gets its configuration updated;
// the caller re-invokes Watch, which is idempotent.
func getOrCreate(path string, opts Options) *Node {
	stateMu.Lock()
	defer stateMu.Unlock()

	if n, ok := registry[path]; ok {
		n.opts = opts
		n.ign = opts.Ignorer
		return n
	}

	n := newNode(path, opts)
	registry[path] = n
	n.em.closed.subscribe(func(CloseReason) {
		stateMu.Lock()
		defer stateMu.Unlock()
		if registry[path] == n {
			delete(registry, path)
		}
	})
	return n
}

// ResetRegistry closes every registered Node and clears the registry.
// Intended for tests.
func ResetRegistry() {
	stateMu.Lock()
	nodes := make([]*Node, 0, len(registry))
	for _, n := range registry {
		nodes = append(nodes, n)
	}
	stateMu.Unlock()

	for _, n := range nodes {
		n.closeWith(ReasonNormal, true)
	}

	stateMu.Lock()
	registry = make(map[string]*Node)
	stateMu.Unlock()
}

// ============================================================================
// Factory
// ============================================================================

// Watch returns the watcher Node for a path, creating and activating it if
// needed. Repeated calls for the same path return the same Node. The Node
// is returned even when activation fails so callers can inspect it; the
// error mirrors what the watching event delivered.
func Watch(path string, opts ...Option) (*Node, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return watchPath(path, &o)
}

// WatchFromEnv is Watch with defaults loaded from BEAVER_WATCHKIT_*
// environment variables. Explicit options win over the environment.
func WatchFromEnv(path string, opts ...Option) (*Node, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return watchWithConfig(cfg, path, opts...)
}

func watchWithConfig(cfg *Config, path string, opts ...Option) (*Node, error) {
	base, err := cfg.options()
	if err != nil {
		return nil, err
	}
	var o Options
	for _, opt := range base {
		opt(&o)
	}
	for _, opt := range opts {
		opt(&o)
	}
	return watchPath(path, &o)
}

func watchPath(path string, o *Options) (*Node, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	o.setDefaults()
	ig, err := newIgnorer(o)
	if err != nil {
		return nil, err
	}
	o.Ignorer = ig

	n := getOrCreate(abs, *o)
	if err := n.Watch(); err != nil {
		return n, err
	}
	return n, nil
}
