package watchkit

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

// State is a Node's lifecycle position. Transitions are monotone:
// pending → active → (closed | deleted), and the two end states are
// terminal.
type State int

const (
	// StatePending means the Node exists but no backend is bound yet
	StatePending State = iota
	// StateActive means a backend is bound and events flow
	StateActive
	// StateClosed is the terminal state of a normal or failed close
	StateClosed
	// StateDeleted is the terminal state when the watched path disappeared
	StateDeleted
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// reservedChild marks a children-map slot whose Node is still being
// constructed, so concurrent scans cannot spawn it twice.
var reservedChild = &Node{}

// Node is the per-path watcher: the unit of state, event emission and
// recursion. Obtain one through Watch or WatchFromEnv; the process-wide
// registry guarantees at most one Node per absolute path.
//
// All mutable fields below the marker are guarded by the package state
// lock (stateMu); see registry.go.
type Node struct {
	path string
	em   emitter

	// guarded by stateMu
	opts      Options
	ign       Ignorer
	state     State
	method    Method
	handle    backendHandle
	stat      *Stat
	fp        uint64
	hasFP     bool
	children  map[string]*Node
	childSubs map[string][]func()
	batch     *batch
	visited   *visitedSet
	realPath  string
	gen       int
}

func newNode(path string, opts Options) *Node {
	return &Node{
		path:      path,
		opts:      opts,
		ign:       opts.Ignorer,
		state:     StatePending,
		method:    MethodNone,
		children:  make(map[string]*Node),
		childSubs: make(map[string][]func()),
	}
}

// Path returns the absolute path the Node watches.
func (n *Node) Path() string {
	return n.path
}

// State returns the Node's lifecycle state.
func (n *Node) State() State {
	stateMu.Lock()
	defer stateMu.Unlock()
	return n.state
}

// Method returns the bound backend method, or MethodNone.
func (n *Node) Method() Method {
	stateMu.Lock()
	defer stateMu.Unlock()
	return n.method
}

// LastStat returns the last observed snapshot, nil before activation or
// after deletion.
func (n *Node) LastStat() *Stat {
	stateMu.Lock()
	defer stateMu.Unlock()
	return n.stat
}

// Children returns the sorted names currently tracked in the children map.
// Slots still being spawned are included.
func (n *Node) Children() []string {
	stateMu.Lock()
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	stateMu.Unlock()
	sort.Strings(names)
	return names
}

// Child returns the child Node for a relative name, or nil if the name is
// untracked or still being spawned.
func (n *Node) Child(name string) *Node {
	stateMu.Lock()
	defer stateMu.Unlock()
	c := n.children[name]
	if c == reservedChild {
		return nil
	}
	return c
}

// ============================================================================
// Activation
// ============================================================================

// Watch activates the Node. It is idempotent: on an already-active Node it
// completes immediately. Activation binds a backend through the preferred
// method fallback chain and, for directories, enumerates and spawns child
// watchers. The watching event fires on completion with the returned error.
func (n *Node) Watch() error {
	return n.watch(false)
}

// watch optionally resets an active Node, rebuilding its backend and
// children. Reset is the internal transition taken when the watched path
// was replaced by a different inode.
func (n *Node) watch(reset bool) error {
	stateMu.Lock()
	switch n.state {
	case StateClosed, StateDeleted:
		stateMu.Unlock()
		n.em.watching.emit(ErrClosed)
		return ErrClosed
	case StateActive:
		if !reset {
			stateMu.Unlock()
			n.em.watching.emit(nil)
			return nil
		}
	}
	n.gen++
	gen := n.gen
	handle := n.handle
	n.handle = nil
	n.method = MethodNone
	var stale []func(error)
	if n.batch != nil {
		n.batch.timer.Stop()
		stale = n.batch.completions
		n.batch = nil
	}
	stateMu.Unlock()

	if handle != nil {
		handle.unbind()
	}
	for _, done := range stale {
		done(nil)
	}

	err := n.activate(gen)
	n.em.watching.emit(err)
	return err
}

func (n *Node) activate(gen int) error {
	stateMu.Lock()
	opts := n.opts
	path := n.path
	if opts.FollowLinks && n.visited == nil {
		n.visited = newVisitedSet()
	}
	visited := n.visited
	stateMu.Unlock()

	st, err := takeStat(opts.Filesystem, path, opts.FollowLinks)
	if err != nil {
		if os.IsNotExist(err) {
			err = fmt.Errorf("%w: %s", ErrNotExist, path)
		} else {
			err = &PathError{Op: "stat", Path: path, Err: err}
		}
		n.em.errs.emit(err)
		n.closeWith(ReasonFailure, true)
		return err
	}

	var realPath string
	if visited != nil {
		if rp, rerr := opts.Filesystem.RealPath(path); rerr == nil {
			realPath = rp
			visited.add(rp)
		}
	}

	handle, method, err := bindFirst(path, &opts, n.notifyFor(gen))
	if err != nil {
		n.logf(slog.LevelWarn, "backend binding failed", err)
		n.em.errs.emit(err)
		n.closeWith(ReasonFailure, true)
		return err
	}

	var fp uint64
	var hasFP bool
	if opts.ContentFingerprint && st.Kind == KindFile {
		if v, ferr := fingerprintFile(opts.Filesystem, path); ferr == nil {
			fp, hasFP = v, true
		}
	}

	stateMu.Lock()
	if n.state == StateClosed || n.state == StateDeleted {
		stateMu.Unlock()
		handle.unbind()
		return ErrClosed
	}
	if n.gen != gen {
		// A newer activation owns the Node; it binds its own backend.
		stateMu.Unlock()
		handle.unbind()
		return nil
	}
	n.handle = handle
	n.method = method
	n.stat = st
	n.fp, n.hasFP = fp, hasFP
	if realPath != "" {
		n.realPath = realPath
	}
	n.state = StateActive
	isDir := st.Kind == KindDir
	stateMu.Unlock()

	n.logf(slog.LevelDebug, "watching via "+string(method), nil)

	if isDir {
		if err := n.reconcileDir(gen, method, true); err != nil {
			if !n.currentGen(gen) {
				return err
			}
			reason := ReasonFailure
			if errors.Is(err, ErrChildFailure) {
				reason = ReasonChildFailure
			}
			n.em.errs.emit(err)
			n.closeWith(reason, true)
			return err
		}
	}
	return nil
}

// currentGen reports whether the Node is still active in the generation a
// continuation was started for. Batch continuations consult it before any
// destructive step so a reset or close in flight wins.
func (n *Node) currentGen(gen int) bool {
	stateMu.Lock()
	defer stateMu.Unlock()
	return n.state == StateActive && n.gen == gen
}

// notifyFor is the raw-notification entry handed to backends. The captured
// generation invalidates notifications from a backend the Node has since
// replaced.
func (n *Node) notifyFor(gen int) func(rawEvent) {
	return func(rawEvent) {
		n.enqueue(gen, nil)
	}
}

// ============================================================================
// Close
// ============================================================================

// Close tears the Node down: cancels any pending batch, recursively closes
// children, releases the backend and emits the close event. When reason is
// ReasonDeleted a delete change event is emitted immediately before close.
// Closing a Node that is not active is a no-op.
func (n *Node) Close(reason CloseReason) {
	n.closeWith(reason, false)
}

// closeWith also allows internal failure paths to close a pending Node
// (the activation-failure transition of the state machine).
func (n *Node) closeWith(reason CloseReason, allowPending bool) {
	stateMu.Lock()
	switch n.state {
	case StateClosed, StateDeleted:
		stateMu.Unlock()
		return
	case StatePending:
		if !allowPending {
			stateMu.Unlock()
			return
		}
	}
	n.gen++
	var stale []func(error)
	if n.batch != nil {
		n.batch.timer.Stop()
		stale = n.batch.completions
		n.batch = nil
	}
	handle := n.handle
	n.handle = nil
	n.method = MethodNone
	prev := n.stat
	if reason == ReasonDeleted {
		n.state = StateDeleted
		n.stat = nil
	} else {
		n.state = StateClosed
	}
	children := n.children
	n.children = make(map[string]*Node)
	subs := n.childSubs
	n.childSubs = make(map[string][]func())
	visited := n.visited
	realPath := n.realPath
	stateMu.Unlock()

	// Children close first so their delete events still bubble through the
	// attached subscriptions.
	childReason := reason
	if childReason == ReasonChildFailure {
		childReason = ReasonNormal
	}
	for _, c := range children {
		if c == nil || c == reservedChild {
			continue
		}
		c.closeWith(childReason, true)
	}
	for _, list := range subs {
		for _, unsub := range list {
			unsub()
		}
	}

	if handle != nil {
		handle.unbind()
	}
	if visited != nil && realPath != "" {
		visited.remove(realPath)
	}
	for _, done := range stale {
		done(ErrClosed)
	}

	if reason == ReasonDeleted && prev != nil {
		n.em.change.emit(ChangeEvent{Kind: Delete, Path: n.path, Previous: prev})
	}
	n.em.closed.emit(reason)
}
