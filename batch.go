package watchkit

import (
	"log/slog"
	"os"
	"time"
)

// batch is the pending reconciliation for one debounce window. A Node owns
// at most one batch and one timer; every raw notification inside the window
// resets the timer, so a burst collapses into a single reconciliation pass.
type batch struct {
	n           *Node
	gen         int
	timer       *time.Timer
	completions []func(error)
}

// enqueue is the listener pipeline entry. Raw backend notifications arrive
// here, and so do forwarded re-checks from a parent directory (with a
// completion to resolve once this Node's pass finishes).
func (n *Node) enqueue(gen int, done func(error)) {
	stateMu.Lock()
	if n.state != StateActive || n.gen != gen {
		stateMu.Unlock()
		if done != nil {
			done(ErrClosed)
		}
		return
	}
	if n.batch != nil {
		if done != nil {
			n.batch.completions = append(n.batch.completions, done)
		}
		n.batch.timer.Reset(n.opts.CatchupDelay)
		stateMu.Unlock()
		return
	}
	b := &batch{n: n, gen: gen}
	if done != nil {
		b.completions = append(b.completions, done)
	}
	// The timer starts while the lock is held so no Reset can observe a
	// published batch without one.
	b.timer = time.AfterFunc(n.opts.CatchupDelay, b.run)
	n.batch = b
	stateMu.Unlock()
}

// recheck forces a reconciliation pass against the Node's current
// generation. Parents use it to propagate unreliable event-backend
// notifications down the tree.
func (n *Node) recheck(done func(error)) {
	stateMu.Lock()
	gen := n.gen
	stateMu.Unlock()
	n.enqueue(gen, done)
}

func (b *batch) run() {
	stateMu.Lock()
	if b.n.batch != b {
		// superseded by close or reset
		stateMu.Unlock()
		return
	}
	b.n.batch = nil
	comps := b.completions
	stateMu.Unlock()

	err := b.n.reconcile(b.gen)
	for _, done := range comps {
		done(err)
	}
}

// reconcile runs the three-phase catch-up pass: existence, change check,
// diff. It executes off the state lock, re-checking for cancellation at
// every continuation boundary.
func (n *Node) reconcile(gen int) error {
	stateMu.Lock()
	if n.state != StateActive || n.gen != gen {
		stateMu.Unlock()
		return ErrClosed
	}
	opts := n.opts
	path := n.path
	prev := n.stat
	method := n.method
	prevFP, prevHasFP := n.fp, n.hasFP
	stateMu.Unlock()

	fsys := opts.Filesystem

	// Phase A: existence
	exists, err := fsys.Exists(path)
	if !n.currentGen(gen) {
		return ErrClosed
	}
	if err != nil {
		perr := &PathError{Op: "exists", Path: path, Err: err}
		n.logf(slog.LevelWarn, "existence check failed", perr)
		n.em.errs.emit(perr)
		n.closeWith(ReasonFailure, true)
		return perr
	}
	if !exists {
		n.closeWith(ReasonDeleted, true)
		return nil
	}

	cur, err := takeStat(fsys, path, opts.FollowLinks)
	if !n.currentGen(gen) {
		return ErrClosed
	}
	if err != nil {
		if os.IsNotExist(err) {
			// raced away between the existence check and the stat
			n.closeWith(ReasonDeleted, true)
			return nil
		}
		perr := &PathError{Op: "stat", Path: path, Err: err}
		n.logf(slog.LevelWarn, "stat refresh failed", perr)
		n.em.errs.emit(perr)
		n.closeWith(ReasonFailure, true)
		return perr
	}

	if replaced(prev, cur) {
		// The path now names a different inode: the original was swapped
		// out (editor save via rename). Report the identity change and
		// rebuild the backend, which re-snapshots and re-spawns children.
		n.em.change.emit(ChangeEvent{Kind: Delete, Path: path, Previous: prev})
		n.em.change.emit(ChangeEvent{Kind: Create, Path: path, Current: cur})
		return n.watch(true)
	}

	// Phase B: change check
	changed := Changed(prev, cur)
	fp, hasFP := prevFP, prevHasFP
	if opts.ContentFingerprint && cur.Kind == KindFile {
		if v, ferr := fingerprintFile(fsys, path); ferr == nil {
			fp, hasFP = v, true
			if !changed && prevHasFP && prevFP != v {
				changed = true
			}
		}
	}
	if !changed {
		return nil
	}

	stateMu.Lock()
	if n.state != StateActive || n.gen != gen {
		stateMu.Unlock()
		return ErrClosed
	}
	n.stat = cur
	n.fp, n.hasFP = fp, hasFP
	stateMu.Unlock()

	// Phase C: diff
	if cur.Kind != KindDir {
		n.em.change.emit(ChangeEvent{Kind: Update, Path: path, Current: cur, Previous: prev})
		return nil
	}
	return n.reconcileDir(gen, method, false)
}
