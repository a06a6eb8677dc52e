package watchkit

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// visitedSet tracks canonical paths already watched in a tree, preventing
// symlink cycles from spawning watchers forever.
type visitedSet struct {
	mu sync.Mutex
	m  map[string]struct{}
}

func newVisitedSet() *visitedSet {
	return &visitedSet{m: make(map[string]struct{})}
}

// add records a path, reporting false if it was already present.
func (v *visitedSet) add(path string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.m[path]; ok {
		return false
	}
	v.m[path] = struct{}{}
	return true
}

func (v *visitedSet) remove(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.m, path)
}

// ============================================================================
// Recursion Controller
// ============================================================================

// reconcileDir synchronises the children map with the directory's current
// contents. Both modes close children whose names are gone and spawn new
// ones. During activation (initial=true) spawns emit no create events; during
// a batch pass they do and, on the event backend, a re-check is forwarded to
// every surviving child. New names are reserved in
// the children map before anything else can observe their absence, so a
// concurrent pass cannot spawn them twice.
func (n *Node) reconcileDir(gen int, method Method, initial bool) error {
	stateMu.Lock()
	if n.state != StateActive || n.gen != gen {
		stateMu.Unlock()
		return ErrClosed
	}
	opts := n.opts
	path := n.path
	ign := n.ign
	stateMu.Unlock()

	fresh, err := listDir(opts.Filesystem, path, ign)
	if err != nil {
		perr := &PathError{Op: "readdir", Path: path, Err: err}
		n.logf(slog.LevelWarn, "directory scan failed", perr)
		if !initial && n.currentGen(gen) {
			n.em.errs.emit(perr)
			n.closeWith(ReasonFailure, true)
		}
		return perr
	}

	freshByName := make(map[string]DirEntry, len(fresh))
	for _, e := range fresh {
		freshByName[e.Name] = e
	}

	stateMu.Lock()
	if n.state != StateActive || n.gen != gen {
		stateMu.Unlock()
		return ErrClosed
	}
	var gone []string
	var surviving []*Node
	for name, c := range n.children {
		if _, ok := freshByName[name]; !ok {
			gone = append(gone, name)
		} else if c != reservedChild {
			surviving = append(surviving, c)
		}
	}
	var added []DirEntry
	for name, e := range freshByName {
		if _, ok := n.children[name]; !ok {
			n.children[name] = reservedChild
			added = append(added, e)
		}
	}
	stateMu.Unlock()

	// The three scans below fan out; the batch resolves only after every
	// arm completes.
	var wg sync.WaitGroup

	for _, name := range gone {
		n.closeChild(name, ReasonDeleted)
	}

	if !initial && method == MethodEvent {
		for _, c := range surviving {
			wg.Add(1)
			c.recheck(func(error) { wg.Done() })
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(8)
	for _, e := range added {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return n.spawnChild(gen, e, !initial)
		})
	}
	spawnErr := g.Wait()
	wg.Wait()

	if spawnErr != nil {
		if !initial && n.currentGen(gen) {
			n.logf(slog.LevelWarn, "child spawn failed", spawnErr)
			n.em.errs.emit(spawnErr)
			n.closeWith(ReasonChildFailure, true)
		}
		return spawnErr
	}
	return nil
}

// spawnChild builds and activates the watcher for one directory entry whose
// slot the caller already reserved. On success the child is wired into the
// tree: its change events bubble onto this Node and its close clears the
// children-map entry.
func (n *Node) spawnChild(gen int, entry DirEntry, emitCreate bool) error {
	stateMu.Lock()
	if n.state != StateActive || n.gen != gen {
		if n.children[entry.Name] == reservedChild {
			delete(n.children, entry.Name)
		}
		stateMu.Unlock()
		return ErrClosed
	}
	opts := n.opts.childOptions()
	visited := n.visited
	stateMu.Unlock()

	var realPath string
	if visited != nil {
		rp, err := opts.Filesystem.RealPath(entry.Path)
		if err == nil {
			if !visited.add(rp) {
				n.logf(slog.LevelDebug, "skipping symlink cycle at "+entry.Name, nil)
				n.clearReservation(entry.Name)
				return nil
			}
			realPath = rp
		}
	}

	child := getOrCreate(entry.Path, opts)

	stateMu.Lock()
	if n.state != StateActive || n.gen != gen || n.children[entry.Name] != reservedChild {
		// The spawn was cancelled while we were constructing the child.
		stateMu.Unlock()
		if visited != nil && realPath != "" {
			visited.remove(realPath)
		}
		return nil
	}
	n.children[entry.Name] = child
	child.visited = visited
	if realPath != "" {
		child.realPath = realPath
	}
	stateMu.Unlock()

	name := entry.Name
	unsubChange := child.OnChange(func(ev ChangeEvent) {
		n.em.change.emit(ev)
		if ev.Kind == Delete && ev.Path == child.path {
			// Ensure cleanup even if the child's own close subscription
			// loses the race.
			n.closeChild(name, ReasonDeleted)
		}
	})
	unsubClose := child.OnClose(func(CloseReason) {
		n.removeChild(name, child)
	})
	stateMu.Lock()
	n.childSubs[name] = append(n.childSubs[name], unsubChange, unsubClose)
	stateMu.Unlock()

	if err := child.Watch(); err != nil {
		if IsNotExist(err) {
			// The entry vanished before its watcher came up; the child
			// closed itself and the close subscription cleared the slot.
			n.logf(slog.LevelDebug, "child vanished during spawn: "+name, nil)
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrChildFailure, entry.Path, err)
	}

	if emitCreate {
		n.em.change.emit(ChangeEvent{Kind: Create, Path: child.path, Current: child.LastStat()})
	}
	return nil
}

// closeChild closes the named child with the given reason. A reserved slot
// means the child is still being constructed; the reservation is dropped
// explicitly and the in-flight spawn notices and backs out.
func (n *Node) closeChild(name string, reason CloseReason) {
	stateMu.Lock()
	c := n.children[name]
	if c == reservedChild {
		delete(n.children, name)
		stateMu.Unlock()
		return
	}
	if c == nil {
		stateMu.Unlock()
		return
	}
	stateMu.Unlock()

	// The children-map entry is cleared by the close subscription.
	c.closeWith(reason, true)
}

// removeChild clears the tree wiring for a child that closed.
func (n *Node) removeChild(name string, child *Node) {
	stateMu.Lock()
	var subs []func()
	if n.children[name] == child {
		delete(n.children, name)
	}
	subs = n.childSubs[name]
	delete(n.childSubs, name)
	stateMu.Unlock()

	for _, unsub := range subs {
		unsub()
	}
}

func (n *Node) clearReservation(name string) {
	stateMu.Lock()
	if n.children[name] == reservedChild {
		delete(n.children, name)
	}
	stateMu.Unlock()
}
