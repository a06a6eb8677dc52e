package watchkit

import (
	"context"
	"os"
	"runtime"
	"sync/atomic"
	"time"
)

// pollHandle is a poll-method binding: one goroutine stat-polling a single
// path at the configured interval.
type pollHandle struct {
	cancel  context.CancelFunc
	stopped atomic.Bool
}

// bindPoll is the poll-method binder. The initial snapshot is taken at bind
// time so the first tick compares against the state the Node activated with.
func bindPoll(path string, o *Options, notify func(rawEvent)) (backendHandle, error) {
	last, err := takeStat(o.Filesystem, path, o.FollowLinks)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &pollHandle{cancel: cancel}

	// Safety net if a handle is garbage collected without unbind; Nodes
	// always unbind on close, so this should never fire in practice.
	runtime.SetFinalizer(h, func(h *pollHandle) {
		if !h.stopped.Load() {
			h.unbind()
		}
	})

	go poll(ctx, path, o, last, notify)
	return h, nil
}

func poll(ctx context.Context, path string, o *Options, last *Stat, notify func(rawEvent)) {
	ticker := time.NewTicker(o.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur, err := takeStat(o.Filesystem, path, o.FollowLinks)
			if err != nil {
				cur = nil
			}
			if Changed(last, cur) {
				last = cur
				notify(rawEvent{Op: "poll", Name: path})
			}
		}
	}
}

func (h *pollHandle) unbind() {
	if h.stopped.Swap(true) {
		return
	}
	h.cancel()
}
