// Package watchkit provides recursive filesystem watching for Go: point it
// at a path and receive a stream of semantic change events (create, update,
// delete) for that path and every descendant, while the internal tree of
// per-path watchers tracks files and directories as they appear, change and
// disappear.
//
// # Watching
//
//	node, err := watchkit.Watch("/srv/data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close(watchkit.ReasonNormal)
//
//	unsub := node.OnChange(func(ev watchkit.ChangeEvent) {
//	    fmt.Println(ev.Kind, ev.Path)
//	})
//	defer unsub()
//
// Repeated Watch calls for the same absolute path return the same Node: a
// process-wide registry deduplicates watchers so two packages watching the
// same directory share one backend binding.
//
// # Backends
//
// Each Node binds one of two notification backends, trying an ordered
// fallback list until one succeeds:
//
//   - event: OS push notifications via github.com/fsnotify/fsnotify. Fast,
//     but raw event kinds and names are treated as hints only.
//   - poll: periodic stat polling. Reliable everywhere, including network
//     shares where event watching is rejected at bind time.
//
// The list order is the fallback order:
//
//	node, err := watchkit.Watch(dir,
//	    watchkit.WithPreferredMethods(watchkit.MethodEvent, watchkit.MethodPoll),
//	    watchkit.WithInterval(2*time.Second),
//	)
//
// # Catch-up pipeline
//
// Raw notifications are unreliable and bursty: a single editor save can fire
// several events across a file and its parent directory in arbitrary order.
// Each Node therefore debounces raw notifications into one reconciliation
// pass per quiescence window (WithCatchupDelay) that re-reads the filesystem
// and emits clean semantic events. Access and change times are excluded from
// comparison, so atime jitter never produces an update.
//
// # Ignoring paths
//
// Filtering composes from literal paths, hidden-file exclusion, a built-in
// set of common noise patterns and custom globs
// (github.com/gobwas/glob syntax):
//
//	node, err := watchkit.Watch(dir,
//	    watchkit.WithIgnoreCommonPatterns(true),
//	    watchkit.WithIgnoreHiddenFiles(true),
//	    watchkit.WithIgnoreCustomPatterns("*.log", "build"),
//	)
//
// Any Ignorer implementation can replace the built-in oracle via
// WithIgnorer.
//
// # Configuration
//
// Defaults can come from BEAVER_WATCHKIT_-prefixed environment variables
// (WithPrefix swaps the BEAVER_ part for another prefix):
//
//	node, err := watchkit.WatchFromEnv("/srv/data")
//
// Explicit options always win over the environment.
//
// # Events
//
// Nodes expose five statically-typed event channels: change, close, log,
// watching and error. Log events carry structured diagnostics and can be
// bridged to a slog.Logger:
//
//	defer node.LogTo(slog.Default())()
package watchkit
