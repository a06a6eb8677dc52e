package watchkit

import (
	"time"
)

// Default configuration values.
const (
	// DefaultInterval is the poll period. The odd number keeps many pollers
	// from ticking in lockstep.
	DefaultInterval = 5007 * time.Millisecond

	// DefaultCatchupDelay is the debounce window between the last raw
	// notification and the reconciliation pass.
	DefaultCatchupDelay = 2000 * time.Millisecond
)

// Option represents a watch configuration option
type Option func(*Options)

// Options contains all per-watch configuration. The zero value is usable;
// setDefaults fills the gaps.
type Options struct {
	// Interval is the stat-poll period for the poll method
	Interval time.Duration

	// Persistent marks the poller as a foreground concern. It is carried
	// for configuration parity; goroutines never keep a Go process alive,
	// so it has no runtime effect here.
	Persistent bool

	// CatchupDelay is the debounce window before reconciliation
	CatchupDelay time.Duration

	// PreferredMethods is the ordered backend fallback list
	PreferredMethods []Method

	// FollowLinks selects stat over lstat when snapshotting
	FollowLinks bool

	// IgnorePaths lists literal paths to exclude
	IgnorePaths []string

	// IgnoreHiddenFiles excludes dot-prefixed names
	IgnoreHiddenFiles bool

	// IgnoreCommonPatterns excludes editor swap files, VCS dirs and OS litter
	IgnoreCommonPatterns bool

	// IgnoreCustomPatterns lists extra glob patterns to exclude
	IgnoreCustomPatterns []string

	// ContentFingerprint enables an xxhash content check for updates that
	// stat comparison alone cannot see (coarse mtime filesystems)
	ContentFingerprint bool

	// Ignorer overrides the ignore oracle built from the Ignore* fields
	Ignorer Ignorer

	// Filesystem overrides filesystem access (tests, embedders)
	Filesystem Filesystem

	// binders overrides the method table (tests)
	binders map[Method]binder

	persistentSet bool
	followSet     bool
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.Interval == 0 {
		o.Interval = DefaultInterval
	}
	if o.CatchupDelay == 0 {
		o.CatchupDelay = DefaultCatchupDelay
	}
	if o.PreferredMethods == nil {
		o.PreferredMethods = []Method{MethodEvent, MethodPoll}
	}
	if !o.persistentSet {
		o.Persistent = true
	}
	if !o.followSet {
		o.FollowLinks = true
	}
	if o.Filesystem == nil {
		o.Filesystem = OSFilesystem()
	}
	if o.binders == nil {
		o.binders = defaultBinders
	}
}

// WithInterval sets the poll period
func WithInterval(d time.Duration) Option {
	return func(o *Options) {
		o.Interval = d
	}
}

// WithPersistent marks or unmarks the poller as a foreground concern
func WithPersistent(persistent bool) Option {
	return func(o *Options) {
		o.Persistent = persistent
		o.persistentSet = true
	}
}

// WithCatchupDelay sets the debounce window before reconciliation
func WithCatchupDelay(d time.Duration) Option {
	return func(o *Options) {
		o.CatchupDelay = d
	}
}

// WithPreferredMethods sets the ordered backend fallback list
func WithPreferredMethods(methods ...Method) Option {
	return func(o *Options) {
		o.PreferredMethods = methods
	}
}

// WithFollowLinks selects whether symlinks are followed when snapshotting
func WithFollowLinks(follow bool) Option {
	return func(o *Options) {
		o.FollowLinks = follow
		o.followSet = true
	}
}

// WithIgnorePaths excludes literal paths from watching
func WithIgnorePaths(paths ...string) Option {
	return func(o *Options) {
		o.IgnorePaths = append(o.IgnorePaths, paths...)
	}
}

// WithIgnoreHiddenFiles excludes dot-prefixed names
func WithIgnoreHiddenFiles(ignore bool) Option {
	return func(o *Options) {
		o.IgnoreHiddenFiles = ignore
	}
}

// WithIgnoreCommonPatterns excludes editor swap files, VCS dirs and OS litter
func WithIgnoreCommonPatterns(ignore bool) Option {
	return func(o *Options) {
		o.IgnoreCommonPatterns = ignore
	}
}

// WithIgnoreCustomPatterns excludes extra glob patterns
// (github.com/gobwas/glob syntax)
func WithIgnoreCustomPatterns(patterns ...string) Option {
	return func(o *Options) {
		o.IgnoreCustomPatterns = append(o.IgnoreCustomPatterns, patterns...)
	}
}

// WithContentFingerprint enables xxhash content verification for files whose
// stat snapshots compare equal
func WithContentFingerprint(enabled bool) Option {
	return func(o *Options) {
		o.ContentFingerprint = enabled
	}
}

// WithIgnorer replaces the ignore oracle entirely
func WithIgnorer(ig Ignorer) Option {
	return func(o *Options) {
		o.Ignorer = ig
	}
}

// WithFilesystem replaces filesystem access
func WithFilesystem(fsys Filesystem) Option {
	return func(o *Options) {
		o.Filesystem = fsys
	}
}

// childOptions derives the configuration a spawned child inherits.
func (o *Options) childOptions() Options {
	child := *o
	// Slices are shared read-only after activation; copy to keep the
	// parent's configuration immutable if a caller mutates the child's.
	child.PreferredMethods = append([]Method(nil), o.PreferredMethods...)
	child.IgnorePaths = append([]string(nil), o.IgnorePaths...)
	child.IgnoreCustomPatterns = append([]string(nil), o.IgnoreCustomPatterns...)
	return child
}
