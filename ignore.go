package watchkit

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// ============================================================================
// Ignore Oracle
// ============================================================================

// Ignorer decides whether a path is excluded from watching.
// Ignored paths get no watcher Node and emit no events.
type Ignorer interface {
	// Ignored returns true if the path should be excluded.
	Ignored(path string) bool
}

// commonIgnorePatterns covers editor swap files, VCS bookkeeping and OS
// litter. Enabled with the IgnoreCommonPatterns option.
var commonIgnorePatterns = []string{
	"*.swp",
	"*.swx",
	"*.swo",
	"*~",
	"*.tmp",
	"*.temp",
	"4913", // vim writability probe
	".git",
	".svn",
	".hg",
	"CVS",
	"node_modules",
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
}

// globIgnorer is the default Ignorer, built from watch options.
type globIgnorer struct {
	paths  map[string]struct{}
	globs  []glob.Glob
	hidden bool
}

// newIgnorer compiles the ignore configuration into an Ignorer.
// Custom patterns use glob syntax (github.com/gobwas/glob); a pattern that
// fails to compile is a configuration error reported at watch time.
func newIgnorer(o *Options) (Ignorer, error) {
	if o.Ignorer != nil {
		return o.Ignorer, nil
	}

	ig := &globIgnorer{
		paths:  make(map[string]struct{}, len(o.IgnorePaths)),
		hidden: o.IgnoreHiddenFiles,
	}
	for _, p := range o.IgnorePaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore path %q: %w", p, err)
		}
		ig.paths[abs] = struct{}{}
	}

	patterns := o.IgnoreCustomPatterns
	if o.IgnoreCommonPatterns {
		patterns = append(patterns[:len(patterns):len(patterns)], commonIgnorePatterns...)
	}
	for _, p := range patterns {
		g, err := glob.Compile(p, filepath.Separator)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		ig.globs = append(ig.globs, g)
	}
	return ig, nil
}

func (ig *globIgnorer) Ignored(path string) bool {
	if _, ok := ig.paths[path]; ok {
		return true
	}

	base := filepath.Base(path)
	if ig.hidden && strings.HasPrefix(base, ".") && base != "." && base != ".." {
		return true
	}

	for _, g := range ig.globs {
		if g.Match(base) || g.Match(path) {
			return true
		}
	}
	return false
}

// IgnoreNone is an Ignorer that excludes nothing.
type IgnoreNone struct{}

func (IgnoreNone) Ignored(path string) bool { return false }

// IgnoreFunc adapts a plain function to the Ignorer interface.
// This is the escape hatch for filtering logic not covered by the options.
type IgnoreFunc func(path string) bool

func (f IgnoreFunc) Ignored(path string) bool { return f(path) }
