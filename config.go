package watchkit

import (
	"fmt"
	"strings"
	"time"

	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// Poll period in milliseconds for the poll method
	IntervalMS int64 `env:"WATCHKIT_INTERVAL_MS,default:5007"`

	// Whether the poller is a foreground concern
	Persistent bool `env:"WATCHKIT_PERSISTENT,default:true"`

	// Debounce window in milliseconds before reconciliation
	CatchupDelayMS int64 `env:"WATCHKIT_CATCHUP_DELAY_MS,default:2000"`

	// Ordered backend fallback list (comma-separated: event,poll).
	// Empty means the built-in default of event then poll.
	PreferredMethods string `env:"WATCHKIT_PREFERRED_METHODS"`

	// Whether symlinks are followed when snapshotting
	FollowLinks bool `env:"WATCHKIT_FOLLOW_LINKS,default:true"`

	// Ignore configuration
	IgnorePaths          string `env:"WATCHKIT_IGNORE_PATHS"` // comma-separated
	IgnoreHiddenFiles    bool   `env:"WATCHKIT_IGNORE_HIDDEN_FILES,default:false"`
	IgnoreCommonPatterns bool   `env:"WATCHKIT_IGNORE_COMMON_PATTERNS,default:false"`
	IgnoreCustomPatterns string `env:"WATCHKIT_IGNORE_CUSTOM_PATTERNS"` // comma-separated

	// Content fingerprint verification for equal stat snapshots
	ContentFingerprint bool `env:"WATCHKIT_CONTENT_FINGERPRINT,default:false"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Builder provides config loading with a custom environment prefix
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Watch loads config using the builder's prefix and starts watching path
func (b *Builder) Watch(path string, opts ...Option) (*Node, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return watchWithConfig(cfg, path, opts...)
}

// options converts the environment config into functional options.
// Explicit Option arguments are applied after these, so they win.
func (c *Config) options() ([]Option, error) {
	opts := []Option{
		WithInterval(time.Duration(c.IntervalMS) * time.Millisecond),
		WithPersistent(c.Persistent),
		WithCatchupDelay(time.Duration(c.CatchupDelayMS) * time.Millisecond),
		WithFollowLinks(c.FollowLinks),
		WithIgnoreHiddenFiles(c.IgnoreHiddenFiles),
		WithIgnoreCommonPatterns(c.IgnoreCommonPatterns),
		WithContentFingerprint(c.ContentFingerprint),
	}
	if c.PreferredMethods != "" {
		methods, err := parseMethods(c.PreferredMethods)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithPreferredMethods(methods...))
	}
	if paths := splitList(c.IgnorePaths); len(paths) > 0 {
		opts = append(opts, WithIgnorePaths(paths...))
	}
	if patterns := splitList(c.IgnoreCustomPatterns); len(patterns) > 0 {
		opts = append(opts, WithIgnoreCustomPatterns(patterns...))
	}
	return opts, nil
}

// parseMethods converts a comma-separated method list, validating each name.
func parseMethods(s string) ([]Method, error) {
	var methods []Method
	for _, part := range splitList(s) {
		m := Method(part)
		switch m {
		case MethodEvent, MethodPoll:
			methods = append(methods, m)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, part)
		}
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("%w: empty method list", ErrUnknownMethod)
	}
	return methods, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
