package watchkit

import (
	"os"
	"testing"
	"time"
)

func TestGetConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    Config
	}{
		{
			name:    "default values",
			envVars: map[string]string{},
			want: Config{
				IntervalMS:     5007,
				Persistent:     true,
				CatchupDelayMS: 2000,
				FollowLinks:    true,
			},
		},
		{
			name: "overrides",
			envVars: map[string]string{
				"BEAVER_WATCHKIT_INTERVAL_MS":            "250",
				"BEAVER_WATCHKIT_CATCHUP_DELAY_MS":       "100",
				"BEAVER_WATCHKIT_PREFERRED_METHODS":      "poll",
				"BEAVER_WATCHKIT_FOLLOW_LINKS":           "false",
				"BEAVER_WATCHKIT_IGNORE_HIDDEN_FILES":    "true",
				"BEAVER_WATCHKIT_IGNORE_COMMON_PATTERNS": "true",
				"BEAVER_WATCHKIT_IGNORE_CUSTOM_PATTERNS": "*.log,*.bak",
				"BEAVER_WATCHKIT_CONTENT_FINGERPRINT":    "true",
			},
			want: Config{
				IntervalMS:           250,
				Persistent:           true,
				CatchupDelayMS:       100,
				PreferredMethods:     "poll",
				FollowLinks:          false,
				IgnoreHiddenFiles:    true,
				IgnoreCommonPatterns: true,
				IgnoreCustomPatterns: "*.log,*.bak",
				ContentFingerprint:   true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				k := k
				os.Setenv(k, v)
				t.Cleanup(func() { os.Unsetenv(k) })
			}

			cfg, err := GetConfig()
			if err != nil {
				t.Fatalf("GetConfig() error = %v", err)
			}
			if *cfg != tt.want {
				t.Errorf("GetConfig() = %+v, want %+v", *cfg, tt.want)
			}
		})
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := Config{
		IntervalMS:           250,
		Persistent:           false,
		CatchupDelayMS:       100,
		PreferredMethods:     "poll,event",
		FollowLinks:          false,
		IgnorePaths:          "/a, /b",
		IgnoreCustomPatterns: "*.log",
	}

	opts, err := cfg.options()
	if err != nil {
		t.Fatalf("options() error = %v", err)
	}
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	o.setDefaults()

	if o.Interval != 250*time.Millisecond {
		t.Errorf("Interval = %v, want 250ms", o.Interval)
	}
	if o.CatchupDelay != 100*time.Millisecond {
		t.Errorf("CatchupDelay = %v, want 100ms", o.CatchupDelay)
	}
	if o.Persistent {
		t.Error("Persistent should stay false when set explicitly")
	}
	if o.FollowLinks {
		t.Error("FollowLinks should stay false when set explicitly")
	}
	if len(o.PreferredMethods) != 2 || o.PreferredMethods[0] != MethodPoll || o.PreferredMethods[1] != MethodEvent {
		t.Errorf("PreferredMethods = %v, want [poll event]", o.PreferredMethods)
	}
	if len(o.IgnorePaths) != 2 || o.IgnorePaths[0] != "/a" || o.IgnorePaths[1] != "/b" {
		t.Errorf("IgnorePaths = %v, want [/a /b]", o.IgnorePaths)
	}
	if len(o.IgnoreCustomPatterns) != 1 || o.IgnoreCustomPatterns[0] != "*.log" {
		t.Errorf("IgnoreCustomPatterns = %v, want [*.log]", o.IgnoreCustomPatterns)
	}
}

func TestParseMethods(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []Method
		wantErr bool
	}{
		{name: "both", in: "event,poll", want: []Method{MethodEvent, MethodPoll}},
		{name: "spaces", in: " poll , event ", want: []Method{MethodPoll, MethodEvent}},
		{name: "single", in: "poll", want: []Method{MethodPoll}},
		{name: "unknown", in: "inotify", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMethods(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMethods(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseMethods(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseMethods(%q)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOptionDefaults(t *testing.T) {
	var o Options
	o.setDefaults()

	if o.Interval != DefaultInterval {
		t.Errorf("Interval = %v, want %v", o.Interval, DefaultInterval)
	}
	if o.CatchupDelay != DefaultCatchupDelay {
		t.Errorf("CatchupDelay = %v, want %v", o.CatchupDelay, DefaultCatchupDelay)
	}
	if !o.Persistent {
		t.Error("Persistent should default to true")
	}
	if !o.FollowLinks {
		t.Error("FollowLinks should default to true")
	}
	if len(o.PreferredMethods) != 2 || o.PreferredMethods[0] != MethodEvent || o.PreferredMethods[1] != MethodPoll {
		t.Errorf("PreferredMethods = %v, want [event poll]", o.PreferredMethods)
	}
	if o.Filesystem == nil {
		t.Error("Filesystem should default to the OS filesystem")
	}
}

func TestChildOptionsCopiesSlices(t *testing.T) {
	var o Options
	o.setDefaults()
	o.IgnoreCustomPatterns = []string{"*.log"}

	child := o.childOptions()
	child.PreferredMethods[0] = MethodPoll
	child.IgnoreCustomPatterns[0] = "*.bak"

	if o.PreferredMethods[0] != MethodEvent {
		t.Error("mutating child PreferredMethods leaked into the parent")
	}
	if o.IgnoreCustomPatterns[0] != "*.log" {
		t.Error("mutating child IgnoreCustomPatterns leaked into the parent")
	}
}
