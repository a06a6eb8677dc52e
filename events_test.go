package watchkit

import (
	"testing"
)

func TestListenerTableOrderAndUnsubscribe(t *testing.T) {
	var tbl listenerTable[int]
	var got []int

	unsub1 := tbl.subscribe(func(v int) { got = append(got, v*1) })
	tbl.subscribe(func(v int) { got = append(got, v*10) })
	tbl.subscribe(func(v int) { got = append(got, v*100) })

	tbl.emit(2)
	if len(got) != 3 || got[0] != 2 || got[1] != 20 || got[2] != 200 {
		t.Fatalf("emit order = %v, want [2 20 200]", got)
	}

	got = nil
	unsub1()
	tbl.emit(3)
	if len(got) != 2 || got[0] != 30 || got[1] != 300 {
		t.Fatalf("emit after unsubscribe = %v, want [30 300]", got)
	}

	// Unsubscribing twice is harmless.
	unsub1()
}

func TestOnceChange(t *testing.T) {
	n := newNode("/x", Options{})
	count := 0
	n.OnceChange(func(ChangeEvent) { count++ })

	n.em.change.emit(ChangeEvent{Kind: Update, Path: "/x"})
	n.em.change.emit(ChangeEvent{Kind: Update, Path: "/x"})

	if count != 1 {
		t.Errorf("once listener ran %d times, want 1", count)
	}
}

func TestListenerMayResubscribeDuringEmit(t *testing.T) {
	var tbl listenerTable[int]
	fired := 0
	tbl.subscribe(func(int) {
		fired++
		// Re-entrant subscription must not deadlock.
		tbl.subscribe(func(int) {})
	})
	tbl.emit(1)
	if fired != 1 {
		t.Errorf("listener ran %d times, want 1", fired)
	}
}

func TestEventKindString(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{Create, "create"},
		{Update, "update"},
		{Delete, "delete"},
		{EventKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StatePending, "pending"},
		{StateActive, "active"},
		{StateClosed, "closed"},
		{StateDeleted, "deleted"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
