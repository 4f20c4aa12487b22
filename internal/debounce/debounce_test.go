package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTrigger_CoalescesBursts(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	d := New(time.Hour)
	for range 5 {
		d.Trigger(func() { fired.Add(1) })
	}
	d.Flush()
	if got := fired.Load(); got != 1 {
		t.Fatalf("fired %d times, want 1", got)
	}
}

func TestFlush_NoPending(t *testing.T) {
	t.Parallel()

	d := New(time.Millisecond)
	d.Flush() // must not panic with nothing pending
}

func TestStop_DropsPending(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	d := New(10 * time.Millisecond)
	d.Trigger(func() { fired.Add(1) })
	d.Stop()
	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("fired %d times after Stop, want 0", got)
	}
}

func TestTrigger_FiresAfterDelay(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	done := make(chan struct{})
	d := New(5 * time.Millisecond)
	d.Trigger(func() {
		fired.Add(1)
		close(done)
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced callback never fired")
	}
	if got := fired.Load(); got != 1 {
		t.Fatalf("fired %d times, want 1", got)
	}
}
