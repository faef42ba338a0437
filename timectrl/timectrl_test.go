package timectrl

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestManualClockAdvance(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualClock(start)

	c.Advance(42 * time.Second)
	if got, want := c.Now(), start.Add(42*time.Second); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
}

func TestManualClockAfterFiresOnAdvance(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualClock(start)

	ch := c.After(200 * time.Millisecond)
	c.Advance(199 * time.Millisecond)
	select {
	case <-ch:
		t.Fatalf("After fired before its deadline")
	default:
	}

	c.Advance(time.Millisecond)
	select {
	case got := <-ch:
		if want := start.Add(200 * time.Millisecond); !got.Equal(want) {
			t.Fatalf("After delivered %v, want %v", got, want)
		}
	default:
		t.Fatalf("After did not fire at its deadline")
	}

	select {
	case <-c.After(0):
	default:
		t.Fatalf("After(0) should fire immediately")
	}
}

func TestPlaybackStepAndSeek(t *testing.T) {
	pc := NewPlaybackController(500*time.Millisecond, Accelerated, 2)

	var mu sync.Mutex
	var seen []float64
	pc.AddListener(func(s float64) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	pc.Step()
	pc.Step()
	if got := pc.Position(); got != 1 {
		t.Fatalf("Position() after two steps = %v, want 1", got)
	}

	pc.Seek(-5)
	if got := pc.Position(); got != 0 {
		t.Fatalf("Seek(-5) position = %v, want 0", got)
	}
	pc.Seek(10)
	if got := pc.Position(); got != 2 {
		t.Fatalf("Seek(10) position = %v, want clamp to 2", got)
	}
	if pc.Step() {
		t.Fatalf("Step() at end of media should report false")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []float64{0.5, 1, 0, 2}
	if len(seen) != len(want) {
		t.Fatalf("listener saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("listener saw %v, want %v", seen, want)
		}
	}
}

func TestPlaybackRate(t *testing.T) {
	pc := NewPlaybackController(time.Second, Accelerated, 0)
	pc.SetRate(2)
	pc.SetRate(-1)
	if pc.Rate() != 2 {
		t.Fatalf("Rate() = %v, want 2", pc.Rate())
	}
	pc.Step()
	if got := pc.Position(); got != 2 {
		t.Fatalf("Position() = %v, want 2", got)
	}
}

func TestPlaybackStartRunsToEnd(t *testing.T) {
	pc := NewPlaybackController(250*time.Millisecond, Accelerated, 3)

	done := pc.Start(context.Background())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("accelerated playback did not finish")
	}

	if got := pc.Position(); got != 3 {
		t.Fatalf("Position() = %v, want 3", got)
	}
}

func TestPlaybackStartStopsOnCancel(t *testing.T) {
	pc := NewPlaybackController(5*time.Millisecond, RealTime, 0)
	ctx, cancel := context.WithCancel(context.Background())

	done := pc.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("playback did not stop after cancel")
	}
	if pc.Position() <= 0 {
		t.Fatalf("Position() = %v, want > 0 after running", pc.Position())
	}
}
