package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/signalsfoundry/video-mindmap/timectrl"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestEventScheduler_SingleEvent(t *testing.T) {
	clock := timectrl.NewManualClock(epoch)
	sched := NewEventScheduler(clock)

	var counter int
	id := sched.Schedule(epoch.Add(200*time.Millisecond), func() { counter++ })
	if id == "" {
		t.Fatalf("Schedule returned empty ID")
	}

	sched.RunDue()
	if counter != 0 {
		t.Fatalf("expected counter=0 before time advance, got %d", counter)
	}

	clock.Advance(200 * time.Millisecond)
	sched.RunDue()
	sched.RunDue()
	if counter != 1 {
		t.Fatalf("expected event to run exactly once, got %d", counter)
	}
	if sched.Pending() != 0 {
		t.Fatalf("Pending() = %d after run, want 0", sched.Pending())
	}
}

func TestEventScheduler_OrderAndTies(t *testing.T) {
	clock := timectrl.NewManualClock(epoch)
	sched := NewEventScheduler(clock)

	var order []string
	t1 := epoch.Add(10 * time.Millisecond)
	t2 := epoch.Add(20 * time.Millisecond)

	sched.Schedule(t2, func() { order = append(order, "late") })
	sched.Schedule(t1, func() { order = append(order, "first") })
	sched.Schedule(t1, func() { order = append(order, "second") })

	clock.Set(t2)
	sched.RunDue()

	want := []string{"first", "second", "late"}
	if len(order) != len(want) {
		t.Fatalf("execution order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("execution order = %v, want %v", order, want)
		}
	}
}

func TestEventScheduler_Cancellation(t *testing.T) {
	clock := timectrl.NewManualClock(epoch)
	sched := NewEventScheduler(clock)

	var counter int
	id := sched.Schedule(epoch.Add(time.Second), func() { counter++ })
	sched.Cancel(id)
	sched.Cancel(id)
	sched.Cancel("unknown")

	clock.Advance(time.Second)
	sched.RunDue()
	if counter != 0 {
		t.Fatalf("cancelled event ran, counter=%d", counter)
	}
}

func TestEventScheduler_Reentrancy(t *testing.T) {
	clock := timectrl.NewManualClock(epoch)
	sched := NewEventScheduler(clock)

	var counter int
	sched.Schedule(epoch, func() {
		counter++
		// Due immediately, so the same RunDue pass picks it up.
		sched.Schedule(epoch, func() { counter++ })
		sched.Schedule(epoch.Add(time.Minute), func() { counter++ })
	})

	sched.RunDue()
	if counter != 2 {
		t.Fatalf("counter = %d, want 2", counter)
	}
	if sched.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", sched.Pending())
	}
}

func TestPumpRunsDueEvents(t *testing.T) {
	sched := NewEventScheduler(timectrl.WallClock{})

	var fired atomic.Int32
	sched.Schedule(time.Now(), func() { fired.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Pump(ctx, sched, time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if fired.Load() != 1 {
		t.Fatalf("Pump fired %d events, want 1", fired.Load())
	}
}
