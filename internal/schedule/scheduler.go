package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/video-mindmap/timectrl"
)

// EventScheduler runs callbacks once the clock reaches their due time. It is
// the timer backbone of the active-node debounce: a tick cancels the pending
// recompute and schedules a new one.
type EventScheduler interface {
	// Schedule registers f to run at 'at' and returns an ID for Cancel.
	Schedule(at time.Time, f func()) (id string)

	// Cancel drops a pending event. Unknown or already-run IDs are ignored.
	Cancel(id string)

	// Now returns the scheduler's clock time.
	Now() time.Time

	// RunDue executes every event due at or before Now(), earliest first.
	// Already-run events never run again.
	RunDue()

	// Pending reports how many events are waiting.
	Pending() int
}

type scheduledEvent struct {
	id        string
	when      time.Time
	f         func()
	cancelled bool
}

type eventScheduler struct {
	clock timectrl.Clock

	mu      sync.Mutex
	counter uint64
	events  []*scheduledEvent // earliest first
	index   map[string]*scheduledEvent
}

// NewEventScheduler returns a scheduler reading time from clock.
func NewEventScheduler(clock timectrl.Clock) EventScheduler {
	if clock == nil {
		clock = timectrl.WallClock{}
	}
	return &eventScheduler{
		clock: clock,
		index: make(map[string]*scheduledEvent),
	}
}

func (s *eventScheduler) Schedule(at time.Time, f func()) (id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	id = fmt.Sprintf("ev-%d", s.counter)

	ev := &scheduledEvent{id: id, when: at, f: f}

	// Events with the same due time keep insertion order.
	idx := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].when.After(at)
	})
	s.events = append(s.events, nil)
	copy(s.events[idx+1:], s.events[idx:])
	s.events[idx] = ev

	s.index[id] = ev
	return id
}

func (s *eventScheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.index[id]
	if !ok {
		return
	}
	ev.cancelled = true
	delete(s.index, id)
	// Removal from s.events is lazy; RunDue skips cancelled entries.
}

func (s *eventScheduler) Now() time.Time {
	return s.clock.Now()
}

func (s *eventScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// popDueLocked removes and returns the earliest due event, or nil.
// Caller must hold s.mu.
func (s *eventScheduler) popDueLocked(now time.Time) *scheduledEvent {
	for len(s.events) > 0 {
		ev := s.events[0]
		if ev.cancelled {
			s.events = s.events[1:]
			continue
		}
		if ev.when.After(now) {
			return nil
		}
		s.events = s.events[1:]
		delete(s.index, ev.id)
		return ev
	}
	return nil
}

func (s *eventScheduler) RunDue() {
	for {
		s.mu.Lock()
		ev := s.popDueLocked(s.clock.Now())
		s.mu.Unlock()

		if ev == nil {
			return
		}
		// Callbacks run outside the lock so they may Schedule or Cancel.
		if ev.f != nil {
			ev.f()
		}
	}
}

// Pump calls RunDue every interval until ctx is done. It blocks; run it in
// its own goroutine.
func Pump(ctx context.Context, sched EventScheduler, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sched.RunDue()
		}
	}
}
