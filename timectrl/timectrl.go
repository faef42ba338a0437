package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock is the time source the scheduler and debounce logic depend on.
// Production code uses WallClock; tests and scripted replays use ManualClock.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// After returns a channel that receives the current time once d has
	// elapsed on this clock.
	After(d time.Duration) <-chan time.Time
}

// WallClock reads the system clock.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

func (WallClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// ManualClock only moves when told to. Channels returned by After fire as
// soon as Advance or Set moves the clock past their deadline.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []manualWaiter
}

type manualWaiter struct {
	deadline time.Time
	ch       chan time.Time
}

// NewManualClock returns a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	deadline := c.now.Add(d)
	if !deadline.After(c.now) {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, manualWaiter{deadline: deadline, ch: ch})
	return ch
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	c.Set(target)
}

// Set moves the clock to t, firing every waiter whose deadline has passed.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(t) {
			w.ch <- t
			continue
		}
		remaining = append(remaining, w)
	}
	c.waiters = remaining
}

// Mode describes how the PlaybackController advances playback time.
type Mode int

const (
	// RealTime advances once per wall-clock Tick.
	RealTime Mode = iota
	// Accelerated advances by Tick as fast as the loop can run.
	Accelerated
)

// PlaybackListener receives the playback position in seconds.
type PlaybackListener func(seconds float64)

// PlaybackController stands in for a video element: it advances a playback
// position in seconds and notifies listeners on every step, the same way a
// player emits time updates.
type PlaybackController struct {
	mu       sync.RWMutex
	Tick     time.Duration
	Mode     Mode
	rate     float64
	position float64
	duration float64

	listeners []PlaybackListener
}

// NewPlaybackController constructs a controller at position 0. duration is
// the media length in seconds; 0 means unbounded.
func NewPlaybackController(tick time.Duration, mode Mode, duration float64) *PlaybackController {
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}
	return &PlaybackController{
		Tick:     tick,
		Mode:     mode,
		rate:     1,
		duration: duration,
	}
}

// Position returns the current playback position in seconds.
func (pc *PlaybackController) Position() float64 {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.position
}

// Rate returns the playback rate multiplier.
func (pc *PlaybackController) Rate() float64 {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.rate
}

// SetRate changes the playback rate; non-positive rates are ignored.
func (pc *PlaybackController) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	pc.mu.Lock()
	pc.rate = rate
	pc.mu.Unlock()
}

// AddListener registers a callback invoked on every step and seek.
func (pc *PlaybackController) AddListener(fn PlaybackListener) {
	pc.mu.Lock()
	pc.listeners = append(pc.listeners, fn)
	pc.mu.Unlock()
}

// Seek jumps to seconds, clamped into [0, duration], and notifies listeners.
func (pc *PlaybackController) Seek(seconds float64) {
	pc.mu.Lock()
	pc.position = pc.clampLocked(seconds)
	pos := pc.position
	listeners := append([]PlaybackListener(nil), pc.listeners...)
	pc.mu.Unlock()

	for _, fn := range listeners {
		fn(pos)
	}
}

// Step advances playback by one Tick scaled by the rate and notifies
// listeners. It reports false once the end of the media has been reached.
func (pc *PlaybackController) Step() bool {
	pc.mu.Lock()
	if pc.duration > 0 && pc.position >= pc.duration {
		pc.mu.Unlock()
		return false
	}
	pc.position = pc.clampLocked(pc.position + pc.Tick.Seconds()*pc.rate)
	pos := pc.position
	listeners := append([]PlaybackListener(nil), pc.listeners...)
	pc.mu.Unlock()

	for _, fn := range listeners {
		fn(pos)
	}
	return true
}

// Start runs playback in a separate goroutine until ctx is done or the media
// ends. It returns a channel that is closed when playback stops.
func (pc *PlaybackController) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		if pc.Mode == Accelerated {
			for ctx.Err() == nil && pc.Step() {
			}
			return
		}

		ticker := time.NewTicker(pc.Tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !pc.Step() {
					return
				}
			}
		}
	}()
	return done
}

func (pc *PlaybackController) clampLocked(seconds float64) float64 {
	if seconds < 0 {
		return 0
	}
	if pc.duration > 0 && seconds > pc.duration {
		return pc.duration
	}
	return seconds
}
