// Package active maps the video's current time onto the topic node that
// should be highlighted.
package active

import (
	"sync"
	"time"

	"github.com/signalsfoundry/video-mindmap/internal/schedule"
	"github.com/signalsfoundry/video-mindmap/model"
)

// None is the index reported when no node is active.
const None = -1

// DefaultInterval is the debounce quiet period.
const DefaultInterval = 200 * time.Millisecond

// Resolve returns the first node i with start_i <= t that is either the last
// node or whose successor starts after t. A node's own end is ignored: the
// next node's start ends it.
func Resolve(t float64, nodes []model.TopicNode) int {
	for i := range nodes {
		if t < nodes[i].Timestamp.Start() {
			continue
		}
		if i == len(nodes)-1 || nodes[i+1].Timestamp.Start() > t {
			return i
		}
	}
	return None
}

// Dispatch runs a recompute. Owners pass a function that takes their own
// lock so recomputes serialise with every other mutation.
type Dispatch func(run func())

// Resolver debounces time updates: each OnTick cancels the pending
// recompute and schedules a new one Interval later, so only the last time
// before a quiet period is resolved.
type Resolver struct {
	sched    schedule.EventScheduler
	interval time.Duration
	dispatch Dispatch

	mu         sync.Mutex
	nodes      []model.TopicNode
	pendingID  string
	generation uint64
	armed      uint64
	latest     float64
	current    int
	recomputes int
	onChange   func(prev, next int)
	onResolve  func(prev, next int)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithDispatch routes recomputes through fn.
func WithDispatch(fn Dispatch) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.dispatch = fn
		}
	}
}

// WithOnChange registers a callback fired when the active index changes.
// It runs inside the dispatch function.
func WithOnChange(fn func(prev, next int)) Option {
	return func(r *Resolver) { r.onChange = fn }
}

// WithOnResolve registers a callback fired after every recompute, changed
// or not.
func WithOnResolve(fn func(prev, next int)) Option {
	return func(r *Resolver) { r.onResolve = fn }
}

// NewResolver returns a resolver for nodes that schedules on sched.
func NewResolver(sched schedule.EventScheduler, nodes []model.TopicNode, opts ...Option) *Resolver {
	r := &Resolver{
		sched:    sched,
		interval: DefaultInterval,
		dispatch: func(run func()) { run() },
		nodes:    nodes,
		current:  None,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnTick records t and restarts the debounce timer.
func (r *Resolver) OnTick(t float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.latest = t
	if r.pendingID != "" {
		r.sched.Cancel(r.pendingID)
	}
	r.generation++
	gen := r.generation
	r.armed = gen
	r.pendingID = r.sched.Schedule(r.sched.Now().Add(r.interval), func() {
		r.dispatch(func() { r.fire(gen) })
	})
}

func (r *Resolver) fire(gen uint64) {
	r.mu.Lock()
	if r.armed != gen {
		// Superseded between being popped and dispatched.
		r.mu.Unlock()
		return
	}
	r.armed = 0
	r.pendingID = ""
	r.recomputes++
	prev := r.current
	r.current = Resolve(r.latest, r.nodes)
	next := r.current
	onChange, onResolve := r.onChange, r.onResolve
	r.mu.Unlock()

	if onResolve != nil {
		onResolve(prev, next)
	}
	if onChange != nil && prev != next {
		onChange(prev, next)
	}
}

// Flush resolves the latest time immediately, dropping any pending timer.
func (r *Resolver) Flush() int {
	r.mu.Lock()
	if r.pendingID != "" {
		r.sched.Cancel(r.pendingID)
		r.pendingID = ""
	}
	r.generation++
	gen := r.generation
	r.armed = gen
	r.mu.Unlock()

	r.fire(gen)
	return r.Active()
}

// Active returns the last resolved index, or None.
func (r *Resolver) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Pending reports whether a recompute is scheduled.
func (r *Resolver) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.armed != 0
}

// Recomputes counts how many times the active index was resolved.
func (r *Resolver) Recomputes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recomputes
}

// Stop cancels any pending recompute.
func (r *Resolver) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pendingID != "" {
		r.sched.Cancel(r.pendingID)
		r.pendingID = ""
	}
	r.armed = 0
}
