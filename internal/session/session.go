// Package session owns every piece of mutable mind map state for one
// loaded document: node positions, viewport, expansions, the pointer
// machine and the active-node resolver. All mutation goes through one lock.
package session

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/signalsfoundry/video-mindmap/core"
	"github.com/signalsfoundry/video-mindmap/internal/active"
	"github.com/signalsfoundry/video-mindmap/internal/expansion"
	"github.com/signalsfoundry/video-mindmap/internal/interaction"
	"github.com/signalsfoundry/video-mindmap/internal/logging"
	"github.com/signalsfoundry/video-mindmap/internal/schedule"
	"github.com/signalsfoundry/video-mindmap/model"
	"github.com/signalsfoundry/video-mindmap/timectrl"
)

// MetricsRecorder receives session-level observations. Implementations
// must be safe for concurrent use.
type MetricsRecorder interface {
	TransitionObserved(from, to string)
	ActiveResolved(changed bool)
	ExpansionsChanged(delta int)
	SessionsChanged(sessions, nodes int)
}

// Session is the single logical owner of one mind map's mutable state.
type Session struct {
	id    string
	docID string
	doc   *model.Document

	mu sync.Mutex

	positions       []core.Vec2
	viewport        core.Viewport
	expansions      *expansion.Set
	machine         *interaction.Machine
	resolver        *active.Resolver
	footprints      interaction.Footprints
	currentTime     float64
	imagesCollapsed bool
	closed          bool

	// pending callbacks run after the lock is released.
	pending []func()

	onNodeActivated func(seconds float64)
	onActiveChange  func(prev, next int)

	log     logging.Logger
	metrics MetricsRecorder
}

type settings struct {
	viewport        core.ViewportOptions
	footprints      interaction.Footprints
	deadZone        float64
	debounce        time.Duration
	onNodeActivated func(seconds float64)
	onActiveChange  func(prev, next int)
	log             logging.Logger
	metrics         MetricsRecorder
}

// Option customises Session construction.
type Option func(*settings)

// WithViewportOptions sets scale bounds and zoom step.
func WithViewportOptions(o core.ViewportOptions) Option {
	return func(s *settings) { s.viewport = o }
}

// WithFootprints sets the hit-test box sizes.
func WithFootprints(fp interaction.Footprints) Option {
	return func(s *settings) { s.footprints = fp }
}

// WithDeadZone sets the click/drag threshold in screen pixels.
func WithDeadZone(px float64) Option {
	return func(s *settings) { s.deadZone = px }
}

// WithDebounce sets the active-node quiet period.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) { s.debounce = d }
}

// WithOnNodeActivated registers the seek callback invoked with a node's
// start time when its time badge is activated.
func WithOnNodeActivated(fn func(seconds float64)) Option {
	return func(s *settings) { s.onNodeActivated = fn }
}

// WithOnActiveChange registers a callback for highlight changes.
func WithOnActiveChange(fn func(prev, next int)) Option {
	return func(s *settings) { s.onActiveChange = fn }
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *settings) { s.metrics = m }
}

// New lays out doc, frames the view for its density band and returns a
// session scheduling its debounce on sched.
// The caller is responsible for pumping sched.
func New(id, docID string, doc *model.Document, sched schedule.EventScheduler, opts ...Option) (*Session, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", model.ErrInvalidDocument)
	}
	cfg := settings{
		viewport:   core.DefaultViewportOptions(),
		footprints: interaction.DefaultFootprints(),
		deadZone:   interaction.DefaultDeadZone,
		debounce:   active.DefaultInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.viewport.Validate(); err != nil {
		return nil, err
	}
	if cfg.log == nil {
		cfg.log = logging.Noop()
	}
	if sched == nil {
		sched = schedule.NewEventScheduler(timectrl.WallClock{})
	}

	s := &Session{
		id:              id,
		docID:           docID,
		doc:             doc,
		positions:       core.LayoutTopLevel(len(doc.Nodes)),
		viewport:        core.NewViewport(cfg.viewport),
		expansions:      expansion.NewSet(),
		footprints:      cfg.footprints,
		onNodeActivated: cfg.onNodeActivated,
		onActiveChange:  cfg.onActiveChange,
		log:             cfg.log.With(logging.String("session_id", id)),
		metrics:         cfg.metrics,
	}
	s.viewport.Reset(len(doc.Nodes))
	s.machine = interaction.NewMachine(
		interaction.WithDeadZone(cfg.deadZone),
		interaction.WithTransitionHook(s.transitionObserved),
	)
	s.resolver = active.NewResolver(sched, doc.Nodes,
		active.WithInterval(cfg.debounce),
		active.WithDispatch(s.dispatch),
		active.WithOnResolve(s.activeResolved),
	)
	return s, nil
}

func (s *Session) ID() string { return s.id }

// DocumentID returns the store ID of the document this session renders.
func (s *Session) DocumentID() string { return s.docID }

// Document returns the read-only document.
func (s *Session) Document() *model.Document { return s.doc }

// NodeCount returns the number of topic nodes.
func (s *Session) NodeCount() int { return len(s.doc.Nodes) }

// unlock releases the lock and then runs queued callbacks.
func (s *Session) unlock() {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func (s *Session) dispatch(run func()) {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return
	}
	run()
}

// activeResolved runs with s.mu held, from dispatch or FlushActive.
func (s *Session) activeResolved(prev, next int) {
	changed := prev != next
	if s.metrics != nil {
		s.metrics.ActiveResolved(changed)
	}
	if !changed {
		return
	}
	s.log.Debug(context.Background(), "active node changed",
		logging.Int("from", prev), logging.Int("to", next), logging.Float64("time", s.currentTime))
	if fn := s.onActiveChange; fn != nil {
		s.pending = append(s.pending, func() { fn(prev, next) })
	}
}

// transitionObserved runs with s.mu held.
func (s *Session) transitionObserved(from, to interaction.Mode) {
	if s.metrics != nil {
		s.metrics.TransitionObserved(from.String(), to.String())
	}
}

// PointerDown hit-tests the screen point and starts a gesture on
// whatever it landed on.
func (s *Session) PointerDown(pointer core.Vec2) interaction.Target {
	s.mu.Lock()
	defer s.unlock()

	if s.machine.Mode() != interaction.Idle {
		return s.machine.Target()
	}
	world := s.viewport.ScreenToWorld(pointer)
	target := interaction.HitTest(world, s.positions, s.expansions.Entries(), s.footprints)
	s.machine.Down(sessionScene{s}, pointer, target)
	return s.machine.Target()
}

// PointerMove advances the current gesture.
func (s *Session) PointerMove(pointer core.Vec2) bool {
	s.mu.Lock()
	defer s.unlock()
	return s.machine.Move(sessionScene{s}, pointer)
}

// PointerUp ends the gesture. A click on a topic node toggles its
// expansion; the returned flag reports whether that happened.
func (s *Session) PointerUp() (toggled bool) {
	s.mu.Lock()
	defer s.unlock()

	target, clicked := s.machine.Up()
	if !clicked {
		return false
	}
	_, applied := s.toggleLocked(target.Node)
	return applied
}

// PointerLeave abandons the gesture without a click.
func (s *Session) PointerLeave() {
	s.mu.Lock()
	defer s.unlock()
	s.machine.Leave()
}

// Tick feeds the player's current time into the debounced resolver.
func (s *Session) Tick(seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTime, seconds)
	}
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return fmt.Errorf("%w: %s", ErrSessionClosed, s.id)
	}
	s.currentTime = seconds
	s.resolver.OnTick(seconds)
	return nil
}

// FlushActive resolves the latest time now instead of waiting for the
// debounce to settle.
func (s *Session) FlushActive() int {
	s.mu.Lock()
	defer s.unlock()
	return s.resolver.Flush()
}

// Active returns the highlighted node index or -1.
func (s *Session) Active() int {
	return s.resolver.Active()
}

// Mode returns the pointer machine's current mode.
func (s *Session) Mode() interaction.Mode {
	s.mu.Lock()
	defer s.unlock()
	return s.machine.Mode()
}

// Toggle expands or collapses node i. Out-of-range indices and nodes the
// pointer is currently dragging are ignored; applied reports whether the
// toggle took effect.
func (s *Session) Toggle(i int) (expanded, applied bool) {
	s.mu.Lock()
	defer s.unlock()
	return s.toggleLocked(i)
}

func (s *Session) toggleLocked(i int) (expanded, applied bool) {
	if i < 0 || i >= len(s.positions) {
		s.log.Debug(context.Background(), "ignoring toggle for unknown node", logging.Int("node", i))
		return false, false
	}
	if s.machine.Holds(i) {
		s.log.Debug(context.Background(), "ignoring toggle during drag", logging.Int("node", i))
		return s.expansions.Expanded(i), false
	}

	expanded = s.expansions.Toggle(i, s.positions[i], s.doc.Nodes[i], core.CanvasCenter)
	if s.metrics != nil {
		if expanded {
			s.metrics.ExpansionsChanged(1)
		} else {
			s.metrics.ExpansionsChanged(-1)
		}
	}
	return expanded, true
}

// ActivateNode reports node i's start time to the seek callback and
// returns it.
func (s *Session) ActivateNode(i int) (float64, error) {
	s.mu.Lock()
	defer s.unlock()

	if i < 0 || i >= len(s.doc.Nodes) {
		return 0, fmt.Errorf("%w: index %d of %d", ErrNodeNotFound, i, len(s.doc.Nodes))
	}
	start := s.doc.Nodes[i].Timestamp.Start()
	if fn := s.onNodeActivated; fn != nil {
		s.pending = append(s.pending, func() { fn(start) })
	}
	return start, nil
}

func (s *Session) ZoomIn() float64 {
	s.mu.Lock()
	defer s.unlock()
	s.viewport.ZoomIn()
	return s.viewport.Scale
}

func (s *Session) ZoomOut() float64 {
	s.mu.Lock()
	defer s.unlock()
	s.viewport.ZoomOut()
	return s.viewport.Scale
}

// SetContainerOrigin records the container's top-left client position.
func (s *Session) SetContainerOrigin(origin core.Vec2) {
	s.mu.Lock()
	defer s.unlock()
	s.viewport.Origin = origin
}

// ResetView applies the density band framing and collapses every node.
func (s *Session) ResetView() {
	s.mu.Lock()
	defer s.unlock()
	s.resetViewLocked()
}

func (s *Session) resetViewLocked() {
	s.viewport.Reset(len(s.positions))
	if n := s.expansions.Len(); n > 0 {
		s.expansions.ResetAll()
		if s.metrics != nil {
			s.metrics.ExpansionsChanged(-n)
		}
	}
}

// Reorganize discards dragged positions, lays the nodes out again and
// resets the view.
func (s *Session) Reorganize() {
	s.mu.Lock()
	defer s.unlock()

	s.machine.Leave()
	s.positions = core.LayoutTopLevel(len(s.doc.Nodes))
	s.resetViewLocked()
	s.log.Info(context.Background(), "mind map reorganized", logging.Int("nodes", len(s.positions)))
}

// ToggleImages flips the global image-collapse flag and returns it.
func (s *Session) ToggleImages() bool {
	s.mu.Lock()
	defer s.unlock()
	s.imagesCollapsed = !s.imagesCollapsed
	return s.imagesCollapsed
}

// Close stops the resolver. Pending debounce events become no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.resolver.Stop()
	s.machine.Leave()
	if n := s.expansions.Len(); n > 0 && s.metrics != nil {
		s.metrics.ExpansionsChanged(-n)
	}
}

// sessionScene adapts a locked Session to interaction.Scene.
type sessionScene struct{ s *Session }

func (sc sessionScene) Viewport() *core.Viewport { return &sc.s.viewport }

func (sc sessionScene) NodePosition(i int) (core.Vec2, bool) {
	if i < 0 || i >= len(sc.s.positions) {
		return core.Vec2{}, false
	}
	return sc.s.positions[i], true
}

func (sc sessionScene) SetNodePosition(i int, p core.Vec2) {
	if i >= 0 && i < len(sc.s.positions) {
		sc.s.positions[i] = p
	}
}

func (sc sessionScene) ChildPosition(parent int, kind model.ChildKind) (core.Vec2, bool) {
	return sc.s.expansions.ChildPosition(parent, kind)
}

func (sc sessionScene) SetChildPosition(parent int, kind model.ChildKind, p core.Vec2) {
	sc.s.expansions.MoveChild(parent, kind, p)
}
