package interaction

import (
	"github.com/signalsfoundry/video-mindmap/core"
	"github.com/signalsfoundry/video-mindmap/model"
)

// Mode is the interaction state. Exactly one is active at a time.
type Mode int

const (
	Idle Mode = iota
	PanningView
	DraggingNode
	DraggingChild
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case PanningView:
		return "panning"
	case DraggingNode:
		return "dragging_node"
	case DraggingChild:
		return "dragging_child"
	default:
		return "unknown"
	}
}

// DefaultDeadZone is how far, in screen pixels, the pointer must travel
// before a press on a node becomes a drag.
const DefaultDeadZone = 4.0

// Scene is the mutable state the machine reads and writes. The session
// implements it over its own arena while holding its lock.
type Scene interface {
	Viewport() *core.Viewport
	NodePosition(i int) (core.Vec2, bool)
	SetNodePosition(i int, p core.Vec2)
	ChildPosition(parent int, kind model.ChildKind) (core.Vec2, bool)
	SetChildPosition(parent int, kind model.ChildKind, p core.Vec2)
}

// Machine is the pointer state machine. It is not safe for concurrent use.
type Machine struct {
	mode   Mode
	target Target

	// anchor is pointer − Pan for panning; grab is pointer − screen(pos)
	// for drags.
	anchor core.Vec2
	grab   core.Vec2
	press  core.Vec2
	moved  bool

	deadZone     float64
	onTransition func(from, to Mode)
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithDeadZone overrides DefaultDeadZone. Negative values are ignored.
func WithDeadZone(px float64) MachineOption {
	return func(m *Machine) {
		if px >= 0 {
			m.deadZone = px
		}
	}
}

// WithTransitionHook registers fn for every mode change.
func WithTransitionHook(fn func(from, to Mode)) MachineOption {
	return func(m *Machine) { m.onTransition = fn }
}

func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{deadZone: DefaultDeadZone}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) Mode() Mode { return m.mode }

// Target returns what the current gesture started on.
func (m *Machine) Target() Target { return m.target }

// Holds reports whether the current gesture is dragging parent or one of
// its children.
func (m *Machine) Holds(parent int) bool {
	switch m.mode {
	case DraggingNode, DraggingChild:
		return m.target.Node == parent
	default:
		return false
	}
}

// Dragged reports whether the current gesture has left the dead zone.
func (m *Machine) Dragged() bool { return m.moved }

func (m *Machine) setMode(to Mode) {
	from := m.mode
	m.mode = to
	if from != to && m.onTransition != nil {
		m.onTransition(from, to)
	}
}

// Down starts a gesture on target. A press while a gesture is active is
// ignored. Targets whose position cannot be resolved fall back to panning.
func (m *Machine) Down(scene Scene, pointer core.Vec2, target Target) {
	if m.mode != Idle {
		return
	}
	vp := scene.Viewport()
	m.press = pointer
	m.moved = false

	switch target.Kind {
	case TargetNode:
		if pos, ok := scene.NodePosition(target.Node); ok {
			m.target = target
			m.grab = pointer.Sub(vp.WorldToScreen(pos))
			m.setMode(DraggingNode)
			return
		}
	case TargetChild:
		if pos, ok := scene.ChildPosition(target.Node, target.Child); ok {
			m.target = target
			m.grab = pointer.Sub(vp.WorldToScreen(pos))
			m.setMode(DraggingChild)
			return
		}
	}

	m.target = Background
	m.anchor = pointer.Sub(vp.Pan)
	m.setMode(PanningView)
}

// Move updates the active gesture and reports whether anything moved.
// Pan follows the raw pointer; drags are converted through the scale.
func (m *Machine) Move(scene Scene, pointer core.Vec2) bool {
	if m.mode == Idle {
		return false
	}
	vp := scene.Viewport()

	if m.mode == PanningView {
		m.moved = m.moved || pointer.DistanceTo(m.press) > m.deadZone
		vp.Pan = pointer.Sub(m.anchor)
		return true
	}

	if !m.moved {
		if pointer.DistanceTo(m.press) <= m.deadZone {
			return false
		}
		m.moved = true
	}

	world := pointer.Sub(vp.Origin).Sub(vp.Pan).Sub(m.grab).Div(vp.Scale)
	switch m.mode {
	case DraggingNode:
		scene.SetNodePosition(m.target.Node, world)
	case DraggingChild:
		scene.SetChildPosition(m.target.Node, m.target.Child, world)
	}
	return true
}

// Up ends the gesture. A press on a topic node that never left the dead
// zone is returned as a click.
func (m *Machine) Up() (Target, bool) {
	if m.mode == Idle {
		return Target{}, false
	}
	clicked := m.mode == DraggingNode && !m.moved
	target := m.target
	m.reset()
	return target, clicked
}

// Leave abandons the gesture without a click.
func (m *Machine) Leave() {
	if m.mode == Idle {
		return
	}
	m.reset()
}

func (m *Machine) reset() {
	m.target = Background
	m.moved = false
	m.setMode(Idle)
}
