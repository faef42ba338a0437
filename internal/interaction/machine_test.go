package interaction

import (
	"testing"

	"github.com/signalsfoundry/video-mindmap/core"
	"github.com/signalsfoundry/video-mindmap/internal/expansion"
	"github.com/signalsfoundry/video-mindmap/model"
)

// fakeScene is a minimal Scene over plain slices.
type fakeScene struct {
	vp       core.Viewport
	nodes    []core.Vec2
	children *expansion.Set
}

func newFakeScene(nodes ...core.Vec2) *fakeScene {
	vp := core.NewViewport(core.DefaultViewportOptions())
	vp.SetScale(0.5)
	vp.Pan = core.Vec2{X: -100, Y: -50}
	vp.Origin = core.Vec2{X: 20, Y: 10}
	return &fakeScene{vp: vp, nodes: nodes, children: expansion.NewSet()}
}

func (s *fakeScene) Viewport() *core.Viewport { return &s.vp }

func (s *fakeScene) NodePosition(i int) (core.Vec2, bool) {
	if i < 0 || i >= len(s.nodes) {
		return core.Vec2{}, false
	}
	return s.nodes[i], true
}

func (s *fakeScene) SetNodePosition(i int, p core.Vec2) { s.nodes[i] = p }

func (s *fakeScene) ChildPosition(parent int, kind model.ChildKind) (core.Vec2, bool) {
	return s.children.ChildPosition(parent, kind)
}

func (s *fakeScene) SetChildPosition(parent int, kind model.ChildKind, p core.Vec2) {
	s.children.MoveChild(parent, kind, p)
}

func TestPanMovesViewportOnly(t *testing.T) {
	scene := newFakeScene(core.Vec2{X: 1000, Y: 1000})
	m := NewMachine()

	m.Down(scene, core.Vec2{X: 300, Y: 300}, Background)
	if m.Mode() != PanningView {
		t.Fatalf("mode after background down = %v, want panning", m.Mode())
	}
	m.Move(scene, core.Vec2{X: 340, Y: 290})

	if want := (core.Vec2{X: -60, Y: -60}); scene.vp.Pan != want {
		t.Fatalf("pan = %v, want %v (raw pointer delta)", scene.vp.Pan, want)
	}
	if scene.nodes[0] != (core.Vec2{X: 1000, Y: 1000}) {
		t.Fatalf("panning moved node to %v", scene.nodes[0])
	}

	if _, clicked := m.Up(); clicked {
		t.Fatalf("pan reported a click")
	}
	if m.Mode() != Idle {
		t.Fatalf("mode after up = %v, want idle", m.Mode())
	}
}

func TestDragMovesNodeOnly(t *testing.T) {
	scene := newFakeScene(core.Vec2{X: 1000, Y: 1000}, core.Vec2{X: 0, Y: 0})
	m := NewMachine()
	pan := scene.vp.Pan

	press := scene.vp.WorldToScreen(scene.nodes[0]).Add(core.Vec2{X: 5, Y: 5})
	m.Down(scene, press, Target{Kind: TargetNode, Node: 0})
	if m.Mode() != DraggingNode || !m.Holds(0) || m.Holds(1) {
		t.Fatalf("mode = %v holds(0)=%v", m.Mode(), m.Holds(0))
	}

	// Inside the dead zone: nothing moves.
	if m.Move(scene, press.Add(core.Vec2{X: 2, Y: 2})) {
		t.Fatalf("move inside dead zone reported movement")
	}
	if scene.nodes[0] != (core.Vec2{X: 1000, Y: 1000}) {
		t.Fatalf("node moved inside dead zone: %v", scene.nodes[0])
	}

	// 50 screen px at scale 0.5 is 100 world units.
	m.Move(scene, press.Add(core.Vec2{X: 50, Y: 0}))
	if want := (core.Vec2{X: 1100, Y: 1000}); !scene.nodes[0].ApproxEqual(want, 1e-9) {
		t.Fatalf("node 0 = %v, want %v", scene.nodes[0], want)
	}
	if scene.vp.Pan != pan {
		t.Fatalf("dragging changed pan to %v", scene.vp.Pan)
	}
	if scene.nodes[1] != (core.Vec2{}) {
		t.Fatalf("dragging node 0 moved node 1")
	}

	if _, clicked := m.Up(); clicked {
		t.Fatalf("drag reported a click")
	}
}

func TestPressWithoutDragIsClick(t *testing.T) {
	scene := newFakeScene(core.Vec2{X: 0, Y: 0})
	m := NewMachine()

	m.Down(scene, core.Vec2{X: 5, Y: 5}, Target{Kind: TargetNode, Node: 0})
	m.Move(scene, core.Vec2{X: 7, Y: 6})
	target, clicked := m.Up()
	if !clicked || target.Kind != TargetNode || target.Node != 0 {
		t.Fatalf("Up() = %v, %v; want click on node 0", target, clicked)
	}

	m.Down(scene, core.Vec2{X: 5, Y: 5}, Target{Kind: TargetNode, Node: 0})
	m.Leave()
	if m.Mode() != Idle {
		t.Fatalf("Leave did not return to idle")
	}
	if _, clicked := m.Up(); clicked {
		t.Fatalf("Up after Leave reported a click")
	}
}

func TestDragChild(t *testing.T) {
	scene := newFakeScene(core.Vec2{X: 2000, Y: 100})
	scene.children.Toggle(0, scene.nodes[0], model.TopicNode{}, core.CanvasCenter)
	before, _ := scene.children.Get(0)
	m := NewMachine(WithDeadZone(0))

	emoji := before.Children[model.ChildEmoji].Position
	press := scene.vp.WorldToScreen(emoji)
	m.Down(scene, press, Target{Kind: TargetChild, Node: 0, Child: model.ChildEmoji})
	if m.Mode() != DraggingChild {
		t.Fatalf("mode = %v, want dragging_child", m.Mode())
	}
	m.Move(scene, press.Add(core.Vec2{X: 10, Y: -10}))

	got, _ := scene.children.ChildPosition(0, model.ChildEmoji)
	if want := emoji.Add(core.Vec2{X: 20, Y: -20}); !got.ApproxEqual(want, 1e-9) {
		t.Fatalf("emoji child = %v, want %v", got, want)
	}
	if scene.nodes[0] != (core.Vec2{X: 2000, Y: 100}) {
		t.Fatalf("dragging child moved parent")
	}
	if _, clicked := m.Up(); clicked {
		t.Fatalf("child press reported a click")
	}
}

func TestDownOnMissingTargetFallsBackToPan(t *testing.T) {
	scene := newFakeScene()
	m := NewMachine()
	m.Down(scene, core.Vec2{}, Target{Kind: TargetNode, Node: 9})
	if m.Mode() != PanningView {
		t.Fatalf("mode = %v, want panning", m.Mode())
	}
}

func TestMoveWhileIdleIsNoop(t *testing.T) {
	scene := newFakeScene(core.Vec2{X: 1, Y: 1})
	m := NewMachine()
	pan := scene.vp.Pan
	if m.Move(scene, core.Vec2{X: 500, Y: 500}) {
		t.Fatalf("idle move reported movement")
	}
	if scene.vp.Pan != pan || scene.nodes[0] != (core.Vec2{X: 1, Y: 1}) {
		t.Fatalf("idle move mutated state")
	}
}

func TestTransitionHook(t *testing.T) {
	var seen []string
	m := NewMachine(WithTransitionHook(func(from, to Mode) {
		seen = append(seen, from.String()+">"+to.String())
	}))
	scene := newFakeScene(core.Vec2{})

	m.Down(scene, core.Vec2{}, Background)
	m.Down(scene, core.Vec2{}, Target{Kind: TargetNode, Node: 0})
	m.Up()

	want := []string{"idle>panning", "panning>idle"}
	if len(seen) != len(want) || seen[0] != want[0] || seen[1] != want[1] {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
}

func TestHitTestZOrder(t *testing.T) {
	fp := DefaultFootprints()
	nodes := []core.Vec2{{X: 0, Y: 0}, {X: 100, Y: 0}}

	set := expansion.NewSet()
	set.Toggle(0, core.Vec2{X: 2000, Y: 700}, model.TopicNode{}, core.CanvasCenter)
	entries := set.Entries()
	emoji := entries[0].Children[model.ChildEmoji].Position

	tests := []struct {
		name  string
		world core.Vec2
		want  Target
	}{
		{name: "overlap picks last node", world: core.Vec2{X: 50, Y: 0}, want: Target{Kind: TargetNode, Node: 1}},
		{name: "only first node", world: core.Vec2{X: -300, Y: 0}, want: Target{Kind: TargetNode, Node: 0}},
		{name: "edge inclusive", world: core.Vec2{X: 420, Y: 200}, want: Target{Kind: TargetNode, Node: 1}},
		{name: "background", world: core.Vec2{X: 5000, Y: 5000}, want: Background},
		{name: "child", world: emoji, want: Target{Kind: TargetChild, Node: 0, Child: model.ChildEmoji}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HitTest(tc.world, nodes, entries, fp); got != tc.want {
				t.Fatalf("HitTest(%v) = %v, want %v", tc.world, got, tc.want)
			}
		})
	}

	// A child placed on top of a node wins over the node.
	childOverNode := []core.Vec2{emoji}
	if got := HitTest(emoji, childOverNode, entries, fp); got.Kind != TargetChild {
		t.Fatalf("HitTest over child and node = %v, want child", got)
	}
}
