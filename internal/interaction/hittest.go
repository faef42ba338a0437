// Package interaction turns raw pointer events into viewport pans and
// node or child drags.
package interaction

import (
	"fmt"

	"github.com/signalsfoundry/video-mindmap/core"
	"github.com/signalsfoundry/video-mindmap/internal/expansion"
	"github.com/signalsfoundry/video-mindmap/model"
)

// TargetKind identifies what a pointer-down landed on.
type TargetKind int

const (
	TargetBackground TargetKind = iota
	TargetNode
	TargetChild
)

func (k TargetKind) String() string {
	switch k {
	case TargetBackground:
		return "background"
	case TargetNode:
		return "node"
	case TargetChild:
		return "child"
	default:
		return "unknown"
	}
}

// Target is the result of a hit test. Node is the topic index for
// TargetNode and the parent index for TargetChild.
type Target struct {
	Kind  TargetKind
	Node  int
	Child model.ChildKind
}

func (t Target) String() string {
	switch t.Kind {
	case TargetNode:
		return fmt.Sprintf("node %d", t.Node)
	case TargetChild:
		return fmt.Sprintf("child %s of node %d", t.Child, t.Node)
	default:
		return t.Kind.String()
	}
}

// Background is the target used when nothing else was hit.
var Background = Target{Kind: TargetBackground}

// Footprints are the world-space box sizes, centred on the position, used
// for hit testing.
type Footprints struct {
	Node  core.Vec2
	Child core.Vec2
}

// DefaultFootprints returns 640×400 topic boxes and 480×320 child boxes.
func DefaultFootprints() Footprints {
	return Footprints{
		Node:  core.Vec2{X: 640, Y: 400},
		Child: core.Vec2{X: 480, Y: 320},
	}
}

func inBox(p, center, size core.Vec2) bool {
	half := size.Scale(0.5)
	return p.X >= center.X-half.X && p.X <= center.X+half.X &&
		p.Y >= center.Y-half.Y && p.Y <= center.Y+half.Y
}

// HitTest resolves a world point against children first, then topic
// nodes, then the background. Within a layer the item drawn last wins.
func HitTest(world core.Vec2, nodes []core.Vec2, entries []expansion.Entry, fp Footprints) Target {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		for k := len(e.Children) - 1; k >= 0; k-- {
			c := e.Children[k]
			if inBox(world, c.Position, fp.Child) {
				return Target{Kind: TargetChild, Node: e.Parent, Child: c.Kind}
			}
		}
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		if inBox(world, nodes[i], fp.Node) {
			return Target{Kind: TargetNode, Node: i}
		}
	}
	return Background
}
