package session

import (
	"github.com/signalsfoundry/video-mindmap/core"
	"github.com/signalsfoundry/video-mindmap/model"
)

// NodeView is the render-ready state of one topic node.
type NodeView struct {
	Index    int       `json:"index"`
	Topic    string    `json:"topic"`
	Badge    string    `json:"badge"`
	Start    float64   `json:"start"`
	End      float64   `json:"end"`
	Position core.Vec2 `json:"position"`
	Expanded bool      `json:"expanded"`
	Active   bool      `json:"active"`
}

// ChildView is one derived child of an expanded node.
type ChildView struct {
	Parent   int       `json:"parent"`
	Kind     string    `json:"kind"`
	Title    string    `json:"title"`
	Lines    []string  `json:"lines"`
	Image    string    `json:"image,omitempty"`
	Position core.Vec2 `json:"position"`
}

// ViewportView is the viewport transform.
type ViewportView struct {
	Pan    core.Vec2 `json:"pan"`
	Scale  float64   `json:"scale"`
	Origin core.Vec2 `json:"origin"`
}

// Snapshot is a consistent, caller-owned copy of a session's state.
type Snapshot struct {
	ID              string       `json:"id"`
	DocumentID      string       `json:"document_id"`
	RootTopic       string       `json:"root_topic"`
	Center          core.Vec2    `json:"center"`
	Surface         core.Vec2    `json:"surface"`
	MinSurface      core.Vec2    `json:"min_surface"`
	Viewport        ViewportView `json:"viewport"`
	Mode            string       `json:"mode"`
	Active          int          `json:"active"`
	CurrentTime     float64      `json:"current_time"`
	Subtitle        string       `json:"subtitle,omitempty"`
	ImagesCollapsed bool         `json:"images_collapsed"`
	Nodes           []NodeView   `json:"nodes"`
	Children        []ChildView  `json:"children"`
}

// Snapshot copies the current state under the session lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.unlock()

	activeIdx := s.resolver.Active()
	band := core.Band(len(s.positions))

	snap := Snapshot{
		ID:         s.id,
		DocumentID: s.docID,
		RootTopic:  s.doc.RootTopic,
		Center:     core.CanvasCenter,
		Surface:    band.Surface,
		MinSurface: band.MinSurface,
		Viewport: ViewportView{
			Pan:    s.viewport.Pan,
			Scale:  s.viewport.Scale,
			Origin: s.viewport.Origin,
		},
		Mode:            s.machine.Mode().String(),
		Active:          activeIdx,
		CurrentTime:     s.currentTime,
		ImagesCollapsed: s.imagesCollapsed,
		Nodes:           make([]NodeView, 0, len(s.positions)),
	}
	if chunk, ok := s.doc.TranscriptAt(s.currentTime); ok {
		snap.Subtitle = chunk.Text
	}

	for i, pos := range s.positions {
		node := s.doc.Nodes[i]
		snap.Nodes = append(snap.Nodes, NodeView{
			Index:    i,
			Topic:    node.Topic,
			Badge:    model.FormatTimestamp(node.Timestamp.Start()),
			Start:    node.Timestamp.Start(),
			End:      node.Timestamp.End(),
			Position: pos,
			Expanded: s.expansions.Expanded(i),
			Active:   i == activeIdx,
		})
	}

	entries := s.expansions.Entries()
	snap.Children = make([]ChildView, 0, len(entries)*len(model.ChildKinds))
	for _, e := range entries {
		for _, c := range e.Children {
			view := ChildView{
				Parent:   e.Parent,
				Kind:     c.Kind.String(),
				Title:    c.Title,
				Lines:    c.Lines,
				Position: c.Position,
			}
			if !s.imagesCollapsed {
				view.Image = c.Image
			}
			snap.Children = append(snap.Children, view)
		}
	}
	return snap
}

// NodePositions returns a copy of the position arena.
func (s *Session) NodePositions() []core.Vec2 {
	s.mu.Lock()
	defer s.unlock()
	return append([]core.Vec2(nil), s.positions...)
}
