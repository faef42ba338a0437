// Package expansion tracks which topic nodes are expanded and where their
// derived children sit. It is not safe for concurrent use; the session owns
// it behind its lock.
package expansion

import (
	"sort"
	"strings"

	"github.com/signalsfoundry/video-mindmap/core"
	"github.com/signalsfoundry/video-mindmap/model"
)

const (
	TitleSummary   = "Summary and Key Frame"
	TitleKeyphrase = "Keywords"
	TitleEmoji     = "Related Emojis"
)

// Child is one derived node of an expanded parent.
type Child struct {
	Kind     model.ChildKind
	Title    string
	Lines    []string
	Image    string // base64, summary child only
	Position core.Vec2
}

// Entry is the expansion of one parent. Children are indexed by ChildKind.
type Entry struct {
	Parent   int
	Children [3]Child
}

// Child returns the child of kind k.
func (e *Entry) Child(k model.ChildKind) (Child, bool) {
	if !k.Valid() {
		return Child{}, false
	}
	return e.Children[k], true
}

func (e Entry) clone() Entry {
	for i := range e.Children {
		e.Children[i].Lines = append([]string(nil), e.Children[i].Lines...)
	}
	return e
}

// NewEntry derives the three children of node from the parent's position.
func NewEntry(parent int, position core.Vec2, node model.TopicNode, center core.Vec2) Entry {
	pos := core.LayoutChildren(position, center)
	return Entry{
		Parent: parent,
		Children: [3]Child{
			model.ChildSummary: {
				Kind:     model.ChildSummary,
				Title:    TitleSummary,
				Lines:    append([]string(nil), node.Summary...),
				Image:    node.BestImage,
				Position: pos.Summary,
			},
			model.ChildKeyphrase: {
				Kind:     model.ChildKeyphrase,
				Title:    TitleKeyphrase,
				Lines:    []string{strings.Join(node.Keywords, ", ")},
				Position: pos.Keyphrase,
			},
			model.ChildEmoji: {
				Kind:     model.ChildEmoji,
				Title:    TitleEmoji,
				Lines:    []string{node.Emojis},
				Position: pos.Emoji,
			},
		},
	}
}

// Set maps parent index to its expansion; at most one entry per parent.
type Set struct {
	entries map[int]*Entry
}

func NewSet() *Set {
	return &Set{entries: make(map[int]*Entry)}
}

// Toggle removes the parent's entry if present, otherwise creates it from
// the parent's current position. It reports whether the parent is expanded
// afterwards.
func (s *Set) Toggle(parent int, position core.Vec2, node model.TopicNode, center core.Vec2) bool {
	if _, ok := s.entries[parent]; ok {
		delete(s.entries, parent)
		return false
	}
	e := NewEntry(parent, position, node, center)
	s.entries[parent] = &e
	return true
}

// Expanded reports whether parent has an entry.
func (s *Set) Expanded(parent int) bool {
	_, ok := s.entries[parent]
	return ok
}

// Get returns a copy of the parent's entry.
func (s *Set) Get(parent int) (Entry, bool) {
	e, ok := s.entries[parent]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Entries returns copies of every entry in ascending parent order.
func (s *Set) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Parent < out[j].Parent })
	return out
}

// ChildPosition returns the position of one child.
func (s *Set) ChildPosition(parent int, kind model.ChildKind) (core.Vec2, bool) {
	e, ok := s.entries[parent]
	if !ok || !kind.Valid() {
		return core.Vec2{}, false
	}
	return e.Children[kind].Position, true
}

// MoveChild sets a child's position. Other children and the parent are
// untouched.
func (s *Set) MoveChild(parent int, kind model.ChildKind, pos core.Vec2) bool {
	e, ok := s.entries[parent]
	if !ok || !kind.Valid() {
		return false
	}
	e.Children[kind].Position = pos
	return true
}

// ResetAll removes every entry.
func (s *Set) ResetAll() {
	clear(s.entries)
}

func (s *Set) Len() int {
	return len(s.entries)
}
