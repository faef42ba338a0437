package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/video-mindmap/core"
	"github.com/signalsfoundry/video-mindmap/internal/schedule"
	"github.com/signalsfoundry/video-mindmap/model"
	"github.com/signalsfoundry/video-mindmap/timectrl"
)

func testDocument(n int) *model.Document {
	doc := &model.Document{RootTopic: "Forest Tales"}
	for i := 0; i < n; i++ {
		start := float64(i * 10)
		doc.Nodes = append(doc.Nodes, model.TopicNode{
			Timestamp: model.Window{start, start + 10},
			Topic:     fmt.Sprintf("Topic %d", i),
			Summary:   []string{fmt.Sprintf("summary %d", i)},
			Keywords:  []string{"a", "b"},
			Emojis:    "🌲",
			BestImage: "aW1n",
		})
		doc.Transcription = append(doc.Transcription, model.TranscriptionChunk{
			Timestamp: model.Window{start, start + 10},
			Text:      fmt.Sprintf("line %d", i),
		})
	}
	return doc
}

type harness struct {
	s     *Session
	clock *timectrl.ManualClock
	sched schedule.EventScheduler
}

func newHarness(t *testing.T, n int, opts ...Option) *harness {
	t.Helper()
	clock := timectrl.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	sched := schedule.NewEventScheduler(clock)
	s, err := New("s-test", "doc-test", testDocument(n), sched, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{s: s, clock: clock, sched: sched}
}

// settle advances past the debounce window and runs due events.
func (h *harness) settle() {
	h.clock.Advance(time.Second)
	h.sched.RunDue()
}

// screenOf converts a world point using the session's current viewport.
func screenOf(s *Session, w core.Vec2) core.Vec2 {
	vp := s.Snapshot().Viewport
	return w.Scale(vp.Scale).Add(vp.Pan).Add(vp.Origin)
}

type fakeMetrics struct {
	mu          sync.Mutex
	transitions []string
	resolved    int
	changed     int
	expansions  int
	sessions    int
	nodes       int
}

func (m *fakeMetrics) TransitionObserved(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, from+">"+to)
}

func (m *fakeMetrics) ActiveResolved(changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved++
	if changed {
		m.changed++
	}
}

func (m *fakeMetrics) ExpansionsChanged(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expansions += delta
}

func (m *fakeMetrics) SessionsChanged(sessions, nodes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions, m.nodes = sessions, nodes
}
