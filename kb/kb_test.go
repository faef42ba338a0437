package kb

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/signalsfoundry/video-mindmap/model"
)

func sampleDoc(topic string, nodes int) *model.Document {
	doc := &model.Document{RootTopic: topic}
	for i := 0; i < nodes; i++ {
		doc.Nodes = append(doc.Nodes, model.TopicNode{
			Timestamp: model.Window{float64(i * 10), float64(i*10 + 10)},
			Topic:     fmt.Sprintf("topic-%d", i),
		})
	}
	return doc
}

func TestAddAndGetDocument(t *testing.T) {
	store := NewKnowledgeBase()
	id, err := store.Add("forest", sampleDoc("Forest", 3))
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if id != "forest" {
		t.Fatalf("Add returned id %q, want forest", id)
	}
	got, err := store.Get("forest")
	if err != nil || got.RootTopic != "Forest" {
		t.Fatalf("Get returned %#v, %v", got, err)
	}
}

func TestAddDuplicateAndMissing(t *testing.T) {
	store := NewKnowledgeBase()
	if _, err := store.Add("d", sampleDoc("A", 1)); err != nil {
		t.Fatalf("first Add error: %v", err)
	}
	if _, err := store.Add("d", sampleDoc("B", 1)); !errors.Is(err, ErrDocumentExists) {
		t.Fatalf("duplicate Add error = %v, want ErrDocumentExists", err)
	}
	if _, err := store.Get("nope"); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("Get missing error = %v, want ErrDocumentNotFound", err)
	}
	if err := store.Remove("nope"); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("Remove missing error = %v, want ErrDocumentNotFound", err)
	}
	if _, err := store.Add("", nil); !errors.Is(err, model.ErrInvalidDocument) {
		t.Fatalf("Add nil error = %v, want ErrInvalidDocument", err)
	}
}

func TestGeneratedIDsAndList(t *testing.T) {
	store := NewKnowledgeBase()
	// Occupy the first generated ID so generation has to skip it.
	if _, err := store.Add("doc-1", sampleDoc("taken", 1)); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	id, err := store.Add("", sampleDoc("generated", 1))
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if id != "doc-2" {
		t.Fatalf("generated id = %q, want doc-2", id)
	}

	list := store.List()
	if len(list) != 2 || list[0].ID != "doc-1" || list[1].ID != "doc-2" {
		t.Fatalf("List() = %+v", list)
	}
	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", store.Len())
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	store := NewKnowledgeBase()

	var events []Event
	unsubscribe := store.Subscribe(func(e Event) { events = append(events, e) })

	if _, err := store.Add("a", sampleDoc("A", 4)); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := store.Remove("a"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	unsubscribe()
	unsubscribe()
	if _, err := store.Add("b", sampleDoc("B", 1)); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].Type != EventDocumentAdded || events[0].Nodes != 4 || events[1].Type != EventDocumentRemoved {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewKnowledgeBase()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := store.Add("", sampleDoc(fmt.Sprintf("t-%d", i), 1))
			if err != nil {
				t.Errorf("Add error: %v", err)
				return
			}
			if _, err := store.Get(id); err != nil {
				t.Errorf("Get(%q) error: %v", id, err)
			}
		}(i)
	}
	wg.Wait()
	if store.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", store.Len())
	}
}
