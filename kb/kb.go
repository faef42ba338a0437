package kb

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/video-mindmap/model"
)

var (
	// ErrDocumentExists indicates a document ID is already taken.
	ErrDocumentExists = errors.New("document already exists")
	// ErrDocumentNotFound indicates a requested document was not stored.
	ErrDocumentNotFound = errors.New("document not found")
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventDocumentAdded EventType = iota
	EventDocumentRemoved
)

func (t EventType) String() string {
	switch t {
	case EventDocumentAdded:
		return "added"
	case EventDocumentRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers when a document is added or removed.
type Event struct {
	Type      EventType
	ID        string
	RootTopic string
	Nodes     int
}

// Entry is a stored document plus its ID.
type Entry struct {
	ID       string
	Document *model.Document
}

// KnowledgeBase is an in-memory, thread-safe store of validated mind map
// documents keyed by ID. Stored documents are treated as read-only.
type KnowledgeBase struct {
	mu sync.RWMutex

	docs    map[string]*model.Document
	counter uint64

	subs   map[int]func(Event)
	nextID int
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		docs: make(map[string]*model.Document),
		subs: make(map[int]func(Event)),
	}
}

// Add stores doc under id. An empty id is replaced by a generated one,
// which is returned.
func (kb *KnowledgeBase) Add(id string, doc *model.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("%w: nil document", model.ErrInvalidDocument)
	}

	kb.mu.Lock()
	if id == "" {
		for {
			kb.counter++
			id = fmt.Sprintf("doc-%d", kb.counter)
			if _, taken := kb.docs[id]; !taken {
				break
			}
		}
	}
	if _, exists := kb.docs[id]; exists {
		kb.mu.Unlock()
		return "", fmt.Errorf("%w: %q", ErrDocumentExists, id)
	}
	kb.docs[id] = doc
	event := Event{Type: EventDocumentAdded, ID: id, RootTopic: doc.RootTopic, Nodes: len(doc.Nodes)}
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	// Notify subscribers outside the lock.
	for _, sub := range subs {
		sub(event)
	}
	return id, nil
}

// Get returns the document stored under id.
func (kb *KnowledgeBase) Get(id string) (*model.Document, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	doc, ok := kb.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDocumentNotFound, id)
	}
	return doc, nil
}

// Remove deletes the document stored under id.
func (kb *KnowledgeBase) Remove(id string) error {
	kb.mu.Lock()
	doc, ok := kb.docs[id]
	if !ok {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDocumentNotFound, id)
	}
	delete(kb.docs, id)
	event := Event{Type: EventDocumentRemoved, ID: id, RootTopic: doc.RootTopic, Nodes: len(doc.Nodes)}
	subs := kb.subscribersLocked()
	kb.mu.Unlock()

	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// List returns every stored document ordered by ID.
func (kb *KnowledgeBase) List() []Entry {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]Entry, 0, len(kb.docs))
	for id, doc := range kb.docs {
		res = append(res, Entry{ID: id, Document: doc})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Len returns the number of stored documents.
func (kb *KnowledgeBase) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.docs)
}

// Subscribe registers a callback for KB events. It returns an unsubscribe
// function that is safe to call more than once.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	kb.nextID++
	key := kb.nextID
	kb.subs[key] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, key)
	}
}

func (kb *KnowledgeBase) subscribersLocked() []func(Event) {
	keys := make([]int, 0, len(kb.subs))
	for k := range kb.subs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	subs := make([]func(Event), 0, len(keys))
	for _, k := range keys {
		subs = append(subs, kb.subs[k])
	}
	return subs
}
