package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/video-mindmap/internal/logging"
	"github.com/signalsfoundry/video-mindmap/internal/schedule"
	"github.com/signalsfoundry/video-mindmap/kb"
	"github.com/signalsfoundry/video-mindmap/model"
	"github.com/signalsfoundry/video-mindmap/timectrl"
)

// Registry holds live sessions by ID. Every session shares the registry's
// scheduler, and sessions are opened from documents in the store.
type Registry struct {
	// mu guards sessions. Take it before any Session lock.
	mu       sync.RWMutex
	sessions map[string]*Session
	counter  uint64

	store *kb.KnowledgeBase
	sched schedule.EventScheduler

	defaults []Option
	log      logging.Logger
	metrics  MetricsRecorder

	unsubscribe func()
}

// RegistryOption customises Registry construction.
type RegistryOption func(*Registry)

// WithSessionDefaults sets options applied to every new session before
// per-call options.
func WithSessionDefaults(opts ...Option) RegistryOption {
	return func(r *Registry) { r.defaults = append(r.defaults, opts...) }
}

// WithRegistryMetrics attaches a recorder shared by the registry and its
// sessions.
func WithRegistryMetrics(m MetricsRecorder) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry returns an empty registry. Sessions whose document is
// removed from store are closed.
func NewRegistry(store *kb.KnowledgeBase, sched schedule.EventScheduler, log logging.Logger, opts ...RegistryOption) *Registry {
	if log == nil {
		log = logging.Noop()
	}
	if store == nil {
		store = kb.NewKnowledgeBase()
	}
	if sched == nil {
		sched = schedule.NewEventScheduler(timectrl.WallClock{})
	}
	r := &Registry{
		sessions: make(map[string]*Session),
		store:    store,
		sched:    sched,
		log:      log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.unsubscribe = store.Subscribe(r.onStoreEvent)
	r.updateMetrics()
	return r
}

// Store exposes the document store.
func (r *Registry) Store() *kb.KnowledgeBase { return r.store }

// Scheduler exposes the shared scheduler so callers can pump it.
func (r *Registry) Scheduler() schedule.EventScheduler { return r.sched }

// Load stores doc and opens a session on it.
func (r *Registry) Load(ctx context.Context, doc *model.Document, opts ...Option) (*Session, error) {
	docID, err := r.store.Add("", doc)
	if err != nil {
		return nil, err
	}
	return r.Open(ctx, docID, opts...)
}

// Open creates a session for a stored document.
func (r *Registry) Open(ctx context.Context, docID string, opts ...Option) (*Session, error) {
	doc, err := r.store.Get(docID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.counter++
	id := fmt.Sprintf("session-%d", r.counter)
	r.mu.Unlock()

	all := make([]Option, 0, len(r.defaults)+len(opts)+2)
	all = append(all, WithLogger(r.log), WithMetricsRecorder(r.metrics))
	all = append(all, r.defaults...)
	all = append(all, opts...)

	s, err := New(id, docID, doc, r.sched, all...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	r.updateMetrics()

	r.log.Info(ctx, "session opened",
		logging.String("session_id", id),
		logging.String("document_id", docID),
		logging.Int("nodes", len(doc.Nodes)),
	)
	return s, nil
}

// Get returns the session with id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close stops and forgets the session with id.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}

	s.Close()
	r.updateMetrics()
	r.log.Info(ctx, "session closed", logging.String("session_id", id))
	return nil
}

// IDs returns the live session IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Shutdown closes every session and detaches from the store.
func (r *Registry) Shutdown(ctx context.Context) {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	for _, id := range r.IDs() {
		_ = r.Close(ctx, id)
	}
}

func (r *Registry) onStoreEvent(e kb.Event) {
	if e.Type != kb.EventDocumentRemoved {
		return
	}
	r.mu.RLock()
	var doomed []string
	for id, s := range r.sessions {
		if s.DocumentID() == e.ID {
			doomed = append(doomed, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range doomed {
		_ = r.Close(context.Background(), id)
	}
}

func (r *Registry) updateMetrics() {
	if r.metrics == nil {
		return
	}
	r.mu.RLock()
	sessions := len(r.sessions)
	nodes := 0
	for _, s := range r.sessions {
		nodes += s.NodeCount()
	}
	r.mu.RUnlock()
	r.metrics.SessionsChanged(sessions, nodes)
}
