// Package rpc exposes mind map sessions over gRPC. Requests and responses
// are google.protobuf.Struct messages.
package rpc

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/video-mindmap/internal/interaction"
	"github.com/signalsfoundry/video-mindmap/internal/logging"
	"github.com/signalsfoundry/video-mindmap/internal/session"
	"github.com/signalsfoundry/video-mindmap/model"
)

// LayoutObserver receives the wall time spent laying a map out.
type LayoutObserver interface {
	ObserveLayout(d time.Duration)
}

// Service implements MindMapServer over a session registry.
//
// Semantics:
//   - LoadMap stores the document (inline "document", raw "document_json",
//     or an already stored "document_id") and opens a session on it.
//   - Every other call addresses a session by "session_id".
//   - Pointer coordinates are client pixels; the session converts them.
type Service struct {
	registry *session.Registry
	log      logging.Logger
	layout   LayoutObserver
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithLayoutObserver reports layout timings to o.
func WithLayoutObserver(o LayoutObserver) ServiceOption {
	return func(s *Service) { s.layout = o }
}

// NewService constructs a Service bound to registry.
func NewService(registry *session.Registry, log logging.Logger, opts ...ServiceOption) *Service {
	if log == nil {
		log = logging.Noop()
	}
	s := &Service{registry: registry, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ MindMapServer = (*Service)(nil)

func (s *Service) ensureReady() error {
	if s == nil || s.registry == nil {
		return ToStatusError(ErrNotReady)
	}
	return nil
}

func (s *Service) session(in *structpb.Struct) (*session.Session, error) {
	id, err := requireString(in, "session_id")
	if err != nil {
		return nil, err
	}
	return s.registry.Get(id)
}

func (s *Service) observeLayout(start time.Time) {
	if s.layout != nil {
		s.layout.ObserveLayout(time.Since(start))
	}
}

// LoadMap opens a session on a new or stored document.
func (s *Service) LoadMap(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctx, reqLog := requestLogger(ctx, s.log)
	if err := s.ensureReady(); err != nil {
		return nil, err
	}

	docID, err := optionalString(in, "document_id")
	if err != nil {
		return nil, ToStatusError(err)
	}

	var doc *model.Document
	if docID == "" {
		doc, err = documentFromRequest(in)
		if err != nil {
			reqLog.Debug(ctx, "LoadMap validation failed", logging.String("reason", err.Error()))
			return nil, ToStatusError(err)
		}
	}

	ctx, span := StartChildSpan(ctx, "session/open", "")
	defer span.End()

	start := time.Now()
	var sess *session.Session
	if doc != nil {
		sess, err = s.registry.Load(ctx, doc)
	} else {
		sess, err = s.registry.Open(ctx, docID)
	}
	if err != nil {
		reqLog.Warn(ctx, "LoadMap failed", logging.Err(err))
		return nil, ToStatusError(err)
	}
	s.observeLayout(start)
	ctx = logging.ContextWithSessionID(ctx, sess.ID())
	span.SetAttributes(
		attribute.String("session_id", sess.ID()),
		attribute.Int("nodes", sess.NodeCount()),
	)

	snap, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"session_id":  structpb.NewStringValue(sess.ID()),
		"document_id": structpb.NewStringValue(sess.DocumentID()),
		"snapshot":    structpb.NewStructValue(snap),
	}}, nil
}

func documentFromRequest(in *structpb.Struct) (*model.Document, error) {
	fields := fieldsOf(in)
	if v, ok := fields["document"]; ok {
		st := v.GetStructValue()
		if st == nil {
			return nil, fmt.Errorf("%w: %q must be an object", ErrInvalidRequest, "document")
		}
		data, err := protojson.Marshal(st)
		if err != nil {
			return nil, fmt.Errorf("%w: encode document: %v", ErrInvalidRequest, err)
		}
		return model.Parse(data)
	}
	raw, err := optionalString(in, "document_json")
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: one of %q, %q or %q is required", ErrInvalidRequest, "document", "document_json", "document_id")
	}
	return model.Parse([]byte(raw))
}

// GetSnapshot returns the session's render state.
func (s *Service) GetSnapshot(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	sess, err := s.session(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	snap, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return snap, nil
}

func (s *Service) snapshot(ctx context.Context, sess *session.Session) (*structpb.Struct, error) {
	_, span := StartChildSpan(ctx, "session/snapshot", sess.ID())
	defer span.End()
	return toStruct(sess.Snapshot())
}

// Pointer feeds one pointer event ("down", "move", "up" or "leave").
func (s *Service) Pointer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctx, reqLog := requestLogger(ctx, s.log)
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	sess, err := s.session(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	ctx = logging.ContextWithSessionID(ctx, sess.ID())
	event, err := requireString(in, "event")
	if err != nil {
		return nil, ToStatusError(err)
	}

	out := map[string]*structpb.Value{}
	switch event {
	case "down":
		p, err := requirePoint(in)
		if err != nil {
			return nil, ToStatusError(err)
		}
		target := sess.PointerDown(p)
		out["target_kind"] = structpb.NewStringValue(target.Kind.String())
		if target.Kind != interaction.TargetBackground {
			out["node"] = structpb.NewNumberValue(float64(target.Node))
		}
		if target.Kind == interaction.TargetChild {
			out["child"] = structpb.NewStringValue(target.Child.String())
		}
	case "move":
		p, err := requirePoint(in)
		if err != nil {
			return nil, ToStatusError(err)
		}
		out["moved"] = structpb.NewBoolValue(sess.PointerMove(p))
	case "up":
		out["toggled"] = structpb.NewBoolValue(sess.PointerUp())
	case "leave":
		sess.PointerLeave()
	default:
		reqLog.Debug(ctx, "unknown pointer event", logging.String("event", event))
		return nil, ToStatusError(fmt.Errorf("%w: unknown pointer event %q", ErrInvalidRequest, event))
	}
	out["mode"] = structpb.NewStringValue(sess.Mode().String())
	return &structpb.Struct{Fields: out}, nil
}

// Tick reports the player's current time. With "flush" the debounce is
// skipped and the resolved node is returned immediately.
func (s *Service) Tick(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	sess, err := s.session(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	seconds, err := requireNumber(in, "current_time")
	if err != nil {
		return nil, ToStatusError(err)
	}
	flush, err := optionalBool(in, "flush")
	if err != nil {
		return nil, ToStatusError(err)
	}
	if err := sess.Tick(seconds); err != nil {
		return nil, ToStatusError(err)
	}
	active := sess.Active()
	if flush {
		active = sess.FlushActive()
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"active": structpb.NewNumberValue(float64(active)),
	}}, nil
}

// ToggleNode expands or collapses a node.
func (s *Service) ToggleNode(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	sess, err := s.session(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	node, err := requireIndex(in, "node")
	if err != nil {
		return nil, ToStatusError(err)
	}
	expanded, applied := sess.Toggle(node)
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"expanded": structpb.NewBoolValue(expanded),
		"applied":  structpb.NewBoolValue(applied),
	}}, nil
}

// ActivateNode returns the time the player should seek to.
func (s *Service) ActivateNode(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	sess, err := s.session(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	node, err := requireIndex(in, "node")
	if err != nil {
		return nil, ToStatusError(err)
	}
	seekTo, err := sess.ActivateNode(node)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"seek_to": structpb.NewNumberValue(seekTo),
	}}, nil
}

// Zoom steps the viewport scale "in" or "out".
func (s *Service) Zoom(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	sess, err := s.session(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	direction, err := requireString(in, "direction")
	if err != nil {
		return nil, ToStatusError(err)
	}
	var scale float64
	switch direction {
	case "in":
		scale = sess.ZoomIn()
	case "out":
		scale = sess.ZoomOut()
	default:
		return nil, ToStatusError(fmt.Errorf("%w: direction must be \"in\" or \"out\", got %q", ErrInvalidRequest, direction))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"scale": structpb.NewNumberValue(scale),
	}}, nil
}

// ResetView reframes the map and collapses every node.
func (s *Service) ResetView(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	sess, err := s.session(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	sess.ResetView()
	snap, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return snap, nil
}

// Reorganize discards dragged positions and lays the map out again.
func (s *Service) Reorganize(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctx, reqLog := requestLogger(ctx, s.log)
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	sess, err := s.session(in)
	if err != nil {
		return nil, ToStatusError(err)
	}

	ctx = logging.ContextWithSessionID(ctx, sess.ID())
	ctx, span := StartChildSpan(ctx, "layout/reorganize", sess.ID(),
		attribute.Int("nodes", sess.NodeCount()),
	)
	start := time.Now()
	sess.Reorganize()
	s.observeLayout(start)
	span.End()

	reqLog.Debug(ctx, "map reorganized")
	snap, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return snap, nil
}

// CloseSession stops and forgets a session.
func (s *Service) CloseSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id, err := requireString(in, "session_id")
	if err != nil {
		return nil, ToStatusError(err)
	}
	if err := s.registry.Close(ctx, id); err != nil {
		return nil, ToStatusError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"closed": structpb.NewBoolValue(true),
	}}, nil
}
