package rpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/video-mindmap/internal/session"
	"github.com/signalsfoundry/video-mindmap/kb"
	"github.com/signalsfoundry/video-mindmap/model"
)

var (
	// ErrInvalidRequest is wrapped by every request field validation failure.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotReady indicates the service was constructed without a registry.
	ErrNotReady = errors.New("service not ready")
)

// ToStatusError maps engine errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrNodeNotFound),
		errors.Is(err, kb.ErrDocumentNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, model.ErrInvalidDocument),
		errors.Is(err, session.ErrInvalidTime):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, kb.ErrDocumentExists):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, ErrNotReady),
		errors.Is(err, session.ErrSessionClosed):
		return status.Error(codes.FailedPrecondition, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
