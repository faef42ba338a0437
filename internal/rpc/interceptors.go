package rpc

import (
	"context"
	"path"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/video-mindmap/internal/logging"
)

const requestIDMetadataKey = "x-request-id"

// RequestIDUnaryServerInterceptor puts a request_id and a per-request logger
// on the context. The ID comes from x-request-id metadata when the client
// sent one. Requests naming a session_id get it stamped on the context so
// every record the handler logs carries it.
func RequestIDUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if incoming := firstHeader(md, requestIDMetadataKey); incoming != "" {
				ctx = logging.ContextWithRequestID(ctx, incoming)
			}
		}

		if id := requestSessionID(req); id != "" {
			ctx = logging.ContextWithSessionID(ctx, id)
		}

		ctx, reqLog := logging.WithRequestLogger(ctx, base.With(logging.String("rpc", path.Base(info.FullMethod))))
		return handler(logging.ContextWithLogger(ctx, reqLog), req)
	}
}

// requestSessionID returns the string session_id field of a Struct request.
func requestSessionID(req interface{}) string {
	in, ok := req.(*structpb.Struct)
	if !ok || in == nil {
		return ""
	}
	return in.GetFields()["session_id"].GetStringValue()
}

// requestLogger returns the interceptor's logger for ctx, or fallback when
// the handler was called without one.
func requestLogger(ctx context.Context, fallback logging.Logger) (context.Context, logging.Logger) {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return ctx, l
	}
	return logging.WithRequestLogger(ctx, fallback)
}

func firstHeader(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
