package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "mindmap.v1.MindMapService"

// Full method names, usable in interceptors and client calls.
const (
	MethodLoadMap      = "/" + ServiceName + "/LoadMap"
	MethodGetSnapshot  = "/" + ServiceName + "/GetSnapshot"
	MethodPointer      = "/" + ServiceName + "/Pointer"
	MethodTick         = "/" + ServiceName + "/Tick"
	MethodToggleNode   = "/" + ServiceName + "/ToggleNode"
	MethodActivateNode = "/" + ServiceName + "/ActivateNode"
	MethodZoom         = "/" + ServiceName + "/Zoom"
	MethodResetView    = "/" + ServiceName + "/ResetView"
	MethodReorganize   = "/" + ServiceName + "/Reorganize"
	MethodCloseSession = "/" + ServiceName + "/CloseSession"
)

// MindMapServer is the server API for MindMapService. Every message is a
// google.protobuf.Struct so remote UIs need no generated stubs.
type MindMapServer interface {
	LoadMap(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Pointer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Tick(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleNode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ActivateNode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Zoom(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetView(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reorganize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(MindMapServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MindMapServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(MindMapServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// MindMapServiceDesc describes MindMapService for grpc.Server.RegisterService.
var MindMapServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MindMapServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "LoadMap", Handler: unaryHandler(MethodLoadMap, MindMapServer.LoadMap)},
		{MethodName: "GetSnapshot", Handler: unaryHandler(MethodGetSnapshot, MindMapServer.GetSnapshot)},
		{MethodName: "Pointer", Handler: unaryHandler(MethodPointer, MindMapServer.Pointer)},
		{MethodName: "Tick", Handler: unaryHandler(MethodTick, MindMapServer.Tick)},
		{MethodName: "ToggleNode", Handler: unaryHandler(MethodToggleNode, MindMapServer.ToggleNode)},
		{MethodName: "ActivateNode", Handler: unaryHandler(MethodActivateNode, MindMapServer.ActivateNode)},
		{MethodName: "Zoom", Handler: unaryHandler(MethodZoom, MindMapServer.Zoom)},
		{MethodName: "ResetView", Handler: unaryHandler(MethodResetView, MindMapServer.ResetView)},
		{MethodName: "Reorganize", Handler: unaryHandler(MethodReorganize, MindMapServer.Reorganize)},
		{MethodName: "CloseSession", Handler: unaryHandler(MethodCloseSession, MindMapServer.CloseSession)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mindmap/v1/mindmap.proto",
}

// RegisterMindMapServer registers srv on s.
func RegisterMindMapServer(s grpc.ServiceRegistrar, srv MindMapServer) {
	s.RegisterService(&MindMapServiceDesc, srv)
}

// MindMapClient is the client API for MindMapService.
type MindMapClient struct {
	cc grpc.ClientConnInterface
}

// NewMindMapClient returns a client bound to cc.
func NewMindMapClient(cc grpc.ClientConnInterface) *MindMapClient {
	return &MindMapClient{cc: cc}
}

func (c *MindMapClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MindMapClient) LoadMap(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodLoadMap, in, opts...)
}

func (c *MindMapClient) GetSnapshot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetSnapshot, in, opts...)
}

func (c *MindMapClient) Pointer(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodPointer, in, opts...)
}

func (c *MindMapClient) Tick(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodTick, in, opts...)
}

func (c *MindMapClient) ToggleNode(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodToggleNode, in, opts...)
}

func (c *MindMapClient) ActivateNode(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodActivateNode, in, opts...)
}

func (c *MindMapClient) Zoom(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodZoom, in, opts...)
}

func (c *MindMapClient) ResetView(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodResetView, in, opts...)
}

func (c *MindMapClient) Reorganize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodReorganize, in, opts...)
}

func (c *MindMapClient) CloseSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCloseSession, in, opts...)
}
