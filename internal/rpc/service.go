// Package rpc serves the engine over gRPC. Messages are
// google.protobuf.Struct values carrying the same JSON shapes as the HTTP
// adapter, so no generated code is needed.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "offwork.v1.Engine"

// Method names of ServiceName.
const (
	MethodRoll         = "Roll"
	MethodCanRoll      = "CanRoll"
	MethodStartSession = "StartSession"
	MethodGracefulExit = "GracefulExit"
	MethodHandleAction = "HandleAction"
	MethodExchange     = "Exchange"
	MethodStatus       = "Status"
	MethodExitDecision = "ExitDecision"
	MethodRewards      = "Rewards"
	MethodReloadConfig = "ReloadConfig"
)

// EngineServer is the server API for ServiceName.
type EngineServer interface {
	Roll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CanRoll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GracefulExit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	HandleAction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Exchange(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Status(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExitDecision(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Rewards(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReloadConfig(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryFunc func(EngineServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func method(name string, call unaryFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			es := srv.(EngineServer)
			if interceptor == nil {
				return call(es, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(es, ctx, req.(*structpb.Struct))
			})
		},
	}
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// ServiceDesc describes ServiceName for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		method(MethodRoll, EngineServer.Roll),
		method(MethodCanRoll, EngineServer.CanRoll),
		method(MethodStartSession, EngineServer.StartSession),
		method(MethodGracefulExit, EngineServer.GracefulExit),
		method(MethodHandleAction, EngineServer.HandleAction),
		method(MethodExchange, EngineServer.Exchange),
		method(MethodStatus, EngineServer.Status),
		method(MethodExitDecision, EngineServer.ExitDecision),
		method(MethodRewards, EngineServer.Rewards),
		method(MethodReloadConfig, EngineServer.ReloadConfig),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "offwork/v1/engine.proto",
}

// RegisterEngineServer registers srv on s.
func RegisterEngineServer(s grpc.ServiceRegistrar, srv EngineServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls ServiceName over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

// Call invokes a method by name.
func (c *Client) Call(ctx context.Context, name string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
