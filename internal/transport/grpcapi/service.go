// Package grpcapi exposes the pull engine over gRPC. Messages are
// google.protobuf.Struct documents shaped like the JSON API, so no generated
// code is needed on either side.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "gacha.v1.GachaService"

// GachaServiceServer is the server API of gacha.v1.GachaService.
type GachaServiceServer interface {
	GetPools(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetPool(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCurrentPool(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PullSingle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PullMulti(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Export(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reset(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type method func(GachaServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call method) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(GachaServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(GachaServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes gacha.v1.GachaService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GachaServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetPools", GachaServiceServer.GetPools),
		unary("SetPool", GachaServiceServer.SetPool),
		unary("GetCurrentPool", GachaServiceServer.GetCurrentPool),
		unary("PullSingle", GachaServiceServer.PullSingle),
		unary("PullMulti", GachaServiceServer.PullMulti),
		unary("GetStats", GachaServiceServer.GetStats),
		unary("GetHistory", GachaServiceServer.GetHistory),
		unary("Export", GachaServiceServer.Export),
		unary("Reset", GachaServiceServer.Reset),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterGachaServiceServer registers srv on s.
func RegisterGachaServiceServer(s grpc.ServiceRegistrar, srv GachaServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls gacha.v1.GachaService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

// Call invokes method with a request document built from in.
func (c *Client) Call(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
