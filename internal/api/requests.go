package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

const RequestServiceName = packagePrefix + "RequestService"

type RequestServer interface {
	Send(context.Context, *SendRequestRequest) (*RequestResponse, error)
	ListPending(context.Context, *emptypb.Empty) (*RequestsResponse, error)
	ListSent(context.Context, *emptypb.Empty) (*RequestsResponse, error)
	CountPending(context.Context, *emptypb.Empty) (*CountResponse, error)
	Respond(context.Context, *RespondRequest) (*RespondResponse, error)
}

var RequestServiceDesc = grpc.ServiceDesc{
	ServiceName: RequestServiceName,
	HandlerType: (*RequestServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(RequestServiceName, "Send", RequestServer.Send),
		unary(RequestServiceName, "ListPending", RequestServer.ListPending),
		unary(RequestServiceName, "ListSent", RequestServer.ListSent),
		unary(RequestServiceName, "CountPending", RequestServer.CountPending),
		unary(RequestServiceName, "Respond", RequestServer.Respond),
	},
	Metadata: "approach/v1/requests",
}

func RegisterRequestServer(s grpc.ServiceRegistrar, srv RequestServer) {
	s.RegisterService(&RequestServiceDesc, srv)
}

type RequestClient struct {
	cc grpc.ClientConnInterface
}

func NewRequestClient(cc grpc.ClientConnInterface) *RequestClient {
	return &RequestClient{cc: cc}
}

func (c *RequestClient) Send(ctx context.Context, in *SendRequestRequest, opts ...grpc.CallOption) (*RequestResponse, error) {
	return invoke[RequestResponse](ctx, c.cc, RequestServiceName, "Send", in, opts...)
}

func (c *RequestClient) ListPending(ctx context.Context, opts ...grpc.CallOption) (*RequestsResponse, error) {
	return invoke[RequestsResponse](ctx, c.cc, RequestServiceName, "ListPending", &emptypb.Empty{}, opts...)
}

func (c *RequestClient) ListSent(ctx context.Context, opts ...grpc.CallOption) (*RequestsResponse, error) {
	return invoke[RequestsResponse](ctx, c.cc, RequestServiceName, "ListSent", &emptypb.Empty{}, opts...)
}

func (c *RequestClient) CountPending(ctx context.Context, opts ...grpc.CallOption) (*CountResponse, error) {
	return invoke[CountResponse](ctx, c.cc, RequestServiceName, "CountPending", &emptypb.Empty{}, opts...)
}

func (c *RequestClient) Respond(ctx context.Context, in *RespondRequest, opts ...grpc.CallOption) (*RespondResponse, error) {
	return invoke[RespondResponse](ctx, c.cc, RequestServiceName, "Respond", in, opts...)
}
