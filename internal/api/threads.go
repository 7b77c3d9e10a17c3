package api

import (
	"context"

	"google.golang.org/grpc"
)

const ThreadServiceName = packagePrefix + "ThreadService"

type ThreadServer interface {
	ListThreads(context.Context, *ListThreadsRequest) (*ThreadsResponse, error)
	CreateThread(context.Context, *CreateThreadRequest) (*ThreadResponse, error)
	SetInterest(context.Context, *SetInterestRequest) (*ThreadResponse, error)
}

var ThreadServiceDesc = grpc.ServiceDesc{
	ServiceName: ThreadServiceName,
	HandlerType: (*ThreadServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ThreadServiceName, "ListThreads", ThreadServer.ListThreads),
		unary(ThreadServiceName, "CreateThread", ThreadServer.CreateThread),
		unary(ThreadServiceName, "SetInterest", ThreadServer.SetInterest),
	},
	Metadata: "approach/v1/threads",
}

func RegisterThreadServer(s grpc.ServiceRegistrar, srv ThreadServer) {
	s.RegisterService(&ThreadServiceDesc, srv)
}

type ThreadClient struct {
	cc grpc.ClientConnInterface
}

func NewThreadClient(cc grpc.ClientConnInterface) *ThreadClient {
	return &ThreadClient{cc: cc}
}

func (c *ThreadClient) ListThreads(ctx context.Context, in *ListThreadsRequest, opts ...grpc.CallOption) (*ThreadsResponse, error) {
	return invoke[ThreadsResponse](ctx, c.cc, ThreadServiceName, "ListThreads", in, opts...)
}

func (c *ThreadClient) CreateThread(ctx context.Context, in *CreateThreadRequest, opts ...grpc.CallOption) (*ThreadResponse, error) {
	return invoke[ThreadResponse](ctx, c.cc, ThreadServiceName, "CreateThread", in, opts...)
}

func (c *ThreadClient) SetInterest(ctx context.Context, in *SetInterestRequest, opts ...grpc.CallOption) (*ThreadResponse, error) {
	return invoke[ThreadResponse](ctx, c.cc, ThreadServiceName, "SetInterest", in, opts...)
}
