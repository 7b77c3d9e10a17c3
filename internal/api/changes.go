package api

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/approach/internal/notify"
)

const ChangeServiceName = packagePrefix + "ChangeService"

// ChangeServer streams table change events to remote subscribers. The
// stream's first message is an empty Event acknowledging the subscription.
type ChangeServer interface {
	Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[notify.Event]) error
}

var ChangeServiceDesc = grpc.ServiceDesc{
	ServiceName: ChangeServiceName,
	HandlerType: (*ChangeServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(SubscribeRequest)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(ChangeServer).Subscribe(in, &grpc.GenericServerStream[SubscribeRequest, notify.Event]{ServerStream: stream})
			},
		},
	},
	Metadata: "approach/v1/changes",
}

func RegisterChangeServer(s grpc.ServiceRegistrar, srv ChangeServer) {
	s.RegisterService(&ChangeServiceDesc, srv)
}

type ChangeClient struct {
	cc grpc.ClientConnInterface
}

func NewChangeClient(cc grpc.ClientConnInterface) *ChangeClient {
	return &ChangeClient{cc: cc}
}

func (c *ChangeClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[notify.Event], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ChangeServiceDesc.Streams[0], fullMethod(ChangeServiceName, "Subscribe"), opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubscribeRequest, notify.Event]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
