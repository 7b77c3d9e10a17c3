package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ChatServiceName = packagePrefix + "ChatService"

type ChatServer interface {
	ListChats(context.Context, *emptypb.Empty) (*ChatsResponse, error)
	RecordLastMessage(context.Context, *RecordMessageRequest) (*ChatResponse, error)
}

var ChatServiceDesc = grpc.ServiceDesc{
	ServiceName: ChatServiceName,
	HandlerType: (*ChatServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ChatServiceName, "ListChats", ChatServer.ListChats),
		unary(ChatServiceName, "RecordLastMessage", ChatServer.RecordLastMessage),
	},
	Metadata: "approach/v1/chats",
}

func RegisterChatServer(s grpc.ServiceRegistrar, srv ChatServer) {
	s.RegisterService(&ChatServiceDesc, srv)
}

type ChatClient struct {
	cc grpc.ClientConnInterface
}

func NewChatClient(cc grpc.ClientConnInterface) *ChatClient {
	return &ChatClient{cc: cc}
}

func (c *ChatClient) ListChats(ctx context.Context, opts ...grpc.CallOption) (*ChatsResponse, error) {
	return invoke[ChatsResponse](ctx, c.cc, ChatServiceName, "ListChats", &emptypb.Empty{}, opts...)
}

func (c *ChatClient) RecordLastMessage(ctx context.Context, in *RecordMessageRequest, opts ...grpc.CallOption) (*ChatResponse, error) {
	return invoke[ChatResponse](ctx, c.cc, ChatServiceName, "RecordLastMessage", in, opts...)
}
