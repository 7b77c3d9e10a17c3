package api

import (
	"context"

	"google.golang.org/grpc"
)

const UserServiceName = packagePrefix + "UserService"

type UserServer interface {
	ListUsers(context.Context, *ListUsersRequest) (*UsersResponse, error)
	GetUser(context.Context, *GetUserRequest) (*UserResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*UserResponse, error)
	AvatarUploadURL(context.Context, *AvatarUploadRequest) (*AvatarUploadResponse, error)
}

var UserServiceDesc = grpc.ServiceDesc{
	ServiceName: UserServiceName,
	HandlerType: (*UserServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(UserServiceName, "ListUsers", UserServer.ListUsers),
		unary(UserServiceName, "GetUser", UserServer.GetUser),
		unary(UserServiceName, "UpdateProfile", UserServer.UpdateProfile),
		unary(UserServiceName, "AvatarUploadURL", UserServer.AvatarUploadURL),
	},
	Metadata: "approach/v1/users",
}

func RegisterUserServer(s grpc.ServiceRegistrar, srv UserServer) {
	s.RegisterService(&UserServiceDesc, srv)
}

type UserClient struct {
	cc grpc.ClientConnInterface
}

func NewUserClient(cc grpc.ClientConnInterface) *UserClient {
	return &UserClient{cc: cc}
}

func (c *UserClient) ListUsers(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*UsersResponse, error) {
	return invoke[UsersResponse](ctx, c.cc, UserServiceName, "ListUsers", in, opts...)
}

func (c *UserClient) GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, UserServiceName, "GetUser", in, opts...)
}

func (c *UserClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, UserServiceName, "UpdateProfile", in, opts...)
}

func (c *UserClient) AvatarUploadURL(ctx context.Context, in *AvatarUploadRequest, opts ...grpc.CallOption) (*AvatarUploadResponse, error) {
	return invoke[AvatarUploadResponse](ctx, c.cc, UserServiceName, "AvatarUploadURL", in, opts...)
}
