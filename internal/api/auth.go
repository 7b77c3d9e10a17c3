package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

const AuthServiceName = packagePrefix + "AuthService"

type AuthServer interface {
	SignUp(context.Context, *SignUpRequest) (*UserResponse, error)
	SignIn(context.Context, *SignInRequest) (*SessionResponse, error)
	ResendVerification(context.Context, *ResendVerificationRequest) (*emptypb.Empty, error)
	VerifyEmail(context.Context, *VerifyEmailRequest) (*UserResponse, error)
	SignOut(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Me(context.Context, *emptypb.Empty) (*SessionResponse, error)
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(AuthServiceName, "SignUp", AuthServer.SignUp),
		unary(AuthServiceName, "SignIn", AuthServer.SignIn),
		unary(AuthServiceName, "ResendVerification", AuthServer.ResendVerification),
		unary(AuthServiceName, "VerifyEmail", AuthServer.VerifyEmail),
		unary(AuthServiceName, "SignOut", AuthServer.SignOut),
		unary(AuthServiceName, "Me", AuthServer.Me),
	},
	Metadata: "approach/v1/auth",
}

// PublicMethods need no session.
var PublicMethods = map[string]bool{
	fullMethod(AuthServiceName, "SignUp"):             true,
	fullMethod(AuthServiceName, "SignIn"):             true,
	fullMethod(AuthServiceName, "ResendVerification"): true,
	fullMethod(AuthServiceName, "VerifyEmail"):        true,
}

func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

type AuthClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{cc: cc}
}

func (c *AuthClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, AuthServiceName, "SignUp", in, opts...)
}

func (c *AuthClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, AuthServiceName, "SignIn", in, opts...)
}

func (c *AuthClient) ResendVerification(ctx context.Context, in *ResendVerificationRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, AuthServiceName, "ResendVerification", in, opts...)
}

func (c *AuthClient) VerifyEmail(ctx context.Context, in *VerifyEmailRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UserResponse](ctx, c.cc, AuthServiceName, "VerifyEmail", in, opts...)
}

func (c *AuthClient) SignOut(ctx context.Context, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, AuthServiceName, "SignOut", &emptypb.Empty{}, opts...)
}

func (c *AuthClient) Me(ctx context.Context, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, AuthServiceName, "Me", &emptypb.Empty{}, opts...)
}
