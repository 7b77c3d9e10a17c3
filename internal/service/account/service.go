package account

import (
	"context"

	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oggyb/approach/internal/api"
	"github.com/oggyb/approach/internal/app"
	"github.com/oggyb/approach/internal/auth"
	svcErr "github.com/oggyb/approach/internal/errors"
)

// Service implements the AuthService gRPC API on top of the identity provider.
type Service struct {
	appCtx *app.AppContext
}

func NewAccountService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

var _ api.AuthServer = (*Service)(nil)

// SignUp registers an unverified account and mails a confirmation link.
//
// Example:
//
//	svc.SignUp(ctx, &api.SignUpRequest{Email: "a@b.com", Password: "Sunset123", ConfirmPassword: "Sunset123", Name: "Asha"})
func (s *Service) SignUp(ctx context.Context, req *api.SignUpRequest) (*api.UserResponse, error) {
	s.appCtx.Logger.Debug("SignUp called", "email", req.Email)

	u, err := s.appCtx.Auth.SignUp(ctx, req.Email, req.Password, req.ConfirmPassword, req.Name)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.UserResponse{User: u}, nil
}

func (s *Service) SignIn(ctx context.Context, req *api.SignInRequest) (*api.SessionResponse, error) {
	s.appCtx.Logger.Debug("SignIn called", "email", req.Email)

	sess, err := s.appCtx.Auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		s.appCtx.Logger.Info("sign in rejected", "email", req.Email, "err", err)
		return nil, svcErr.Map(err)
	}
	return &api.SessionResponse{Session: sess}, nil
}

func (s *Service) ResendVerification(ctx context.Context, req *api.ResendVerificationRequest) (*emptypb.Empty, error) {
	if err := s.appCtx.Auth.ResendVerification(ctx, req.Email); err != nil {
		return nil, svcErr.Map(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Service) VerifyEmail(ctx context.Context, req *api.VerifyEmailRequest) (*api.UserResponse, error) {
	u, err := s.appCtx.Auth.VerifyEmail(ctx, req.Token)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.UserResponse{User: u}, nil
}

// SignOut revokes the caller's current token.
func (s *Service) SignOut(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.Auth.SignOut(ctx, sess); err != nil {
		s.appCtx.Logger.Error("SignOut failed", "user_id", sess.UserID, "err", err)
		return nil, svcErr.Map(err)
	}
	return &emptypb.Empty{}, nil
}

// Me returns the caller's session.
func (s *Service) Me(ctx context.Context, _ *emptypb.Empty) (*api.SessionResponse, error) {
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.SessionResponse{Session: sess}, nil
}
