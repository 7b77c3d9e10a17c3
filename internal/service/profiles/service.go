package profiles

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/approach/internal/api"
	"github.com/oggyb/approach/internal/app"
	"github.com/oggyb/approach/internal/auth"
	svcErr "github.com/oggyb/approach/internal/errors"
)

// Service implements the UserService gRPC API: the profile feed, profile
// edits and avatar uploads.
type Service struct {
	appCtx *app.AppContext
}

func NewProfileService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

var _ api.UserServer = (*Service)(nil)

// ListUsers returns every profile except the caller's, newest first,
// optionally narrowed by Query.
func (s *Service) ListUsers(ctx context.Context, req *api.ListUsersRequest) (*api.UsersResponse, error) {
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Debug("ListUsers called", "user_id", sess.UserID, "query", req.Query)

	users, err := s.appCtx.Store.SearchUsers(ctx, sess.UserID, req.Query)
	if err != nil {
		s.appCtx.Logger.Error("ListUsers failed", "err", err)
		return nil, svcErr.Map(err)
	}
	return &api.UsersResponse{Users: users}, nil
}

func (s *Service) GetUser(ctx context.Context, req *api.GetUserRequest) (*api.UserResponse, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, svcErr.InvalidArgument("id is required")
	}
	u, err := s.appCtx.Store.GetUser(ctx, req.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.UserResponse{User: u}, nil
}

// UpdateProfile edits the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (*api.UserResponse, error) {
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	u, err := s.appCtx.Store.UpdateProfile(ctx, sess.UserID, req.ProfileUpdate)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.UserResponse{User: u}, nil
}

var errNoBucket = errors.New("avatar uploads are not configured")

// AvatarUploadURL presigns an S3 upload for the caller's avatar.
func (s *Service) AvatarUploadURL(ctx context.Context, req *api.AvatarUploadRequest) (*api.AvatarUploadResponse, error) {
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if s.appCtx.Avatars == nil {
		return nil, status.Error(codes.Unimplemented, errNoBucket.Error())
	}

	up, err := s.appCtx.Avatars.UploadURL(ctx, sess.UserID, req.FileName, req.ContentType)
	if err != nil {
		s.appCtx.Logger.Error("AvatarUploadURL failed", "user_id", sess.UserID, "err", err)
		return nil, svcErr.Map(err)
	}
	return &api.AvatarUploadResponse{Upload: up}, nil
}
