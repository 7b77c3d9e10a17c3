package threads

import (
	"context"

	"github.com/oggyb/approach/internal/api"
	"github.com/oggyb/approach/internal/app"
	"github.com/oggyb/approach/internal/auth"
	svcErr "github.com/oggyb/approach/internal/errors"
)

const maxPageSize = 100

// Service implements the ThreadService gRPC API.
type Service struct {
	appCtx *app.AppContext
}

func NewThreadService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

var _ api.ThreadServer = (*Service)(nil)

// ListThreads returns threads newest first.
//
// Behavior:
//   - Limit 0 returns every thread (what the live feed reloads).
//   - Limit > 0 pages with an opaque cursor in PageToken.
func (s *Service) ListThreads(ctx context.Context, req *api.ListThreadsRequest) (*api.ThreadsResponse, error) {
	s.appCtx.Logger.Debug("ListThreads called", "limit", req.Limit, "token", req.PageToken)

	if req.Limit < 0 || req.Limit > maxPageSize {
		return nil, svcErr.InvalidArgument("limit must be between 0 and 100")
	}
	if req.Limit == 0 {
		threads, err := s.appCtx.Store.ListThreads(ctx)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		return &api.ThreadsResponse{Threads: threads}, nil
	}

	threads, next, err := s.appCtx.Store.ListThreadsPage(ctx, req.PageToken, req.Limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.ThreadsResponse{Threads: threads, NextPageToken: next}, nil
}

// CreateThread posts on behalf of the caller.
func (s *Service) CreateThread(ctx context.Context, req *api.CreateThreadRequest) (*api.ThreadResponse, error) {
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	t, err := s.appCtx.Store.CreateThread(ctx, sess.UserID, req.Content)
	if err != nil {
		s.appCtx.Logger.Debug("CreateThread rejected", "user_id", sess.UserID, "err", err)
		return nil, svcErr.Map(err)
	}
	return &api.ThreadResponse{Thread: t}, nil
}

// SetInterest adds or removes one unit of interest. The caller's own
// toggled state is client-side view state; the server only keeps the count.
func (s *Service) SetInterest(ctx context.Context, req *api.SetInterestRequest) (*api.ThreadResponse, error) {
	if _, err := auth.RequireSession(ctx); err != nil {
		return nil, svcErr.Map(err)
	}
	if req.ThreadID == "" {
		return nil, svcErr.InvalidArgument("thread_id is required")
	}

	var err error
	resp := &api.ThreadResponse{}
	if req.Interested {
		resp.Thread, err = s.appCtx.Store.AddInterest(ctx, req.ThreadID)
	} else {
		resp.Thread, err = s.appCtx.Store.RemoveInterest(ctx, req.ThreadID)
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return resp, nil
}
