package requests

import (
	"context"
	"strings"

	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oggyb/approach/internal/api"
	"github.com/oggyb/approach/internal/app"
	"github.com/oggyb/approach/internal/auth"
	svcErr "github.com/oggyb/approach/internal/errors"
)

// Service implements the RequestService gRPC API: sending approaches,
// the incoming and outgoing lists, the badge count and responding.
type Service struct {
	appCtx *app.AppContext
}

func NewRequestService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

var _ api.RequestServer = (*Service)(nil)

// Send creates a pending request from the caller to ReceiverID.
//
// Example:
//
//	svc.Send(ctx, &api.SendRequestRequest{ReceiverID: "b7...", Message: "Coffee at 7?"})
func (s *Service) Send(ctx context.Context, req *api.SendRequestRequest) (*api.RequestResponse, error) {
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Debug("Send called", "sender", sess.UserID, "receiver", req.ReceiverID)

	if strings.TrimSpace(req.ReceiverID) == "" {
		return nil, svcErr.Map(svcErr.Invalid("receiver_id", "is required"))
	}

	r, err := s.appCtx.Store.CreateConnectionRequest(ctx, sess.UserID, req.ReceiverID, req.Message)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.RequestResponse{Request: r}, nil
}

// ListPending returns requests awaiting the caller's answer.
func (s *Service) ListPending(ctx context.Context, _ *emptypb.Empty) (*api.RequestsResponse, error) {
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	reqs, err := s.appCtx.Store.ListPendingRequests(ctx, sess.UserID)
	if err != nil {
		s.appCtx.Logger.Error("ListPending failed", "user_id", sess.UserID, "err", err)
		return nil, svcErr.Map(err)
	}
	return &api.RequestsResponse{Requests: reqs}, nil
}

// ListSent returns everything the caller has sent, with statuses.
func (s *Service) ListSent(ctx context.Context, _ *emptypb.Empty) (*api.RequestsResponse, error) {
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	reqs, err := s.appCtx.Store.ListSentRequests(ctx, sess.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.RequestsResponse{Requests: reqs}, nil
}

// CountPending returns the incoming badge count (cache-first).
func (s *Service) CountPending(ctx context.Context, _ *emptypb.Empty) (*api.CountResponse, error) {
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	n, err := s.appCtx.Store.CountPendingRequests(ctx, sess.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.CountResponse{Count: n}, nil
}

// Respond accepts or rejects a request addressed to the caller. Acceptance
// returns the chat it unlocked.
func (s *Service) Respond(ctx context.Context, req *api.RespondRequest) (*api.RespondResponse, error) {
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Debug("Respond called", "user_id", sess.UserID, "request_id", req.RequestID, "status", req.Status)

	res, err := s.appCtx.Store.RespondToRequest(ctx, sess.UserID, req.RequestID, req.Status)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.appCtx.Logger.Info("request resolved", "request_id", res.Request.ID, "status", res.Request.Status)
	return &api.RespondResponse{Request: res.Request, Chat: res.Chat}, nil
}
