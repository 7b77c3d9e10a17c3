package chats

import (
	"context"

	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oggyb/approach/internal/api"
	"github.com/oggyb/approach/internal/app"
	"github.com/oggyb/approach/internal/auth"
	svcErr "github.com/oggyb/approach/internal/errors"
)

// Service implements the ChatService gRPC API.
type Service struct {
	appCtx *app.AppContext
}

func NewChatService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

var _ api.ChatServer = (*Service)(nil)

func (s *Service) ListChats(ctx context.Context, _ *emptypb.Empty) (*api.ChatsResponse, error) {
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	chats, err := s.appCtx.Store.ListChats(ctx, sess.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.ChatsResponse{Chats: chats}, nil
}

// RecordLastMessage updates the preview shown in the chat list.
func (s *Service) RecordLastMessage(ctx context.Context, req *api.RecordMessageRequest) (*api.ChatResponse, error) {
	sess, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	chat, err := s.appCtx.Store.RecordLastMessage(ctx, req.ChatID, sess.UserID, req.Text)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.ChatResponse{Chat: chat}, nil
}
