package client

import (
	"context"

	"github.com/oggyb/approach/internal/api"
	"github.com/oggyb/approach/internal/auth"
	"github.com/oggyb/approach/internal/db"
	svcErr "github.com/oggyb/approach/internal/errors"
	"github.com/oggyb/approach/internal/storage"
	"github.com/oggyb/approach/internal/store"
)

// ---- auth ----

func (c *Client) SignUp(ctx context.Context, email, password, confirm, name string) (*db.User, error) {
	resp, err := c.auth.SignUp(ctx, &api.SignUpRequest{
		Email: email, Password: password, ConfirmPassword: confirm, Name: name,
	})
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.User, nil
}

// SignIn opens a session and publishes it to WatchSession listeners.
func (c *Client) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	resp, err := c.auth.SignIn(ctx, &api.SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	c.setSession(resp.Session)
	c.log.Debug("signed in", "user_id", resp.Session.UserID)
	return resp.Session, nil
}

// SignOut revokes the token server-side and clears the local session. The
// local session is cleared even when the server call fails, since the user
// asked to leave.
func (c *Client) SignOut(ctx context.Context) error {
	if c.Session() == nil {
		return nil
	}
	_, err := c.auth.SignOut(c.outgoing(ctx))
	c.setSession(nil)
	if err != nil {
		c.log.Warn("server sign-out failed", "err", err)
		return svcErr.FromStatus(err)
	}
	return nil
}

func (c *Client) ResendVerification(ctx context.Context, email string) error {
	_, err := c.auth.ResendVerification(ctx, &api.ResendVerificationRequest{Email: email})
	return svcErr.FromStatus(err)
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (*db.User, error) {
	resp, err := c.auth.VerifyEmail(ctx, &api.VerifyEmailRequest{Token: token})
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.User, nil
}

// Me asks the server who the current token belongs to.
func (c *Client) Me(ctx context.Context) (*auth.Session, error) {
	resp, err := c.auth.Me(c.outgoing(ctx))
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.Session, nil
}

// ---- users ----

// ListUsers returns everyone but the caller, newest first. query may be empty.
func (c *Client) ListUsers(ctx context.Context, query string) ([]db.User, error) {
	resp, err := c.users.ListUsers(c.outgoing(ctx), &api.ListUsersRequest{Query: query})
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.Users, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*db.User, error) {
	resp, err := c.users.GetUser(c.outgoing(ctx), &api.GetUserRequest{ID: id})
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, upd store.ProfileUpdate) (*db.User, error) {
	resp, err := c.users.UpdateProfile(c.outgoing(ctx), &api.UpdateProfileRequest{ProfileUpdate: upd})
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.User, nil
}

func (c *Client) AvatarUploadURL(ctx context.Context, fileName, contentType string) (*storage.Upload, error) {
	resp, err := c.users.AvatarUploadURL(c.outgoing(ctx), &api.AvatarUploadRequest{FileName: fileName, ContentType: contentType})
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.Upload, nil
}

// ---- threads ----

func (c *Client) ListThreads(ctx context.Context) ([]db.Thread, error) {
	resp, err := c.threads.ListThreads(c.outgoing(ctx), &api.ListThreadsRequest{})
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.Threads, nil
}

// ListThreadsPage returns one page and the token of the next, nil on the last page.
func (c *Client) ListThreadsPage(ctx context.Context, token *string, limit int) ([]db.Thread, *string, error) {
	resp, err := c.threads.ListThreads(c.outgoing(ctx), &api.ListThreadsRequest{Limit: limit, PageToken: token})
	if err != nil {
		return nil, nil, svcErr.FromStatus(err)
	}
	return resp.Threads, resp.NextPageToken, nil
}

func (c *Client) CreateThread(ctx context.Context, content string) (*db.Thread, error) {
	resp, err := c.threads.CreateThread(c.outgoing(ctx), &api.CreateThreadRequest{Content: content})
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.Thread, nil
}

func (c *Client) SetInterest(ctx context.Context, threadID string, interested bool) (*db.Thread, error) {
	resp, err := c.threads.SetInterest(c.outgoing(ctx), &api.SetInterestRequest{ThreadID: threadID, Interested: interested})
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.Thread, nil
}

// ---- connection requests ----

func (c *Client) SendRequest(ctx context.Context, receiverID, message string) (*db.ConnectionRequest, error) {
	resp, err := c.reqs.Send(c.outgoing(ctx), &api.SendRequestRequest{ReceiverID: receiverID, Message: message})
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.Request, nil
}

func (c *Client) ListPendingRequests(ctx context.Context) ([]db.ConnectionRequest, error) {
	resp, err := c.reqs.ListPending(c.outgoing(ctx))
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.Requests, nil
}

func (c *Client) ListSentRequests(ctx context.Context) ([]db.ConnectionRequest, error) {
	resp, err := c.reqs.ListSent(c.outgoing(ctx))
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.Requests, nil
}

func (c *Client) CountPendingRequests(ctx context.Context) (int64, error) {
	resp, err := c.reqs.CountPending(c.outgoing(ctx))
	if err != nil {
		return 0, svcErr.FromStatus(err)
	}
	return resp.Count, nil
}

// Respond accepts or rejects a request addressed to the caller. chat is
// non-nil after an acceptance.
func (c *Client) Respond(ctx context.Context, requestID string, status db.RequestStatus) (req *db.ConnectionRequest, chat *db.Chat, err error) {
	resp, err := c.reqs.Respond(c.outgoing(ctx), &api.RespondRequest{RequestID: requestID, Status: status})
	if err != nil {
		return nil, nil, svcErr.FromStatus(err)
	}
	return resp.Request, resp.Chat, nil
}

// ---- chats ----

func (c *Client) ListChats(ctx context.Context) ([]db.Chat, error) {
	resp, err := c.chats.ListChats(c.outgoing(ctx))
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.Chats, nil
}

func (c *Client) RecordLastMessage(ctx context.Context, chatID, text string) (*db.Chat, error) {
	resp, err := c.chats.RecordLastMessage(c.outgoing(ctx), &api.RecordMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return nil, svcErr.FromStatus(err)
	}
	return resp.Chat, nil
}
