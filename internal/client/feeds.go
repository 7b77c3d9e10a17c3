package client

import (
	"context"

	"github.com/oggyb/approach/internal/db"
	"github.com/oggyb/approach/internal/feed"
)

// OpenUserFeed keeps the list of other users current. query narrows it the
// same way ListUsers does.
func (c *Client) OpenUserFeed(ctx context.Context, query string) (*feed.Feed[db.User], error) {
	return feed.Open(ctx, c, db.TableUsers, func(ctx context.Context) ([]db.User, error) {
		return c.ListUsers(ctx, query)
	}, feed.Options[db.User]{Logger: c.log})
}

// OpenThreadFeed keeps the full thread list current, newest first.
func (c *Client) OpenThreadFeed(ctx context.Context) (*feed.Feed[db.Thread], error) {
	return feed.Open(ctx, c, db.TableThreads, c.ListThreads, feed.Options[db.Thread]{Logger: c.log})
}

// PendingRequests keeps the caller's incoming pending requests current.
func (c *Client) PendingRequests(ctx context.Context) (*feed.Feed[db.ConnectionRequest], error) {
	return feed.Open(ctx, c, db.TableConnectionRequests, c.ListPendingRequests,
		feed.Options[db.ConnectionRequest]{Logger: c.log})
}

// OpenChatFeed keeps the caller's chats current, most recent activity first.
func (c *Client) OpenChatFeed(ctx context.Context) (*feed.Feed[db.Chat], error) {
	return feed.Open(ctx, c, db.TableChats, c.ListChats, feed.Options[db.Chat]{Logger: c.log})
}
