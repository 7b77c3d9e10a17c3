// Package client is the Go SDK for the approach API. It keeps the signed-in
// session, turns wire errors back into the error taxonomy and offers live
// feeds kept in step with the server's change stream.
package client

import (
	"context"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/oggyb/approach/internal/api"
	"github.com/oggyb/approach/internal/auth"
	"github.com/oggyb/approach/internal/logger"
)

// Client is safe for concurrent use.
type Client struct {
	conn    *grpc.ClientConn
	owned   bool
	log     *slog.Logger
	auth    *api.AuthClient
	users   *api.UserClient
	threads *api.ThreadClient
	reqs    *api.RequestClient
	chats   *api.ChatClient
	changes *api.ChangeClient

	mu       sync.RWMutex
	session  *auth.Session
	watchers map[int]chan *auth.Session
	nextID   int
}

type Option func(*Client)

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// Dial connects to target without TLS. extra dial options are appended.
func Dial(target string, extra []grpc.DialOption, opts ...Option) (*Client, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, extra...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	c := New(conn, opts...)
	c.owned = true
	return c, nil
}

// New wraps an existing connection. Close does not close conn.
func New(conn *grpc.ClientConn, opts ...Option) *Client {
	c := &Client{
		conn:     conn,
		auth:     api.NewAuthClient(conn),
		users:    api.NewUserClient(conn),
		threads:  api.NewThreadClient(conn),
		reqs:     api.NewRequestClient(conn),
		chats:    api.NewChatClient(conn),
		changes:  api.NewChangeClient(conn),
		watchers: make(map[int]chan *auth.Session),
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = logger.Named("client")
	}
	return c
}

// Close releases the connection if Dial opened it.
func (c *Client) Close() error {
	if c.owned {
		return c.conn.Close()
	}
	return nil
}

// Session returns the current session, nil when signed out.
func (c *Client) Session() *auth.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// WatchSession delivers the latest session value on every sign-in and
// sign-out, starting with the current one. Slow readers only see the most
// recent value. Call stop to unsubscribe.
func (c *Client) WatchSession() (updates <-chan *auth.Session, stop func()) {
	ch := make(chan *auth.Session, 1)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = ch
	ch <- c.session
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.watchers, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) setSession(s *auth.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	for _, ch := range c.watchers {
		// replace any unread value with the newest one
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// outgoing attaches the bearer token, if signed in.
func (c *Client) outgoing(ctx context.Context) context.Context {
	if s := c.Session(); s != nil {
		return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+s.Token)
	}
	return ctx
}
