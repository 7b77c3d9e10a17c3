package client

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/approach/internal/api"
	svcErr "github.com/oggyb/approach/internal/errors"
	"github.com/oggyb/approach/internal/notify"
)

var _ notify.Subscriber = (*Client)(nil)

// Subscribe opens a change stream for table and calls handler for every
// event until the returned subscription is cancelled. It returns once the
// server has confirmed the subscription, so writes made after it returns are
// observed.
//
// The stream outlives ctx's deadline; only Cancel ends it. A stream that
// breaks on its own is logged and the subscription is marked done.
func (c *Client) Subscribe(ctx context.Context, table string, handler notify.Handler) (*notify.Subscription, error) {
	if !notify.ValidTable(table) {
		return nil, svcErr.Invalid("table", "unknown table "+table)
	}

	sctx, cancel := context.WithCancel(c.outgoing(context.WithoutCancel(ctx)))
	stream, err := c.changes.Subscribe(sctx, &api.SubscribeRequest{Table: table})
	if err != nil {
		cancel()
		return nil, svcErr.FromStatus(err)
	}

	// first message acknowledges the subscription
	if _, err := stream.Recv(); err != nil {
		cancel()
		return nil, svcErr.FromStatus(err)
	}

	sub := notify.NewSubscription(cancel)
	log := c.log.With("table", table)
	log.Debug("subscribed to changes")

	go func() {
		defer sub.Cancel()
		for {
			ev, err := stream.Recv()
			if err != nil {
				if !streamClosed(err) {
					log.Warn("change stream ended", "err", err)
				}
				return
			}
			select {
			case <-sub.Done():
				return
			default:
			}
			handler(*ev)
		}
	}()

	return sub, nil
}

func streamClosed(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return true
	}
	return status.Code(err) == codes.Canceled
}
