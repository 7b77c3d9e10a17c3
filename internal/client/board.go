package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/oggyb/approach/internal/db"
	svcErr "github.com/oggyb/approach/internal/errors"
	"github.com/oggyb/approach/internal/feed"
)

// InterestMark is the caller's view of one thread's interest.
type InterestMark struct {
	Interested bool
	Count      int
}

// ThreadView is a thread as the board shows it.
type ThreadView struct {
	db.Thread
	Interested bool
	// Pending is true while a toggle waits for the server.
	Pending bool
}

// ThreadBoard is the live thread list plus the caller's interest toggles.
// Whether the caller is interested is local view state; the server keeps
// only the count.
type ThreadBoard struct {
	c       *Client
	feed    *feed.Feed[db.Thread]
	overlay *feed.Overlay[string, InterestMark]

	mu   sync.Mutex
	mine map[string]bool
}

func (c *Client) OpenThreadBoard(ctx context.Context) (*ThreadBoard, error) {
	b := &ThreadBoard{
		c:       c,
		overlay: feed.NewOverlay[string, InterestMark](),
		mine:    make(map[string]bool),
	}
	f, err := feed.Open(ctx, c, db.TableThreads, c.ListThreads, feed.Options[db.Thread]{
		Logger:    c.log,
		OnRefresh: func([]db.Thread) { b.overlay.ClearConfirmed() },
	})
	if err != nil {
		return nil, err
	}
	b.feed = f
	return b, nil
}

// Threads merges the feed with any local toggles.
func (b *ThreadBoard) Threads() []ThreadView {
	items := b.feed.Items()
	out := make([]ThreadView, len(items))

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range items {
		v := ThreadView{Thread: t, Interested: b.mine[t.ID]}
		if m, ok := b.overlay.Get(t.ID); ok {
			v.InterestedCount = m.Count
			v.Interested = m.Interested
			v.Pending = b.overlay.Pending(t.ID)
		}
		out[i] = v
	}
	return out
}

// Toggle flips the caller's interest in threadID. The new flag and count
// show at once; the server's count replaces the guess on success and the
// previous state comes back on failure.
func (b *ThreadBoard) Toggle(ctx context.Context, threadID string) (ThreadView, error) {
	cur, err := b.find(threadID)
	if err != nil {
		return ThreadView{}, err
	}

	next := !cur.Interested
	guess := cur.InterestedCount + 1
	if !next {
		guess = max(cur.InterestedCount-1, 0)
	}
	b.overlay.Stage(threadID, InterestMark{Interested: next, Count: guess})

	t, err := b.c.SetInterest(ctx, threadID, next)
	if err != nil {
		b.overlay.Revert(threadID)
		b.c.log.Debug("interest toggle reverted", "thread_id", threadID, "err", err)
		return cur, err
	}

	b.mu.Lock()
	b.mine[threadID] = next
	b.mu.Unlock()
	b.overlay.Confirm(threadID, InterestMark{Interested: next, Count: t.InterestedCount})

	return ThreadView{Thread: *t, Interested: next}, nil
}

// Refresh asks the underlying feed to reload.
func (b *ThreadBoard) Refresh() { b.feed.Refresh() }

// Err is the error of the feed's last refresh.
func (b *ThreadBoard) Err() error { return b.feed.Err() }

func (b *ThreadBoard) Close() { b.feed.Close() }

func (b *ThreadBoard) find(threadID string) (ThreadView, error) {
	for _, v := range b.Threads() {
		if v.ID == threadID {
			return v, nil
		}
	}
	return ThreadView{}, fmt.Errorf("thread %s: %w", threadID, svcErr.ErrNotFound)
}
