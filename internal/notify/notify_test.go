package notify_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/approach/internal/db"
	svcErr "github.com/oggyb/approach/internal/errors"
	"github.com/oggyb/approach/internal/logger"
	"github.com/oggyb/approach/internal/notify"
)

func setupNotifier(t *testing.T) (*notify.RedisNotifier, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return notify.NewRedisNotifier(client, "test", logger.Discard()), mr
}

// collector records events for assertions across goroutines.
type collector struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *collector) handle(ev notify.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestPublishSubscribe(t *testing.T) {
	ctx := context.Background()
	n, _ := setupNotifier(t)
	assert.Equal(t, "test:threads", n.Channel(db.TableThreads))

	var got collector
	sub, err := n.Subscribe(ctx, db.TableThreads, got.handle)
	require.NoError(t, err)
	defer sub.Cancel()

	require.NoError(t, n.Publish(ctx, notify.Event{Table: db.TableThreads, Type: notify.Insert, RowID: "t1"}))
	// other tables do not leak in
	require.NoError(t, n.Publish(ctx, notify.Event{Table: db.TableUsers, Type: notify.Update, RowID: "u1"}))

	require.Eventually(t, func() bool { return got.len() == 1 }, 2*time.Second, 10*time.Millisecond)

	got.mu.Lock()
	ev := got.events[0]
	got.mu.Unlock()
	assert.Equal(t, db.TableThreads, ev.Table)
	assert.Equal(t, notify.Insert, ev.Type)
	assert.Equal(t, "t1", ev.RowID)
	assert.False(t, ev.At.IsZero())
}

func TestSubscribe_UnknownTable(t *testing.T) {
	n, _ := setupNotifier(t)

	_, err := n.Subscribe(context.Background(), "messages", func(notify.Event) {})
	var ve *svcErr.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestCancel_IdempotentAndStopsDelivery(t *testing.T) {
	ctx := context.Background()
	n, _ := setupNotifier(t)

	var got collector
	sub, err := n.Subscribe(ctx, db.TableChats, got.handle)
	require.NoError(t, err)

	sub.Cancel()
	sub.Cancel()

	select {
	case <-sub.Done():
	default:
		t.Fatal("Done should be closed after Cancel")
	}

	require.NoError(t, n.Publish(ctx, notify.Event{Table: db.TableChats, Type: notify.Insert, RowID: "c1"}))
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, got.len())
}

func TestCancel_FromInsideHandler(t *testing.T) {
	ctx := context.Background()
	n, _ := setupNotifier(t)

	var (
		sub   *notify.Subscription
		calls collector
		ready = make(chan struct{})
	)
	sub, err := n.Subscribe(ctx, db.TableConnectionRequests, func(ev notify.Event) {
		<-ready
		calls.handle(ev)
		sub.Cancel()
	})
	require.NoError(t, err)
	close(ready)

	require.NoError(t, n.Publish(ctx, notify.Event{Table: db.TableConnectionRequests, Type: notify.Insert, RowID: "r1"}))
	require.Eventually(t, func() bool { return calls.len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, n.Publish(ctx, notify.Event{Table: db.TableConnectionRequests, Type: notify.Insert, RowID: "r2"}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, calls.len())
}

func TestSubscription_CustomTeardown(t *testing.T) {
	calls := 0
	sub := notify.NewSubscription(func() { calls++ })
	sub.Cancel()
	sub.Cancel()
	assert.Equal(t, 1, calls)
}
