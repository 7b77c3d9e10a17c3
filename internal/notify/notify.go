// Package notify carries table change notifications between the store and
// anything that keeps a live view of it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/approach/internal/db"
	svcErr "github.com/oggyb/approach/internal/errors"
)

type EventType string

const (
	Insert EventType = "insert"
	Update EventType = "update"
	Delete EventType = "delete"
)

// Event says that a row of Table changed. It is a hint only: consumers
// re-query instead of applying it.
type Event struct {
	Table string    `json:"table"`
	Type  EventType `json:"type"`
	RowID string    `json:"row_id"`
	At    time.Time `json:"at"`
}

// Handler receives events in publish order for one subscription.
type Handler func(Event)

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, table string, h Handler) (*Subscription, error)
}

// Tables lists the tables that publish changes.
var Tables = []string{db.TableUsers, db.TableThreads, db.TableConnectionRequests, db.TableChats}

// ValidTable reports whether table is one of Tables.
func ValidTable(table string) bool {
	for _, t := range Tables {
		if t == table {
			return true
		}
	}
	return false
}

// Subscription is a live registration. Cancel stops delivery; it is
// idempotent and may be called from inside the handler.
type Subscription struct {
	once   sync.Once
	cancel func()
	done   chan struct{}
}

// NewSubscription wraps a teardown func. Any Subscriber implementation can use it.
func NewSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel, done: make(chan struct{})}
}

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		close(s.done)
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// Done is closed once Cancel has been called.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// RedisNotifier publishes and subscribes over Redis pub/sub, one channel per
// table named "<prefix>:<table>".
type RedisNotifier struct {
	client *redis.Client
	prefix string
	log    *slog.Logger
}

func NewRedisNotifier(client *redis.Client, prefix string, log *slog.Logger) *RedisNotifier {
	if prefix == "" {
		prefix = "changes"
	}
	return &RedisNotifier{client: client, prefix: prefix, log: log.With("subsystem", "notify")}
}

func (n *RedisNotifier) Channel(table string) string {
	return fmt.Sprintf("%s:%s", n.prefix, table)
}

func (n *RedisNotifier) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.Channel(ev.Table), payload).Err()
}

// Subscribe registers h for changes on table.
//
// Behavior:
//   - Returns only after Redis confirmed the subscription, so anything
//     published after Subscribe returns is delivered.
//   - Undecodable payloads are logged and skipped.
//   - Nothing is delivered after Cancel returns to the caller's goroutine.
func (n *RedisNotifier) Subscribe(ctx context.Context, table string, h Handler) (*Subscription, error) {
	if !ValidTable(table) {
		return nil, svcErr.Invalid("table", fmt.Sprintf("unknown table %q", table))
	}

	ps := n.client.Subscribe(ctx, n.Channel(table))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", table, err)
	}

	sub := NewSubscription(func() { _ = ps.Close() })
	msgs := ps.Channel()

	go func() {
		for {
			select {
			case <-sub.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					sub.Cancel()
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					n.log.Warn("dropping undecodable change event", "channel", msg.Channel, "err", err)
					continue
				}
				select {
				case <-sub.Done():
					return
				default:
				}
				h(ev)
			}
		}
	}()

	n.log.Debug("subscribed", "table", table)
	return sub, nil
}
