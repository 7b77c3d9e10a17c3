// Package feed keeps an in-memory list in step with a table by reloading it
// whenever the table's change notifier fires.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oggyb/approach/internal/logger"
	"github.com/oggyb/approach/internal/notify"
)

// ErrSubscriptionLost is reported by Err while the feed has no live
// subscription and is trying to get one back. Items may be stale meanwhile.
var ErrSubscriptionLost = errors.New("feed: change subscription lost")

const (
	defaultResubscribeDelay = 100 * time.Millisecond
	maxResubscribeDelay     = 5 * time.Second
)

// Loader fetches the full current list. It is the same query on every refresh.
type Loader[T any] func(ctx context.Context) ([]T, error)

type Options[T any] struct {
	Logger *slog.Logger
	// OnRefresh runs on the refresh goroutine after every successful load,
	// including the initial one.
	OnRefresh func(items []T)
	// ResubscribeDelay is the first wait before resubscribing after the
	// notifier drops the subscription. It doubles per failed attempt.
	ResubscribeDelay time.Duration
}

// Feed is a live list. Items are replaced wholesale on each refresh, never
// patched from the event payload.
type Feed[T any] struct {
	table      string
	load       Loader[T]
	log        *slog.Logger
	hook       func([]T)
	subscriber notify.Subscriber
	delay      time.Duration

	mu       sync.RWMutex
	items    []T
	lastErr  error
	loadedAt time.Time
	loads    int
	sub      *notify.Subscription

	kick   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// Open subscribes to table and then performs the initial load.
//
// Behavior:
//   - ctx bounds the initial load only. The feed lives until Close.
//   - Subscribing before loading means a change that lands between the two
//     still triggers a reload.
//   - Refreshes run one at a time. Notifications that arrive during a
//     refresh collapse into a single follow-up refresh.
//   - A failed refresh is logged and the previous items are kept.
//   - If the notifier ends the subscription, Err reports ErrSubscriptionLost
//     until a new subscription is in place and a reload has succeeded.
//   - A failed initial load closes the feed and returns the error.
func Open[T any](
	ctx context.Context,
	sub notify.Subscriber,
	table string,
	load Loader[T],
	opts Options[T],
) (*Feed[T], error) {
	log := opts.Logger
	if log == nil {
		log = logger.L()
	}
	delay := opts.ResubscribeDelay
	if delay <= 0 {
		delay = defaultResubscribeDelay
	}

	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f := &Feed[T]{
		table:      table,
		load:       load,
		log:        log.With("subsystem", "feed", "table", table),
		hook:       opts.OnRefresh,
		subscriber: sub,
		delay:      delay,
		kick:       make(chan struct{}, 1),
		ctx:        fctx,
		cancel:     cancel,
	}

	s, err := sub.Subscribe(fctx, table, f.onEvent)
	if err != nil {
		cancel()
		return nil, err
	}
	f.sub = s

	items, err := load(ctx)
	if err != nil {
		f.Close()
		return nil, err
	}
	f.store(items)

	go f.loop()
	return f, nil
}

// Items returns a snapshot of the current list.
func (f *Feed[T]) Items() []T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]T, len(f.items))
	copy(out, f.items)
	return out
}

// Err is the error of the most recent refresh, nil after a successful one.
func (f *Feed[T]) Err() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastErr
}

// Loads counts successful loads including the initial one.
func (f *Feed[T]) Loads() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loads
}

func (f *Feed[T]) LoadedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loadedAt
}

// Refresh asks for a reload without waiting for it.
func (f *Feed[T]) Refresh() { f.trigger() }

// Close cancels the subscription and stops refreshing. Idempotent, and safe
// to call from OnRefresh.
func (f *Feed[T]) Close() {
	f.once.Do(func() {
		f.cancel()
		f.mu.Lock()
		s := f.sub
		f.mu.Unlock()
		if s != nil {
			s.Cancel()
		}
	})
}

func (f *Feed[T]) onEvent(notify.Event) { f.trigger() }

func (f *Feed[T]) trigger() {
	select {
	case f.kick <- struct{}{}:
	default:
		// a refresh is already queued
	}
}

func (f *Feed[T]) lost() <-chan struct{} {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sub.Done()
}

func (f *Feed[T]) loop() {
	for {
		select {
		case <-f.ctx.Done():
			return
		case <-f.kick:
			f.refresh()
		case <-f.lost():
			if !f.resubscribe() {
				return
			}
		}
	}
}

// resubscribe retries with backoff until it holds a new subscription, then
// reloads to catch changes missed while unsubscribed. False means the feed
// was closed.
func (f *Feed[T]) resubscribe() bool {
	if f.ctx.Err() != nil {
		return false
	}
	f.setErr(ErrSubscriptionLost)
	f.log.Warn("change subscription lost, resubscribing")

	delay := f.delay
	timer := time.NewTimer(delay)
	defer timer.Stop()
	for {
		select {
		case <-f.ctx.Done():
			return false
		case <-timer.C:
		}

		s, err := f.subscriber.Subscribe(f.ctx, f.table, f.onEvent)
		if err == nil {
			if !f.swap(s) {
				return false
			}
			f.log.Info("resubscribed")
			f.refresh()
			return true
		}

		f.log.Warn("resubscribe failed", "err", err, "retry_in", delay)
		delay = min(delay*2, maxResubscribeDelay)
		timer.Reset(delay)
	}
}

// swap installs s unless the feed closed meanwhile, in which case s is
// released.
func (f *Feed[T]) swap(s *notify.Subscription) bool {
	f.mu.Lock()
	if f.ctx.Err() != nil {
		f.mu.Unlock()
		s.Cancel()
		return false
	}
	f.sub = s
	f.mu.Unlock()
	return true
}

func (f *Feed[T]) refresh() {
	start := time.Now()
	items, err := f.load(f.ctx)
	if f.ctx.Err() != nil {
		return
	}
	if err != nil {
		f.setErr(err)
		f.log.Warn("refresh failed, keeping previous items", "err", err)
		return
	}
	f.store(items)
	f.log.Debug("refreshed", "count", len(items), logger.Since(start))
}

func (f *Feed[T]) setErr(err error) {
	f.mu.Lock()
	f.lastErr = err
	f.mu.Unlock()
}

func (f *Feed[T]) store(items []T) {
	f.mu.Lock()
	f.items = items
	f.lastErr = nil
	f.loadedAt = time.Now()
	f.loads++
	f.mu.Unlock()

	if f.hook != nil {
		f.hook(items)
	}
}
