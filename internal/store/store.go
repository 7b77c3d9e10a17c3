// Package store is the data access layer: the one place that reads and writes
// entities, validates input, and announces changes after they commit.
package store

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oggyb/approach/internal/cache"
	"github.com/oggyb/approach/internal/db"
	svcErr "github.com/oggyb/approach/internal/errors"
	"github.com/oggyb/approach/internal/lifecycle"
	"github.com/oggyb/approach/internal/notify"
	"github.com/oggyb/approach/internal/repository"
)

// Notifier is both halves of the change notifier.
type Notifier interface {
	notify.Publisher
	notify.Subscriber
}

// Store wires repositories, the lifecycle controller, the badge cache and the
// change notifier together.
type Store struct {
	users     *repository.UserRepository
	threads   *repository.ThreadRepository
	requests  *repository.RequestRepository
	chats     *repository.ChatRepository
	lifecycle *lifecycle.Controller

	cache    *cache.RedisCache // optional
	notifier Notifier
	log      *slog.Logger
}

// New builds a Store. rc may be nil, in which case pending counts always hit the DB.
func New(database *gorm.DB, rc *cache.RedisCache, n Notifier, log *slog.Logger) *Store {
	return &Store{
		users:     repository.NewUserRepository(database),
		threads:   repository.NewThreadRepository(database),
		requests:  repository.NewRequestRepository(database),
		chats:     repository.NewChatRepository(database),
		lifecycle: lifecycle.NewController(database),
		cache:     rc,
		notifier:  n,
		log:       log.With("subsystem", "store"),
	}
}

// ---- users ----

// ListUsers returns every profile except excluding, newest first.
func (s *Store) ListUsers(ctx context.Context, excluding string) ([]db.User, error) {
	return s.users.ListExcluding(ctx, excluding)
}

// SearchUsers is ListUsers narrowed to profiles whose name or any interest
// contains query, ignoring case. An empty query matches everyone.
func (s *Store) SearchUsers(ctx context.Context, excluding, query string) ([]db.User, error) {
	users, err := s.ListUsers(ctx, excluding)
	if err != nil {
		return nil, err
	}
	return FilterUsers(users, query), nil
}

// FilterUsers keeps users matching query on name or interests.
func FilterUsers(users []db.User, query string) []db.User {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return users
	}
	out := make([]db.User, 0, len(users))
	for _, u := range users {
		if matchesUser(u, q) {
			out = append(out, u)
		}
	}
	return out
}

func matchesUser(u db.User, q string) bool {
	if strings.Contains(strings.ToLower(u.Name), q) {
		return true
	}
	for _, in := range u.Interests {
		if strings.Contains(strings.ToLower(in), q) {
			return true
		}
	}
	return false
}

func (s *Store) GetUser(ctx context.Context, id string) (*db.User, error) {
	return s.users.FindByID(ctx, id)
}

// ProfileUpdate carries the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name      *string   `json:"name,omitempty"`
	Age       *int      `json:"age,omitempty"`
	City      *string   `json:"city,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	Avatar    *string   `json:"avatar,omitempty"`
	Interests *[]string `json:"interests,omitempty"`
}

const (
	minAge = 18
	maxAge = 120
)

// UpdateProfile applies the non-nil fields of upd to user id.
func (s *Store) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*db.User, error) {
	cols := map[string]any{}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, svcErr.Invalid("name", "must not be empty")
		}
		cols["name"] = name
	}
	if upd.Age != nil {
		if *upd.Age < minAge || *upd.Age > maxAge {
			return nil, svcErr.Invalid("age", "must be between 18 and 120")
		}
		cols["age"] = *upd.Age
	}
	if upd.City != nil {
		cols["city"] = optional(*upd.City)
	}
	if upd.Bio != nil {
		cols["bio"] = optional(*upd.Bio)
	}
	if upd.Avatar != nil {
		cols["avatar"] = optional(*upd.Avatar)
	}
	if upd.Interests != nil {
		cols["interests"] = cleanInterests(*upd.Interests)
	}

	if ok, err := s.users.Exists(ctx, id); err != nil {
		return nil, err
	} else if !ok {
		return nil, svcErr.ErrNotFound
	}

	u, err := s.users.Update(ctx, id, cols)
	if err != nil {
		return nil, err
	}
	if len(cols) > 0 {
		s.publish(ctx, db.TableUsers, notify.Update, id)
	}
	return u, nil
}

// optional maps blank strings to NULL.
func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// cleanInterests trims, drops blanks and de-duplicates case-insensitively,
// keeping first spelling and order.
func cleanInterests(in []string) datatypes.JSONSlice[string] {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		k := strings.ToLower(v)
		if v == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// ---- threads ----

// ListThreads returns all threads with their authors, newest first.
func (s *Store) ListThreads(ctx context.Context) ([]db.Thread, error) {
	return s.threads.List(ctx)
}

// ListThreadsPage is ListThreads with cursor pagination.
func (s *Store) ListThreadsPage(ctx context.Context, token *string, limit int) ([]db.Thread, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.threads.ListPage(ctx, token, limit)
}

// CreateThread posts content on behalf of authorID.
func (s *Store) CreateThread(ctx context.Context, authorID, content string) (*db.Thread, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, svcErr.Invalid("content", "must not be empty")
	}
	if err := s.requireUser(ctx, "author_id", authorID); err != nil {
		return nil, err
	}

	t := &db.Thread{AuthorID: authorID, Content: content}
	if err := s.threads.Create(ctx, t); err != nil {
		return nil, err
	}
	s.publish(ctx, db.TableThreads, notify.Insert, t.ID)
	return s.threads.FindByID(ctx, t.ID)
}

// AddInterest bumps a thread's interested count.
func (s *Store) AddInterest(ctx context.Context, threadID string) (*db.Thread, error) {
	return s.adjustInterest(ctx, threadID, +1)
}

// RemoveInterest lowers a thread's interested count, stopping at zero.
func (s *Store) RemoveInterest(ctx context.Context, threadID string) (*db.Thread, error) {
	return s.adjustInterest(ctx, threadID, -1)
}

func (s *Store) adjustInterest(ctx context.Context, threadID string, delta int) (*db.Thread, error) {
	t, err := s.threads.AdjustInterest(ctx, threadID, delta)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, db.TableThreads, notify.Update, threadID)
	return t, nil
}

// ---- connection requests ----

// ListPendingRequests returns requests awaiting receiverID's answer, newest first.
func (s *Store) ListPendingRequests(ctx context.Context, receiverID string) ([]db.ConnectionRequest, error) {
	return s.requests.ListPendingFor(ctx, receiverID)
}

// ListSentRequests returns everything senderID has sent, in any status.
func (s *Store) ListSentRequests(ctx context.Context, senderID string) ([]db.ConnectionRequest, error) {
	return s.requests.ListSentBy(ctx, senderID)
}

// CountPendingRequests returns the incoming badge count.
//
// Cache-first strategy:
//  1. Read requests:pending:count:<id> from Redis.
//  2. On a miss or Redis failure, count in the DB.
//  3. Write the DB count back with a 1h TTL.
func (s *Store) CountPendingRequests(ctx context.Context, receiverID string) (int64, error) {
	if s.cache != nil {
		n, ok, err := s.cache.GetPendingCount(ctx, receiverID)
		if err != nil {
			s.log.Warn("pending count cache read failed", "receiver", receiverID, "err", err)
		} else if ok {
			return n, nil
		}
	}

	n, err := s.requests.CountPending(ctx, receiverID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetPendingCount(ctx, receiverID, n); err != nil {
			s.log.Warn("pending count cache write failed", "receiver", receiverID, "err", err)
		}
	}
	return n, nil
}

// CreateConnectionRequest sends an approach from senderID to receiverID.
//
// Behavior:
//   - message is trimmed and must not be empty.
//   - sender and receiver must differ and both exist.
//   - A second pending request for the same direction fails with ErrDuplicatePending.
//   - The receiver's badge count is invalidated.
func (s *Store) CreateConnectionRequest(ctx context.Context, senderID, receiverID, message string) (*db.ConnectionRequest, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, svcErr.Invalid("message", "must not be empty")
	}
	if senderID == receiverID {
		return nil, svcErr.Invalid("receiver_id", "cannot send a request to yourself")
	}
	if err := s.requireUser(ctx, "sender_id", senderID); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, "receiver_id", receiverID); err != nil {
		return nil, err
	}

	dup, err := s.requests.HasPending(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, svcErr.ErrDuplicatePending
	}

	req := &db.ConnectionRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    message,
		Status:     db.StatusPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.invalidatePending(ctx, receiverID)
	s.publish(ctx, db.TableConnectionRequests, notify.Insert, req.ID)
	return s.requests.FindByID(ctx, req.ID)
}

// UpdateConnectionRequestStatus moves a pending request to accepted or
// rejected. Acceptance also yields the pair's Chat.
func (s *Store) UpdateConnectionRequestStatus(ctx context.Context, requestID string, status db.RequestStatus) (*lifecycle.Result, error) {
	res, err := s.lifecycle.UpdateStatus(ctx, requestID, status)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, res)
	return res, nil
}

// RespondToRequest is UpdateConnectionRequestStatus restricted to the receiver.
func (s *Store) RespondToRequest(ctx context.Context, actorID, requestID string, status db.RequestStatus) (*lifecycle.Result, error) {
	res, err := s.lifecycle.Respond(ctx, actorID, requestID, status)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, res)
	return res, nil
}

func (s *Store) afterTransition(ctx context.Context, res *lifecycle.Result) {
	s.invalidatePending(ctx, res.Request.ReceiverID)
	s.publish(ctx, db.TableConnectionRequests, notify.Update, res.Request.ID)
	// a reused chat belongs to an earlier request and did not change
	if res.Chat != nil && res.Chat.RequestID == res.Request.ID {
		s.publish(ctx, db.TableChats, notify.Insert, res.Chat.ID)
	}
}

// ---- chats ----

// ListChats returns the chats userID belongs to, most recently active first.
func (s *Store) ListChats(ctx context.Context, userID string) ([]db.Chat, error) {
	return s.chats.ListFor(ctx, userID)
}

// RecordLastMessage updates the chat preview. Only members may write it.
func (s *Store) RecordLastMessage(ctx context.Context, chatID, senderID, text string) (*db.Chat, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, svcErr.Invalid("text", "must not be empty")
	}
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.Has(senderID) {
		return nil, svcErr.ErrPermissionDenied
	}

	updated, err := s.chats.UpdateLastMessage(ctx, chatID, text, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.publish(ctx, db.TableChats, notify.Update, chatID)
	return updated, nil
}

// ---- change notifications ----

// SubscribeToTable registers onChange for table changes. The event is a hint:
// consumers re-query.
func (s *Store) SubscribeToTable(ctx context.Context, table string, onChange notify.Handler) (*notify.Subscription, error) {
	return s.notifier.Subscribe(ctx, table, onChange)
}

// Subscribe lets a Store stand in wherever a notify.Subscriber is expected.
func (s *Store) Subscribe(ctx context.Context, table string, h notify.Handler) (*notify.Subscription, error) {
	return s.SubscribeToTable(ctx, table, h)
}

// UserCreated announces a profile created outside the store, by sign-up.
func (s *Store) UserCreated(ctx context.Context, id string) {
	s.publish(ctx, db.TableUsers, notify.Insert, id)
}

// publish never fails the write that triggered it; subscribers converge on
// their next successful refresh.
func (s *Store) publish(ctx context.Context, table string, typ notify.EventType, rowID string) {
	if s.notifier == nil {
		return
	}
	ev := notify.Event{Table: table, Type: typ, RowID: rowID, At: time.Now().UTC()}
	if err := s.notifier.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Warn("change publish failed", "table", table, "type", typ, "row", rowID, "err", err)
	}
}

func (s *Store) invalidatePending(ctx context.Context, receiverID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePendingCount(ctx, receiverID); err != nil {
		s.log.Warn("pending count invalidation failed", "receiver", receiverID, "err", err)
	}
}

func (s *Store) requireUser(ctx context.Context, field, id string) error {
	if strings.TrimSpace(id) == "" {
		return svcErr.Invalid(field, "is required")
	}
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return svcErr.Invalid(field, "unknown user")
	}
	return nil
}
