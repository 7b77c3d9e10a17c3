package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/approach/internal/db"
)

// ChatRepository provides data access for chats.
type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

// WithTx returns a copy bound to an open transaction.
func (r *ChatRepository) WithTx(tx *gorm.DB) *ChatRepository {
	return &ChatRepository{db: tx}
}

// EnsureForRequest returns the chat for the request's pair, creating it if
// the pair has none.
//
// Behavior:
//   - user1 = sender, user2 = receiver.
//   - Unique pair_key + ON CONFLICT DO NOTHING keeps one chat per unordered pair
//     even when both directions get accepted concurrently.
//   - The row is always re-read, so an existing chat is returned unchanged.
func (r *ChatRepository) EnsureForRequest(ctx context.Context, req *db.ConnectionRequest) (*db.Chat, error) {
	chat := db.Chat{
		User1ID:   req.SenderID,
		User2ID:   req.ReceiverID,
		PairKey:   db.PairKey(req.SenderID, req.ReceiverID),
		RequestID: req.ID,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).
		Create(&chat).Error
	if err != nil {
		return nil, wrap("create chat", err)
	}
	return r.FindByPair(ctx, req.SenderID, req.ReceiverID)
}

func (r *ChatRepository) FindByID(ctx context.Context, id string) (*db.Chat, error) {
	var c db.Chat
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, wrap("find chat", err)
	}
	return &c, nil
}

// FindByPair looks a chat up by its unordered pair.
func (r *ChatRepository) FindByPair(ctx context.Context, a, b string) (*db.Chat, error) {
	var c db.Chat
	if err := r.db.WithContext(ctx).First(&c, "pair_key = ?", db.PairKey(a, b)).Error; err != nil {
		return nil, wrap("find chat by pair", err)
	}
	return &c, nil
}

// ListFor returns the user's chats, most recently active first.
func (r *ChatRepository) ListFor(ctx context.Context, userID string) ([]db.Chat, error) {
	var chats []db.Chat
	err := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("COALESCE(last_message_at, created_at) DESC, id DESC").
		Find(&chats).Error
	if err != nil {
		return nil, wrap("list chats", err)
	}
	return chats, nil
}

// UpdateLastMessage sets the preview fields.
func (r *ChatRepository) UpdateLastMessage(ctx context.Context, id, text string, at time.Time) (*db.Chat, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Chat{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_message": text, "last_message_at": at})
	if res.Error != nil {
		return nil, wrap("update chat preview", res.Error)
	}
	return r.FindByID(ctx, id)
}
