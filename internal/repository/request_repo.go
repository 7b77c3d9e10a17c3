package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/approach/internal/db"
	svcErr "github.com/oggyb/approach/internal/errors"
)

// RequestRepository provides data access methods for the ConnectionRequest model.
// It encapsulates all queries related to approaches between users.
type RequestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new repository bound to the given DB connection.
func NewRequestRepository(database *gorm.DB) *RequestRepository {
	return &RequestRepository{db: database}
}

// WithTx returns a copy bound to an open transaction.
func (r *RequestRepository) WithTx(tx *gorm.DB) *RequestRepository {
	return &RequestRepository{db: tx}
}

// Create inserts a new request. Status defaults to pending when unset.
// A second pending request in the same direction fails with
// ErrDuplicatePending, even when two inserts race past HasPending.
func (r *RequestRepository) Create(ctx context.Context, req *db.ConnectionRequest) error {
	if req.Status == "" {
		req.Status = db.StatusPending
	}
	err := r.db.WithContext(ctx).Create(req).Error
	if isDuplicate(r.db, err) {
		return svcErr.ErrDuplicatePending
	}
	return wrap("create connection request", err)
}

// HasPending reports whether sender already has a pending request to receiver.
func (r *RequestRepository) HasPending(ctx context.Context, senderID, receiverID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.ConnectionRequest{}).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", senderID, receiverID, db.StatusPending).
		Count(&count).Error
	return count > 0, wrap("check pending request", err)
}

// FindByID loads a request with both parties.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*db.ConnectionRequest, error) {
	var req db.ConnectionRequest
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, wrap("find connection request", err)
	}
	return &req, nil
}

// ListPendingFor returns pending requests addressed to receiverID.
//
// Behavior:
//   - Only status = pending.
//   - Sender and receiver preloaded.
//   - Ordered by created_at DESC, id DESC.
func (r *RequestRepository) ListPendingFor(ctx context.Context, receiverID string) ([]db.ConnectionRequest, error) {
	var reqs []db.ConnectionRequest
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("receiver_id = ? AND status = ?", receiverID, db.StatusPending).
		Order("created_at DESC, id DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, wrap("list pending requests", err)
	}
	return reqs, nil
}

// ListSentBy returns every request senderID made, in any status, newest first.
func (r *RequestRepository) ListSentBy(ctx context.Context, senderID string) ([]db.ConnectionRequest, error) {
	var reqs []db.ConnectionRequest
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("sender_id = ?", senderID).
		Order("created_at DESC, id DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, wrap("list sent requests", err)
	}
	return reqs, nil
}

// CountPending returns how many pending requests receiverID has.
// Used in conjunction with the Redis badge cache (DB is fallback).
func (r *RequestRepository) CountPending(ctx context.Context, receiverID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.ConnectionRequest{}).
		Where("receiver_id = ? AND status = ?", receiverID, db.StatusPending).
		Count(&count).Error
	if err != nil {
		return 0, wrap("count pending requests", err)
	}
	return count, nil
}

// ResolvePending moves a request out of pending.
//
// Behavior:
//   - Conditional on status = pending, so two racing resolutions cannot both win.
//   - Returns false (no error) when the row was not pending or does not exist;
//     the caller decides which by re-reading.
func (r *RequestRepository) ResolvePending(ctx context.Context, id string, to db.RequestStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.ConnectionRequest{}).
		Where("id = ? AND status = ?", id, db.StatusPending).
		Updates(map[string]any{
			"status":       to,
			"responded_at": at,
			"pending_key":  nil,
		})
	if res.Error != nil {
		return false, wrap("resolve connection request", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ErrDuplicateKey is a unique index violation the caller should turn into a
// domain error.
var ErrDuplicateKey = errors.New("duplicate key")

// isDuplicate reports whether err is a unique violation, whatever the driver.
func isDuplicate(database *gorm.DB, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if t, ok := database.Dialector.(gorm.ErrorTranslator); ok {
		return errors.Is(t.Translate(err), gorm.ErrDuplicatedKey)
	}
	return false
}

// wrap folds gorm errors into the error taxonomy.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return svcErr.ErrNotFound
	}
	return svcErr.Store(op, err)
}
