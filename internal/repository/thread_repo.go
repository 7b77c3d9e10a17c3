package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/approach/internal/db"
	svcErr "github.com/oggyb/approach/internal/errors"
	"github.com/oggyb/approach/internal/utils/pagination"
)

// ThreadRepository provides data access for threads.
type ThreadRepository struct {
	db *gorm.DB
}

func NewThreadRepository(database *gorm.DB) *ThreadRepository {
	return &ThreadRepository{db: database}
}

func (r *ThreadRepository) Create(ctx context.Context, t *db.Thread) error {
	return wrap("create thread", r.db.WithContext(ctx).Create(t).Error)
}

func (r *ThreadRepository) FindByID(ctx context.Context, id string) (*db.Thread, error) {
	var t db.Thread
	if err := r.db.WithContext(ctx).Preload("Author").First(&t, "id = ?", id).Error; err != nil {
		return nil, wrap("find thread", err)
	}
	return &t, nil
}

// List returns all threads with their author, newest first.
func (r *ThreadRepository) List(ctx context.Context) ([]db.Thread, error) {
	var threads []db.Thread
	err := r.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Find(&threads).Error
	if err != nil {
		return nil, wrap("list threads", err)
	}
	return threads, nil
}

// ListPage is List with cursor-based pagination.
//
// Behavior:
//   - Ordered by created_at DESC, id DESC.
//   - Fetches limit+1 rows; a surplus row means another page exists.
//
// Example:
//
//	repo.ListPage(ctx, nil, 20) // first 20 threads
func (r *ThreadRepository) ListPage(
	ctx context.Context,
	paginationToken *string,
	limit int,
) ([]db.Thread, *string, error) {
	var threads []db.Thread

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, svcErr.Invalid("pagination_token", "malformed")
	}

	query := r.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&threads).Error; err != nil {
		return nil, nil, wrap("list threads page", err)
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(threads) > limit {
		last := threads[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:          last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		threads = threads[:limit]
	}

	return threads, nextToken, nil
}

// AdjustInterest moves the interest counter by delta without letting it go
// below zero, and returns the updated thread.
func (r *ThreadRepository) AdjustInterest(ctx context.Context, id string, delta int) (*db.Thread, error) {
	q := r.db.WithContext(ctx).Model(&db.Thread{}).Where("id = ?", id)

	var res *gorm.DB
	switch {
	case delta > 0:
		res = q.UpdateColumn("interested_count", gorm.Expr("interested_count + ?", delta))
	case delta < 0:
		res = q.Where("interested_count >= ?", -delta).
			UpdateColumn("interested_count", gorm.Expr("interested_count - ?", -delta))
	default:
		return r.FindByID(ctx, id)
	}
	if res.Error != nil {
		return nil, wrap("adjust thread interest", res.Error)
	}

	// zero rows means either no such thread or a counter already at zero;
	// FindByID tells them apart
	return r.FindByID(ctx, id)
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
