package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/approach/internal/db"
)

// UserRepository provides data access for profiles.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts u. An email already taken yields ErrDuplicateKey.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if isDuplicate(r.db, err) {
		return ErrDuplicateKey
	}
	return wrap("create user", err)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, wrap("find user", err)
	}
	return &u, nil
}

// FindByEmail matches exactly; callers normalize case before calling.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, wrap("find user by email", err)
	}
	return &u, nil
}

func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, wrap("check user", err)
}

// ListExcluding returns every user except excludingID, newest-created first.
func (r *UserRepository) ListExcluding(ctx context.Context, excludingID string) ([]db.User, error) {
	var users []db.User
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if excludingID != "" {
		q = q.Where("id <> ?", excludingID)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, wrap("list users", err)
	}
	return users, nil
}

// Update writes the given columns and returns the fresh row.
func (r *UserRepository) Update(ctx context.Context, id string, columns map[string]any) (*db.User, error) {
	if len(columns) > 0 {
		res := r.db.WithContext(ctx).Model(&db.User{ID: id}).Updates(columns)
		if res.Error != nil {
			return nil, wrap("update user", res.Error)
		}
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&db.User{ID: id}).Update("is_verified", true).Error
	return wrap("verify user", err)
}
