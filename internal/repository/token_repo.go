package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/approach/internal/db"
)

// TokenRepository stores email verification tokens.
type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(database *gorm.DB) *TokenRepository {
	return &TokenRepository{db: database}
}

// Replace drops any earlier tokens of the user and stores tok, so only the
// most recently mailed link works.
func (r *TokenRepository) Replace(ctx context.Context, tok *db.VerificationToken) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", tok.UserID).Delete(&db.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(tok).Error
	})
	return wrap("store verification token", err)
}

// Consume deletes and returns the token. A token can be consumed once.
func (r *TokenRepository) Consume(ctx context.Context, token string) (*db.VerificationToken, error) {
	var tok db.VerificationToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tok, "token = ?", token).Error; err != nil {
			return err
		}
		res := tx.Where("token = ?", token).Delete(&db.VerificationToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, wrap("consume verification token", err)
	}
	return &tok, nil
}
