package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// PasswordResetRepository manages the reset token pair stored on the users table.
// Token values are never logged.
type PasswordResetRepository interface {
	SaveToken(ctx context.Context, userID uint, token string, expires time.Time) error
	FindByValidToken(ctx context.Context, token string, now time.Time) (*model.User, error)
	CompleteReset(ctx context.Context, userID uint, token, passwordHash string, now time.Time) (bool, error)
	ClearToken(ctx context.Context, userID uint, token string) (bool, error)
	ClearExpired(ctx context.Context, now time.Time) (int64, error)
}

type passwordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

// SaveToken writes both reset fields in one statement, replacing any earlier pair
func (r *passwordResetRepository) SaveToken(ctx context.Context, userID uint, token string, expires time.Time) error {
	logger.Debug("Saving password reset token in database", map[string]interface{}{
		"user_id": userID,
		"expires": expires,
	})

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reset_password_token":   token,
			"reset_password_expires": expires.UTC(),
		})
	if result.Error != nil {
		logger.Error("Failed to save password reset token in database", result.Error, map[string]interface{}{
			"user_id": userID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Password reset token saved in database", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// FindByValidToken returns the user holding token with an expiry after now
func (r *passwordResetRepository) FindByValidToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	logger.Debug("Finding user by reset token in database")

	var user model.User
	err := r.db.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_expires > ?", token, now.UTC()).
		First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find user by reset token in database", err)
		}
		return nil, err
	}

	logger.Debug("User found by reset token in database", map[string]interface{}{
		"user_id": user.ID,
	})
	return &user, nil
}

// CompleteReset sets the new password hash and clears both reset fields in a single
// conditional UPDATE. It reports false when the token was no longer valid at commit.
func (r *passwordResetRepository) CompleteReset(ctx context.Context, userID uint, token, passwordHash string, now time.Time) (bool, error) {
	logger.Debug("Completing password reset in database", map[string]interface{}{
		"user_id": userID,
	})

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND reset_password_token = ? AND reset_password_expires > ?", userID, token, now.UTC()).
		Updates(map[string]interface{}{
			"password_hash":          passwordHash,
			"reset_password_token":   gorm.Expr("NULL"),
			"reset_password_expires": gorm.Expr("NULL"),
		})
	if result.Error != nil {
		logger.Error("Failed to complete password reset in database", result.Error, map[string]interface{}{
			"user_id": userID,
		})
		return false, result.Error
	}

	logger.Debug("Password reset completion attempted in database", map[string]interface{}{
		"user_id":   userID,
		"completed": result.RowsAffected > 0,
	})
	return result.RowsAffected > 0, nil
}

// ClearToken clears the reset fields only while they still hold token, so a newer
// request is never undone
func (r *passwordResetRepository) ClearToken(ctx context.Context, userID uint, token string) (bool, error) {
	logger.Debug("Clearing password reset token in database", map[string]interface{}{
		"user_id": userID,
	})

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND reset_password_token = ?", userID, token).
		Updates(map[string]interface{}{
			"reset_password_token":   gorm.Expr("NULL"),
			"reset_password_expires": gorm.Expr("NULL"),
		})
	if result.Error != nil {
		logger.Error("Failed to clear password reset token in database", result.Error, map[string]interface{}{
			"user_id": userID,
		})
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// ClearExpired nulls every reset pair whose expiry is at or before now
func (r *passwordResetRepository) ClearExpired(ctx context.Context, now time.Time) (int64, error) {
	logger.Debug("Clearing expired password reset tokens from database")

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("reset_password_expires IS NOT NULL AND reset_password_expires <= ?", now.UTC()).
		Updates(map[string]interface{}{
			"reset_password_token":   gorm.Expr("NULL"),
			"reset_password_expires": gorm.Expr("NULL"),
		})
	if result.Error != nil {
		logger.Error("Failed to clear expired password reset tokens from database", result.Error)
		return 0, result.Error
	}

	logger.Debug("Expired password reset tokens cleared from database", map[string]interface{}{
		"count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
