package repository

import (
	"context"
	"errors"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByIDWithStores(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email": user.Email,
	})

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

// FindByIDWithStores loads the user together with the stores they authored
func (r *userRepository) FindByIDWithStores(ctx context.Context, id uint) (*model.User, error) {
	logger.Debug("Finding user by ID with stores in database", map[string]interface{}{
		"user_id": id,
	})

	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Stores", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		First(&user, id).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find user by ID with stores in database", err, map[string]interface{}{
				"user_id": id,
			})
		}
		return nil, err
	}

	logger.Debug("User with stores found by ID in database", map[string]interface{}{
		"user_id":     user.ID,
		"store_count": len(user.Stores),
	})
	return &user, nil
}

// FindByEmail returns gorm.ErrRecordNotFound for unknown addresses. That is the
// normal outcome for registration and forgotten-password lookups and is not
// logged as an error.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	logger.Debug("Finding user by email in database", map[string]interface{}{
		"email": email,
	})

	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug("No user with email in database", map[string]interface{}{
				"email": email,
			})
		} else {
			logger.Error("Failed to find user by email in database", err, map[string]interface{}{
				"email": email,
			})
		}
		return nil, err
	}

	logger.Debug("User found by email in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return &user, nil
}
