package repository

import (
	"context"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByStoreID(ctx context.Context, storeID uint) ([]model.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	logger.Debug("Creating review in database", map[string]interface{}{
		"store_id":  review.StoreID,
		"author_id": review.AuthorID,
	})

	if err := r.db.WithContext(ctx).Omit("Author").Create(review).Error; err != nil {
		logger.Error("Failed to create review in database", err, map[string]interface{}{
			"store_id":  review.StoreID,
			"author_id": review.AuthorID,
		})
		return err
	}

	logger.Debug("Review created in database", map[string]interface{}{
		"review_id": review.ID,
		"store_id":  review.StoreID,
	})
	return nil
}

// FindByStoreID lists a store's reviews, newest first
func (r *reviewRepository) FindByStoreID(ctx context.Context, storeID uint) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		logger.Error("Failed to find reviews by store", err, map[string]interface{}{
			"store_id": storeID,
		})
		return nil, err
	}
	return reviews, nil
}
