package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrEmptyReview   = errors.New("review text is required")
)

type ReviewService interface {
	AddReview(ctx context.Context, storeID, authorID uint, text string, rating int) (*model.Review, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	storeRepo  repository.StoreRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, storeRepo repository.StoreRepository) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		storeRepo:  storeRepo,
	}
}

func (s *reviewService) AddReview(ctx context.Context, storeID, authorID uint, text string, rating int) (*model.Review, error) {
	if rating < model.MinRating || rating > model.MaxRating {
		return nil, ErrInvalidRating
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyReview
	}

	if _, err := s.storeRepo.FindByID(ctx, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	review := &model.Review{
		StoreID:  storeID,
		AuthorID: authorID,
		Text:     text,
		Rating:   rating,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	logger.Info("Review added", map[string]interface{}{
		"review_id": review.ID,
		"store_id":  storeID,
		"author_id": authorID,
		"rating":    rating,
	})
	return review, nil
}
