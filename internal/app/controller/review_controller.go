package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{
		reviewService: reviewService,
	}
}

type ReviewRequest struct {
	Text   string `json:"text" binding:"required"`
	Rating int    `json:"rating" binding:"required"`
}

// AddReview posts a review on the store in the path
// POST /api/v1/reviews/:id
func (ctrl *ReviewController) AddReview(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Oops you must be logged in to do that!")
		return
	}
	storeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid review data")
		return
	}

	review, err := ctrl.reviewService.AddReview(c.Request.Context(), storeID, userID, req.Text, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRating):
			apperrors.BadRequest(c, apperrors.ReviewInvalidRating, "Rating must be between 1 and 5")
		case errors.Is(err, service.ErrEmptyReview):
			apperrors.BadRequest(c, apperrors.ReviewEmpty, "Review text is required")
		case errors.Is(err, service.ErrStoreNotFound):
			apperrors.NotFound(c, apperrors.StoreNotFound, "Store not found")
		default:
			middleware.GetLoggerFromContext(c).Error("Failed to add review", err, map[string]interface{}{
				"store_id": storeID,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "add review")
		}
		return
	}

	apperrors.FlashSuccess(c, "Review Saved!", "back", gin.H{"review": review})
}
