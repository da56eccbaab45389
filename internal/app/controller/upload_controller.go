package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type UploadController struct {
	uploadService service.UploadService
}

func NewUploadController(uploadService service.UploadService) *UploadController {
	return &UploadController{
		uploadService: uploadService,
	}
}

type PresignPhotoRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// PresignStorePhoto hands out a direct-to-bucket upload URL for a store photo
// POST /api/v1/stores/photo
func (ctrl *UploadController) PresignStorePhoto(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req PresignPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	resp, err := ctrl.uploadService.PresignStorePhoto(c.Request.Context(), req.Filename, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedPhotoType) {
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, service.ErrUnsupportedPhotoType.Error())
			return
		}
		log.Error("Failed to presign store photo", err, map[string]interface{}{
			"filename": req.Filename,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to generate upload URL")
		return
	}

	c.JSON(http.StatusOK, resp)
}
