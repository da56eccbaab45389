package service

import (
	"context"
	"errors"

	"github.com/ikkim/storefront-backend/internal/storage"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

var ErrUnsupportedPhotoType = errors.New("only image files are allowed (JPEG, PNG, GIF, WEBP)")

const storePhotoFolder = "stores"

var allowedPhotoTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
}

// Presigner issues direct-to-bucket upload URLs
type Presigner interface {
	PresignUpload(ctx context.Context, folder, filename, contentType string) (*storage.PresignedURLResponse, error)
}

type UploadService interface {
	PresignStorePhoto(ctx context.Context, filename, contentType string) (*storage.PresignedURLResponse, error)
}

type uploadService struct {
	presigner Presigner
}

func NewUploadService(presigner Presigner) UploadService {
	return &uploadService{presigner: presigner}
}

func (s *uploadService) PresignStorePhoto(ctx context.Context, filename, contentType string) (*storage.PresignedURLResponse, error) {
	if err := storage.ValidateContentType(contentType, allowedPhotoTypes); err != nil {
		logger.Warn("Rejected store photo upload", map[string]interface{}{
			"content_type": contentType,
		})
		return nil, ErrUnsupportedPhotoType
	}

	resp, err := s.presigner.PresignUpload(ctx, storePhotoFolder, filename, contentType)
	if err != nil {
		logger.Error("Failed to presign store photo upload", err, map[string]interface{}{
			"filename": filename,
		})
		return nil, err
	}

	logger.Info("Store photo upload presigned", map[string]interface{}{
		"key": resp.Key,
	})
	return resp, nil
}
