package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ikkim/storefront-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	folder string
	err    error
}

func (p *fakePresigner) PresignUpload(_ context.Context, folder, filename, _ string) (*storage.PresignedURLResponse, error) {
	p.folder = folder
	if p.err != nil {
		return nil, p.err
	}
	key := folder + "/" + filename
	return &storage.PresignedURLResponse{UploadURL: "https://upload/" + key, FileURL: "https://cdn/" + key, Key: key}, nil
}

func TestUploadService_PresignStorePhoto(t *testing.T) {
	presigner := &fakePresigner{}
	svc := NewUploadService(presigner)

	resp, err := svc.PresignStorePhoto(context.Background(), "front.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "stores", presigner.folder)
	assert.Equal(t, "stores/front.png", resp.Key)
}

func TestUploadService_PresignStorePhoto_RejectsNonImages(t *testing.T) {
	svc := NewUploadService(&fakePresigner{})

	_, err := svc.PresignStorePhoto(context.Background(), "menu.pdf", "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedPhotoType)
}

func TestUploadService_PresignStorePhoto_PresignFailure(t *testing.T) {
	svc := NewUploadService(&fakePresigner{err: errors.New("no credentials")})

	_, err := svc.PresignStorePhoto(context.Background(), "front.png", "image/png")
	assert.Error(t, err)
}
