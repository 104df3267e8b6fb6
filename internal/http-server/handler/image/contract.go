package image

import (
	"context"
	"io"

	"watermark-processor/internal/domain"
)

type imageUsecase interface {
	UploadImage(ctx context.Context, file io.Reader, filename, contentType string, fileSize int64) (*domain.Image, error)
	UploadLogo(ctx context.Context, file io.Reader, filename, contentType string, fileSize int64) (*domain.Logo, error)
	CreateBatch(ctx context.Context, spec domain.WatermarkSpec, imageIDs []string, format domain.ImageFormat) (*domain.Batch, error)
	GetImage(ctx context.Context, id, batchID string) (*domain.Image, io.ReadCloser, string, error)
	GetStatus(ctx context.Context, id string) (domain.ImageStatus, error)
	GetBatch(ctx context.Context, id string) (*domain.Batch, []domain.RenderedImage, error)
	ListImages(ctx context.Context, limit, offset int) ([]domain.Image, int, error)
	DeleteImage(ctx context.Context, id string) error
	GetLogo(ctx context.Context, id string) (*domain.Logo, error)
	GetImageRecord(ctx context.Context, id string) (*domain.Image, error)
}

type previewRenderer interface {
	Preview(ctx context.Context, originalPath string, spec domain.WatermarkSpec, previewWidth int) ([]byte, error)
}
