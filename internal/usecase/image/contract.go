package image

import (
	"context"
	"io"

	"watermark-processor/internal/domain"

	"github.com/wb-go/wbf/retry"
)

type imageRepository interface {
	Save(ctx context.Context, image *domain.Image) error
	GetByID(ctx context.Context, id string) (*domain.Image, error)
	UpdateStatus(ctx context.Context, id string, status domain.ImageStatus) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]domain.Image, error)
	Count(ctx context.Context) (int, error)
	SaveLogo(ctx context.Context, logo *domain.Logo) error
	GetLogoByID(ctx context.Context, id string) (*domain.Logo, error)
}

type batchRepository interface {
	Save(ctx context.Context, batch *domain.Batch) error
	GetByID(ctx context.Context, id string) (*domain.Batch, error)
	GetRenderedImages(ctx context.Context, batchID string) ([]domain.RenderedImage, error)
	GetRenderedImage(ctx context.Context, batchID, imageID string) (*domain.RenderedImage, error)
	DeleteRenderedImagesForImage(ctx context.Context, imageID string) error
}

type fileRepository interface {
	SaveOriginal(ctx context.Context, filename string, data io.Reader, size int64) (string, error)
	SaveLogo(ctx context.Context, filename string, data io.Reader, size int64) (string, error)
	GetObject(ctx context.Context, path string) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, path string) error
	DeleteObjectsWithPrefix(ctx context.Context, prefix string) error
}

type taskProducer interface {
	SendTask(ctx context.Context, strategy retry.Strategy, key, value []byte) error
}
