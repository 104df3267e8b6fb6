package image

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"watermark-processor/internal/domain"
	repoImage "watermark-processor/internal/repository/image"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type ImageUsecase struct {
	repo     imageRepository
	batches  batchRepository
	fileRepo fileRepository
	producer taskProducer
	logger   *zlog.Zerolog
	retries  retry.Strategy
}

func NewImageUsecase(repo imageRepository, batches batchRepository, fileRepo fileRepository, producer taskProducer, logger *zlog.Zerolog, retries retry.Strategy) *ImageUsecase {
	return &ImageUsecase{
		repo:     repo,
		batches:  batches,
		fileRepo: fileRepo,
		producer: producer,
		logger:   logger,
		retries:  retries,
	}
}

// UploadImage stores a source image. Watermarking happens later, when the
// image is included in a batch.
func (i *ImageUsecase) UploadImage(ctx context.Context, file io.Reader, filename, contentType string, fileSize int64) (*domain.Image, error) {
	originalPath, err := i.fileRepo.SaveOriginal(ctx, filename, file, fileSize)
	if err != nil {
		i.logger.Error().Err(err).Str("filename", filename).Msg("Failed to save original image")
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	img := &domain.Image{
		ID:               uuid.New().String(),
		OriginalFilename: filename,
		OriginalSize:     fileSize,
		MimeType:         contentType,
		Status:           domain.StatusUploaded,
		OriginalPath:     originalPath,
		Bucket:           "watermarks",
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := i.repo.Save(ctx, img); err != nil {
		i.fileRepo.DeleteObject(ctx, originalPath)
		return nil, fmt.Errorf("failed to save image metadata: %w", err)
	}

	i.logger.Info().Str("image_id", img.ID).Str("filename", filename).Msg("Image uploaded")
	return img, nil
}

// UploadLogo stores a watermark logo raster. The returned logo's path is
// what batch specs reference as logo_path.
func (i *ImageUsecase) UploadLogo(ctx context.Context, file io.Reader, filename, contentType string, fileSize int64) (*domain.Logo, error) {
	path, err := i.fileRepo.SaveLogo(ctx, filename, file, fileSize)
	if err != nil {
		i.logger.Error().Err(err).Str("filename", filename).Msg("Failed to save logo")
		return nil, fmt.Errorf("failed to save logo: %w", err)
	}

	logo := &domain.Logo{
		ID:               uuid.New().String(),
		OriginalFilename: filename,
		Path:             path,
		Size:             fileSize,
		MimeType:         contentType,
		CreatedAt:        time.Now(),
	}

	if err := i.repo.SaveLogo(ctx, logo); err != nil {
		i.fileRepo.DeleteObject(ctx, path)
		return nil, fmt.Errorf("failed to save logo metadata: %w", err)
	}

	i.logger.Info().Str("logo_id", logo.ID).Str("path", path).Msg("Logo uploaded")
	return logo, nil
}

// CreateBatch validates the image set, persists the batch and enqueues one
// rendering task covering all of its images.
func (i *ImageUsecase) CreateBatch(ctx context.Context, spec domain.WatermarkSpec, imageIDs []string, format domain.ImageFormat) (*domain.Batch, error) {
	if len(imageIDs) == 0 {
		return nil, ErrEmptyBatch
	}

	taskImages := make([]domain.TaskImage, 0, len(imageIDs))
	for _, id := range imageIDs {
		img, err := i.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repoImage.ErrImageNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrImageNotFound, id)
			}
			return nil, fmt.Errorf("failed to resolve image %s: %w", id, err)
		}
		taskImages = append(taskImages, domain.TaskImage{
			ImageID:  img.ID,
			Path:     img.OriginalPath,
			Filename: img.OriginalFilename,
		})
	}

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal watermark spec: %w", err)
	}

	batch := &domain.Batch{
		ID:        uuid.New().String(),
		Status:    domain.BatchQueued,
		Spec:      string(specJSON),
		Total:     len(taskImages),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := i.batches.Save(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to save batch: %w", err)
	}

	task := domain.RenderTask{
		ID:      uuid.New().String(),
		BatchID: batch.ID,
		Images:  taskImages,
		Spec:    spec,
		Format:  format,
	}

	taskBytes, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := i.producer.SendTask(ctx, i.retries, []byte(batch.ID), taskBytes); err != nil {
		i.logger.Error().Err(err).Str("batch_id", batch.ID).Msg("Failed to enqueue batch task")
		return nil, fmt.Errorf("%w: %v", ErrMessageQueueError, err)
	}

	for _, ti := range taskImages {
		if err := i.repo.UpdateStatus(ctx, ti.ImageID, domain.StatusProcessing); err != nil {
			i.logger.Error().Err(err).Str("image_id", ti.ImageID).Msg("Failed to mark image processing")
		}
	}

	i.logger.Info().
		Str("batch_id", batch.ID).
		Int("images", len(taskImages)).
		Msg("Batch created and queued")
	return batch, nil
}

// GetImage streams the original when batchID is empty, otherwise the
// image's rendered output from that batch.
func (i *ImageUsecase) GetImage(ctx context.Context, id, batchID string) (*domain.Image, io.ReadCloser, string, error) {
	img, err := i.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repoImage.ErrImageNotFound) {
			return nil, nil, "", ErrImageNotFound
		}
		return nil, nil, "", fmt.Errorf("failed to get image: %w", err)
	}

	if batchID == "" {
		reader, err := i.fileRepo.GetObject(ctx, img.OriginalPath)
		if err != nil {
			return nil, nil, "", fmt.Errorf("failed to get original image: %w", err)
		}
		return img, reader, img.MimeType, nil
	}

	rendered, err := i.batches.GetRenderedImage(ctx, batchID, id)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to get rendered image: %w", err)
	}
	if rendered == nil || rendered.Path == "" {
		return nil, nil, "", ErrRenderedImageNotFound
	}

	reader, err := i.fileRepo.GetObject(ctx, rendered.Path)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to get rendered image file: %w", err)
	}

	return img, reader, rendered.MimeType, nil
}

func (i *ImageUsecase) GetStatus(ctx context.Context, id string) (domain.ImageStatus, error) {
	img, err := i.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repoImage.ErrImageNotFound) {
			return "", ErrImageNotFound
		}
		return "", fmt.Errorf("failed to get image status: %w", err)
	}
	return img.Status, nil
}

// GetBatch returns the batch with its per-image outcomes.
func (i *ImageUsecase) GetBatch(ctx context.Context, id string) (*domain.Batch, []domain.RenderedImage, error) {
	batch, err := i.batches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repoImage.ErrBatchNotFound) {
			return nil, nil, ErrBatchNotFound
		}
		return nil, nil, fmt.Errorf("failed to get batch: %w", err)
	}

	rendered, err := i.batches.GetRenderedImages(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get batch outputs: %w", err)
	}

	return batch, rendered, nil
}

// GetImageRecord returns image metadata without opening the stored object.
func (i *ImageUsecase) GetImageRecord(ctx context.Context, id string) (*domain.Image, error) {
	img, err := i.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repoImage.ErrImageNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

func (i *ImageUsecase) GetLogo(ctx context.Context, id string) (*domain.Logo, error) {
	logo, err := i.repo.GetLogoByID(ctx, id)
	if err != nil {
		if errors.Is(err, repoImage.ErrLogoNotFound) {
			return nil, ErrLogoNotFound
		}
		return nil, fmt.Errorf("failed to get logo: %w", err)
	}
	return logo, nil
}

// ListImages returns one page of images plus the total count of live rows.
func (i *ImageUsecase) ListImages(ctx context.Context, limit, offset int) ([]domain.Image, int, error) {
	images, err := i.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list images: %w", err)
	}

	total, err := i.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count images: %w", err)
	}

	return images, total, nil
}

func (i *ImageUsecase) DeleteImage(ctx context.Context, id string) error {
	img, err := i.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repoImage.ErrImageNotFound) {
			return ErrImageNotFound
		}
		return fmt.Errorf("failed to get image for deletion: %w", err)
	}

	if err := i.fileRepo.DeleteObject(ctx, img.OriginalPath); err != nil {
		i.logger.Error().Err(err).Str("path", img.OriginalPath).Msg("Failed to delete original file")
	}

	renderedPrefix := domain.PathPrefixRendered + id + "/"
	if err := i.fileRepo.DeleteObjectsWithPrefix(ctx, renderedPrefix); err != nil {
		i.logger.Error().Err(err).Str("prefix", renderedPrefix).Msg("Failed to delete rendered files")
	}

	if err := i.batches.DeleteRenderedImagesForImage(ctx, id); err != nil {
		i.logger.Error().Err(err).Str("image_id", id).Msg("Failed to delete rendered image rows")
	}

	if err := i.repo.UpdateStatus(ctx, id, domain.StatusDeleted); err != nil {
		return fmt.Errorf("failed to update image status to deleted: %w", err)
	}

	i.logger.Info().Str("image_id", id).Msg("Image deleted")
	return nil
}
