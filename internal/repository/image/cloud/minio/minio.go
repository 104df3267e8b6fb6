package minio

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"watermark-processor/internal/config"
	"watermark-processor/internal/domain"
	repoImage "watermark-processor/internal/repository/image"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// FileRepository stores originals, logos and rendered outputs in one MinIO
// bucket under per-purpose prefixes.
type FileRepository struct {
	client  *minio.Client
	bucket  string
	retries retry.Strategy
	logger  *zlog.Zerolog
}

func NewMinIORepository(cfg *config.Config, retries retry.Strategy, logger *zlog.Zerolog) (*FileRepository, error) {
	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	repo := &FileRepository{
		client:  client,
		bucket:  cfg.Minio.Bucket,
		retries: retries,
		logger:  logger,
	}

	if err := repo.ensureBucket(context.Background()); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *FileRepository) ensureBucket(ctx context.Context) error {
	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", r.bucket, err)
	}
	if exists {
		return nil
	}

	if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", r.bucket, err)
	}

	r.logger.Info().Str("bucket", r.bucket).Msg("Created storage bucket")
	return nil
}

// SaveOriginal stores an uploaded source image and returns its object path.
func (r *FileRepository) SaveOriginal(ctx context.Context, filename string, data io.Reader, size int64) (string, error) {
	path := domain.PathPrefixOriginal + uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	if err := r.put(ctx, path, data, size, contentTypeFromPath(filename)); err != nil {
		return "", err
	}
	return path, nil
}

// SaveLogo stores an uploaded watermark logo and returns its object path.
func (r *FileRepository) SaveLogo(ctx context.Context, filename string, data io.Reader, size int64) (string, error) {
	path := domain.PathPrefixLogo + uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	if err := r.put(ctx, path, data, size, contentTypeFromPath(filename)); err != nil {
		return "", err
	}
	return path, nil
}

// SaveRendered stores a watermarked output at the caller-chosen path.
func (r *FileRepository) SaveRendered(ctx context.Context, path string, data io.Reader, size int64, contentType string) error {
	return r.put(ctx, path, data, size, contentType)
}

func (r *FileRepository) put(ctx context.Context, path string, data io.Reader, size int64, contentType string) error {
	attempts := r.retries.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		_, err = r.client.PutObject(ctx, r.bucket, path, data, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err == nil {
			return nil
		}
		// PutObject consumes the reader; retry only when nothing was read.
		if seeker, ok := data.(io.Seeker); ok {
			if _, seekErr := seeker.Seek(0, io.SeekStart); seekErr != nil {
				break
			}
		} else {
			break
		}
		r.logger.Warn().Err(err).Str("path", path).Int("attempt", attempt+1).Msg("Object upload failed, retrying")
	}
	return fmt.Errorf("failed to store object %s: %w", path, err)
}

func (r *FileRepository) GetObject(ctx context.Context, path string) (io.ReadCloser, error) {
	obj, err := r.client.GetObject(ctx, r.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", path, err)
	}

	// GetObject is lazy; Stat surfaces missing keys now instead of on the
	// first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, repoImage.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to stat object %s: %w", path, err)
	}

	return obj, nil
}

func (r *FileRepository) DeleteObject(ctx context.Context, path string) error {
	if err := r.client.RemoveObject(ctx, r.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}

// DeleteObjectsWithPrefix removes every object under prefix, e.g. all
// rendered outputs of one batch.
func (r *FileRepository) DeleteObjectsWithPrefix(ctx context.Context, prefix string) error {
	objects := r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var failed int
	for obj := range objects {
		if obj.Err != nil {
			return fmt.Errorf("failed to list objects with prefix %s: %w", prefix, obj.Err)
		}
		if err := r.client.RemoveObject(ctx, r.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			r.logger.Error().Err(err).Str("key", obj.Key).Msg("Failed to delete object")
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d objects under %s not deleted", repoImage.ErrStorageError, failed, prefix)
	}
	return nil
}

func contentTypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
