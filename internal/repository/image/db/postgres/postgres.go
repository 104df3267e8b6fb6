package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"watermark-processor/internal/domain"
	"watermark-processor/internal/repository/image"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

const imageColumns = `id, original_filename, original_size, mime_type,
	status, original_path, bucket, created_at, updated_at`

type ImagesRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewImagesRepository(db *dbpg.DB, retries retry.Strategy) *ImagesRepository {
	return &ImagesRepository{
		db:      db,
		retries: retries,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanImage(row rowScanner, img *domain.Image) error {
	return row.Scan(
		&img.ID,
		&img.OriginalFilename,
		&img.OriginalSize,
		&img.MimeType,
		&img.Status,
		&img.OriginalPath,
		&img.Bucket,
		&img.CreatedAt,
		&img.UpdatedAt,
	)
}

func (r *ImagesRepository) Save(ctx context.Context, img *domain.Image) error {
	query := `
		INSERT INTO images (` + imageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		img.ID,
		img.OriginalFilename,
		img.OriginalSize,
		img.MimeType,
		img.Status,
		img.OriginalPath,
		img.Bucket,
		img.CreatedAt,
		img.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}

	return nil
}

// GetByID never returns soft-deleted rows.
func (r *ImagesRepository) GetByID(ctx context.Context, id string) (*domain.Image, error) {
	query := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE id = $1 AND status != $2
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id, domain.StatusDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query image: %w", err)
	}

	var img domain.Image
	if err := scanImage(row, &img); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, image.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to scan image: %w", err)
	}

	return &img, nil
}

func (r *ImagesRepository) UpdateStatus(ctx context.Context, id string, status domain.ImageStatus) error {
	query := `UPDATE images SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return image.ErrImageNotFound
	}

	return nil
}

// Delete is a soft delete: the row stays for audit, reads filter it out.
func (r *ImagesRepository) Delete(ctx context.Context, id string) error {
	return r.UpdateStatus(ctx, id, domain.StatusDeleted)
}

func (r *ImagesRepository) List(ctx context.Context, limit, offset int) ([]domain.Image, error) {
	query := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE status != $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, domain.StatusDeleted, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		var img domain.Image
		if err := scanImage(rows, &img); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return images, nil
}

func (r *ImagesRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM images WHERE status != $1`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, domain.StatusDeleted)
	if err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}

	return count, nil
}

func (r *ImagesRepository) SaveLogo(ctx context.Context, logo *domain.Logo) error {
	query := `
		INSERT INTO logos (id, original_filename, path, size, mime_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		logo.ID,
		logo.OriginalFilename,
		logo.Path,
		logo.Size,
		logo.MimeType,
		logo.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save logo: %w", err)
	}

	return nil
}

func (r *ImagesRepository) GetLogoByID(ctx context.Context, id string) (*domain.Logo, error) {
	query := `
		SELECT id, original_filename, path, size, mime_type, created_at
		FROM logos
		WHERE id = $1
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query logo: %w", err)
	}

	var logo domain.Logo
	err = row.Scan(
		&logo.ID,
		&logo.OriginalFilename,
		&logo.Path,
		&logo.Size,
		&logo.MimeType,
		&logo.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, image.ErrLogoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan logo: %w", err)
	}

	return &logo, nil
}
