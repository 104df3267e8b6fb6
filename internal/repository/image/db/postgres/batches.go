package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"watermark-processor/internal/domain"
	"watermark-processor/internal/repository/image"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

type BatchesRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewBatchesRepository(db *dbpg.DB, retries retry.Strategy) *BatchesRepository {
	return &BatchesRepository{
		db:      db,
		retries: retries,
	}
}

func (r *BatchesRepository) Save(ctx context.Context, batch *domain.Batch) error {
	query := `
		INSERT INTO batches (id, status, spec, total, rendered, failed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		batch.ID,
		batch.Status,
		batch.Spec,
		batch.Total,
		batch.Rendered,
		batch.Failed,
		batch.CreatedAt,
		batch.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}

	return nil
}

func (r *BatchesRepository) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	query := `
		SELECT id, status, spec, total, rendered, failed, created_at, updated_at
		FROM batches
		WHERE id = $1
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch: %w", err)
	}

	var batch domain.Batch
	err = row.Scan(
		&batch.ID,
		&batch.Status,
		&batch.Spec,
		&batch.Total,
		&batch.Rendered,
		&batch.Failed,
		&batch.CreatedAt,
		&batch.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, image.ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan batch: %w", err)
	}

	return &batch, nil
}

func (r *BatchesRepository) UpdateStatus(ctx context.Context, id string, status domain.BatchStatus) error {
	query := `UPDATE batches SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update batch status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return image.ErrBatchNotFound
	}

	return nil
}

// UpdateCounts records the per-image outcome tally alongside the final
// status.
func (r *BatchesRepository) UpdateCounts(ctx context.Context, id string, status domain.BatchStatus, rendered, failed int) error {
	query := `UPDATE batches SET status = $1, rendered = $2, failed = $3, updated_at = $4 WHERE id = $5`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, status, rendered, failed, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update batch counts: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return image.ErrBatchNotFound
	}

	return nil
}

func (r *BatchesRepository) SaveRenderedImage(ctx context.Context, rendered *domain.RenderedImage) error {
	query := `
		INSERT INTO rendered_images (
			id, batch_id, image_id, path, size, mime_type, format, status, error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	rendered.ID = uuid.New().String()
	rendered.CreatedAt = time.Now()

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		rendered.ID,
		rendered.BatchID,
		rendered.ImageID,
		rendered.Path,
		rendered.Size,
		rendered.MimeType,
		rendered.Format,
		rendered.Status,
		rendered.Error,
		rendered.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save rendered image: %w", err)
	}

	return nil
}

func (r *BatchesRepository) GetRenderedImages(ctx context.Context, batchID string) ([]domain.RenderedImage, error) {
	query := `
		SELECT id, batch_id, image_id, path, size, mime_type, format, status, error, created_at
		FROM rendered_images
		WHERE batch_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rendered images: %w", err)
	}
	defer rows.Close()

	var rendered []domain.RenderedImage
	for rows.Next() {
		var ri domain.RenderedImage
		err := rows.Scan(
			&ri.ID,
			&ri.BatchID,
			&ri.ImageID,
			&ri.Path,
			&ri.Size,
			&ri.MimeType,
			&ri.Format,
			&ri.Status,
			&ri.Error,
			&ri.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rendered image: %w", err)
		}
		rendered = append(rendered, ri)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rendered images: %w", err)
	}

	return rendered, nil
}

// GetRenderedImage returns one batch output row, nil when the image has no
// output in the batch.
func (r *BatchesRepository) GetRenderedImage(ctx context.Context, batchID, imageID string) (*domain.RenderedImage, error) {
	query := `
		SELECT id, batch_id, image_id, path, size, mime_type, format, status, error, created_at
		FROM rendered_images
		WHERE batch_id = $1 AND image_id = $2
		LIMIT 1
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, batchID, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rendered image: %w", err)
	}

	var ri domain.RenderedImage
	err = row.Scan(
		&ri.ID,
		&ri.BatchID,
		&ri.ImageID,
		&ri.Path,
		&ri.Size,
		&ri.MimeType,
		&ri.Format,
		&ri.Status,
		&ri.Error,
		&ri.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan rendered image: %w", err)
	}

	return &ri, nil
}

func (r *BatchesRepository) DeleteRenderedImagesForImage(ctx context.Context, imageID string) error {
	query := `DELETE FROM rendered_images WHERE image_id = $1`

	if _, err := r.db.ExecWithRetry(ctx, r.retries, query, imageID); err != nil {
		return fmt.Errorf("failed to delete rendered images: %w", err)
	}

	return nil
}
