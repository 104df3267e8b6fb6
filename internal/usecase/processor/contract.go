package processor

import (
	"context"
	"io"
)

type fileRepository interface {
	GetObject(ctx context.Context, path string) (io.ReadCloser, error)
	SaveRendered(ctx context.Context, path string, data io.Reader, size int64, contentType string) error
}
