package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"time"

	"watermark-processor/internal/domain"
	"watermark-processor/internal/watermark"

	"github.com/wb-go/wbf/zlog"
	xdraw "golang.org/x/image/draw"
)

// BatchProcessor renders one task's images sequentially through a shared
// engine, so the render cache carries over between similarly sized images.
type BatchProcessor struct {
	engine   *watermark.Engine
	fileRepo fileRepository
	logger   *zlog.Zerolog

	// yield is the pause between images of one batch; it keeps a long batch
	// from starving the process the way the sequential design intends.
	yield time.Duration
}

func NewBatchProcessor(engine *watermark.Engine, fileRepo fileRepository, yield time.Duration, logger *zlog.Zerolog) *BatchProcessor {
	return &BatchProcessor{
		engine:   engine,
		fileRepo: fileRepo,
		logger:   logger,
		yield:    yield,
	}
}

// Process runs the whole batch. Per-image failures are recorded in the
// result and never abort the remaining images; the returned error is
// reserved for failures that invalidate the task itself (bad spec, missing
// logo).
func (p *BatchProcessor) Process(ctx context.Context, task *domain.RenderTask) (*domain.RenderResult, error) {
	result := &domain.RenderResult{
		TaskID:  task.ID,
		BatchID: task.BatchID,
		Status:  domain.BatchCompleted,
		Images:  make([]domain.ImageResult, 0, len(task.Images)),
	}

	settings, err := p.buildTaskSettings(ctx, task.Spec)
	if err != nil {
		result.Status = domain.BatchFailed
		result.Error = err.Error()
		return result, err
	}

	// New spec, new batch: stale tiles from the previous task must not
	// survive a settings change the fingerprint cannot see (custom fonts
	// reloaded, logo object replaced under the same path).
	p.engine.InvalidateCache()

	p.logger.Info().
		Str("batch_id", task.BatchID).
		Int("images", len(task.Images)).
		Str("kind", task.Spec.Kind).
		Str("pattern", task.Spec.Pattern).
		Msg("Batch rendering started")

	var failed int
	for idx, ti := range task.Images {
		imgResult := p.renderOne(ctx, settings, ti, task.BatchID, task.Format)
		if !imgResult.Rendered {
			failed++
		}
		result.Images = append(result.Images, imgResult)

		if idx < len(task.Images)-1 && p.yield > 0 {
			select {
			case <-ctx.Done():
				result.Status = domain.BatchFailed
				result.Error = ctx.Err().Error()
				return result, ctx.Err()
			case <-time.After(p.yield):
			}
		}
	}

	if failed == len(task.Images) {
		result.Status = domain.BatchFailed
	}

	p.logger.Info().
		Str("batch_id", task.BatchID).
		Int("rendered", len(task.Images)-failed).
		Int("failed", failed).
		Msg("Batch rendering finished")

	return result, nil
}

func (p *BatchProcessor) renderOne(ctx context.Context, settings watermark.Settings, ti domain.TaskImage, batchID string, format domain.ImageFormat) domain.ImageResult {
	res := domain.ImageResult{ImageID: ti.ImageID}

	src, err := p.loadImage(ctx, ti.Path)
	if err != nil {
		p.logger.Error().Err(err).Str("image_id", ti.ImageID).Str("path", ti.Path).Msg("Failed to load source image")
		res.Error = fmt.Sprintf("load failed: %v", err)
		return res
	}

	surface := toRGBA(src)

	renderRes, err := p.engine.Render(surface, settings)
	if err != nil {
		p.logger.Error().Err(err).Str("image_id", ti.ImageID).Msg("Render failed")
		res.Error = fmt.Sprintf("render failed: %v", err)
		return res
	}
	if !renderRes.Rendered {
		res.Error = "watermark not configured, nothing to draw"
		return res
	}

	data, contentType, err := encode(surface, format)
	if err != nil {
		p.logger.Error().Err(err).Str("image_id", ti.ImageID).Msg("Encode failed")
		res.Error = fmt.Sprintf("encode failed: %v", err)
		return res
	}

	path := outputPath(ti.ImageID, batchID, format)
	if err := p.fileRepo.SaveRendered(ctx, path, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		p.logger.Error().Err(err).Str("image_id", ti.ImageID).Str("path", path).Msg("Failed to store rendered image")
		res.Error = fmt.Sprintf("store failed: %v", err)
		return res
	}

	p.logger.Debug().
		Str("image_id", ti.ImageID).
		Str("path", path).
		Int("tiles", renderRes.Tiles).
		Bool("cache_hit", renderRes.CacheHit).
		Int("size", len(data)).
		Msg("Image rendered and stored")

	res.Path = path
	res.Size = int64(len(data))
	res.Rendered = true
	return res
}

// Preview renders the spec over one original at preview width and returns
// the encoded JPEG. It runs synchronously in the API process.
func (p *BatchProcessor) Preview(ctx context.Context, originalPath string, spec domain.WatermarkSpec, previewWidth int) ([]byte, error) {
	settings, err := p.buildTaskSettings(ctx, spec)
	if err != nil {
		return nil, err
	}

	src, err := p.loadImage(ctx, originalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load source image: %w", err)
	}

	surface := previewSurface(src, previewWidth)

	if _, err := p.engine.Render(surface, settings); err != nil {
		return nil, fmt.Errorf("preview render failed: %w", err)
	}

	data, _, err := encode(surface, domain.FormatJPEG)
	if err != nil {
		return nil, fmt.Errorf("preview encode failed: %w", err)
	}
	return data, nil
}

func (p *BatchProcessor) buildTaskSettings(ctx context.Context, spec domain.WatermarkSpec) (watermark.Settings, error) {
	var logo image.Image
	if spec.Kind == "logo" {
		if spec.LogoPath == "" {
			return watermark.Settings{}, fmt.Errorf("logo watermark without logo_path")
		}
		var err error
		logo, err = p.loadImage(ctx, spec.LogoPath)
		if err != nil {
			return watermark.Settings{}, fmt.Errorf("failed to load logo %s: %w", spec.LogoPath, err)
		}
	}

	settings, err := BuildSettings(spec, logo)
	if err != nil {
		return watermark.Settings{}, fmt.Errorf("invalid watermark spec: %w", err)
	}
	return settings, nil
}

func (p *BatchProcessor) loadImage(ctx context.Context, path string) (image.Image, error) {
	reader, err := p.fileRepo.GetObject(ctx, path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", path, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// previewSurface copies src into an RGBA surface downscaled to previewWidth
// with the aspect ratio preserved. Sources already narrower stay as-is.
func previewSurface(src image.Image, previewWidth int) *image.RGBA {
	b := src.Bounds()
	if previewWidth <= 0 || b.Dx() <= previewWidth {
		return toRGBA(src)
	}

	h := int(math.Round(float64(b.Dy()) * float64(previewWidth) / float64(b.Dx())))
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, previewWidth, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func encode(img *image.RGBA, format domain.ImageFormat) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case domain.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("png encode: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	default:
		opts := &jpeg.Options{Quality: domain.DefaultJPEGQuality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, "", fmt.Errorf("jpeg encode: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	}
}

func outputPath(imageID, batchID string, format domain.ImageFormat) string {
	ext := "jpg"
	if format == domain.FormatPNG {
		ext = "png"
	}
	return fmt.Sprintf("%s%s/%s.%s", domain.PathPrefixRendered, imageID, batchID, ext)
}
