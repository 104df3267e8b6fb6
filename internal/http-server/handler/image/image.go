package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"watermark-processor/internal/domain"
	"watermark-processor/internal/http-server/handler/image/dto"
	image_uc "watermark-processor/internal/usecase/image"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const (
	maxMemory        = 32 << 20
	defaultListLimit = 50
)

type ImageHandler struct {
	usecase      imageUsecase
	preview      previewRenderer
	previewWidth int
	maxUpload    int64
	validate     *validator.Validate
	logger       *zlog.Zerolog
}

func NewImageHandler(usecase imageUsecase, preview previewRenderer, previewWidth int, maxUpload int64, logger *zlog.Zerolog) *ImageHandler {
	if maxUpload <= 0 {
		maxUpload = domain.DefaultMaxUploadSize
	}
	return &ImageHandler{
		usecase:      usecase,
		preview:      preview,
		previewWidth: previewWidth,
		maxUpload:    maxUpload,
		validate:     validator.New(),
		logger:       logger,
	}
}

func (h *ImageHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, false)
}

func (h *ImageHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, true)
}

func (h *ImageHandler) handleUpload(w http.ResponseWriter, r *http.Request, isLogo bool) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		h.logger.Warn().Err(err).Msg("File not found in request")
		h.respondError(w, http.StatusBadRequest, "File is required", nil)
		return
	}
	defer file.Close()

	if err := h.validateFile(handler); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", handler.Filename).Msg("Failed to read file")
		h.respondError(w, http.StatusInternalServerError, "Failed to read file", err)
		return
	}

	contentType := handler.Header.Get("Content-Type")

	if isLogo {
		logo, err := h.usecase.UploadLogo(ctx, bytes.NewReader(fileBytes), handler.Filename, contentType, int64(len(fileBytes)))
		if err != nil {
			h.logger.Error().Err(err).Str("filename", handler.Filename).Msg("Logo upload failed")
			h.respondError(w, http.StatusInternalServerError, "Failed to upload logo", err)
			return
		}
		h.respondJSON(w, http.StatusCreated, dto.LogoResponse{
			ID:        logo.ID,
			Filename:  logo.OriginalFilename,
			Size:      logo.Size,
			CreatedAt: logo.CreatedAt,
		})
		return
	}

	img, err := h.usecase.UploadImage(ctx, bytes.NewReader(fileBytes), handler.Filename, contentType, int64(len(fileBytes)))
	if err != nil {
		h.logger.Error().Err(err).Str("filename", handler.Filename).Msg("Upload failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to upload file", err)
		return
	}

	h.logger.Info().
		Str("image_id", img.ID).
		Str("filename", img.OriginalFilename).
		Msg("Image uploaded")

	h.respondJSON(w, http.StatusCreated, dto.UploadResponse{
		ID:        img.ID,
		Filename:  img.OriginalFilename,
		Status:    string(img.Status),
		Size:      img.OriginalSize,
		CreatedAt: img.CreatedAt,
	})
}

// Preview renders the posted settings over one image synchronously and
// streams the JPEG back. Every request runs the full pipeline; the caller
// owns debouncing.
func (h *ImageHandler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Image ID is required", nil)
		return
	}

	var req dto.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid watermark settings", err)
		return
	}

	spec, ok := h.resolveSpec(ctx, w, req.Spec)
	if !ok {
		return
	}

	img, err := h.usecase.GetImageRecord(ctx, id)
	if err != nil {
		h.handleGetImageError(w, err, id, "")
		return
	}

	data, err := h.preview.Preview(ctx, img.OriginalPath, spec, h.previewWidth)
	if err != nil {
		h.logger.Error().Err(err).Str("image_id", id).Msg("Preview render failed")
		h.respondError(w, http.StatusUnprocessableEntity, "Preview render failed", err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error().Err(err).Str("image_id", id).Msg("Failed to stream preview")
	}
}

func (h *ImageHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid batch request", err)
		return
	}

	spec, ok := h.resolveSpec(ctx, w, req.Spec)
	if !ok {
		return
	}

	format := domain.FormatJPEG
	if req.Format == "png" {
		format = domain.FormatPNG
	}

	batch, err := h.usecase.CreateBatch(ctx, spec, req.ImageIDs, format)
	if err != nil {
		h.handleBatchError(w, err)
		return
	}

	h.logger.Info().
		Str("batch_id", batch.ID).
		Int("images", batch.Total).
		Msg("Batch accepted")

	h.respondJSON(w, http.StatusAccepted, dto.BatchResponse{
		ID:        batch.ID,
		Status:    string(batch.Status),
		Total:     batch.Total,
		CreatedAt: batch.CreatedAt,
	})
}

func (h *ImageHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Batch ID is required", nil)
		return
	}

	batch, rendered, err := h.usecase.GetBatch(ctx, id)
	if err != nil {
		if errors.Is(err, image_uc.ErrBatchNotFound) {
			h.respondError(w, http.StatusNotFound, "Batch not found", nil)
			return
		}
		h.logger.Error().Err(err).Str("batch_id", id).Msg("Failed to get batch")
		h.respondError(w, http.StatusInternalServerError, "Failed to get batch", err)
		return
	}

	resp := dto.BatchStatusResponse{
		ID:       batch.ID,
		Status:   string(batch.Status),
		Total:    batch.Total,
		Rendered: batch.Rendered,
		Failed:   batch.Failed,
		Images:   make([]dto.RenderedImageResponse, 0, len(rendered)),
	}
	for _, ri := range rendered {
		resp.Images = append(resp.Images, dto.RenderedImageResponse{
			ImageID:  ri.ImageID,
			Path:     ri.Path,
			Size:     ri.Size,
			Rendered: ri.Status == "rendered",
			Error:    ri.Error,
		})
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	batchID := r.URL.Query().Get("batch_id")

	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Image ID is required", nil)
		return
	}

	img, reader, contentType, err := h.usecase.GetImage(ctx, id, batchID)
	if err != nil {
		h.handleGetImageError(w, err, id, batchID)
		return
	}
	defer reader.Close()

	filename := h.getDownloadFilename(img.OriginalFilename, batchID)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", filename))
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error().
			Err(err).
			Str("image_id", id).
			Str("batch_id", batchID).
			Msg("Failed to stream image")
	}
}

func (h *ImageHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Image ID is required", nil)
		return
	}

	status, err := h.usecase.GetStatus(ctx, id)
	if err != nil {
		if errors.Is(err, image_uc.ErrImageNotFound) {
			h.respondError(w, http.StatusNotFound, "Image not found", nil)
			return
		}
		h.logger.Error().Err(err).Str("image_id", id).Msg("Failed to get status")
		h.respondError(w, http.StatusInternalServerError, "Failed to get status", err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.StatusResponse{
		ID:     id,
		Status: string(status),
	})
}

func (h *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := parseQueryInt(r, "limit", defaultListLimit)
	offset := parseQueryInt(r, "offset", 0)

	images, total, err := h.usecase.ListImages(ctx, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list images")
		h.respondError(w, http.StatusInternalServerError, "Failed to list images", err)
		return
	}

	resp := dto.ListImagesResponse{
		Total:  total,
		Images: make([]dto.ImageResponse, 0, len(images)),
	}
	for _, img := range images {
		resp.Images = append(resp.Images, dto.ImageResponse{
			ID:        img.ID,
			Filename:  img.OriginalFilename,
			Size:      img.OriginalSize,
			Status:    string(img.Status),
			CreatedAt: img.CreatedAt,
		})
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *ImageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Image ID is required", nil)
		return
	}

	if err := h.usecase.DeleteImage(ctx, id); err != nil {
		if errors.Is(err, image_uc.ErrImageNotFound) {
			h.respondError(w, http.StatusNotFound, "Image not found", nil)
			return
		}
		h.logger.Error().Err(err).Str("image_id", id).Msg("Failed to delete image")
		h.respondError(w, http.StatusInternalServerError, "Failed to delete image", err)
		return
	}

	h.logger.Info().Str("image_id", id).Msg("Image deleted")
	w.WriteHeader(http.StatusNoContent)
}

// resolveSpec maps a request spec to the domain form, resolving the logo ID
// to its storage path. On failure it writes the error response and returns
// ok=false.
func (h *ImageHandler) resolveSpec(ctx context.Context, w http.ResponseWriter, req dto.WatermarkSpecRequest) (domain.WatermarkSpec, bool) {
	var logoPath string
	if req.Kind == "logo" {
		logo, err := h.usecase.GetLogo(ctx, req.LogoID)
		if err != nil {
			if errors.Is(err, image_uc.ErrLogoNotFound) {
				h.respondError(w, http.StatusNotFound, "Logo not found", nil)
			} else {
				h.logger.Error().Err(err).Str("logo_id", req.LogoID).Msg("Failed to resolve logo")
				h.respondError(w, http.StatusInternalServerError, "Failed to resolve logo", err)
			}
			return domain.WatermarkSpec{}, false
		}
		logoPath = logo.Path
	}
	return req.ToDomain(logoPath), true
}

func (h *ImageHandler) validateFile(handler *multipart.FileHeader) error {
	if handler.Size > h.maxUpload {
		return fmt.Errorf("File is too large (max %d MB)", h.maxUpload/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(handler.Filename))
	if !h.isValidExtension(ext) {
		return fmt.Errorf("Unsupported file format. Allowed: jpg, jpeg, png, gif, webp")
	}

	contentType := handler.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("File must be an image")
	}

	return nil
}

func (h *ImageHandler) isValidExtension(ext string) bool {
	allowed := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".webp": true,
	}
	return allowed[ext]
}

func (h *ImageHandler) handleGetImageError(w http.ResponseWriter, err error, imageID, batchID string) {
	switch {
	case errors.Is(err, image_uc.ErrImageNotFound):
		h.logger.Info().Str("image_id", imageID).Msg("Image not found")
		h.respondError(w, http.StatusNotFound, "Image not found", nil)
	case errors.Is(err, image_uc.ErrRenderedImageNotFound):
		h.logger.Info().Str("image_id", imageID).Str("batch_id", batchID).Msg("Rendered image not found")
		h.respondError(w, http.StatusNotFound, "Rendered version not found", nil)
	default:
		h.logger.Error().Err(err).Str("image_id", imageID).Msg("Failed to get image")
		h.respondError(w, http.StatusInternalServerError, "Failed to get image", err)
	}
}

func (h *ImageHandler) handleBatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, image_uc.ErrEmptyBatch):
		h.respondError(w, http.StatusBadRequest, "Batch contains no images", nil)
	case errors.Is(err, image_uc.ErrImageNotFound):
		h.respondError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, image_uc.ErrMessageQueueError):
		h.logger.Error().Err(err).Msg("Failed to enqueue batch")
		h.respondError(w, http.StatusServiceUnavailable, "Failed to enqueue batch", nil)
	default:
		h.logger.Error().Err(err).Msg("Failed to create batch")
		h.respondError(w, http.StatusInternalServerError, "Failed to create batch", err)
	}
}

func (h *ImageHandler) getDownloadFilename(originalName, batchID string) string {
	if batchID == "" {
		return originalName
	}

	ext := filepath.Ext(originalName)
	name := strings.TrimSuffix(originalName, ext)
	return fmt.Sprintf("%s_watermarked%s", name, ext)
}

func parseQueryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func (h *ImageHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Interface("data", data).Msg("Failed to encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *ImageHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}
