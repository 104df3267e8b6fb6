package image

import "errors"

var (
	ErrInvalidFileFormat     = errors.New("invalid file format")
	ErrFileTooLarge          = errors.New("file too large")
	ErrImageNotFound         = errors.New("image not found")
	ErrLogoNotFound          = errors.New("logo not found")
	ErrBatchNotFound         = errors.New("batch not found")
	ErrRenderedImageNotFound = errors.New("rendered image not found")
	ErrEmptyBatch            = errors.New("batch contains no images")
	ErrStorageError          = errors.New("storage error")
	ErrMessageQueueError     = errors.New("message queue error")
)
