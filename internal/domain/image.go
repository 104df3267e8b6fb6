package domain

import "time"

type Image struct {
	ID               string
	OriginalFilename string
	OriginalSize     int64
	MimeType         string
	Status           ImageStatus
	OriginalPath     string
	Bucket           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Logo is an uploaded watermark raster. Its storage path doubles as the
// render cache identity for the logo bitmap.
type Logo struct {
	ID               string
	OriginalFilename string
	Path             string
	Size             int64
	MimeType         string
	CreatedAt        time.Time
}

// Batch is one watermarking job over a set of uploaded images with a single
// shared settings payload.
type Batch struct {
	ID        string
	Status    BatchStatus
	Spec      string // settings JSON as submitted
	Total     int
	Rendered  int
	Failed    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RenderedImage is one batch output object.
type RenderedImage struct {
	ID        string
	BatchID   string
	ImageID   string
	Path      string
	Size      int64
	MimeType  string
	Format    ImageFormat
	Status    string
	Error     string
	CreatedAt time.Time
}

type ImageStatus string

const (
	StatusUploaded   ImageStatus = "uploaded"
	StatusProcessing ImageStatus = "processing"
	StatusCompleted  ImageStatus = "completed"
	StatusFailed     ImageStatus = "failed"
	StatusDeleted    ImageStatus = "deleted"
)

type BatchStatus string

const (
	BatchQueued     BatchStatus = "queued"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
)

const (
	PathPrefixOriginal = "originals/"
	PathPrefixLogo     = "logos/"
	PathPrefixRendered = "rendered/"
)

const (
	DefaultMaxUploadSize = 32 << 20
	DefaultJPEGQuality   = 90
)
