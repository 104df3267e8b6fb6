package dto

import "time"

type UploadResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Status    string    `json:"status"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type LogoResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type StatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type BatchResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

type BatchStatusResponse struct {
	ID       string                  `json:"id"`
	Status   string                  `json:"status"`
	Total    int                     `json:"total"`
	Rendered int                     `json:"rendered"`
	Failed   int                     `json:"failed"`
	Images   []RenderedImageResponse `json:"images"`
}

type RenderedImageResponse struct {
	ImageID  string `json:"image_id"`
	Path     string `json:"path,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Rendered bool   `json:"rendered"`
	Error    string `json:"error,omitempty"`
}

type ImageResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ListImagesResponse struct {
	Total  int             `json:"total"`
	Images []ImageResponse `json:"images"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
