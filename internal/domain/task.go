package domain

// WatermarkSpec is the wire form of the watermark settings: colors as hex
// strings, sizes and offsets at the 800x600 reference resolution. It travels
// in batch tasks and preview requests and is mapped to the engine's settings
// type by the processor.
type WatermarkSpec struct {
	Kind string `json:"kind"` // "text" or "logo"

	Text       string  `json:"text,omitempty"`
	FontFamily string  `json:"font_family,omitempty"`
	FontSize   float64 `json:"font_size,omitempty"`
	FillColor  string  `json:"fill_color,omitempty"`

	Shadow  *EffectSpec `json:"shadow,omitempty"`
	Outline *EffectSpec `json:"outline,omitempty"`
	Glow    *EffectSpec `json:"glow,omitempty"`

	LogoPath  string  `json:"logo_path,omitempty"`
	LogoScale float64 `json:"logo_scale,omitempty"` // percent, 1..500
	LogoTint  string  `json:"logo_tint,omitempty"`

	Opacity      float64 `json:"opacity"` // 0..100
	Rotation     float64 `json:"rotation"`
	Pattern      string  `json:"pattern"` // "single", "grid", "diagonal"
	PatternAngle float64 `json:"pattern_angle"`
	SpacingX     float64 `json:"spacing_x"` // UI scale 0..20
	SpacingY     float64 `json:"spacing_y"`
	Anchor       string  `json:"anchor,omitempty"`
	OffsetX      float64 `json:"offset_x"`
	OffsetY      float64 `json:"offset_y"`
}

type EffectSpec struct {
	Color     string  `json:"color"`
	Blur      float64 `json:"blur"`
	OffsetX   float64 `json:"offset_x"`
	OffsetY   float64 `json:"offset_y"`
	Thickness int     `json:"thickness"`
}

// TaskImage is one input image of a batch task.
type TaskImage struct {
	ImageID  string `json:"image_id"`
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

// RenderTask is one Kafka message: watermark a set of images with one spec.
type RenderTask struct {
	ID      string        `json:"id"`
	BatchID string        `json:"batch_id"`
	Images  []TaskImage   `json:"images"`
	Spec    WatermarkSpec `json:"spec"`
	Format  ImageFormat   `json:"format"`
}

// ImageResult is the per-image outcome inside a batch result. A batch never
// fails as a whole over one bad image; it carries the error here instead.
type ImageResult struct {
	ImageID  string `json:"image_id"`
	Path     string `json:"path,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Rendered bool   `json:"rendered"`
	Error    string `json:"error,omitempty"`
}

type RenderResult struct {
	TaskID  string        `json:"task_id"`
	BatchID string        `json:"batch_id"`
	Status  BatchStatus   `json:"status"`
	Images  []ImageResult `json:"images"`
	Error   string        `json:"error,omitempty"`
}
