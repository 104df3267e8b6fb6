package dto

import "watermark-processor/internal/domain"

// WatermarkSpecRequest is the settings payload of batch and preview
// requests. Sizes, offsets and spacing are at the 800x600 reference
// resolution; spacing is the 0..20 UI scale where 0 means touching tiles.
type WatermarkSpecRequest struct {
	Kind string `json:"kind" validate:"required,oneof=text logo"`

	Text       string  `json:"text,omitempty" validate:"required_if=Kind text,max=512"`
	FontFamily string  `json:"font_family,omitempty" validate:"max=128"`
	FontSize   float64 `json:"font_size,omitempty" validate:"omitempty,gt=0,lte=500"`
	FillColor  string  `json:"fill_color,omitempty" validate:"omitempty,hexcolor"`

	Shadow  *EffectRequest `json:"shadow,omitempty"`
	Outline *EffectRequest `json:"outline,omitempty"`
	Glow    *EffectRequest `json:"glow,omitempty"`

	LogoID    string  `json:"logo_id,omitempty" validate:"required_if=Kind logo,omitempty,uuid4"`
	LogoScale float64 `json:"logo_scale,omitempty" validate:"omitempty,gte=1,lte=500"`
	LogoTint  string  `json:"logo_tint,omitempty" validate:"omitempty,hexcolor"`

	Opacity      float64 `json:"opacity" validate:"gte=0,lte=100"`
	Rotation     float64 `json:"rotation" validate:"gte=-180,lte=180"`
	Pattern      string  `json:"pattern,omitempty" validate:"omitempty,oneof=single grid diagonal"`
	PatternAngle float64 `json:"pattern_angle" validate:"gte=-180,lte=180"`
	SpacingX     float64 `json:"spacing_x" validate:"gte=0,lte=20"`
	SpacingY     float64 `json:"spacing_y" validate:"gte=0,lte=20"`
	Anchor       string  `json:"anchor,omitempty" validate:"omitempty,oneof=top-left top-center top-right middle-left center middle-right bottom-left bottom-center bottom-right"`
	OffsetX      float64 `json:"offset_x" validate:"gte=-4096,lte=4096"`
	OffsetY      float64 `json:"offset_y" validate:"gte=-4096,lte=4096"`
}

type EffectRequest struct {
	Color     string  `json:"color" validate:"required,hexcolor"`
	Blur      float64 `json:"blur" validate:"gte=0,lte=64"`
	OffsetX   float64 `json:"offset_x" validate:"gte=-64,lte=64"`
	OffsetY   float64 `json:"offset_y" validate:"gte=-64,lte=64"`
	Thickness int     `json:"thickness" validate:"gte=0,lte=16"`
}

type CreateBatchRequest struct {
	ImageIDs []string             `json:"image_ids" validate:"required,min=1,max=500,dive,uuid4"`
	Format   string               `json:"format,omitempty" validate:"omitempty,oneof=jpeg png"`
	Spec     WatermarkSpecRequest `json:"spec" validate:"required"`
}

type PreviewRequest struct {
	Spec WatermarkSpecRequest `json:"spec" validate:"required"`
}

// ToDomain converts the request spec to its domain form. The logo storage
// path is resolved by the handler from LogoID.
func (r WatermarkSpecRequest) ToDomain(logoPath string) domain.WatermarkSpec {
	spec := domain.WatermarkSpec{
		Kind:         r.Kind,
		Text:         r.Text,
		FontFamily:   r.FontFamily,
		FontSize:     r.FontSize,
		FillColor:    r.FillColor,
		LogoPath:     logoPath,
		LogoScale:    r.LogoScale,
		LogoTint:     r.LogoTint,
		Opacity:      r.Opacity,
		Rotation:     r.Rotation,
		Pattern:      r.Pattern,
		PatternAngle: r.PatternAngle,
		SpacingX:     r.SpacingX,
		SpacingY:     r.SpacingY,
		Anchor:       r.Anchor,
		OffsetX:      r.OffsetX,
		OffsetY:      r.OffsetY,
	}
	spec.Shadow = r.Shadow.toDomain()
	spec.Outline = r.Outline.toDomain()
	spec.Glow = r.Glow.toDomain()
	return spec
}

func (e *EffectRequest) toDomain() *domain.EffectSpec {
	if e == nil {
		return nil
	}
	return &domain.EffectSpec{
		Color:     e.Color,
		Blur:      e.Blur,
		OffsetX:   e.OffsetX,
		OffsetY:   e.OffsetY,
		Thickness: e.Thickness,
	}
}
