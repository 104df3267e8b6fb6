package processor

import (
	"fmt"
	"image"

	"watermark-processor/internal/domain"
	"watermark-processor/internal/watermark"
)

const (
	defaultFontSize  = 24
	defaultFillColor = "#ffffff"
	defaultLogoScale = 20
)

// BuildSettings maps a wire spec onto the engine's settings value. The logo
// raster is passed in decoded; the spec only carries its storage path.
func BuildSettings(spec domain.WatermarkSpec, logo image.Image) (watermark.Settings, error) {
	s := watermark.Settings{
		Opacity:      spec.Opacity,
		Rotation:     spec.Rotation,
		PatternAngle: spec.PatternAngle,
		SpacingX:     spec.SpacingX,
		SpacingY:     spec.SpacingY,
		Anchor:       watermark.Anchor(spec.Anchor),
		OffsetX:      spec.OffsetX,
		OffsetY:      spec.OffsetY,
	}

	switch spec.Pattern {
	case "single":
		s.Pattern = watermark.PatternSingle
	case "diagonal":
		s.Pattern = watermark.PatternDiagonal
	case "grid", "":
		s.Pattern = watermark.PatternGrid
	default:
		return watermark.Settings{}, fmt.Errorf("unknown pattern %q", spec.Pattern)
	}

	if spec.Kind == "logo" {
		s.Kind = watermark.KindLogo
		scale := spec.LogoScale
		if scale <= 0 {
			scale = defaultLogoScale
		}
		s.Logo = watermark.LogoConfig{
			ID:           spec.LogoPath,
			Source:       logo,
			ScalePercent: scale,
		}
		if spec.LogoTint != "" {
			tint, err := watermark.ParseHexColor(spec.LogoTint)
			if err != nil {
				return watermark.Settings{}, fmt.Errorf("invalid logo tint: %w", err)
			}
			s.Logo.Tint = &tint
		}
		return s, nil
	}

	s.Kind = watermark.KindText

	fillHex := spec.FillColor
	if fillHex == "" {
		fillHex = defaultFillColor
	}
	fill, err := watermark.ParseHexColor(fillHex)
	if err != nil {
		return watermark.Settings{}, fmt.Errorf("invalid fill color: %w", err)
	}

	size := spec.FontSize
	if size <= 0 {
		size = defaultFontSize
	}

	s.Text = watermark.TextConfig{
		Content:    spec.Text,
		FontFamily: spec.FontFamily,
		FontSize:   size,
		Fill:       fill,
	}

	if spec.Shadow != nil {
		s.Text.Shadow, err = buildEffect(*spec.Shadow)
		if err != nil {
			return watermark.Settings{}, fmt.Errorf("invalid shadow: %w", err)
		}
	}
	if spec.Outline != nil {
		s.Text.Outline, err = buildEffect(*spec.Outline)
		if err != nil {
			return watermark.Settings{}, fmt.Errorf("invalid outline: %w", err)
		}
	}
	if spec.Glow != nil {
		s.Text.Glow, err = buildEffect(*spec.Glow)
		if err != nil {
			return watermark.Settings{}, fmt.Errorf("invalid glow: %w", err)
		}
	}

	return s, nil
}

func buildEffect(spec domain.EffectSpec) (watermark.Effect, error) {
	col, err := watermark.ParseHexColor(spec.Color)
	if err != nil {
		return watermark.Effect{}, err
	}
	return watermark.Effect{
		Enabled:   true,
		Color:     col,
		Blur:      spec.Blur,
		OffsetX:   spec.OffsetX,
		OffsetY:   spec.OffsetY,
		Thickness: spec.Thickness,
	}, nil
}
