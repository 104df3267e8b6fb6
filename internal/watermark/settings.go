package watermark

import (
	"image"
	"image/color"
)

// Reference canvas used by the UI: font sizes, fine offsets and spacing
// curves are defined against it and scaled to the actual canvas at render
// time.
const (
	ReferenceWidth  = 800
	ReferenceHeight = 600
)

type Kind string

const (
	KindText Kind = "text"
	KindLogo Kind = "logo"
)

type PatternMode string

const (
	PatternSingle   PatternMode = "single"
	PatternGrid     PatternMode = "grid"
	PatternDiagonal PatternMode = "diagonal"
)

// Effect describes one text effect layer (shadow, outline or glow).
// Offsets and blur are in reference-resolution pixels.
type Effect struct {
	Enabled   bool
	Color     color.RGBA
	Blur      float64
	OffsetX   float64
	OffsetY   float64
	Thickness int
}

type TextConfig struct {
	Content    string
	FontFamily string
	FontSize   float64 // px at reference width
	Fill       color.RGBA
	Shadow     Effect
	Outline    Effect
	Glow       Effect
}

type LogoConfig struct {
	// ID identifies the source raster (storage path or upload ID); it is
	// the logo's cache identity, the pixels themselves are never hashed.
	ID           string
	Source       image.Image
	ScalePercent float64 // 1..500
	Tint         *color.RGBA
}

// Settings is the complete watermark configuration for one render. It is
// passed by value into every pipeline stage; mutation between renders is
// the caller's concern and is what invalidates the cache fingerprint.
type Settings struct {
	Kind Kind

	Text TextConfig
	Logo LogoConfig

	Opacity      float64 // 0..100
	Rotation     float64 // degrees, per watermark instance
	Pattern      PatternMode
	PatternAngle float64 // degrees, diagonal pattern only
	SpacingX     float64 // UI scale 0..20
	SpacingY     float64 // UI scale 0..20
	Anchor       Anchor  // single mode only
	OffsetX      float64 // reference-resolution px
	OffsetY      float64 // reference-resolution px
}

// opacityFraction clamps Opacity to [0,100] and returns it as 0..1.
func (s Settings) opacityFraction() float64 {
	switch {
	case s.Opacity <= 0:
		return 0
	case s.Opacity >= 100:
		return 1
	default:
		return s.Opacity / 100
	}
}
