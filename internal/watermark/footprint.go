package watermark

import (
	"math"
	"unicode/utf8"

	"golang.org/x/image/font"
)

// Logo footprints never collapse to invisibility: the uniform scale ratio
// has a floor and each axis keeps a minimum pixel size.
const (
	minLogoRatio  = 0.01
	minLogoPixels = 6
)

// Footprint is the drawn extent of one watermark instance, in pixels at
// the target canvas size, excluding any effect bleed padding.
type Footprint struct {
	W int
	H int
}

// Estimator computes watermark footprints. The same estimate sizes the
// render cache bitmap, the single-mode flush placement and the spacing
// math; the three call sites must never diverge.
type Estimator struct {
	fonts *FontLibrary
}

func NewEstimator(fonts *FontLibrary) *Estimator {
	return &Estimator{fonts: fonts}
}

// Estimate returns the watermark's footprint at the given canvas size.
func (e *Estimator) Estimate(s Settings, canvasW, canvasH int) Footprint {
	if s.Kind == KindLogo {
		return e.logoFootprint(s.Logo, canvasW, canvasH)
	}
	return e.textFootprint(s.Text, canvasW)
}

// scaledFontSize converts the reference-resolution font size to the target
// canvas.
func scaledFontSize(size float64, canvasW int) float64 {
	return size * float64(canvasW) / float64(ReferenceWidth)
}

func (e *Estimator) textFootprint(cfg TextConfig, canvasW int) Footprint {
	size := scaledFontSize(cfg.FontSize, canvasW)
	face := e.fonts.Face(cfg.FontFamily, size)

	w := font.MeasureString(face, cfg.Content).Ceil()
	if w <= 0 {
		// Measurement yields 0 for empty or unrenderable strings.
		w = int(size * 0.6 * float64(utf8.RuneCountInString(cfg.Content)))
	}
	h := int(math.Ceil(size * 1.1))

	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return Footprint{W: w, H: h}
}

func (e *Estimator) logoFootprint(cfg LogoConfig, canvasW, canvasH int) Footprint {
	if cfg.Source == nil {
		return Footprint{W: minLogoPixels, H: minLogoPixels}
	}
	b := cfg.Source.Bounds()
	srcW, srcH := float64(b.Dx()), float64(b.Dy())
	if srcW <= 0 || srcH <= 0 {
		return Footprint{W: minLogoPixels, H: minLogoPixels}
	}

	short := math.Min(float64(canvasW), float64(canvasH))
	target := short * cfg.ScalePercent / 100

	ratio := math.Min(target/srcW, target/srcH)
	if ratio < minLogoRatio {
		ratio = minLogoRatio
	}

	w := int(math.Round(srcW * ratio))
	h := int(math.Round(srcH * ratio))
	if w < minLogoPixels {
		w = minLogoPixels
	}
	if h < minLogoPixels {
		h = minLogoPixels
	}
	return Footprint{W: w, H: h}
}
