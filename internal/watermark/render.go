package watermark

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
)

// Tile padding accommodates shadow/glow bleed outside the content box.
const (
	tilePaddingFraction = 0.15
	tilePaddingBase     = 4

	// Hard ceiling on offscreen tile surfaces; a build beyond this fails
	// and the compositor falls back to direct drawing.
	maxTileSide = 8192
)

// tile is one rendered watermark appearance: the content centered in a
// padded offscreen bitmap, with effects and opacity baked in.
type tile struct {
	bitmap   *image.NRGBA
	contentW int
	contentH int
	padding  int
}

// renderer draws watermark tiles. It is shared by the render cache and the
// single-mode direct path so both produce identical pixels.
type renderer struct {
	fonts     *FontLibrary
	estimator *Estimator
}

func newRenderer(fonts *FontLibrary, estimator *Estimator) *renderer {
	return &renderer{fonts: fonts, estimator: estimator}
}

func tilePadding(fp Footprint) int {
	longest := fp.W
	if fp.H > longest {
		longest = fp.H
	}
	return int(math.Ceil(float64(longest)*tilePaddingFraction)) + tilePaddingBase
}

// buildTile renders the watermark for the given settings at the given
// canvas size into a fresh padded bitmap.
func (r *renderer) buildTile(s Settings, canvasW, canvasH int) (*tile, error) {
	fp := r.estimator.Estimate(s, canvasW, canvasH)
	padding := tilePadding(fp)
	totalW := fp.W + 2*padding
	totalH := fp.H + 2*padding
	if totalW > maxTileSide || totalH > maxTileSide {
		return nil, fmt.Errorf("watermark tile %dx%d exceeds surface limit", totalW, totalH)
	}

	bitmap := image.NewNRGBA(image.Rect(0, 0, totalW, totalH))

	switch s.Kind {
	case KindLogo:
		if err := r.renderLogo(bitmap, s.Logo, fp, padding); err != nil {
			return nil, err
		}
	default:
		r.renderText(bitmap, s.Text, canvasW, fp, padding)
	}

	if frac := s.opacityFraction(); frac < 1 {
		applyOpacity(bitmap, frac)
	}

	return &tile{bitmap: bitmap, contentW: fp.W, contentH: fp.H, padding: padding}, nil
}

func (r *renderer) renderText(dst *image.NRGBA, cfg TextConfig, canvasW int, fp Footprint, padding int) {
	size := scaledFontSize(cfg.FontSize, canvasW)
	scale := float64(canvasW) / float64(ReferenceWidth)
	face := r.fonts.Face(cfg.FontFamily, size)

	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()

	x := padding
	baseline := padding + (fp.H+ascent-descent)/2

	if cfg.Glow.Enabled {
		layer := image.NewNRGBA(dst.Bounds())
		drawString(layer, face, x, baseline, cfg.Content, cfg.Glow.Color)
		sigma := math.Max(1, cfg.Glow.Blur*scale)
		blurred := imaging.Blur(layer, sigma)
		draw.Draw(dst, dst.Bounds(), blurred, image.Point{}, draw.Over)
	}

	if cfg.Shadow.Enabled {
		layer := image.NewNRGBA(dst.Bounds())
		sx := x + int(math.Round(cfg.Shadow.OffsetX*scale))
		sy := baseline + int(math.Round(cfg.Shadow.OffsetY*scale))
		drawString(layer, face, sx, sy, cfg.Content, cfg.Shadow.Color)
		if cfg.Shadow.Blur > 0 {
			blurred := imaging.Blur(layer, math.Max(0.5, cfg.Shadow.Blur*scale))
			draw.Draw(dst, dst.Bounds(), blurred, image.Point{}, draw.Over)
		} else {
			draw.Draw(dst, dst.Bounds(), layer, image.Point{}, draw.Over)
		}
	}

	if cfg.Outline.Enabled && cfg.Outline.Thickness > 0 {
		// Stroke approximation: ring of offset draws before the fill.
		t := cfg.Outline.Thickness
		for dy := -t; dy <= t; dy++ {
			for dx := -t; dx <= t; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if dx*dx+dy*dy > t*t {
					continue
				}
				drawString(dst, face, x+dx, baseline+dy, cfg.Content, cfg.Outline.Color)
			}
		}
	}

	drawString(dst, face, x, baseline, cfg.Content, cfg.Fill)
}

func (r *renderer) renderLogo(dst *image.NRGBA, cfg LogoConfig, fp Footprint, padding int) error {
	if cfg.Source == nil {
		return fmt.Errorf("logo source image is not set")
	}

	scaled := image.NewNRGBA(image.Rect(0, 0, fp.W, fp.H))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), cfg.Source, cfg.Source.Bounds(), xdraw.Over, nil)

	target := image.Rect(padding, padding, padding+fp.W, padding+fp.H)
	draw.Draw(dst, target, scaled, image.Point{}, draw.Over)

	if cfg.Tint != nil {
		// Flat tint: fill the tint color through the logo's own alpha.
		draw.DrawMask(dst, target, image.NewUniform(*cfg.Tint), image.Point{}, scaled, image.Point{}, draw.Over)
	}

	return nil
}

func drawString(dst draw.Image, face font.Face, x, y int, s string, col color.RGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func applyOpacity(img *image.NRGBA, frac float64) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(float64(img.Pix[i]) * frac)
	}
}
