package watermark

import (
	"image"
	"math"

	"github.com/wb-go/wbf/zlog"
	"golang.org/x/image/font"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Content boxes this small are blitted with their full padded bitmap; the
// sub-rectangle math is meaningless at that size.
const degenerateContentSize = 2

// Compositor draws planned placements onto the target surface.
type Compositor struct {
	renderer  *renderer
	estimator *Estimator
	fonts     *FontLibrary
	logger    *zlog.Zerolog
}

func NewCompositor(r *renderer, estimator *Estimator, fonts *FontLibrary, logger *zlog.Zerolog) *Compositor {
	return &Compositor{renderer: r, estimator: estimator, fonts: fonts, logger: logger}
}

// Draw renders one tiled placement. With a cache entry present it blits the
// entry's content sub-rectangle rotated about the placement center, so
// adjacent touching tiles abut with no residual padding gap. Without one it
// falls back to a reduced-fidelity direct draw so a cache build failure
// never produces a blank frame.
func (c *Compositor) Draw(dst *image.RGBA, p Placement, entry *CacheEntry, s Settings) {
	if entry == nil || entry.Bitmap == nil {
		c.directDraw(dst, p, s)
		return
	}

	src := image.Rect(
		entry.Padding,
		entry.Padding,
		entry.Padding+entry.ContentW,
		entry.Padding+entry.ContentH,
	)
	if entry.ContentW <= degenerateContentSize || entry.ContentH <= degenerateContentSize {
		src = entry.Bitmap.Bounds()
	}

	blitRotated(dst, entry.Bitmap, src, p)
}

// DrawSingle renders a single-mode placement through the dedicated direct
// path: a fresh tile (never the shared cache) whose center is clamped to
// keep the watermark fully inside the canvas.
func (c *Compositor) DrawSingle(dst *image.RGBA, p Placement, s Settings) error {
	t, err := c.renderer.buildTile(s, dst.Bounds().Dx(), dst.Bounds().Dy())
	if err != nil {
		c.logger.Warn().Err(err).Msg("Single watermark tile build failed, using direct draw")
		c.directDraw(dst, p, s)
		return err
	}

	canvasW := float64(dst.Bounds().Dx())
	canvasH := float64(dst.Bounds().Dy())
	halfW := float64(t.contentW) / 2
	halfH := float64(t.contentH) / 2

	p.X = clampF(p.X, halfW, canvasW-halfW)
	p.Y = clampF(p.Y, halfH, canvasH-halfH)

	src := image.Rect(t.padding, t.padding, t.padding+t.contentW, t.padding+t.contentH)
	if t.contentW <= degenerateContentSize || t.contentH <= degenerateContentSize {
		src = t.bitmap.Bounds()
	}
	blitRotated(dst, t.bitmap, src, p)
	return nil
}

// blitRotated maps the src sub-rectangle of bitmap onto dst so that its
// center lands on the placement point, rotated by the placement angle.
func blitRotated(dst *image.RGBA, bitmap *image.NRGBA, src image.Rectangle, p Placement) {
	theta := p.Angle * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)

	ccx := float64(src.Min.X+src.Max.X) / 2
	ccy := float64(src.Min.Y+src.Max.Y) / 2

	s2d := f64.Aff3{
		cos, -sin, p.X - cos*ccx + sin*ccy,
		sin, cos, p.Y - sin*ccx - cos*ccy,
	}
	xdraw.BiLinear.Transform(dst, s2d, bitmap, src, xdraw.Over, nil)
}

// directDraw is the cacheless fallback: no effects, no rotation, just the
// text or logo at the placement.
func (c *Compositor) directDraw(dst *image.RGBA, p Placement, s Settings) {
	canvasW := dst.Bounds().Dx()
	canvasH := dst.Bounds().Dy()
	fp := c.estimator.Estimate(s, canvasW, canvasH)

	if s.Kind == KindLogo {
		if s.Logo.Source == nil {
			return
		}
		target := image.Rect(
			int(p.X)-fp.W/2,
			int(p.Y)-fp.H/2,
			int(p.X)-fp.W/2+fp.W,
			int(p.Y)-fp.H/2+fp.H,
		)
		xdraw.BiLinear.Scale(dst, target, s.Logo.Source, s.Logo.Source.Bounds(), xdraw.Over, nil)
		return
	}

	size := scaledFontSize(s.Text.FontSize, canvasW)
	face := c.fonts.Face(s.Text.FontFamily, size)
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()

	w := font.MeasureString(face, s.Text.Content).Ceil()
	x := int(p.X) - w/2
	baseline := int(p.Y) + (ascent-descent)/2

	drawString(dst, face, x, baseline, s.Text.Content, scaleAlpha(s.Text.Fill, s.opacityFraction()))
}

func clampF(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
