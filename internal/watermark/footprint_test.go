package watermark

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEstimator(t *testing.T) *Estimator {
	t.Helper()
	fonts, err := NewFontLibrary()
	require.NoError(t, err)
	return NewEstimator(fonts)
}

func textSettings(content string, size float64) Settings {
	return Settings{
		Kind: KindText,
		Text: TextConfig{Content: content, FontSize: size},
	}
}

func TestTextFootprint_HeightFollowsFontSize(t *testing.T) {
	e := testEstimator(t)

	// 24 * 1.1 = 26.4 rounds up to 27 at reference width.
	fp := e.Estimate(textSettings("© Test", 24), 800, 600)
	assert.Equal(t, 27, fp.H)
	assert.Greater(t, fp.W, 0)
}

func TestTextFootprint_ScalesWithCanvasWidth(t *testing.T) {
	e := testEstimator(t)

	small := e.Estimate(textSettings("watermark", 24), 800, 600)
	large := e.Estimate(textSettings("watermark", 24), 1600, 1200)

	assert.InDelta(t, 2*small.H, large.H, 2)
	assert.InDelta(t, 2*small.W, large.W, float64(small.W)/4)
}

func TestTextFootprint_EmptyStringFallback(t *testing.T) {
	e := testEstimator(t)

	fp := e.Estimate(textSettings("", 24), 800, 600)
	// Empty text measures 0 and the heuristic also yields 0; the estimate
	// still returns a drawable minimum.
	assert.GreaterOrEqual(t, fp.W, 1)
	assert.GreaterOrEqual(t, fp.H, 1)
}

func logoSettings(w, h int, scale float64) Settings {
	return Settings{
		Kind: KindLogo,
		Logo: LogoConfig{
			ID:           "test-logo",
			Source:       image.NewNRGBA(image.Rect(0, 0, w, h)),
			ScalePercent: scale,
		},
	}
}

func TestLogoFootprint_UniformScaleFromShortSide(t *testing.T) {
	e := testEstimator(t)

	// Square 100x100 logo at 20% of min(800,600)=600 → 120x120.
	fp := e.Estimate(logoSettings(100, 100, 20), 800, 600)
	assert.Equal(t, 120, fp.W)
	assert.Equal(t, 120, fp.H)

	// 200x100 logo: ratio = min(120/200, 120/100) = 0.6 → 120x60.
	fp = e.Estimate(logoSettings(200, 100, 20), 800, 600)
	assert.Equal(t, 120, fp.W)
	assert.Equal(t, 60, fp.H)
}

func TestLogoFootprint_MinimumVisibleSize(t *testing.T) {
	e := testEstimator(t)

	fp := e.Estimate(logoSettings(1000, 1000, 1), 100, 100)
	assert.GreaterOrEqual(t, fp.W, minLogoPixels)
	assert.GreaterOrEqual(t, fp.H, minLogoPixels)
}

func TestLogoFootprint_MissingSource(t *testing.T) {
	e := testEstimator(t)

	fp := e.Estimate(Settings{Kind: KindLogo, Logo: LogoConfig{ScalePercent: 50}}, 800, 600)
	assert.Equal(t, minLogoPixels, fp.W)
	assert.Equal(t, minLogoPixels, fp.H)
}

func TestEstimate_SharedBetweenCacheAndLayout(t *testing.T) {
	// The cache tile content and the layout footprint must come from the
	// same estimate, or preview and tiled output drift apart.
	fonts, err := NewFontLibrary()
	require.NoError(t, err)
	estimator := NewEstimator(fonts)
	r := newRenderer(fonts, estimator)

	s := textSettings("© Example", 30)
	tile, err := r.buildTile(s, 800, 600)
	require.NoError(t, err)

	fp := estimator.Estimate(s, 800, 600)
	assert.Equal(t, fp.W, tile.contentW)
	assert.Equal(t, fp.H, tile.contentH)
}
