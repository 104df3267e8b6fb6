package watermark

import (
	"image"
	"image/color"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(&zlog.Logger)
	require.NoError(t, err)
	return e
}

func opaquePixelCount(img *image.RGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			n++
		}
	}
	return n
}

func TestRender_SkipsUnconfiguredWatermark(t *testing.T) {
	e := testEngine(t)
	dst := image.NewRGBA(image.Rect(0, 0, 400, 300))

	res, err := e.Render(dst, Settings{Kind: KindText, Pattern: PatternGrid})
	require.NoError(t, err)
	assert.False(t, res.Rendered)
	assert.Zero(t, opaquePixelCount(dst))

	res, err = e.Render(dst, Settings{Kind: KindText, Text: TextConfig{Content: "   "}})
	require.NoError(t, err)
	assert.False(t, res.Rendered)

	res, err = e.Render(dst, Settings{Kind: KindLogo, Pattern: PatternGrid})
	require.NoError(t, err)
	assert.False(t, res.Rendered)
}

func TestRender_InvalidCanvas(t *testing.T) {
	e := testEngine(t)
	dst := image.NewRGBA(image.Rect(0, 0, 0, 0))

	s := cachedTextSettings()
	s.Pattern = PatternGrid
	_, err := e.Render(dst, s)
	assert.Error(t, err)
}

func TestRender_GridDrawsPixels(t *testing.T) {
	e := testEngine(t)
	dst := image.NewRGBA(image.Rect(0, 0, 800, 600))

	s := cachedTextSettings()
	s.Pattern = PatternGrid
	s.SpacingX = 5
	s.SpacingY = 5

	res, err := e.Render(dst, s)
	require.NoError(t, err)
	assert.True(t, res.Rendered)
	assert.Greater(t, res.Tiles, 1)
	assert.False(t, res.CacheHit)
	assert.Greater(t, opaquePixelCount(dst), 0)
}

func TestRender_SecondRenderHitsCache(t *testing.T) {
	e := testEngine(t)

	s := cachedTextSettings()
	s.Pattern = PatternGrid
	s.SpacingX = 5
	s.SpacingY = 5

	_, err := e.Render(image.NewRGBA(image.Rect(0, 0, 800, 600)), s)
	require.NoError(t, err)

	// Batch scenario: next image is near-identical in size.
	res, err := e.Render(image.NewRGBA(image.Rect(0, 0, 790, 610)), s)
	require.NoError(t, err)
	assert.True(t, res.CacheHit)
}

func TestRender_InvalidateCacheForcesRebuild(t *testing.T) {
	e := testEngine(t)

	s := cachedTextSettings()
	s.Pattern = PatternGrid

	_, err := e.Render(image.NewRGBA(image.Rect(0, 0, 800, 600)), s)
	require.NoError(t, err)

	e.InvalidateCache()

	res, err := e.Render(image.NewRGBA(image.Rect(0, 0, 800, 600)), s)
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
}

func TestRender_SinglePlacementDrawsOneTile(t *testing.T) {
	e := testEngine(t)
	dst := image.NewRGBA(image.Rect(0, 0, 800, 600))

	s := cachedTextSettings()
	s.Pattern = PatternSingle
	s.Anchor = AnchorCenter

	res, err := e.Render(dst, s)
	require.NoError(t, err)
	assert.True(t, res.Rendered)
	assert.Equal(t, 1, res.Tiles)
	assert.Greater(t, opaquePixelCount(dst), 0)
}

func TestRender_LogoGrid(t *testing.T) {
	e := testEngine(t)
	dst := image.NewRGBA(image.Rect(0, 0, 800, 600))

	logo := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for i := 3; i < len(logo.Pix); i += 4 {
		logo.Pix[i-3] = 200
		logo.Pix[i] = 255
	}

	s := Settings{
		Kind:    KindLogo,
		Logo:    LogoConfig{ID: "logo-1", Source: logo, ScalePercent: 15},
		Opacity: 80,
		Pattern: PatternGrid,
	}

	res, err := e.Render(dst, s)
	require.NoError(t, err)
	assert.True(t, res.Rendered)
	assert.Greater(t, opaquePixelCount(dst), 0)
}

func TestRender_ZeroOpacityLeavesCanvasUntouched(t *testing.T) {
	e := testEngine(t)
	dst := image.NewRGBA(image.Rect(0, 0, 400, 300))

	s := cachedTextSettings()
	s.Pattern = PatternGrid
	s.Opacity = 0

	res, err := e.Render(dst, s)
	require.NoError(t, err)
	assert.True(t, res.Rendered)
	assert.Zero(t, opaquePixelCount(dst))
}

func TestRender_TintedLogoUsesTintColor(t *testing.T) {
	e := testEngine(t)
	dst := image.NewRGBA(image.Rect(0, 0, 400, 300))

	logo := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < len(logo.Pix); i += 4 {
		logo.Pix[i] = 0
		logo.Pix[i+1] = 200
		logo.Pix[i+2] = 0
		logo.Pix[i+3] = 255
	}
	tint := color.RGBA{255, 0, 0, 255}

	s := Settings{
		Kind:    KindLogo,
		Logo:    LogoConfig{ID: "logo-tint", Source: logo, ScalePercent: 20, Tint: &tint},
		Opacity: 100,
		Pattern: PatternSingle,
		Anchor:  AnchorCenter,
	}

	res, err := e.Render(dst, s)
	require.NoError(t, err)
	require.True(t, res.Rendered)

	var red, green int
	for i := 0; i < len(dst.Pix); i += 4 {
		if dst.Pix[i+3] == 0 {
			continue
		}
		red += int(dst.Pix[i])
		green += int(dst.Pix[i+1])
	}
	assert.Greater(t, red, green, "tint must replace the source color")
}
