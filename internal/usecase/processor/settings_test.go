package processor

import (
	"image"
	"image/color"
	"testing"

	"watermark-processor/internal/domain"
	"watermark-processor/internal/watermark"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSettings_Text(t *testing.T) {
	spec := domain.WatermarkSpec{
		Kind:         "text",
		Text:         "© Example",
		FontSize:     30,
		FillColor:    "#ff8800",
		Opacity:      60,
		Rotation:     -30,
		Pattern:      "diagonal",
		PatternAngle: 45,
		SpacingX:     3,
		SpacingY:     7,
		Shadow: &domain.EffectSpec{
			Color:   "#000000",
			Blur:    2,
			OffsetX: 3,
			OffsetY: 3,
		},
	}

	s, err := BuildSettings(spec, nil)
	require.NoError(t, err)

	assert.Equal(t, watermark.KindText, s.Kind)
	assert.Equal(t, watermark.PatternDiagonal, s.Pattern)
	assert.Equal(t, "© Example", s.Text.Content)
	assert.Equal(t, color.RGBA{255, 136, 0, 255}, s.Text.Fill)
	assert.True(t, s.Text.Shadow.Enabled)
	assert.Equal(t, 3.0, s.Text.Shadow.OffsetX)
	assert.False(t, s.Text.Outline.Enabled)
	assert.Equal(t, 60.0, s.Opacity)
	assert.Equal(t, -30.0, s.Rotation)
	assert.Equal(t, 45.0, s.PatternAngle)
}

func TestBuildSettings_TextDefaults(t *testing.T) {
	s, err := BuildSettings(domain.WatermarkSpec{Kind: "text", Text: "x"}, nil)
	require.NoError(t, err)

	assert.Equal(t, watermark.PatternGrid, s.Pattern)
	assert.Equal(t, float64(defaultFontSize), s.Text.FontSize)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, s.Text.Fill)
}

func TestBuildSettings_Logo(t *testing.T) {
	logo := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	spec := domain.WatermarkSpec{
		Kind:      "logo",
		LogoPath:  "logos/abc.png",
		LogoScale: 35,
		LogoTint:  "#112233",
		Pattern:   "single",
		Anchor:    "bottom-right",
	}

	s, err := BuildSettings(spec, logo)
	require.NoError(t, err)

	assert.Equal(t, watermark.KindLogo, s.Kind)
	assert.Equal(t, watermark.PatternSingle, s.Pattern)
	assert.Equal(t, "logos/abc.png", s.Logo.ID)
	assert.Equal(t, 35.0, s.Logo.ScalePercent)
	require.NotNil(t, s.Logo.Tint)
	assert.Equal(t, color.RGBA{0x11, 0x22, 0x33, 255}, *s.Logo.Tint)
	assert.Equal(t, watermark.AnchorBottomRight, s.Anchor)
}

func TestBuildSettings_LogoScaleDefault(t *testing.T) {
	s, err := BuildSettings(domain.WatermarkSpec{Kind: "logo", LogoPath: "p"}, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(defaultLogoScale), s.Logo.ScalePercent)
}

func TestBuildSettings_Invalid(t *testing.T) {
	_, err := BuildSettings(domain.WatermarkSpec{Kind: "text", Pattern: "spiral"}, nil)
	assert.Error(t, err)

	_, err = BuildSettings(domain.WatermarkSpec{Kind: "text", FillColor: "#zzz"}, nil)
	assert.Error(t, err)

	_, err = BuildSettings(domain.WatermarkSpec{
		Kind:    "text",
		Outline: &domain.EffectSpec{Color: "nope"},
	}, nil)
	assert.Error(t, err)
}
