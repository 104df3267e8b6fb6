package watermark

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.RGBA
	}{
		{"#fff", color.RGBA{255, 255, 255, 255}},
		{"#000", color.RGBA{0, 0, 0, 255}},
		{"#ff8800", color.RGBA{255, 136, 0, 255}},
		{"#FF8800", color.RGBA{255, 136, 0, 255}},
		{"#ff880080", color.RGBA{255, 136, 0, 128}},
		{"ff8800", color.RGBA{255, 136, 0, 255}},
	}
	for _, tc := range cases {
		got, err := ParseHexColor(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseHexColor_Invalid(t *testing.T) {
	for _, in := range []string{"", "#ff", "#ggg", "#12345"} {
		_, err := ParseHexColor(in)
		assert.Error(t, err, in)
	}
}

func TestScaleAlpha(t *testing.T) {
	c := color.RGBA{10, 20, 30, 200}
	assert.Equal(t, uint8(100), scaleAlpha(c, 0.5).A)
	assert.Equal(t, uint8(0), scaleAlpha(c, 0).A)
	assert.Equal(t, uint8(200), scaleAlpha(c, 1).A)
	assert.Equal(t, uint8(10), scaleAlpha(c, 0.5).R)
}
