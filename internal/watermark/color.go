package watermark

import (
	"fmt"
	"image/color"
	"strings"
)

// ParseHexColor parses "#rgb", "#rrggbb" or "#rrggbbaa" (hash optional).
func ParseHexColor(s string) (color.RGBA, error) {
	str := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(str) {
	case 3:
		str = fmt.Sprintf("%c%c%c%c%c%c", str[0], str[0], str[1], str[1], str[2], str[2])
	case 6, 8:
	default:
		return color.RGBA{}, fmt.Errorf("invalid color format: %q", s)
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(str[:6], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	a := uint8(255)
	if len(str) == 8 {
		if _, err := fmt.Sscanf(str[6:], "%02x", &a); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color alpha %q: %w", s, err)
		}
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// scaleAlpha returns c with its alpha multiplied by frac (0..1).
func scaleAlpha(c color.RGBA, frac float64) color.RGBA {
	if frac >= 1 {
		return c
	}
	if frac < 0 {
		frac = 0
	}
	c.A = uint8(float64(c.A) * frac)
	return c
}
