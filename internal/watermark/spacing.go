package watermark

import "math"

// Spacing curve constants. The vertical axis gets a larger minimum buffer
// than the horizontal one: text rows need more clearance than columns.
const (
	maxUISpacing = 20

	horizontalBufferFloor    = 8.0
	horizontalBufferFraction = 0.18
	verticalBufferFloor      = 12.0
	verticalBufferFraction   = 0.30

	// Absolute ceiling for the widest spacing step, at reference scale.
	spacingCapPixels = 600.0
)

// SpacingToPixels converts a UI spacing value (0..20) to a center-to-center
// pixel distance for one axis.
//
// base is the watermark footprint on that axis and canvasScale any extra
// scale factor to apply to it (pass 1 when base is already in target canvas
// pixels, as the layout engine does with cache content dimensions).
//
// A value of 0 is the touching case: consecutive centers are exactly one
// footprint apart. Above that the distance follows an exponential curve
// from actual+buffer at 1 to max(actual*3, cap*canvasScale) at 20;
// exponential rather than linear so low values give fine control.
func SpacingToPixels(ui float64, base, canvasScale float64, vertical bool) int {
	actual := base * canvasScale
	if ui <= 0 {
		return int(math.Round(actual))
	}
	if ui > maxUISpacing {
		ui = maxUISpacing
	}

	floor, frac := horizontalBufferFloor, horizontalBufferFraction
	if vertical {
		floor, frac = verticalBufferFloor, verticalBufferFraction
	}

	buffer := math.Max(floor, actual*frac)
	minSpacing := actual + buffer
	maxSpacing := math.Max(actual*3, spacingCapPixels*canvasScale)
	if maxSpacing < minSpacing {
		maxSpacing = minSpacing
	}

	t := (ui - 1) / (maxUISpacing - 1)
	if t < 0 {
		t = 0
	}

	return int(math.Round(minSpacing * math.Pow(maxSpacing/minSpacing, t)))
}
