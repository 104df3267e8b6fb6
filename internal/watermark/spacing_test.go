package watermark

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpacingToPixels_TouchingIsExactFootprint(t *testing.T) {
	for _, base := range []float64{1, 6, 27, 100, 513} {
		assert.Equal(t, int(base), SpacingToPixels(0, base, 1, false))
		assert.Equal(t, int(base), SpacingToPixels(0, base, 1, true))
		assert.Equal(t, int(base), SpacingToPixels(-3, base, 1, false))
	}
}

func TestSpacingToPixels_Monotonic(t *testing.T) {
	for _, vertical := range []bool{false, true} {
		prev := -1
		for ui := 0.0; ui <= 20; ui += 0.5 {
			got := SpacingToPixels(ui, 80, 1, vertical)
			assert.GreaterOrEqual(t, got, prev, "ui=%v vertical=%v", ui, vertical)
			prev = got
		}
	}
}

func TestSpacingToPixels_RangeEndpoints(t *testing.T) {
	base := 100.0

	low := SpacingToPixels(1, base, 1, false)
	assert.Greater(t, low, int(base), "value 1 must add a buffer beyond touching")

	high := SpacingToPixels(20, base, 1, false)
	assert.GreaterOrEqual(t, high, int(base*3))
}

func TestSpacingToPixels_VerticalBufferLarger(t *testing.T) {
	// Rows need more clearance than columns: at the same UI value and
	// footprint the vertical pitch must not be smaller.
	h := SpacingToPixels(1, 50, 1, false)
	v := SpacingToPixels(1, 50, 1, true)
	assert.Greater(t, v, h)
}

func TestSpacingToPixels_ValuesAboveRangeClamped(t *testing.T) {
	assert.Equal(t,
		SpacingToPixels(20, 80, 1, false),
		SpacingToPixels(99, 80, 1, false),
	)
}

func TestSpacingToPixels_CanvasScaleAppliesToFootprint(t *testing.T) {
	assert.Equal(t, 200, SpacingToPixels(0, 100, 2, false))
}
