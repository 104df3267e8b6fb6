package watermark

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func testLayout() *LayoutEngine {
	return NewLayoutEngine(&zlog.Logger)
}

func TestSinglePlacement_CornerFlush(t *testing.T) {
	content := Footprint{W: 100, H: 40}

	tests := []struct {
		anchor Anchor
		wantX  float64
		wantY  float64
	}{
		{AnchorTopLeft, 50, 20},
		{AnchorTopRight, 1950, 20},
		{AnchorBottomLeft, 50, 980},
		{AnchorBottomRight, 1950, 980},
	}

	for _, tt := range tests {
		s := Settings{Pattern: PatternSingle, Anchor: tt.anchor}
		got := testLayout().Plan(s, content, 2000, 1000)
		require.Len(t, got, 1)
		assert.Equal(t, tt.wantX, got[0].X, "anchor %s", tt.anchor)
		assert.Equal(t, tt.wantY, got[0].Y, "anchor %s", tt.anchor)
	}
}

func TestSinglePlacement_CenterUsesFraction(t *testing.T) {
	s := Settings{Pattern: PatternSingle, Anchor: AnchorCenter}
	got := testLayout().Plan(s, Footprint{W: 100, H: 40}, 2000, 1000)
	require.Len(t, got, 1)
	assert.Equal(t, 1000.0, got[0].X)
	assert.Equal(t, 500.0, got[0].Y)
}

func TestSinglePlacement_FineOffsetScalesWithCanvas(t *testing.T) {
	s := Settings{
		Pattern: PatternSingle,
		Anchor:  AnchorCenter,
		OffsetX: 10,
		OffsetY: -6,
	}
	// Canvas is 2x the reference on both axes, so the offset doubles.
	got := testLayout().Plan(s, Footprint{W: 50, H: 20}, 1600, 1200)
	require.Len(t, got, 1)
	assert.Equal(t, 800.0+20, got[0].X)
	assert.Equal(t, 600.0-12, got[0].Y)
}

func TestSinglePlacement_CarriesRotation(t *testing.T) {
	s := Settings{Pattern: PatternSingle, Anchor: AnchorCenter, Rotation: 35}
	got := testLayout().Plan(s, Footprint{W: 50, H: 20}, 800, 600)
	require.Len(t, got, 1)
	assert.Equal(t, 35.0, got[0].Angle)
}

func TestGridPlacements_TouchingPitchEqualsContent(t *testing.T) {
	// Spec scenario: text footprint at fontSize 24 on 800x600, spacing 0:
	// column pitch = content width, row pitch = ceil(24*1.1) = 27, first
	// row/column centered at half a pitch.
	content := Footprint{W: 80, H: 27}
	s := Settings{Pattern: PatternGrid}

	placements := testLayout().Plan(s, content, 800, 600)
	require.NotEmpty(t, placements)

	xs := distinctSorted(placements, func(p Placement) float64 { return p.X })
	ys := distinctSorted(placements, func(p Placement) float64 { return p.Y })

	assert.Equal(t, 40.0, xs[0], "first column at half pitch")
	assert.Equal(t, 13.5, ys[0], "first row at half pitch")

	for i := 1; i < len(xs); i++ {
		assert.Equal(t, 80.0, xs[i]-xs[i-1])
	}
	for i := 1; i < len(ys); i++ {
		assert.Equal(t, 27.0, ys[i]-ys[i-1])
	}
}

func TestGridPlacements_RotationDoesNotUsePatternAngle(t *testing.T) {
	s := Settings{Pattern: PatternGrid, Rotation: 15, PatternAngle: 45}
	placements := testLayout().Plan(s, Footprint{W: 60, H: 30}, 800, 600)
	require.NotEmpty(t, placements)
	for _, p := range placements {
		assert.Equal(t, 15.0, p.Angle)
	}
}

func TestDiagonalPlacements_CarryCombinedAngle(t *testing.T) {
	s := Settings{Pattern: PatternDiagonal, PatternAngle: 30, Rotation: 10}
	placements := testLayout().Plan(s, Footprint{W: 60, H: 30}, 800, 600)
	require.NotEmpty(t, placements)
	for _, p := range placements {
		assert.Equal(t, 40.0, p.Angle)
	}
}

func TestDiagonalPlacements_NearZeroAngleFallsBackToGrid(t *testing.T) {
	grid := Settings{Pattern: PatternGrid, SpacingX: 4, SpacingY: 4}
	diag := Settings{Pattern: PatternDiagonal, PatternAngle: 0.5, SpacingX: 4, SpacingY: 4}

	content := Footprint{W: 60, H: 30}
	a := testLayout().Plan(grid, content, 800, 600)
	b := testLayout().Plan(diag, content, 800, 600)
	assert.Equal(t, a, b)
}

func TestDiagonalPlacements_AxisIndependenceUnderRotation(t *testing.T) {
	content := Footprint{W: 90, H: 30}

	// dx must not move when only spacingY changes.
	dxBefore := axisSpacing(3, content.W, false)
	dxAfter := axisSpacing(3, content.W, false)
	assert.Equal(t, dxBefore, dxAfter)

	diag := math.Hypot(800, 600)
	countI := diagonalCount(diag, dxBefore)

	dy1 := axisSpacing(2, content.H, true)
	dy2 := axisSpacing(12, content.H, true)
	require.NotEqual(t, dy1, dy2)

	// The j-axis count reacts to spacingY, the i-axis count does not.
	assert.NotEqual(t, diagonalCount(diag, dy1), diagonalCount(diag, dy2))
	assert.Equal(t, countI, diagonalCount(diag, axisSpacing(3, content.W, false)))

	s1 := Settings{Pattern: PatternDiagonal, PatternAngle: 30, SpacingX: 3, SpacingY: 2}
	s2 := Settings{Pattern: PatternDiagonal, PatternAngle: 30, SpacingX: 3, SpacingY: 12}
	p1 := testLayout().Plan(s1, content, 800, 600)
	p2 := testLayout().Plan(s2, content, 800, 600)
	assert.Greater(t, len(p1), len(p2), "wider vertical spacing must emit fewer tiles")
}

func TestPlan_BoundedIteration(t *testing.T) {
	limit := (2*maxTilesPerAxis + 1) * (2*maxTilesPerAxis + 1)

	// 1px touching pitch on a large canvas: pathological but bounded.
	grid := Settings{Pattern: PatternGrid}
	got := testLayout().Plan(grid, Footprint{W: 1, H: 1}, 2000, 2000)
	assert.LessOrEqual(t, len(got), limit)

	diag := Settings{Pattern: PatternDiagonal, PatternAngle: 30}
	got = testLayout().Plan(diag, Footprint{W: 1, H: 1}, 2000, 2000)
	assert.LessOrEqual(t, len(got), limit)
}

func TestGridPlacements_CoversExtendedViewport(t *testing.T) {
	s := Settings{Pattern: PatternGrid, SpacingX: 5, SpacingY: 5}
	placements := testLayout().Plan(s, Footprint{W: 120, H: 40}, 800, 600)
	require.NotEmpty(t, placements)

	var maxX, maxY float64
	for _, p := range placements {
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	// The last row/column must reach past the canvas edge to avoid seams.
	assert.Greater(t, maxX, 800.0)
	assert.Greater(t, maxY, 600.0)
}

func distinctSorted(placements []Placement, get func(Placement) float64) []float64 {
	seen := make(map[float64]bool)
	var vals []float64
	for _, p := range placements {
		if !seen[get(p)] {
			seen[get(p)] = true
			vals = append(vals, get(p))
		}
	}
	sort.Float64s(vals)
	return vals
}
