package watermark

import (
	"math"

	"github.com/wb-go/wbf/zlog"
)

// maxTilesPerAxis bounds worst-case iteration when spacing rounds to
// near-zero on a large canvas.
const maxTilesPerAxis = 120

// Diagonal patterns within a degree of zero are laid out as an orthogonal
// grid; the rotated math degenerates there anyway.
const orthogonalAngleEpsilon = 1.0

// Anchor fractions at or beyond these thresholds trigger flush-to-edge
// placement in single mode.
const (
	flushLowThreshold  = 0.2
	flushHighThreshold = 0.8
)

// Placement is one watermark instance to draw: center coordinates on the
// canvas and the rotation in degrees. Ephemeral, produced per render.
type Placement struct {
	X     float64
	Y     float64
	Angle float64
}

// LayoutEngine turns settings, a watermark footprint and a canvas size into
// the list of placements to draw.
type LayoutEngine struct {
	logger *zlog.Zerolog
}

func NewLayoutEngine(logger *zlog.Zerolog) *LayoutEngine {
	return &LayoutEngine{logger: logger}
}

// Plan enumerates placement points. content must be the cache entry's
// content (unpadded) footprint; padded dimensions would produce visible
// double-gaps in tiled modes.
func (l *LayoutEngine) Plan(s Settings, content Footprint, canvasW, canvasH int) []Placement {
	switch {
	case s.Pattern == PatternSingle:
		return []Placement{l.singlePlacement(s, content, canvasW, canvasH)}
	case s.Pattern == PatternDiagonal && math.Abs(s.PatternAngle) > orthogonalAngleEpsilon:
		return l.diagonalPlacements(s, content, canvasW, canvasH)
	default:
		return l.gridPlacements(s, content, canvasW, canvasH)
	}
}

// singlePlacement resolves the named anchor. Corner and edge anchors place
// the watermark flush against the frame (center exactly half a footprint
// from the edge) instead of at the anchor's literal fraction, so small
// watermarks on large canvases do not float away from the corner. The fine
// offset scales with the canvas relative to the reference resolution.
func (l *LayoutEngine) singlePlacement(s Settings, content Footprint, canvasW, canvasH int) Placement {
	fx, fy := s.Anchor.Fraction()

	x := fx * float64(canvasW)
	y := fy * float64(canvasH)

	halfW := float64(content.W) / 2
	halfH := float64(content.H) / 2

	switch {
	case fx <= flushLowThreshold:
		x = halfW
	case fx >= flushHighThreshold:
		x = float64(canvasW) - halfW
	}
	switch {
	case fy <= flushLowThreshold:
		y = halfH
	case fy >= flushHighThreshold:
		y = float64(canvasH) - halfH
	}

	x += s.OffsetX * float64(canvasW) / float64(ReferenceWidth)
	y += s.OffsetY * float64(canvasH) / float64(ReferenceHeight)

	return Placement{X: x, Y: y, Angle: s.Rotation}
}

// axisSpacing returns the center-to-center pitch for one axis. A UI value
// of 0 forces the pitch to the exact content dimension so touching tilings
// carry no floating point drift.
func axisSpacing(ui float64, contentDim int, vertical bool) int {
	if ui <= 0 {
		return contentDim
	}
	return SpacingToPixels(ui, float64(contentDim), 1, vertical)
}

func tileCount(canvasDim, spacing int) int {
	count := int(math.Ceil(float64(canvasDim+spacing)/float64(spacing))) + 2
	if count > maxTilesPerAxis {
		count = maxTilesPerAxis
	}
	return count
}

func (l *LayoutEngine) gridPlacements(s Settings, content Footprint, canvasW, canvasH int) []Placement {
	sx := axisSpacing(s.SpacingX, content.W, false)
	sy := axisSpacing(s.SpacingY, content.H, true)
	if sx < 1 {
		sx = 1
	}
	if sy < 1 {
		sy = 1
	}

	// Half-pitch start centers the first row/column instead of abutting 0.
	startX := float64(sx) / 2
	startY := float64(sy) / 2

	countX := tileCount(canvasW, sx)
	countY := tileCount(canvasH, sy)

	halfDiag := math.Hypot(float64(content.W), float64(content.H)) / 2

	placements := make([]Placement, 0, countX*countY)
	for i := 0; i < countX; i++ {
		x := startX + float64(i*sx)
		if x+halfDiag < -float64(sx) || x-halfDiag > float64(canvasW+sx) {
			continue
		}
		for j := 0; j < countY; j++ {
			y := startY + float64(j*sy)
			if y+halfDiag < -float64(sy) || y-halfDiag > float64(canvasH+sy) {
				continue
			}
			placements = append(placements, Placement{X: x, Y: y, Angle: s.Rotation})
		}
	}

	l.logger.Debug().
		Int("spacing_x", sx).
		Int("spacing_y", sy).
		Int("tiles", len(placements)).
		Msg("Grid layout planned")

	return placements
}

// diagonalPlacements projects the two axis gaps independently through the
// rotated frame. dx and dy stay uncoupled: rotating the pattern must not
// average the spacing sliders into one scalar.
func (l *LayoutEngine) diagonalPlacements(s Settings, content Footprint, canvasW, canvasH int) []Placement {
	dx := axisSpacing(s.SpacingX, content.W, false)
	dy := axisSpacing(s.SpacingY, content.H, true)
	if dx < 1 {
		dx = 1
	}
	if dy < 1 {
		dy = 1
	}

	theta := s.PatternAngle * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)

	diag := math.Hypot(float64(canvasW), float64(canvasH))
	countI := diagonalCount(diag, dx)
	countJ := diagonalCount(diag, dy)

	cx := float64(canvasW) / 2
	cy := float64(canvasH) / 2
	halfDiag := math.Hypot(float64(content.W), float64(content.H)) / 2
	extX := float64(dx) + halfDiag
	extY := float64(dy) + halfDiag
	angle := s.PatternAngle + s.Rotation

	placements := make([]Placement, 0, (2*countI+1)*(2*countJ+1))
	for i := -countI; i <= countI; i++ {
		for j := -countJ; j <= countJ; j++ {
			x := float64(i*dx)*cos - float64(j*dy)*sin + cx
			y := float64(i*dx)*sin + float64(j*dy)*cos + cy
			if x < -extX || x > float64(canvasW)+extX || y < -extY || y > float64(canvasH)+extY {
				continue
			}
			placements = append(placements, Placement{X: x, Y: y, Angle: angle})
		}
	}

	l.logger.Debug().
		Int("dx", dx).
		Int("dy", dy).
		Float64("angle", s.PatternAngle).
		Int("tiles", len(placements)).
		Msg("Diagonal layout planned")

	return placements
}

func diagonalCount(diag float64, spacing int) int {
	count := int(math.Ceil(diag/float64(spacing))) + 2
	if count > maxTilesPerAxis {
		count = maxTilesPerAxis
	}
	return count
}
