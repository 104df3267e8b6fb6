package watermark

// Anchor is one of the nine named single-mode positions.
type Anchor string

const (
	AnchorTopLeft      Anchor = "top-left"
	AnchorTopCenter    Anchor = "top-center"
	AnchorTopRight     Anchor = "top-right"
	AnchorMiddleLeft   Anchor = "middle-left"
	AnchorCenter       Anchor = "center"
	AnchorMiddleRight  Anchor = "middle-right"
	AnchorBottomLeft   Anchor = "bottom-left"
	AnchorBottomCenter Anchor = "bottom-center"
	AnchorBottomRight  Anchor = "bottom-right"
)

// Edge anchors sit near the frame, not on it, so small watermarks keep a
// margin on canvases where the flush rule does not kick in.
const (
	nearEdgeLow  = 0.05
	nearEdgeHigh = 0.95
)

var anchorFractions = map[Anchor][2]float64{
	AnchorTopLeft:      {nearEdgeLow, nearEdgeLow},
	AnchorTopCenter:    {0.5, nearEdgeLow},
	AnchorTopRight:     {nearEdgeHigh, nearEdgeLow},
	AnchorMiddleLeft:   {nearEdgeLow, 0.5},
	AnchorCenter:       {0.5, 0.5},
	AnchorMiddleRight:  {nearEdgeHigh, 0.5},
	AnchorBottomLeft:   {nearEdgeLow, nearEdgeHigh},
	AnchorBottomCenter: {0.5, nearEdgeHigh},
	AnchorBottomRight:  {nearEdgeHigh, nearEdgeHigh},
}

// Fraction returns the anchor's normalized canvas coordinates. Unknown
// anchors fall back to bottom-right, matching upload defaults.
func (a Anchor) Fraction() (fx, fy float64) {
	f, ok := anchorFractions[a]
	if !ok {
		f = anchorFractions[AnchorBottomRight]
	}
	return f[0], f[1]
}

// Valid reports whether a names one of the nine anchors.
func (a Anchor) Valid() bool {
	_, ok := anchorFractions[a]
	return ok
}
