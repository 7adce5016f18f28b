package mep

import (
	"math"

	"github.com/abhipalit3/configur-mep/internal/rack"
	"github.com/abhipalit3/configur-mep/internal/scene"
)

// SnapTolerance is the default snap attraction distance in metres. An
// edge strictly closer than this to a line is pulled onto it.
const SnapTolerance = 0.03

// SnapResult is the outcome of one snap resolution pass.
type SnapResult struct {
	// Position is the input position with the winning Y and Z
	// corrections applied. X always passes through unchanged.
	Position scene.Vec3

	// Snapped reports whether any correction was applied.
	Snapped bool

	// Horizontal and Vertical identify the lines that won each pass,
	// nil when that pass found nothing in tolerance. They drive the
	// transient guide display.
	Horizontal *rack.HorizontalLine
	Vertical   *rack.VerticalLine
}

// ResolveSnap resolves a footprint centered at pos against the snap
// lines. Beam-top lines attract the footprint's bottom edge, beam-bottom
// lines its top edge; right-side posts attract the min-Z edge and
// left-side posts the max-Z edge. The nearest candidate under tolerance
// wins each axis independently.
func ResolveSnap(pos scene.Vec3, fp Footprint, lines rack.LineSet, tolerance float64) SnapResult {
	box := scene.BoxAt(pos, scene.Vec3{Y: fp.Height, Z: fp.Width})
	return ResolveSnapBox(pos, box, lines, tolerance)
}

// ResolveSnapBox is ResolveSnap against an explicit box, which may be
// offset from pos. Conduit groups pass their live bounding box here so
// inter-conduit spacing survives the snap verbatim: the whole box is
// translated, never resized.
func ResolveSnapBox(pos scene.Vec3, box scene.Box, lines rack.LineSet, tolerance float64) SnapResult {
	out := SnapResult{Position: pos}
	if !(tolerance > 0) || math.IsNaN(tolerance) || math.IsInf(tolerance, 0) {
		tolerance = SnapTolerance
	}
	if box.IsEmpty() {
		return out
	}

	bestY := math.Inf(1)
	var deltaY float64
	var lineY *rack.HorizontalLine
	for i := range lines.Horizontal {
		l := lines.Horizontal[i]
		var edge float64
		switch l.Face {
		case rack.FaceBeamTop:
			edge = box.Min.Y
		case rack.FaceBeamBottom:
			edge = box.Max.Y
		default:
			continue
		}
		if d := math.Abs(edge - l.Y); d < bestY {
			bestY = d
			deltaY = l.Y - edge
			lineY = &lines.Horizontal[i]
		}
	}
	if lineY != nil && bestY < tolerance {
		out.Position.Y += deltaY
		out.Snapped = true
		line := *lineY
		out.Horizontal = &line
	}

	bestZ := math.Inf(1)
	var deltaZ float64
	var lineZ *rack.VerticalLine
	for i := range lines.Vertical {
		l := lines.Vertical[i]
		var edge float64
		switch l.Side {
		case rack.SideRight:
			edge = box.Min.Z
		case rack.SideLeft:
			edge = box.Max.Z
		default:
			continue
		}
		if d := math.Abs(edge - l.Z); d < bestZ {
			bestZ = d
			deltaZ = l.Z - edge
			lineZ = &lines.Vertical[i]
		}
	}
	if lineZ != nil && bestZ < tolerance {
		out.Position.Z += deltaZ
		out.Snapped = true
		line := *lineZ
		out.Vertical = &line
	}

	return out
}
