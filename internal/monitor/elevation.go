package monitor

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/rack"
)

// Fill and outline colors for the PNG drawing, matching the scatter
// chart's kind palette.
var plotKindFill = map[mep.Kind]color.NRGBA{
	mep.KindDuct:      {R: 0x4f, G: 0xc3, B: 0xf7, A: 170},
	mep.KindPipe:      {R: 0x81, G: 0xc7, B: 0x84, A: 170},
	mep.KindConduit:   {R: 0xff, G: 0xb7, B: 0x4d, A: 170},
	mep.KindCableTray: {R: 0xba, G: 0x68, B: 0xc8, A: 170},
}

var (
	tierBandFill   = color.NRGBA{R: 96, G: 125, B: 139, A: 40}
	tierBandStroke = color.NRGBA{R: 96, G: 125, B: 139, A: 140}
	postStroke     = color.NRGBA{R: 66, G: 66, B: 66, A: 255}
	itemStroke     = color.NRGBA{R: 33, G: 33, B: 33, A: 255}
)

// RenderElevationPNG draws the rack cross-section (tier bands, posts,
// item rectangles) as a PNG for reports.
func (s *Server) RenderElevationPNG(w io.Writer) error {
	items, err := s.gateway.ReadAll()
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}
	return renderElevation(w, items, s.rack)
}

func renderElevation(w io.Writer, items []mep.Item, rp rack.Provider) error {
	p := plot.New()
	p.Title.Text = "Rack Elevation"
	p.X.Label.Text = "Z (m)"
	p.Y.Label.Text = "Y (m)"

	spaces := rp.TierSpaces()
	lines := rp.SnapLines()
	zMin, zMax, havePosts := rackSpan(rp)
	if !havePosts {
		zMin, zMax = -1, 1
	}

	for _, sp := range spaces {
		band, err := plotter.NewPolygon(rectXYs(zMin, sp.BottomY, zMax, sp.TopY))
		if err != nil {
			return fmt.Errorf("tier band %d: %w", sp.Index, err)
		}
		band.Color = tierBandFill
		band.LineStyle.Color = tierBandStroke
		band.LineStyle.Width = vg.Points(1)
		p.Add(band)
	}

	yLo, yHi := beamExtent(lines.Horizontal)
	for _, v := range lines.Vertical {
		post, err := plotter.NewLine(plotter.XYs{{X: v.Z, Y: yLo}, {X: v.Z, Y: yHi}})
		if err != nil {
			return fmt.Errorf("post line: %w", err)
		}
		post.Color = postStroke
		post.Width = vg.Points(2)
		p.Add(post)
	}

	legendDone := make(map[mep.Kind]bool, len(plotKindFill))
	for _, it := range items {
		fp := mep.FootprintOf(it)
		rect, err := plotter.NewPolygon(rectXYs(
			it.Position.Z-fp.Width/2, it.Position.Y-fp.Height/2,
			it.Position.Z+fp.Width/2, it.Position.Y+fp.Height/2,
		))
		if err != nil {
			return fmt.Errorf("item %s: %w", it.ID, err)
		}
		rect.Color = plotKindFill[it.Kind]
		rect.LineStyle.Color = itemStroke
		rect.LineStyle.Width = vg.Points(0.5)
		p.Add(rect)
		if !legendDone[it.Kind] {
			p.Legend.Add(string(it.Kind), rect)
			legendDone[it.Kind] = true
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(10*vg.Inch, 7*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render elevation: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write elevation png: %w", err)
	}
	return nil
}

// rectXYs is the closed outline of an axis-aligned rectangle.
func rectXYs(x0, y0, x1, y1 float64) plotter.XYs {
	return plotter.XYs{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
	}
}

// beamExtent is the Y range the posts should span in the drawing.
func beamExtent(horizontals []rack.HorizontalLine) (yLo, yHi float64) {
	if len(horizontals) == 0 {
		return 0, 2
	}
	yLo, yHi = horizontals[0].Y, horizontals[0].Y
	for _, h := range horizontals[1:] {
		if h.Y < yLo {
			yLo = h.Y
		}
		if h.Y > yHi {
			yHi = h.Y
		}
	}
	return yLo, yHi
}

// handleElevationPNG streams the elevation drawing.
func (s *Server) handleElevationPNG(w http.ResponseWriter, r *http.Request) {
	if s.gateway == nil || s.rack == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "item store not configured")
		return
	}
	var buf bytes.Buffer
	if err := s.RenderElevationPNG(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render elevation: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
