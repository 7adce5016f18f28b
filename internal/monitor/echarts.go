package monitor

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/abhipalit3/configur-mep/internal/mep"
)

// echartsAssetsPrefix points rendered pages at the hosted echarts
// bundle so the charts work without serving any JS from this binary.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// kindColors are the series colors shared by the scatter chart and the
// PNG elevation drawing.
var kindColors = map[mep.Kind]string{
	mep.KindDuct:      "#4fc3f7",
	mep.KindPipe:      "#81c784",
	mep.KindConduit:   "#ffb74d",
	mep.KindCableTray: "#ba68c8",
}

// handleOccupancyChart renders a page with two bar charts: per-tier
// fill percentage and stacked item counts per kind.
func (s *Server) handleOccupancyChart(w http.ResponseWriter, r *http.Request) {
	items, ok := s.readItems(w)
	if !ok {
		return
	}
	sum := BuildSummary(items, s.rack)
	if len(sum.Tiers) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "rack geometry has no tier spaces")
		return
	}

	x := make([]string, 0, len(sum.Tiers))
	fill := make([]opts.BarData, 0, len(sum.Tiers))
	for _, t := range sum.Tiers {
		x = append(x, t.Label)
		fill = append(fill, opts.BarData{Value: t.FillPct})
	}

	fillBar := charts.NewBar()
	fillBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Tier Fill",
			Subtitle: fmt.Sprintf("items=%d width=%.2fm median=%.1f%%", sum.ItemCount, sum.RackWidthM, sum.Quantiles.Median),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	fillBar.SetXAxis(x).
		AddSeries("fill %", fill,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	countBar := charts.NewBar()
	countBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Items per Tier"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	countBar.SetXAxis(x)
	for _, k := range mep.Kinds() {
		data := make([]opts.BarData, 0, len(sum.Tiers))
		for _, t := range sum.Tiers {
			data = append(data, opts.BarData{Value: t.Counts[k]})
		}
		countBar.AddSeries(string(k), data,
			charts.WithBarChartOpts(opts.BarChart{Stack: "kinds"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: kindColors[k]}),
		)
	}

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(fillBar, countBar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render occupancy chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleElevationChart renders item centers in the Z-Y elevation plane
// with every snap line overlaid as a mark line.
func (s *Server) handleElevationChart(w http.ResponseWriter, r *http.Request) {
	items, ok := s.readItems(w)
	if !ok {
		return
	}
	lines := s.rack.SnapLines()

	byKind := make(map[mep.Kind][]opts.ScatterData, len(mep.Kinds()))
	zLo, zHi := -1.0, 1.0
	yLo, yHi := 0.0, 2.0
	grow := func(z, y float64) {
		if z < zLo {
			zLo = z
		}
		if z > zHi {
			zHi = z
		}
		if y < yLo {
			yLo = y
		}
		if y > yHi {
			yHi = y
		}
	}
	for _, v := range lines.Vertical {
		grow(v.Z, yLo)
	}
	for _, h := range lines.Horizontal {
		grow(zLo, h.Y)
	}
	for _, it := range items {
		grow(it.Position.Z, it.Position.Y)
		byKind[it.Kind] = append(byKind[it.Kind], opts.ScatterData{Value: []interface{}{it.Position.Z, it.Position.Y}})
	}
	padZ := (zHi - zLo) * 0.05
	padY := (yHi - yLo) * 0.05

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Rack Elevation", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Rack Elevation", Subtitle: fmt.Sprintf("items=%d", len(items))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: zLo - padZ, Max: zHi + padZ, Name: "Z (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: yLo - padY, Max: yHi + padY, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)

	for _, k := range mep.Kinds() {
		scatter.AddSeries(string(k), byKind[k],
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: kindColors[k]}),
		)
	}

	markX := make([]opts.MarkLineNameXAxisItem, 0, len(lines.Vertical))
	for _, v := range lines.Vertical {
		markX = append(markX, opts.MarkLineNameXAxisItem{Name: string(v.Side), XAxis: v.Z})
	}
	markY := make([]opts.MarkLineNameYAxisItem, 0, len(lines.Horizontal))
	for _, h := range lines.Horizontal {
		markY = append(markY, opts.MarkLineNameYAxisItem{Name: string(h.Face), YAxis: h.Y})
	}
	scatter.AddSeries("snap lines", []opts.ScatterData{},
		charts.WithMarkLineNameXAxisItemOpts(markX...),
		charts.WithMarkLineNameYAxisItemOpts(markY...),
		charts.WithMarkLineStyleOpts(opts.MarkLineStyle{Symbol: []string{"none", "none"}}),
	)

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render elevation chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

const dashboardHTML = `<!DOCTYPE html>
<html>
<head><title>MEP Occupancy</title>
<style>body{margin:0;background:#111;color:#eee;font-family:sans-serif}
h1{padding:8px 16px;font-size:16px}
iframe{border:0;width:100%;height:880px}</style>
</head>
<body>
<h1>MEP Occupancy Dashboard</h1>
<iframe src="/debug/mep/occupancy"></iframe>
<iframe src="/debug/mep/elevation"></iframe>
<p style="padding:0 16px"><a style="color:#8cf" href="/debug/mep/elevation.png">elevation drawing (PNG)</a></p>
</body>
</html>
`

// handleDashboard renders a simple page with iframes to the charts.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardHTML))
}
