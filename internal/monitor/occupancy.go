package monitor

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/rack"
)

// TierOccupancy summarizes one tier space: how full its cross-section
// is and what lives there.
type TierOccupancy struct {
	Tier      int              `json:"tier"`
	Label     string           `json:"label"`
	ItemCount int              `json:"itemCount"`
	Counts    map[mep.Kind]int `json:"counts"`
	FillPct   float64          `json:"fillPct"`
}

// UtilizationQuantiles describe the spread of per-tier fill
// percentages across the rack.
type UtilizationQuantiles struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Summary is the occupancy report for the whole rack. Items whose tier
// classification lands outside every space are bucketed by label.
type Summary struct {
	Tiers      []TierOccupancy      `json:"tiers"`
	Outside    map[string]int       `json:"outside,omitempty"`
	ItemCount  int                  `json:"itemCount"`
	RackWidthM float64              `json:"rackWidthM"`
	Quantiles  UtilizationQuantiles `json:"utilization"`
}

// BuildSummary computes per-tier occupancy for the given records. Fill
// is insulated cross-section area over the tier space's area; with no
// posts the width is unknown and fill reads zero.
func BuildSummary(items []mep.Item, p rack.Provider) Summary {
	spaces := p.TierSpaces()
	zMin, zMax, havePosts := rackSpan(p)
	width := 0.0
	if havePosts {
		width = zMax - zMin
	}

	sum := Summary{ItemCount: len(items), RackWidthM: width}
	sum.Tiers = make([]TierOccupancy, 0, len(spaces))
	tierIdx := make(map[int]int, len(spaces))
	for _, sp := range spaces {
		tierIdx[sp.Index] = len(sum.Tiers)
		sum.Tiers = append(sum.Tiers, TierOccupancy{
			Tier:   sp.Index,
			Label:  rack.TierLabel(sp.Index),
			Counts: make(map[mep.Kind]int),
		})
	}

	outside := func(label string) {
		if label == "" {
			label = rack.LabelNoTier
		}
		if sum.Outside == nil {
			sum.Outside = make(map[string]int)
		}
		sum.Outside[label]++
	}

	area := make([]float64, len(sum.Tiers))
	for _, it := range items {
		if it.Tier == nil {
			outside(it.TierLabel)
			continue
		}
		i, ok := tierIdx[*it.Tier]
		if !ok {
			outside(it.TierLabel)
			continue
		}
		fp := mep.FootprintOf(it)
		sum.Tiers[i].ItemCount++
		sum.Tiers[i].Counts[it.Kind]++
		area[i] += fp.Width * fp.Height
	}

	fills := make([]float64, 0, len(sum.Tiers))
	for i := range sum.Tiers {
		sp := spaces[i]
		if width > 0 && sp.Height > 0 {
			sum.Tiers[i].FillPct = area[i] / (width * sp.Height) * 100
		}
		fills = append(fills, sum.Tiers[i].FillPct)
	}
	sum.Quantiles = quantilesOf(fills)
	return sum
}

func quantilesOf(fills []float64) UtilizationQuantiles {
	if len(fills) == 0 {
		return UtilizationQuantiles{}
	}
	s := append([]float64(nil), fills...)
	sort.Float64s(s)
	return UtilizationQuantiles{
		Min:    s[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, s, nil),
		Median: stat.Quantile(0.5, stat.Empirical, s, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, s, nil),
		Max:    s[len(s)-1],
	}
}

// rackSpan is the Z extent between the outermost posts.
func rackSpan(p rack.Provider) (zMin, zMax float64, ok bool) {
	verticals := p.SnapLines().Vertical
	if len(verticals) == 0 {
		return 0, 0, false
	}
	zMin, zMax = verticals[0].Z, verticals[0].Z
	for _, v := range verticals[1:] {
		if v.Z < zMin {
			zMin = v.Z
		}
		if v.Z > zMax {
			zMax = v.Z
		}
	}
	return zMin, zMax, true
}
