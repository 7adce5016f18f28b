package arrange

import (
	"math"

	"github.com/abhipalit3/configur-mep/internal/rack"
	"github.com/abhipalit3/configur-mep/internal/scene"
)

// Fitness weights, matching the packing objectives: place everything,
// fill the tiers you use, pack the two faces of a tier tightly, prefer
// fewer tiers and less height demand, and never tolerate a physical
// intersection.
const (
	placementWeight   = 1000.0
	allPlacedBonus    = 500.0
	utilizationWeight = 300.0
	compactnessWeight = 200.0
	tierUsePenalty    = 50.0
	heightUsePenalty  = 30.0
	clashPenalty      = 10000.0
	emptyFitness      = -1000.0
)

// genome is one candidate arrangement, index-aligned with the
// optimizer's item rectangles.
type genome struct {
	genes   []Gene
	fitness float64
}

func (g *genome) clone() *genome {
	return &genome{genes: append([]Gene(nil), g.genes...), fitness: g.fitness}
}

// placedRect is one rectangle decoded onto a tier face. The offset is
// already clamped into the rack's Z span.
type placedRect struct {
	idx    int
	offset float64
}

// tierLayout is the decoded occupancy of one tier space.
type tierLayout struct {
	space  rack.Space
	bottom []placedRect
	top    []placedRect
}

// decoded is a genome's phenotype: which items landed where.
type decoded struct {
	layouts     []tierLayout
	placed      []bool
	placedCount int
}

// decode maps genes onto tier faces. An item whose gene points at a
// tier it cannot fit (taller than the space, or wider than the rack)
// stays unplaced.
func (o *Optimizer) decode(g *genome) *decoded {
	d := &decoded{
		layouts: make([]tierLayout, len(o.spaces)),
		placed:  make([]bool, len(o.rects)),
	}
	for i := range o.spaces {
		d.layouts[i].space = o.spaces[i]
	}

	for i, gene := range g.genes {
		r := o.rects[i]
		if gene.Tier < 1 || gene.Tier > len(o.spaces) {
			continue
		}
		space := o.spaces[gene.Tier-1]
		if r.w > o.width || r.h > space.Height {
			continue
		}

		pr := placedRect{idx: i, offset: clamp(gene.Offset, 0, o.width-r.w)}
		lay := &d.layouts[gene.Tier-1]
		if gene.Edge == EdgeTop {
			lay.top = append(lay.top, pr)
		} else {
			lay.bottom = append(lay.bottom, pr)
		}
		d.placed[i] = true
		d.placedCount++
	}
	return d
}

// overlapsZ reports whether two placed rectangles overlap along Z.
func (o *Optimizer) overlapsZ(a, b placedRect) bool {
	ra, rb := o.rects[a.idx], o.rects[b.idx]
	return !(a.offset+ra.w <= b.offset || a.offset >= b.offset+rb.w)
}

func (o *Optimizer) sideHeight(side []placedRect) float64 {
	h := 0.0
	for _, p := range side {
		if o.rects[p.idx].h > h {
			h = o.rects[p.idx].h
		}
	}
	return h
}

// minTierHeight is the smallest space height this layout would need.
// Opposite faces overlapping in Z must stack (sum of heights);
// otherwise the faces may share height (max of the face heights). The
// result never drops below the tallest single item.
func (o *Optimizer) minTierHeight(lay tierLayout) float64 {
	if len(lay.bottom) == 0 || len(lay.top) == 0 {
		return o.sideHeight(lay.bottom) + o.sideHeight(lay.top)
	}

	need := 0.0
	for _, b := range lay.bottom {
		for _, t := range lay.top {
			if !o.overlapsZ(b, t) {
				continue
			}
			if h := o.rects[b.idx].h + o.rects[t.idx].h; h > need {
				need = h
			}
		}
	}
	if need == 0 {
		need = math.Max(o.sideHeight(lay.bottom), o.sideHeight(lay.top))
	}

	tallest := math.Max(o.sideHeight(lay.bottom), o.sideHeight(lay.top))
	return math.Max(need, tallest)
}

// hasClash reports a physical intersection in the layout: same-face
// rectangles overlapping in Z, or opposite-face rectangles overlapping
// in Z while their combined height exceeds the space.
func (o *Optimizer) hasClash(lay tierLayout) bool {
	for _, side := range [2][]placedRect{lay.bottom, lay.top} {
		for i := 0; i < len(side); i++ {
			for j := i + 1; j < len(side); j++ {
				if o.overlapsZ(side[i], side[j]) {
					return true
				}
			}
		}
	}

	for _, b := range lay.bottom {
		for _, t := range lay.top {
			if !o.overlapsZ(b, t) {
				continue
			}
			if o.rects[b.idx].h+o.rects[t.idx].h > lay.space.Height {
				return true
			}
		}
	}
	return false
}

// utilization is the occupied cross-section area over the space's area.
func (o *Optimizer) utilization(lay tierLayout) float64 {
	area := o.width * lay.space.Height
	if area <= 0 {
		return 0
	}
	used := 0.0
	for _, p := range lay.bottom {
		used += o.rects[p.idx].w * o.rects[p.idx].h
	}
	for _, p := range lay.top {
		used += o.rects[p.idx].w * o.rects[p.idx].h
	}
	return used / area
}

// evaluate scores a genome and returns its phenotype.
func (o *Optimizer) evaluate(g *genome) *decoded {
	d := o.decode(g)
	if d.placedCount == 0 {
		g.fitness = emptyFitness
		return d
	}

	rate := float64(d.placedCount) / float64(len(o.rects))

	usedTiers := 0
	totalUtil := 0.0
	compactness := 0.0
	minHeightSum := 0.0
	spaceHeightSum := 0.0
	clashes := 0
	for _, lay := range d.layouts {
		spaceHeightSum += lay.space.Height
		if len(lay.bottom) == 0 && len(lay.top) == 0 {
			continue
		}
		usedTiers++
		totalUtil += o.utilization(lay)
		minH := o.minTierHeight(lay)
		minHeightSum += minH
		if len(lay.bottom) > 0 && len(lay.top) > 0 && lay.space.Height > 0 {
			compactness += minH / lay.space.Height * compactnessWeight
		}
		if o.hasClash(lay) {
			clashes++
		}
	}

	avgUtil := totalUtil / float64(usedTiers)
	tierRatio := float64(usedTiers) / float64(len(o.spaces))
	heightRatio := 0.0
	if spaceHeightSum > 0 {
		heightRatio = minHeightSum / spaceHeightSum
	}
	bonus := 0.0
	if d.placedCount == len(o.rects) {
		bonus = allPlacedBonus
	}

	g.fitness = rate*placementWeight + bonus + avgUtil*utilizationWeight + compactness -
		tierRatio*tierUsePenalty - heightRatio*heightUsePenalty - float64(clashes)*clashPenalty
	return d
}

// tierReports summarizes every tier space under a decoded arrangement.
func (o *Optimizer) tierReports(d *decoded) []TierReport {
	out := make([]TierReport, 0, len(d.layouts))
	for _, lay := range d.layouts {
		minH := o.minTierHeight(lay)
		out = append(out, TierReport{
			Tier:         lay.space.Index,
			ItemCount:    len(lay.bottom) + len(lay.top),
			BottomCount:  len(lay.bottom),
			TopCount:     len(lay.top),
			Utilization:  o.utilization(lay),
			MinHeightM:   minH,
			CompressionM: lay.space.Height - minH,
			Clash:        o.hasClash(lay),
		})
	}
	return out
}

// placementFor converts one decoded gene into a world position. The
// attached edge sits exactly on its beam snap line, so the engine's
// snap resolver is a no-op when the placement is applied.
func (o *Optimizer) placementFor(i, tier int, edge Edge, offset float64) Placement {
	r := o.rects[i]
	space := o.spaces[tier-1]
	y := space.BottomY + r.h/2
	if edge == EdgeTop {
		y = space.TopY - r.h/2
	}
	return Placement{
		BaseID: r.baseID,
		Kind:   r.kind,
		Tier:   tier,
		Edge:   edge,
		Position: scene.Vec3{
			X: r.x,
			Y: y,
			Z: o.zMin + offset + r.w/2,
		},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
