package rack

import (
	"math"
	"sort"
	"sync"

	"github.com/abhipalit3/configur-mep/internal/monitoring"
	"github.com/abhipalit3/configur-mep/internal/units"
)

// HorizontalLine is a snap guide derived from a beam face.
type HorizontalLine struct {
	Face Face    `json:"face"`
	Y    float64 `json:"y"`
}

// VerticalLine is a snap guide derived from a post side.
type VerticalLine struct {
	Side Side    `json:"side"`
	Z    float64 `json:"z"`
}

// LineSet holds the snap lines derived from one rack geometry.
// Horizontal lines are sorted by Y descending; vertical lines are
// partitioned left before right, input order preserved within a side.
type LineSet struct {
	Horizontal []HorizontalLine `json:"horizontal"`
	Vertical   []VerticalLine   `json:"vertical"`
}

// Guide marks a snap line highlighted while a drag is in progress.
// Exactly one of Horizontal or Vertical is set.
type Guide struct {
	Horizontal *HorizontalLine `json:"horizontal,omitempty"`
	Vertical   *VerticalLine   `json:"vertical,omitempty"`
}

// Provider supplies rack-derived inputs to the interaction engine.
type Provider interface {
	// SnapLines returns the current snap-line set.
	SnapLines() LineSet

	// TierSpaces returns the tier spaces between beams, topmost first.
	TierSpaces() []Space

	// RackLengthFt returns the rack length in feet.
	RackLengthFt() float64

	// ShowHorizontalGuide highlights a horizontal snap line during a
	// drag.
	ShowHorizontalGuide(line HorizontalLine)

	// ShowVerticalGuide highlights a vertical snap line during a drag.
	ShowVerticalGuide(line VerticalLine)

	// ClearTransientGuides removes any guides highlighted during a drag.
	ClearTransientGuides()
}

// DeriveLines computes the snap-line set for a geometry. Non-finite
// coordinates are discarded.
func DeriveLines(g Geometry) LineSet {
	var ls LineSet

	for _, b := range g.Beams {
		if !isFinite(b.Y) {
			continue
		}
		ls.Horizontal = append(ls.Horizontal, HorizontalLine{Face: b.Face, Y: b.Y})
	}
	sort.SliceStable(ls.Horizontal, func(i, j int) bool {
		return ls.Horizontal[i].Y > ls.Horizontal[j].Y
	})

	for _, p := range g.Posts {
		if !isFinite(p.Z) || p.Side != SideLeft {
			continue
		}
		ls.Vertical = append(ls.Vertical, VerticalLine{Side: p.Side, Z: p.Z})
	}
	for _, p := range g.Posts {
		if !isFinite(p.Z) || p.Side != SideRight {
			continue
		}
		ls.Vertical = append(ls.Vertical, VerticalLine{Side: p.Side, Z: p.Z})
	}

	return ls
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Index derives snap lines and tier spaces from rack geometry on demand
// and caches them until the geometry changes. It also tracks the
// transient guides shown while an item is snapping.
//
// Index implements Provider. All methods are safe for concurrent use.
type Index struct {
	mu       sync.Mutex
	geom     Geometry
	lengthFt float64
	minTier  float64
	lines    *LineSet
	spaces   []Space
	guides   []Guide
}

// NewIndex creates an Index over the given geometry.
func NewIndex(g Geometry) *Index {
	idx := &Index{minTier: MinTierHeight}
	idx.SetGeometry(g)
	return idx
}

// SetMinTierHeight overrides the minimum beam gap that forms a tier and
// invalidates the tier-space cache. Invalid values fall back to
// MinTierHeight.
func (idx *Index) SetMinTierHeight(h float64) {
	if !isFinite(h) || h <= 0 {
		h = MinTierHeight
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.minTier = h
	idx.spaces = nil
}

// SetGeometry replaces the rack geometry and invalidates the caches.
// An invalid rack length is replaced by FallbackRackLengthFt.
func (idx *Index) SetGeometry(g Geometry) {
	lengthFt := units.Sanitize(g.LengthFt, FallbackRackLengthFt)
	if lengthFt != g.LengthFt {
		monitoring.Logf("[rack] invalid rack length %v ft, using fallback %v ft", g.LengthFt, FallbackRackLengthFt)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.geom = g
	idx.lengthFt = lengthFt
	idx.lines = nil
	idx.spaces = nil
	idx.guides = nil
}

// SnapLines returns the cached snap-line set, deriving it if needed.
func (idx *Index) SnapLines() LineSet {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return *idx.linesLocked()
}

// TierSpaces returns the cached tier spaces, deriving them if needed.
func (idx *Index) TierSpaces() []Space {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.spaces == nil {
		idx.spaces = BuildSpacesWithMin(idx.linesLocked().Horizontal, idx.minTier)
	}
	return idx.spaces
}

func (idx *Index) linesLocked() *LineSet {
	if idx.lines == nil {
		ls := DeriveLines(idx.geom)
		idx.lines = &ls
	}
	return idx.lines
}

// RackLengthFt returns the sanitized rack length in feet.
func (idx *Index) RackLengthFt() float64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.lengthFt
}

// ShowHorizontalGuide highlights a horizontal snap line.
func (idx *Index) ShowHorizontalGuide(line HorizontalLine) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.guides = append(idx.guides, Guide{Horizontal: &line})
}

// ShowVerticalGuide highlights a vertical snap line.
func (idx *Index) ShowVerticalGuide(line VerticalLine) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.guides = append(idx.guides, Guide{Vertical: &line})
}

// ActiveGuides returns the currently highlighted guides.
func (idx *Index) ActiveGuides() []Guide {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]Guide, len(idx.guides))
	copy(out, idx.guides)
	return out
}

// ClearTransientGuides removes all highlighted guides.
func (idx *Index) ClearTransientGuides() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.guides = nil
}
