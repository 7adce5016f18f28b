// Package arrange computes automatic tier placements for MEP items with
// a genetic algorithm. Items are rectangles in the Z-Y cross-section
// plane; tier spaces are stacked containers whose heights are fixed by
// the rack geometry. Every item attaches to the bottom or top face of
// its tier space, so an emitted placement lands exactly on a beam snap
// line when the engine applies it as an ordinary move.
//
// Overlap along Z between the two faces of one tier is allowed as long
// as the boxes do not physically intersect; how much each tier could
// shrink (or by how much it overflows) is reported, never applied.
package arrange

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/monitoring"
	"github.com/abhipalit3/configur-mep/internal/rack"
	"github.com/abhipalit3/configur-mep/internal/scene"
)

// Edge is the tier face an arranged item attaches to.
type Edge string

const (
	// EdgeBottom rests the item on the beam below the tier space.
	EdgeBottom Edge = "bottom"
	// EdgeTop hangs the item from the beam above the tier space.
	EdgeTop Edge = "top"
)

// Gene is one item's placement choice: which tier space, which face,
// and the Z offset of the item's min-Z edge from the rack's left bound.
type Gene struct {
	Tier   int
	Edge   Edge
	Offset float64
}

// Placement is the final position for one item.
type Placement struct {
	BaseID   string     `json:"id"`
	Kind     mep.Kind   `json:"kind"`
	Tier     int        `json:"tier"`
	Edge     Edge       `json:"edge"`
	Position scene.Vec3 `json:"position"`
}

// TierReport describes one tier space under the winning arrangement.
// CompressionM is how much the space could shrink without a clash;
// negative means the stacked faces need more height than the space has.
type TierReport struct {
	Tier         int     `json:"tier"`
	ItemCount    int     `json:"itemCount"`
	BottomCount  int     `json:"bottomCount"`
	TopCount     int     `json:"topCount"`
	Utilization  float64 `json:"utilization"`
	MinHeightM   float64 `json:"minHeightM"`
	CompressionM float64 `json:"compressionM"`
	Clash        bool    `json:"clash"`
}

// Stats summarizes the fitness spread of the final population.
type Stats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Median float64 `json:"median"`
}

// Result is one optimizer run's outcome.
type Result struct {
	Placements []Placement  `json:"placements"`
	Unplaced   []string     `json:"unplaced,omitempty"`
	Fitness    float64      `json:"fitness"`
	History    []float64    `json:"history,omitempty"`
	Tiers      []TierReport `json:"tiers"`
	Stats      Stats        `json:"stats"`
	Seed       int64        `json:"seed"`
}

// Config holds the GA parameters. Zero values take the defaults.
type Config struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	CrossoverRate  float64
	ElitismRate    float64
	// Seed fixes the random source; 0 seeds from the clock.
	Seed int64
}

func (c Config) withDefaults() Config {
	if c.PopulationSize <= 0 {
		c.PopulationSize = 120
	}
	if c.Generations <= 0 {
		c.Generations = 250
	}
	if c.MutationRate <= 0 {
		c.MutationRate = 0.25
	}
	if c.CrossoverRate <= 0 {
		c.CrossoverRate = 0.8
	}
	if c.ElitismRate <= 0 {
		c.ElitismRate = 0.1
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

// itemRect is one item's footprint in the arrangement plane.
type itemRect struct {
	baseID string
	kind   mep.Kind
	x      float64
	w, h   float64
}

// Optimizer arranges a fixed item set within fixed tier spaces.
type Optimizer struct {
	cfg    Config
	rng    *rand.Rand
	rects  []itemRect
	spaces []rack.Space
	zMin   float64
	width  float64
}

// New builds an optimizer for the given items. The rack provider
// supplies the tier spaces and, through its vertical snap lines, the Z
// span items must stay inside.
func New(items []mep.Item, p rack.Provider, cfg Config) (*Optimizer, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("nothing to arrange: no items")
	}

	spaces := p.TierSpaces()
	if len(spaces) == 0 {
		return nil, fmt.Errorf("rack geometry has no tier spaces")
	}

	verticals := p.SnapLines().Vertical
	if len(verticals) == 0 {
		return nil, fmt.Errorf("rack geometry has no posts to bound the arrangement")
	}
	zMin, zMax := verticals[0].Z, verticals[0].Z
	for _, v := range verticals[1:] {
		if v.Z < zMin {
			zMin = v.Z
		}
		if v.Z > zMax {
			zMax = v.Z
		}
	}
	if zMax <= zMin {
		return nil, fmt.Errorf("rack posts span no width")
	}

	cfg = cfg.withDefaults()
	o := &Optimizer{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		spaces: append([]rack.Space(nil), spaces...),
		zMin:   zMin,
		width:  zMax - zMin,
	}
	for _, it := range items {
		fp := mep.FootprintOf(it)
		o.rects = append(o.rects, itemRect{
			baseID: it.BaseID(),
			kind:   it.Kind,
			x:      it.Position.X,
			w:      fp.Width,
			h:      fp.Height,
		})
	}
	return o, nil
}

// Arrange is the one-call form: build an optimizer and run it.
func Arrange(items []mep.Item, p rack.Provider, cfg Config) (*Result, error) {
	o, err := New(items, p, cfg)
	if err != nil {
		return nil, err
	}
	return o.Run(), nil
}

// Apply pushes placements through the engine so each lands as an
// ordinary snapped move and re-classifies. Returns the ids whose items
// were no longer present.
func Apply(e *mep.Engine, placements []Placement) (applied int, missing []string) {
	for _, pl := range placements {
		if e.ApplyPlacement(pl.Kind, pl.BaseID, pl.Position) {
			applied++
			continue
		}
		monitoring.Logf("[arrange] placement for %s %s skipped: item not in scene", pl.Kind, pl.BaseID)
		missing = append(missing, pl.BaseID)
	}
	return applied, missing
}
