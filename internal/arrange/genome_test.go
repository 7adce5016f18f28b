package arrange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/rack"
	"github.com/abhipalit3/configur-mep/internal/scene"
)

// twoTierRack has a 0.40 m space between beams at 1.40 and 1.00, a gap
// too small to form a tier, and a second 0.40 m space between 0.90 and
// 0.50. Posts bound Z to [-0.60, 0.60].
func twoTierRack() rack.Geometry {
	return rack.Geometry{
		LengthFt: 12,
		Beams: []rack.Beam{
			{Y: 1.40, Face: rack.FaceBeamBottom},
			{Y: 1.00, Face: rack.FaceBeamTop},
			{Y: 0.90, Face: rack.FaceBeamBottom},
			{Y: 0.50, Face: rack.FaceBeamTop},
		},
		Posts: []rack.Post{
			{Z: 0.60, Side: rack.SideLeft},
			{Z: -0.60, Side: rack.SideRight},
		},
	}
}

// ductItem builds a duct whose cross-section is wM by hM metres.
func ductItem(id string, wM, hM, x float64) mep.Item {
	return mep.Item{
		ID:       id,
		Kind:     mep.KindDuct,
		WidthIn:  wM / 0.0254,
		HeightIn: hM / 0.0254,
		Position: scene.Vec3{X: x},
	}
}

func newTestOptimizer(t *testing.T, items []mep.Item, cfg Config) *Optimizer {
	t.Helper()
	o, err := New(items, rack.NewIndex(twoTierRack()), cfg)
	require.NoError(t, err)
	return o
}

// Rects indexed 0..2: 0.50x0.20, 0.50x0.15, 0.40x0.30 metres.
func threeRectOptimizer(t *testing.T) *Optimizer {
	t.Helper()
	return newTestOptimizer(t, []mep.Item{
		ductItem("a", 0.50, 0.20, 0),
		ductItem("b", 0.50, 0.15, 0),
		ductItem("c", 0.40, 0.30, 0),
	}, Config{Seed: 1})
}

func TestMinTierHeight(t *testing.T) {
	t.Parallel()
	o := threeRectOptimizer(t)
	sp := o.spaces[0]

	// One face only: the tallest item governs.
	lay := tierLayout{space: sp, bottom: []placedRect{{idx: 0}, {idx: 2, offset: 0.6}}}
	assert.InDelta(t, 0.30, o.minTierHeight(lay), 1e-9)

	// Opposite faces overlapping in Z must stack their heights.
	lay = tierLayout{space: sp, bottom: []placedRect{{idx: 0}}, top: []placedRect{{idx: 1}}}
	assert.InDelta(t, 0.35, o.minTierHeight(lay), 1e-9)

	// Opposite faces separated in Z share the height.
	lay = tierLayout{space: sp, bottom: []placedRect{{idx: 0}}, top: []placedRect{{idx: 1, offset: 0.7}}}
	assert.InDelta(t, 0.20, o.minTierHeight(lay), 1e-9)
}

func TestHasClash(t *testing.T) {
	t.Parallel()
	o := threeRectOptimizer(t)
	sp := o.spaces[0]

	cases := []struct {
		name string
		lay  tierLayout
		want bool
	}{
		{
			"same face overlapping",
			tierLayout{space: sp, bottom: []placedRect{{idx: 0}, {idx: 1, offset: 0.3}}},
			true,
		},
		{
			"same face touching edges",
			tierLayout{space: sp, bottom: []placedRect{{idx: 0}, {idx: 1, offset: 0.5}}},
			false,
		},
		{
			"opposite faces overlapping within the space height",
			tierLayout{space: sp, bottom: []placedRect{{idx: 0}}, top: []placedRect{{idx: 1}}},
			false,
		},
		{
			"opposite faces overlapping beyond the space height",
			tierLayout{space: sp, bottom: []placedRect{{idx: 2}}, top: []placedRect{{idx: 0}}},
			true,
		},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, o.hasClash(tc.lay), tc.name)
	}
}

// A clash costs more than leaving everything on the floor, and a clean
// full placement beats both.
func TestEvaluateRanksCleanOverClash(t *testing.T) {
	t.Parallel()
	o := newTestOptimizer(t, []mep.Item{
		ductItem("a", 0.50, 0.20, 0),
		ductItem("b", 0.50, 0.15, 0),
	}, Config{Seed: 1})

	clean := &genome{genes: []Gene{
		{Tier: 1, Edge: EdgeBottom, Offset: 0},
		{Tier: 1, Edge: EdgeBottom, Offset: 0.65},
	}}
	clashing := &genome{genes: []Gene{
		{Tier: 1, Edge: EdgeBottom, Offset: 0},
		{Tier: 1, Edge: EdgeBottom, Offset: 0.1},
	}}
	nothing := &genome{genes: []Gene{
		{Tier: 9, Edge: EdgeBottom},
		{Tier: 9, Edge: EdgeBottom},
	}}

	o.evaluate(clean)
	o.evaluate(clashing)
	o.evaluate(nothing)

	assert.Equal(t, emptyFitness, nothing.fitness)
	assert.Greater(t, clean.fitness, 1400.0)
	assert.Greater(t, clean.fitness, nothing.fitness)
	assert.Greater(t, nothing.fitness, clashing.fitness)
}

func TestDecodeSkipsWhatCannotFit(t *testing.T) {
	t.Parallel()
	o := newTestOptimizer(t, []mep.Item{
		ductItem("tall", 0.30, 0.50, 0),
		ductItem("wide", 1.50, 0.10, 0),
		ductItem("ok", 0.30, 0.10, 0),
	}, Config{Seed: 1})

	d := o.decode(&genome{genes: []Gene{
		{Tier: 1, Edge: EdgeBottom},
		{Tier: 1, Edge: EdgeBottom},
		{Tier: 1, Edge: EdgeBottom},
	}})

	assert.Equal(t, []bool{false, false, true}, d.placed)
	assert.Equal(t, 1, d.placedCount)
	require.Len(t, d.layouts[0].bottom, 1)
	assert.Equal(t, 2, d.layouts[0].bottom[0].idx)

	// A tier index outside the rack leaves the item unplaced too.
	d = o.decode(&genome{genes: []Gene{
		{Tier: 1, Edge: EdgeBottom},
		{Tier: 1, Edge: EdgeBottom},
		{Tier: 3, Edge: EdgeBottom},
	}})
	assert.Equal(t, 0, d.placedCount)
}

func TestDecodeClampsOffsetIntoRack(t *testing.T) {
	t.Parallel()
	o := newTestOptimizer(t, []mep.Item{ductItem("a", 0.50, 0.20, 0)}, Config{Seed: 1})

	d := o.decode(&genome{genes: []Gene{{Tier: 1, Edge: EdgeTop, Offset: 9}}})
	require.Len(t, d.layouts[0].top, 1)
	assert.InDelta(t, 0.70, d.layouts[0].top[0].offset, 1e-9)

	d = o.decode(&genome{genes: []Gene{{Tier: 1, Edge: EdgeTop, Offset: -3}}})
	require.Len(t, d.layouts[0].top, 1)
	assert.Zero(t, d.layouts[0].top[0].offset)
}

// Bottom placements rest on the lower beam, top placements hang from
// the upper beam, and the Z offset runs from the right post.
func TestPlacementCoordinates(t *testing.T) {
	t.Parallel()
	o := newTestOptimizer(t, []mep.Item{ductItem("a", 0.50, 0.20, 2.5)}, Config{Seed: 1})

	pl := o.placementFor(0, 1, EdgeBottom, 0.1)
	assert.Equal(t, "a", pl.BaseID)
	assert.Equal(t, mep.KindDuct, pl.Kind)
	assert.Equal(t, 1, pl.Tier)
	assert.Equal(t, EdgeBottom, pl.Edge)
	assert.InDelta(t, 2.5, pl.Position.X, 1e-9)
	assert.InDelta(t, 1.10, pl.Position.Y, 1e-9)
	assert.InDelta(t, -0.25, pl.Position.Z, 1e-9)

	pl = o.placementFor(0, 2, EdgeTop, 0)
	assert.InDelta(t, 0.80, pl.Position.Y, 1e-9)
	assert.InDelta(t, -0.35, pl.Position.Z, 1e-9)
}

func TestTierReports(t *testing.T) {
	t.Parallel()
	o := newTestOptimizer(t, []mep.Item{
		ductItem("a", 0.50, 0.20, 0),
		ductItem("b", 0.50, 0.15, 0),
	}, Config{Seed: 1})

	d := o.decode(&genome{genes: []Gene{
		{Tier: 1, Edge: EdgeBottom, Offset: 0},
		{Tier: 1, Edge: EdgeTop, Offset: 0.65},
	}})
	reps := o.tierReports(d)
	require.Len(t, reps, 2)

	assert.Equal(t, 1, reps[0].Tier)
	assert.Equal(t, 2, reps[0].ItemCount)
	assert.Equal(t, 1, reps[0].BottomCount)
	assert.Equal(t, 1, reps[0].TopCount)
	assert.InDelta(t, (0.50*0.20+0.50*0.15)/(1.20*0.40), reps[0].Utilization, 1e-9)
	assert.InDelta(t, 0.20, reps[0].MinHeightM, 1e-9)
	assert.InDelta(t, 0.20, reps[0].CompressionM, 1e-9)
	assert.False(t, reps[0].Clash)

	assert.Equal(t, 2, reps[1].Tier)
	assert.Zero(t, reps[1].ItemCount)
	assert.Zero(t, reps[1].Utilization)
	assert.Zero(t, reps[1].MinHeightM)
	assert.InDelta(t, 0.40, reps[1].CompressionM, 1e-9)
	assert.False(t, reps[1].Clash)
}
