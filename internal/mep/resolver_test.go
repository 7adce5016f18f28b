package mep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhipalit3/configur-mep/internal/rack"
	"github.com/abhipalit3/configur-mep/internal/scene"
)

func TestResolveSnap_PipeOntoBeamTop(t *testing.T) {
	t.Parallel()

	lines := rack.LineSet{
		Horizontal: []rack.HorizontalLine{{Face: rack.FaceBeamTop, Y: 1.0}},
	}
	fp := FootprintOf(Item{Kind: KindPipe, DiameterIn: 2})

	res := ResolveSnap(scene.Vec3{Y: 1.028}, fp, lines, SnapTolerance)

	require.True(t, res.Snapped)
	assert.InDelta(t, 1.0254, res.Position.Y, 1e-9)
	assert.Equal(t, 0.0, res.Position.Z)
	require.NotNil(t, res.Horizontal)
	assert.Equal(t, 1.0, res.Horizontal.Y)
	assert.Nil(t, res.Vertical)
}

func TestResolveSnap_TopEdgeOntoBeamBottom(t *testing.T) {
	t.Parallel()

	lines := rack.LineSet{
		Horizontal: []rack.HorizontalLine{{Face: rack.FaceBeamBottom, Y: 2.0}},
	}
	fp := Footprint{Width: 0.1, Height: 0.1}

	// top = 1.975 + 0.05 = 2.025, distance 0.025 under tolerance
	res := ResolveSnap(scene.Vec3{Y: 1.975}, fp, lines, SnapTolerance)

	require.True(t, res.Snapped)
	assert.InDelta(t, 1.95, res.Position.Y, 1e-9)
}

func TestResolveSnap_StrictBoundary(t *testing.T) {
	t.Parallel()

	lines := rack.LineSet{
		Horizontal: []rack.HorizontalLine{{Face: rack.FaceBeamTop, Y: 1.0}},
	}
	fp := Footprint{Width: 0.2, Height: 0.2}

	// The bottom edge sits at 1.0 + dist for a center of 1.1 + dist.
	tests := []struct {
		name string
		dist float64
		want bool
	}{
		{"just inside", SnapTolerance - 1e-9, true},
		{"just outside", SnapTolerance + 1e-9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := ResolveSnap(scene.Vec3{Y: 1.1 + tt.dist}, fp, lines, SnapTolerance)
			assert.Equal(t, tt.want, res.Snapped)
			if tt.want {
				assert.InDelta(t, 1.1, res.Position.Y, 1e-9)
			} else {
				assert.InDelta(t, 1.1+tt.dist, res.Position.Y, 1e-9)
			}
		})
	}
}

func TestResolveSnap_PostsAttractOpposingEdges(t *testing.T) {
	t.Parallel()

	fp := Footprint{Width: 0.2, Height: 0.1}

	t.Run("left post pulls the max-Z edge", func(t *testing.T) {
		t.Parallel()
		lines := rack.LineSet{
			Vertical: []rack.VerticalLine{{Side: rack.SideLeft, Z: 0.20}},
		}
		res := ResolveSnap(scene.Vec3{Z: 0.09}, fp, lines, SnapTolerance)

		require.True(t, res.Snapped)
		assert.InDelta(t, 0.10, res.Position.Z, 1e-9)
		require.NotNil(t, res.Vertical)
		assert.Equal(t, rack.SideLeft, res.Vertical.Side)
	})

	t.Run("right post pulls the min-Z edge", func(t *testing.T) {
		t.Parallel()
		lines := rack.LineSet{
			Vertical: []rack.VerticalLine{{Side: rack.SideRight, Z: -0.20}},
		}
		res := ResolveSnap(scene.Vec3{Z: -0.11}, fp, lines, SnapTolerance)

		require.True(t, res.Snapped)
		assert.InDelta(t, -0.10, res.Position.Z, 1e-9)
	})
}

func TestResolveSnap_NearestLineWins(t *testing.T) {
	t.Parallel()

	lines := rack.LineSet{
		Horizontal: []rack.HorizontalLine{
			{Face: rack.FaceBeamTop, Y: 1.0},
			{Face: rack.FaceBeamTop, Y: 1.004},
		},
	}
	fp := Footprint{Width: 0.2, Height: 0.2}

	// bottom = 1.0026: 0.0026 from the first line, 0.0014 from the second
	res := ResolveSnap(scene.Vec3{Y: 1.1026}, fp, lines, SnapTolerance)

	require.True(t, res.Snapped)
	assert.InDelta(t, 1.104, res.Position.Y, 1e-9)
	require.NotNil(t, res.Horizontal)
	assert.InDelta(t, 1.004, res.Horizontal.Y, 1e-9)
}

func TestResolveSnap_BothAxesIndependent(t *testing.T) {
	t.Parallel()

	lines := rack.LineSet{
		Horizontal: []rack.HorizontalLine{{Face: rack.FaceBeamTop, Y: 1.0}},
		Vertical:   []rack.VerticalLine{{Side: rack.SideLeft, Z: 0.20}},
	}
	fp := Footprint{Width: 0.2, Height: 0.2}

	res := ResolveSnap(scene.Vec3{X: 5, Y: 1.11, Z: 0.09}, fp, lines, SnapTolerance)

	require.True(t, res.Snapped)
	assert.Equal(t, 5.0, res.Position.X, "x passes through untouched")
	assert.InDelta(t, 1.10, res.Position.Y, 1e-9)
	assert.InDelta(t, 0.10, res.Position.Z, 1e-9)
	assert.NotNil(t, res.Horizontal)
	assert.NotNil(t, res.Vertical)
}

func TestResolveSnap_NoLinesIsNoOp(t *testing.T) {
	t.Parallel()

	pos := scene.Vec3{X: 1, Y: 2, Z: 3}
	res := ResolveSnap(pos, Footprint{Width: 0.1, Height: 0.1}, rack.LineSet{}, SnapTolerance)

	assert.False(t, res.Snapped)
	assert.Equal(t, pos, res.Position)
	assert.Nil(t, res.Horizontal)
	assert.Nil(t, res.Vertical)
}

func TestResolveSnap_InvalidToleranceUsesDefault(t *testing.T) {
	t.Parallel()

	lines := rack.LineSet{
		Horizontal: []rack.HorizontalLine{{Face: rack.FaceBeamTop, Y: 1.0}},
	}
	fp := Footprint{Width: 0.2, Height: 0.2}

	for _, tol := range []float64{0, -5} {
		res := ResolveSnap(scene.Vec3{Y: 1.102}, fp, lines, tol)
		require.True(t, res.Snapped, "tolerance %v", tol)
		assert.InDelta(t, 1.1, res.Position.Y, 1e-9)
	}
}

func TestResolveSnapBox_TranslatesOffsetBoxWhole(t *testing.T) {
	t.Parallel()

	lines := rack.LineSet{
		Horizontal: []rack.HorizontalLine{{Face: rack.FaceBeamTop, Y: 0.96}},
	}

	// A group origin at zero with its bounding box floating above it,
	// the way a multi-conduit group sees its children.
	box := scene.Box{
		Min: scene.Vec3{X: -0.05, Y: 0.95, Z: 0.1},
		Max: scene.Vec3{X: 0.05, Y: 1.05, Z: 0.3},
	}
	res := ResolveSnapBox(scene.Vec3{}, box, lines, SnapTolerance)

	require.True(t, res.Snapped)
	assert.InDelta(t, 0.01, res.Position.Y, 1e-9, "the origin shifts by the edge delta")
	assert.Equal(t, 0.0, res.Position.Z)
}

func TestResolveSnapBox_EmptyBoxIsNoOp(t *testing.T) {
	t.Parallel()

	lines := rack.LineSet{
		Horizontal: []rack.HorizontalLine{{Face: rack.FaceBeamTop, Y: 1.0}},
	}
	res := ResolveSnapBox(scene.Vec3{Y: 1.01}, scene.EmptyBox(), lines, SnapTolerance)

	assert.False(t, res.Snapped)
	assert.InDelta(t, 1.01, res.Position.Y, 1e-9)
}
