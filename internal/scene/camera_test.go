package scene

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCamera_Position(t *testing.T) {
	t.Parallel()

	c := &Camera{Target: Vec3{}, Distance: 5, Yaw: 0, Pitch: 0, Enabled: true}
	pos := c.Position()

	assert.InDelta(t, 0, pos.X, 1e-9)
	assert.InDelta(t, 0, pos.Y, 1e-9)
	assert.InDelta(t, 5, pos.Z, 1e-9)
}

func TestCamera_PositionWithPitch(t *testing.T) {
	t.Parallel()

	c := &Camera{Target: Vec3{}, Distance: 2, Yaw: 0, Pitch: math.Pi / 2 * 0.99, Enabled: true}
	pos := c.Position()

	// Almost straight above the target
	assert.InDelta(t, 2, pos.Y, 0.01)
}

func TestCamera_RayThroughCenterPointsAtTarget(t *testing.T) {
	t.Parallel()

	c := NewCamera()
	c.Target = Vec3{0, 1, 0}

	ray := c.Ray(0, 0)

	toTarget := c.Target.Sub(ray.Origin).Normalized()
	assert.InDelta(t, toTarget.X, ray.Dir.X, 1e-9)
	assert.InDelta(t, toTarget.Y, ray.Dir.Y, 1e-9)
	assert.InDelta(t, toTarget.Z, ray.Dir.Z, 1e-9)
	assert.InDelta(t, 1, ray.Dir.Length(), 1e-9)
}

func TestCamera_RayOffCenterDeviates(t *testing.T) {
	t.Parallel()

	c := &Camera{Distance: 5, FOVDeg: 60, Aspect: 1, Enabled: true}
	center := c.Ray(0, 0)
	right := c.Ray(0.5, 0)
	up := c.Ray(0, 0.5)

	assert.NotEqual(t, center.Dir, right.Dir)
	assert.NotEqual(t, center.Dir, up.Dir)

	// An NDC offset to the right must move the ray toward +X when the
	// camera looks down -Z
	assert.Greater(t, right.Dir.X, center.Dir.X)
	assert.Greater(t, up.Dir.Y, center.Dir.Y)
}

func TestCamera_ProjectInvertsRay(t *testing.T) {
	t.Parallel()

	c := NewCamera()
	c.Target = Vec3{0.5, 1.2, -0.3}

	for _, ndc := range [][2]float64{{0, 0}, {0.4, -0.3}, {-0.8, 0.7}} {
		ray := c.Ray(ndc[0], ndc[1])
		p := ray.At(3.5)

		x, y, ok := c.Project(p)
		require.True(t, ok)
		assert.InDelta(t, ndc[0], x, 1e-9)
		assert.InDelta(t, ndc[1], y, 1e-9)
	}
}

func TestCamera_ProjectBehindCamera(t *testing.T) {
	t.Parallel()

	c := NewCamera()
	behind := c.Position().Add(c.Position().Sub(c.Target))

	_, _, ok := c.Project(behind)
	assert.False(t, ok)
}

func TestCamera_OrbitClampsPitch(t *testing.T) {
	t.Parallel()

	c := NewCamera()
	c.Orbit(0, 10)

	require.Less(t, c.Pitch, math.Pi/2)
	assert.InDelta(t, maxPitch, c.Pitch, 1e-9)

	c.Orbit(0, -20)
	assert.InDelta(t, -maxPitch, c.Pitch, 1e-9)
}

func TestCamera_OrbitDisabled(t *testing.T) {
	t.Parallel()

	c := NewCamera()
	c.Enabled = false
	yaw, pitch := c.Yaw, c.Pitch

	c.Orbit(1, 1)

	assert.Equal(t, yaw, c.Yaw)
	assert.Equal(t, pitch, c.Pitch)
}

func TestCamera_Zoom(t *testing.T) {
	t.Parallel()

	c := NewCamera()
	start := c.Distance

	c.Zoom(200)
	assert.Greater(t, c.Distance, start)

	c.Zoom(-400)
	assert.Less(t, c.Distance, start)

	// Clamped at the near limit
	for i := 0; i < 100; i++ {
		c.Zoom(-10000)
	}
	assert.GreaterOrEqual(t, c.Distance, minOrbitDistance)
}

func TestCamera_ZoomDisabled(t *testing.T) {
	t.Parallel()

	c := NewCamera()
	c.Enabled = false
	start := c.Distance

	c.Zoom(500)

	assert.Equal(t, start, c.Distance)
}
