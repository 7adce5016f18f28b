package scene

import "math"

// Orbit camera limits.
const (
	minOrbitDistance = 0.5
	maxOrbitDistance = 100.0
	// maxPitch keeps the camera off the poles so the view basis stays
	// well defined.
	maxPitch = math.Pi/2 - 0.01
)

// Camera is an orbit camera circling a target point. Yaw rotates around
// the world Y axis; pitch tilts toward the poles. The camera produces
// the world-space picking rays for pointer input.
type Camera struct {
	Target   Vec3
	Distance float64
	Yaw      float64 // radians around world Y
	Pitch    float64 // radians above the horizon
	FOVDeg   float64 // vertical field of view
	Aspect   float64 // viewport width / height

	// Enabled gates orbit and zoom input. The engine disables the
	// camera while an item drag is in progress.
	Enabled bool
}

// NewCamera returns an orbit camera with viewer-friendly defaults,
// looking at the origin.
func NewCamera() *Camera {
	return &Camera{
		Distance: 8,
		Yaw:      math.Pi / 4,
		Pitch:    math.Pi / 8,
		FOVDeg:   60,
		Aspect:   16.0 / 9.0,
		Enabled:  true,
	}
}

// Position returns the camera's world position on its orbit sphere.
func (c *Camera) Position() Vec3 {
	cp := math.Cos(c.Pitch)
	return c.Target.Add(Vec3{
		X: c.Distance * cp * math.Sin(c.Yaw),
		Y: c.Distance * math.Sin(c.Pitch),
		Z: c.Distance * cp * math.Cos(c.Yaw),
	})
}

// Orbit rotates the camera by the given yaw and pitch deltas. Ignored
// while the camera is disabled.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	if !c.Enabled {
		return
	}
	c.Yaw += dYaw
	c.Pitch = clamp(c.Pitch+dPitch, -maxPitch, maxPitch)
}

// Zoom moves the camera along its view axis. Positive delta zooms out.
// Ignored while the camera is disabled.
func (c *Camera) Zoom(delta float64) {
	if !c.Enabled {
		return
	}
	c.Distance = clamp(c.Distance*math.Exp(delta*0.001), minOrbitDistance, maxOrbitDistance)
}

// Ray builds the world-space picking ray through normalized device
// coordinates (x, y), each in [-1, 1] with +y up.
func (c *Camera) Ray(ndcX, ndcY float64) Ray {
	pos := c.Position()
	forward := c.Target.Sub(pos).Normalized()
	right := forward.Cross(Vec3{Y: 1}).Normalized()
	if right.Length() == 0 {
		// Looking straight up or down; pick an arbitrary right axis
		right = Vec3{X: 1}
	}
	up := right.Cross(forward)

	halfH := math.Tan(c.FOVDeg * math.Pi / 180 / 2)
	halfW := halfH * c.Aspect

	dir := forward.
		Add(right.Scale(ndcX * halfW)).
		Add(up.Scale(ndcY * halfH)).
		Normalized()

	return Ray{Origin: pos, Dir: dir}
}

// Project maps a world-space point to normalized device coordinates,
// the inverse of Ray. Returns false when the point is at or behind the
// camera plane.
func (c *Camera) Project(p Vec3) (ndcX, ndcY float64, ok bool) {
	pos := c.Position()
	forward := c.Target.Sub(pos).Normalized()
	right := forward.Cross(Vec3{Y: 1}).Normalized()
	if right.Length() == 0 {
		right = Vec3{X: 1}
	}
	up := right.Cross(forward)

	v := p.Sub(pos)
	depth := v.Dot(forward)
	if depth <= 0 {
		return 0, 0, false
	}

	halfH := math.Tan(c.FOVDeg * math.Pi / 180 / 2)
	halfW := halfH * c.Aspect

	return v.Dot(right) / depth / halfW, v.Dot(up) / depth / halfH, true
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
