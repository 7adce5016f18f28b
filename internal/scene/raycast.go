package scene

import (
	"math"
	"sort"
)

// Ray is a world-space half line.
type Ray struct {
	Origin Vec3
	Dir    Vec3 // unit length
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// IntersectBox computes the entry distance of the ray into an
// axis-aligned box using the slab method. When the origin lies inside
// the box the distance is 0. The second return is false on a miss.
func (r Ray) IntersectBox(b Box) (float64, bool) {
	if b.IsEmpty() {
		return 0, false
	}

	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	axes := [3][4]float64{
		{r.Origin.X, r.Dir.X, b.Min.X, b.Max.X},
		{r.Origin.Y, r.Dir.Y, b.Min.Y, b.Max.Y},
		{r.Origin.Z, r.Dir.Z, b.Min.Z, b.Max.Z},
	}

	for _, a := range axes {
		origin, dir, lo, hi := a[0], a[1], a[2], a[3]
		if dir == 0 {
			if origin < lo || origin > hi {
				return 0, false
			}
			continue
		}
		t1 := (lo - origin) / dir
		t2 := (hi - origin) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, false
		}
	}

	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return 0, true
	}
	return tmin, true
}

// Hit is one ray-node intersection.
type Hit struct {
	Node     *Node
	Distance float64
	Point    Vec3
}

// Raycast intersects the ray with every pickable node in the subtree
// rooted at root. A node is pickable when it has nonzero extents.
// Hits are returned nearest first.
func Raycast(root *Node, ray Ray) []Hit {
	if root == nil {
		return nil
	}

	var hits []Hit
	root.Walk(func(n *Node) bool {
		if own := n.OwnBounds(); !own.IsEmpty() {
			if t, ok := ray.IntersectBox(own); ok {
				hits = append(hits, Hit{Node: n, Distance: t, Point: ray.At(t)})
			}
		}
		return true
	})

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}
