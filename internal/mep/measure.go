package mep

import (
	"math"
	"sync"

	"github.com/abhipalit3/configur-mep/internal/rack"
	"github.com/abhipalit3/configur-mep/internal/scene"
)

// MeasurementService draws and releases distance annotations. The
// rendering layer owns the visuals; the engine only tracks ids.
type MeasurementService interface {
	// Draw creates a segment annotation and returns its id.
	Draw(p1, p2 scene.Vec3) string

	// Remove releases the annotation with the given id. Unknown ids
	// are ignored.
	Remove(id string)
}

// Segment is one drawn measurement annotation.
type Segment struct {
	P1 scene.Vec3 `json:"p1"`
	P2 scene.Vec3 `json:"p2"`
}

// Length returns the segment's length in metres.
func (s Segment) Length() float64 {
	return s.P1.DistanceTo(s.P2)
}

// MemoryMeasurements is an in-memory MeasurementService backing tests
// and the HTTP surface.
type MemoryMeasurements struct {
	mu       sync.Mutex
	segments map[string]Segment
}

// NewMemoryMeasurements creates an empty service.
func NewMemoryMeasurements() *MemoryMeasurements {
	return &MemoryMeasurements{segments: make(map[string]Segment)}
}

func (m *MemoryMeasurements) Draw(p1, p2 scene.Vec3) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := "m-" + randomID()
	m.segments[id] = Segment{P1: p1, P2: p2}
	return id
}

func (m *MemoryMeasurements) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.segments, id)
}

// Count returns the number of live annotations.
func (m *MemoryMeasurements) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.segments)
}

// Segment returns the annotation with the given id.
func (m *MemoryMeasurements) Segment(id string) (Segment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.segments[id]
	return s, ok
}

// Segments returns a copy of all live annotations keyed by id.
func (m *MemoryMeasurements) Segments() map[string]Segment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Segment, len(m.segments))
	for id, s := range m.segments {
		out[id] = s
	}
	return out
}

// MeasurementManager keeps the selected item's two distance-to-post
// segments current. The contract per refresh is clear, then redraw.
type MeasurementManager struct {
	svc  MeasurementService
	rack rack.Provider
}

// NewMeasurementManager wires a service to the rack's vertical lines.
func NewMeasurementManager(svc MeasurementService, r rack.Provider) *MeasurementManager {
	return &MeasurementManager{svc: svc, rack: r}
}

// Refresh removes the old annotations and draws fresh ones for an item
// at pos with footprint fp: one segment from the max-Z edge to the
// nearest left-side post, one from the min-Z edge to the nearest
// right-side post, both in the item's horizontal plane. Returns the new
// ids; sides without posts draw nothing.
func (m *MeasurementManager) Refresh(pos scene.Vec3, fp Footprint, old []string) []string {
	m.Clear(old)
	if m.svc == nil || m.rack == nil {
		return nil
	}

	lines := m.rack.SnapLines()
	minZ := pos.Z - fp.Width/2
	maxZ := pos.Z + fp.Width/2

	ids := make([]string, 0, 2)
	if l, ok := nearestVertical(lines.Vertical, rack.SideLeft, maxZ); ok {
		id := m.svc.Draw(
			scene.Vec3{X: pos.X, Y: pos.Y, Z: maxZ},
			scene.Vec3{X: pos.X, Y: pos.Y, Z: l.Z},
		)
		ids = append(ids, id)
	}
	if l, ok := nearestVertical(lines.Vertical, rack.SideRight, minZ); ok {
		id := m.svc.Draw(
			scene.Vec3{X: pos.X, Y: pos.Y, Z: minZ},
			scene.Vec3{X: pos.X, Y: pos.Y, Z: l.Z},
		)
		ids = append(ids, id)
	}
	return ids
}

// Clear removes all listed annotations.
func (m *MeasurementManager) Clear(ids []string) {
	if m.svc == nil {
		return
	}
	for _, id := range ids {
		m.svc.Remove(id)
	}
}

// nearestVertical returns the line of the given side closest to z.
func nearestVertical(lines []rack.VerticalLine, side rack.Side, z float64) (rack.VerticalLine, bool) {
	best := rack.VerticalLine{}
	bestD := math.Inf(1)
	found := false
	for _, l := range lines {
		if l.Side != side {
			continue
		}
		if d := math.Abs(l.Z - z); d < bestD {
			bestD = d
			best = l
			found = true
		}
	}
	return best, found
}
