package mep

import (
	"fmt"

	"github.com/abhipalit3/configur-mep/internal/scene"
	"github.com/abhipalit3/configur-mep/internal/units"
)

// NodeTypeMultiConduit tags the grouping node that owns a conduit run's
// individual conduits. Selection prefers it over its children.
const NodeTypeMultiConduit = "multiConduit"

// Factory builds the scene subtree for an item record. Implementations
// may rebuild child geometry in place via a fresh Create plus graft.
type Factory interface {
	// Create builds a detached node tree for the record at the given
	// world position. lengthM is the run length along X in metres.
	Create(it Item, lengthM float64, pos scene.Vec3) *scene.Node

	// UpdateAppearance applies a visual state to the node tree.
	UpdateAppearance(n *scene.Node, ap scene.Appearance)
}

// BoxFactory is the headless Factory: every item becomes a node whose
// extents match its footprint, with no meshes or materials behind it.
// Conduit runs become a multi-conduit group of individually extent-ed
// children so the group bounding box reflects real spacing.
type BoxFactory struct {
	// FallbackDiameterIn substitutes for missing dimensions; zero means
	// the package default.
	FallbackDiameterIn float64
}

// NewBoxFactory returns a BoxFactory with the given dimension fallback
// in inches.
func NewBoxFactory(fallbackIn float64) *BoxFactory {
	return &BoxFactory{FallbackDiameterIn: fallbackIn}
}

func (f *BoxFactory) fallback() float64 {
	if f.FallbackDiameterIn > 0 {
		return f.FallbackDiameterIn
	}
	return FallbackDiameterIn
}

func (f *BoxFactory) Create(it Item, lengthM float64, pos scene.Vec3) *scene.Node {
	if it.Kind == KindConduit {
		return f.createConduitGroup(it, lengthM, pos)
	}

	fp := FootprintOfWithFallback(it, f.fallback())
	n := scene.NewNode(string(it.Kind))
	n.Position = pos
	n.Extents = scene.Vec3{X: lengthM, Y: fp.Height, Z: fp.Width}
	rec := it.Clone()
	n.Data = &rec
	return n
}

// createConduitGroup lays k conduits out along Z, centered on the group
// origin, one spacing apart. The group node itself has no extents; its
// bounds are the union of the children.
func (f *BoxFactory) createConduitGroup(it Item, lengthM float64, pos scene.Vec3) *scene.Node {
	count := it.Count
	if count < 1 {
		count = 1
	}
	d := units.Sanitize(it.DiameterIn, f.fallback())
	dm := units.InchesToMeters(d)
	spacing := units.InchesToMeters(units.SanitizeNonNegative(it.SpacingIn, 0))

	group := scene.NewNode(NodeTypeMultiConduit)
	group.Position = pos
	rec := it.Clone()
	group.Data = &rec

	base := rec.BaseID()
	for i := 0; i < count; i++ {
		child := scene.NewNode(string(KindConduit))
		child.Position = scene.Vec3{Z: (float64(i) - float64(count-1)/2) * spacing}
		child.Extents = scene.Vec3{X: lengthM, Y: dm, Z: dm}
		child.Data = composeChildID(base, i)
		group.AddChild(child)
	}
	return group
}

func (f *BoxFactory) UpdateAppearance(n *scene.Node, ap scene.Appearance) {
	n.Walk(func(c *scene.Node) bool {
		c.Appearance = ap
		return true
	})
}

// composeChildID builds the composite id of a grouped child.
func composeChildID(base string, index int) string {
	return fmt.Sprintf("%s_%d", base, index)
}
