package mep

import (
	"strings"

	"github.com/google/uuid"

	"github.com/abhipalit3/configur-mep/internal/rack"
	"github.com/abhipalit3/configur-mep/internal/scene"
	"github.com/abhipalit3/configur-mep/internal/units"
)

// AdapterDeps carries the collaborators every kind adapter closes over.
type AdapterDeps struct {
	Factory Factory

	// RackLengthM returns the current run length along X in metres.
	// Nil falls back to the default rack length.
	RackLengthM func() float64

	// CopyOffsetM is the Z offset CopyFactory applies; zero means the
	// package default.
	CopyOffsetM float64

	// FallbackDiameterIn substitutes for missing dimensions; zero
	// means the package default.
	FallbackDiameterIn float64
}

func (d AdapterDeps) lengthM() float64 {
	if d.RackLengthM != nil {
		return d.RackLengthM()
	}
	return units.FeetToMeters(rack.FallbackRackLengthFt)
}

func (d AdapterDeps) fallbackIn() float64 {
	if d.FallbackDiameterIn > 0 {
		return d.FallbackDiameterIn
	}
	return FallbackDiameterIn
}

func (d AdapterDeps) copyOffset() float64 {
	if d.CopyOffsetM != 0 {
		return d.CopyOffsetM
	}
	return DefaultCopyOffsetM
}

// findByType builds a FindSelectable walking ancestors to the first
// node of the given type.
func findByType(typ string) func(*scene.Node) *scene.Node {
	return func(n *scene.Node) *scene.Node {
		if n == nil {
			return nil
		}
		return n.Ancestor(func(a *scene.Node) bool { return a.Type == typ })
	}
}

// selfGroup is the FindGroup of kinds whose selectable root is its own
// transform group.
func selfGroup(n *scene.Node) *scene.Node {
	return n
}

// deltaTouches builds a NeedsGeometryRebuild from the geometry-bearing
// attribute names.
func deltaTouches(keys ...string) func(DimensionDelta) bool {
	return func(d DimensionDelta) bool {
		for _, k := range keys {
			if d.Has(k) {
				return true
			}
		}
		return false
	}
}

// dimensionsWith builds a Dimensions bound to the configured fallback.
func dimensionsWith(deps AdapterDeps) func(Item) Footprint {
	return func(it Item) Footprint {
		return FootprintOfWithFallback(it, deps.fallbackIn())
	}
}

// rebuildWith builds a Rebuild that replaces the node's children and
// extents in place from a fresh factory build, keeping the node and its
// record pointer stable for the scene and the gizmo.
func rebuildWith(deps AdapterDeps) func(*scene.Node, Item) {
	return func(n *scene.Node, it Item) {
		if n == nil {
			return
		}
		fresh := deps.Factory.Create(it, deps.lengthM(), n.Position)
		n.ClearChildren()
		n.Extents = fresh.Extents
		for _, c := range fresh.Children() {
			n.AddChild(c)
		}
		if rec := itemOf(n); rec != nil {
			*rec = it
		} else {
			clone := it.Clone()
			n.Data = &clone
		}
	}
}

// copyWith builds the CopyFactory shared by all kinds: fresh id, Z
// offset, new subtree.
func copyWith(deps AdapterDeps) func(Item) (Item, *scene.Node) {
	return func(src Item) (Item, *scene.Node) {
		out := src.Clone()
		out.ID = uuid.NewString()
		out.Position.Z += deps.copyOffset()
		node := deps.Factory.Create(out, deps.lengthM(), out.Position)
		return out, node
	}
}

// normalizeRecord enforces id presence and tier label consistency on
// the canonical storage shape.
func normalizeRecord(it *Item) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.Tier != nil {
		it.TierLabel = rack.TierLabel(*it.Tier)
		return
	}
	if it.TierLabel == "" || strings.HasPrefix(it.TierLabel, "Tier ") {
		it.TierLabel = rack.LabelNoTier
	}
}

// NewAdapters builds the four kind adapters against one dependency set,
// keyed by kind.
func NewAdapters(deps AdapterDeps) map[Kind]Adapter {
	return map[Kind]Adapter{
		KindDuct:      NewDuctAdapter(deps),
		KindPipe:      NewPipeAdapter(deps),
		KindConduit:   NewConduitAdapter(deps),
		KindCableTray: NewCableTrayAdapter(deps),
	}
}
