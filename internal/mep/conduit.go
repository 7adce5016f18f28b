package mep

import "github.com/abhipalit3/configur-mep/internal/scene"

// conduitGeometryKeys are the delta attributes that change built
// conduit geometry. Type and fill are bookkeeping only.
var conduitGeometryKeys = []string{"diameter_in", "count", "spacing_in"}

// NewConduitAdapter builds the conduit kind adapter. Conduit runs live
// under a multi-conduit group node; selection and transform both target
// the group so the children's spacing never changes.
func NewConduitAdapter(deps AdapterDeps) Adapter {
	return NewAdapter(Adapter{
		Kind:                 KindConduit,
		FindSelectable:       findConduitSelectable,
		FindGroup:            findConduitGroup,
		UpdateAppearance:     deps.Factory.UpdateAppearance,
		Dimensions:           dimensionsWith(deps),
		NeedsGeometryRebuild: deltaTouches(conduitGeometryKeys...),
		ApplyDelta:           applyConduitDelta,
		Rebuild:              rebuildWith(deps),
		CopyFactory:          copyWith(deps),
		Serialize:            serializeConduit,
	})
}

// findConduitSelectable prefers the multi-conduit group over the child
// conduit that was actually hit.
func findConduitSelectable(n *scene.Node) *scene.Node {
	if n == nil {
		return nil
	}
	if g := n.Ancestor(func(a *scene.Node) bool { return a.Type == NodeTypeMultiConduit }); g != nil {
		return g
	}
	return n.Ancestor(func(a *scene.Node) bool { return a.Type == string(KindConduit) })
}

// findConduitGroup resolves the transform-attached root: the
// multi-conduit parent when present, otherwise the node itself.
func findConduitGroup(n *scene.Node) *scene.Node {
	if n == nil {
		return nil
	}
	if g := n.Ancestor(func(a *scene.Node) bool { return a.Type == NodeTypeMultiConduit }); g != nil {
		return g
	}
	return n
}

func applyConduitDelta(it *Item, delta DimensionDelta) {
	if v, ok := delta.Float("diameter_in"); ok {
		it.DiameterIn = v
	}
	if v, ok := delta.Int("count"); ok {
		it.Count = v
	}
	if v, ok := delta.Float("spacing_in"); ok {
		it.SpacingIn = v
	}
	if v, ok := delta.String("conduitType"); ok {
		it.ConduitType = v
	}
	if v, ok := delta.Float("fillPercent"); ok {
		it.FillPercent = v
	}
	if v, ok := delta.String("color"); ok {
		it.Color = v
	}
}

// serializeConduit maps a record to the canonical conduit storage
// shape, dropping attributes foreign to the kind. Count floors at one.
func serializeConduit(it Item) Item {
	out := it.Clone()
	out.Kind = KindConduit
	out.WidthIn = 0
	out.HeightIn = 0
	out.InsulationIn = 0
	out.Material = ""
	if out.Count < 1 {
		out.Count = 1
	}
	normalizeRecord(&out)
	return out
}
