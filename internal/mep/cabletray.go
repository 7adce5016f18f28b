package mep

var cableTrayGeometryKeys = []string{"width_in", "height_in"}

// NewCableTrayAdapter builds the cable tray kind adapter.
func NewCableTrayAdapter(deps AdapterDeps) Adapter {
	return NewAdapter(Adapter{
		Kind:                 KindCableTray,
		FindSelectable:       findByType(string(KindCableTray)),
		FindGroup:            selfGroup,
		UpdateAppearance:     deps.Factory.UpdateAppearance,
		Dimensions:           dimensionsWith(deps),
		NeedsGeometryRebuild: deltaTouches(cableTrayGeometryKeys...),
		ApplyDelta:           applyCableTrayDelta,
		Rebuild:              rebuildWith(deps),
		CopyFactory:          copyWith(deps),
		Serialize:            serializeCableTray,
	})
}

func applyCableTrayDelta(it *Item, delta DimensionDelta) {
	if v, ok := delta.Float("width_in"); ok {
		it.WidthIn = v
	}
	if v, ok := delta.Float("height_in"); ok {
		it.HeightIn = v
	}
	if v, ok := delta.String("color"); ok {
		it.Color = v
	}
}

// serializeCableTray maps a record to the canonical cable tray storage
// shape. Trays carry no insulation, material, or bundle attributes.
func serializeCableTray(it Item) Item {
	out := it.Clone()
	out.Kind = KindCableTray
	out.DiameterIn = 0
	out.InsulationIn = 0
	out.Material = ""
	out.Count = 0
	out.SpacingIn = 0
	out.ConduitType = ""
	out.FillPercent = 0
	normalizeRecord(&out)
	return out
}
