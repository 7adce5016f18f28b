package mep

// ductGeometryKeys are the delta attributes that change built duct
// geometry.
var ductGeometryKeys = []string{"width_in", "height_in", "insulation_in"}

// NewDuctAdapter builds the duct kind adapter.
func NewDuctAdapter(deps AdapterDeps) Adapter {
	return NewAdapter(Adapter{
		Kind:                 KindDuct,
		FindSelectable:       findByType(string(KindDuct)),
		FindGroup:            selfGroup,
		UpdateAppearance:     deps.Factory.UpdateAppearance,
		Dimensions:           dimensionsWith(deps),
		NeedsGeometryRebuild: deltaTouches(ductGeometryKeys...),
		ApplyDelta:           applyDuctDelta,
		Rebuild:              rebuildWith(deps),
		CopyFactory:          copyWith(deps),
		Serialize:            serializeDuct,
	})
}

func applyDuctDelta(it *Item, delta DimensionDelta) {
	if v, ok := delta.Float("width_in"); ok {
		it.WidthIn = v
	}
	if v, ok := delta.Float("height_in"); ok {
		it.HeightIn = v
	}
	if v, ok := delta.Float("insulation_in"); ok {
		it.InsulationIn = v
	}
	if v, ok := delta.String("color"); ok {
		it.Color = v
	}
}

// serializeDuct maps a record to the canonical duct storage shape,
// dropping attributes foreign to the kind.
func serializeDuct(it Item) Item {
	out := it.Clone()
	out.Kind = KindDuct
	out.DiameterIn = 0
	out.Material = ""
	out.Count = 0
	out.SpacingIn = 0
	out.ConduitType = ""
	out.FillPercent = 0
	normalizeRecord(&out)
	return out
}
