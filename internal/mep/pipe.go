package mep

// pipeGeometryKeys are the delta attributes that change built pipe
// geometry.
var pipeGeometryKeys = []string{"diameter_in", "insulation_in"}

// NewPipeAdapter builds the pipe kind adapter.
func NewPipeAdapter(deps AdapterDeps) Adapter {
	return NewAdapter(Adapter{
		Kind:                 KindPipe,
		FindSelectable:       findByType(string(KindPipe)),
		FindGroup:            selfGroup,
		UpdateAppearance:     deps.Factory.UpdateAppearance,
		Dimensions:           dimensionsWith(deps),
		NeedsGeometryRebuild: deltaTouches(pipeGeometryKeys...),
		ApplyDelta:           applyPipeDelta,
		Rebuild:              rebuildWith(deps),
		CopyFactory:          copyWith(deps),
		Serialize:            serializePipe,
	})
}

func applyPipeDelta(it *Item, delta DimensionDelta) {
	if v, ok := delta.Float("diameter_in"); ok {
		it.DiameterIn = v
	}
	if v, ok := delta.Float("insulation_in"); ok {
		it.InsulationIn = v
	}
	if v, ok := delta.String("material"); ok {
		it.Material = v
	}
	if v, ok := delta.String("color"); ok {
		it.Color = v
	}
}

// serializePipe maps a record to the canonical pipe storage shape,
// dropping attributes foreign to the kind.
func serializePipe(it Item) Item {
	out := it.Clone()
	out.Kind = KindPipe
	out.WidthIn = 0
	out.HeightIn = 0
	out.Count = 0
	out.SpacingIn = 0
	out.ConduitType = ""
	out.FillPercent = 0
	normalizeRecord(&out)
	return out
}
