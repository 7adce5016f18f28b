package mep

import (
	"math"

	"github.com/abhipalit3/configur-mep/internal/monitoring"
	"github.com/abhipalit3/configur-mep/internal/units"
)

// FallbackDiameterIn is the dimension applied when a record carries a
// missing or non-finite linear dimension.
const FallbackDiameterIn = 2.0

// Footprint is an item's cross-section extent in metres: width along Z,
// height along Y. Both are strictly positive and finite for any record.
type Footprint struct {
	Width  float64
	Height float64
}

// FootprintOf computes the item's footprint from its dimension
// attributes. Insulation counts on both sides for ducts and pipes; a
// conduit group of count k spans (k-1) spacings plus one diameter.
func FootprintOf(it Item) Footprint {
	return FootprintOfWithFallback(it, FallbackDiameterIn)
}

// FootprintOfWithFallback is FootprintOf with a configurable fallback
// for missing or invalid dimensions, in inches.
func FootprintOfWithFallback(it Item, fallbackIn float64) Footprint {
	if !(fallbackIn > 0) || !isFiniteDim(fallbackIn) {
		fallbackIn = FallbackDiameterIn
	}
	insulation := units.SanitizeNonNegative(it.InsulationIn, 0)

	switch it.Kind {
	case KindDuct:
		w := units.Sanitize(it.WidthIn, fallbackIn)
		h := units.Sanitize(it.HeightIn, fallbackIn)
		return Footprint{
			Width:  units.InchesToMeters(w + 2*insulation),
			Height: units.InchesToMeters(h + 2*insulation),
		}
	case KindPipe:
		d := units.Sanitize(it.DiameterIn, fallbackIn)
		side := units.InchesToMeters(d + 2*insulation)
		return Footprint{Width: side, Height: side}
	case KindConduit:
		d := units.Sanitize(it.DiameterIn, fallbackIn)
		count := it.Count
		if count < 1 {
			count = 1
		}
		spacing := units.SanitizeNonNegative(it.SpacingIn, 0)
		return Footprint{
			Width:  units.InchesToMeters(float64(count-1)*spacing + d),
			Height: units.InchesToMeters(d),
		}
	case KindCableTray:
		return Footprint{
			Width:  units.InchesToMeters(units.Sanitize(it.WidthIn, fallbackIn)),
			Height: units.InchesToMeters(units.Sanitize(it.HeightIn, fallbackIn)),
		}
	}
	side := units.InchesToMeters(fallbackIn)
	return Footprint{Width: side, Height: side}
}

// ToleranceOf returns the tier-classification tolerance for the item in
// metres: half the nominal diameter for pipes and conduits, half the
// nominal height for ducts and cable trays. Insulation is excluded.
// fallback is used when the dimension attribute is missing or invalid.
func ToleranceOf(it Item, fallback float64) float64 {
	var dim float64
	switch it.Kind {
	case KindPipe, KindConduit:
		dim = it.DiameterIn
	case KindDuct, KindCableTray:
		dim = it.HeightIn
	}
	if !(dim > 0) || !isFiniteDim(dim) {
		return fallback
	}
	return units.InchesToMeters(dim) / 2
}

// SanitizeDimensions normalizes a record's dimension attributes in
// place, logging once per repaired field. Called when a record enters
// the engine so the hot paths can assume positive finite dimensions.
func SanitizeDimensions(it *Item, fallbackIn float64) {
	if !(fallbackIn > 0) || !isFiniteDim(fallbackIn) {
		fallbackIn = FallbackDiameterIn
	}
	fix := func(name string, v *float64) {
		if *v > 0 && isFiniteDim(*v) {
			return
		}
		monitoring.Logf("[mep] item %s: invalid %s %v, using %v in", it.ID, name, *v, fallbackIn)
		*v = fallbackIn
	}
	switch it.Kind {
	case KindDuct:
		fix("width_in", &it.WidthIn)
		fix("height_in", &it.HeightIn)
	case KindPipe:
		fix("diameter_in", &it.DiameterIn)
	case KindConduit:
		fix("diameter_in", &it.DiameterIn)
		if it.Count < 1 {
			monitoring.Logf("[mep] item %s: invalid count %d, using 1", it.ID, it.Count)
			it.Count = 1
		}
		if it.SpacingIn != units.SanitizeNonNegative(it.SpacingIn, 0) {
			monitoring.Logf("[mep] item %s: invalid spacing_in %v, using 0", it.ID, it.SpacingIn)
			it.SpacingIn = 0
		}
	case KindCableTray:
		fix("width_in", &it.WidthIn)
		fix("height_in", &it.HeightIn)
	}
	if it.InsulationIn != units.SanitizeNonNegative(it.InsulationIn, 0) {
		monitoring.Logf("[mep] item %s: invalid insulation_in %v, using 0", it.ID, it.InsulationIn)
		it.InsulationIn = 0
	}
}

func isFiniteDim(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
