package rack

import "fmt"

// Tier layout thresholds, in metres.
const (
	// MinTierHeight is the smallest beam-to-beam gap that forms a tier.
	MinTierHeight = 0.30
	// FallbackTolerance is used when an item's dimension is missing or
	// invalid.
	FallbackTolerance = 0.05
)

// Labels reported when a Y coordinate does not land inside a tier.
const (
	LabelAboveRack = "Above Rack"
	LabelBelowRack = "Below Rack"
	LabelNoTier    = "No Tier"
)

// TierLabel returns the display label for tier index n.
func TierLabel(n int) string {
	return fmt.Sprintf("Tier %d", n)
}

// Space is one horizontal slot between two beams. Index 1 is the
// topmost valid gap.
type Space struct {
	Index   int     `json:"index"`
	TopY    float64 `json:"top_y"`
	BottomY float64 `json:"bottom_y"`
	Height  float64 `json:"height"`
	CenterY float64 `json:"center_y"`
}

// BuildSpaces pairs adjacent horizontal lines, already sorted by Y
// descending, into tier spaces. A pair forms a space when its gap is at
// least MinTierHeight; smaller gaps are skipped and the scan continues
// with the next adjacent pair.
func BuildSpaces(horizontals []HorizontalLine) []Space {
	return BuildSpacesWithMin(horizontals, MinTierHeight)
}

// BuildSpacesWithMin is BuildSpaces with a caller-supplied minimum gap.
// A non-finite or non-positive minimum falls back to MinTierHeight.
func BuildSpacesWithMin(horizontals []HorizontalLine, minHeight float64) []Space {
	if !isFinite(minHeight) || minHeight <= 0 {
		minHeight = MinTierHeight
	}

	var spaces []Space

	for i := 0; i+1 < len(horizontals); i++ {
		top := horizontals[i].Y
		bottom := horizontals[i+1].Y
		gap := top - bottom
		if gap < minHeight {
			continue
		}
		spaces = append(spaces, Space{
			Index:   len(spaces) + 1,
			TopY:    top,
			BottomY: bottom,
			Height:  gap,
			CenterY: (top + bottom) / 2,
		})
	}

	return spaces
}

// Classification is the result of mapping a world Y to a tier.
type Classification struct {
	// Tier is the 1-based tier index, or nil when the Y lands outside
	// every tier space.
	Tier *int `json:"tier"`
	// Label pairs with Tier: "Tier N" exactly when Tier is non-nil.
	Label string `json:"label"`
}

// Classify maps a world-space Y coordinate to a tier. The tolerance is
// half the item's governing dimension in metres; a non-finite or
// non-positive tolerance falls back to FallbackTolerance. Spaces must be
// in descending-Y order; the first space whose expanded band contains y
// wins.
//
// Classify is pure: it never logs and has no side effects.
func Classify(y, tolerance float64, spaces []Space) Classification {
	if !isFinite(y) || len(spaces) == 0 {
		return Classification{Label: LabelNoTier}
	}

	if !isFinite(tolerance) || tolerance <= 0 {
		tolerance = FallbackTolerance
	}

	for _, s := range spaces {
		if y >= s.BottomY-tolerance && y <= s.TopY+tolerance {
			idx := s.Index
			return Classification{Tier: &idx, Label: TierLabel(idx)}
		}
	}

	if y > spaces[0].TopY+tolerance {
		return Classification{Label: LabelAboveRack}
	}
	if y < spaces[len(spaces)-1].BottomY-tolerance {
		return Classification{Label: LabelBelowRack}
	}
	return Classification{Label: LabelNoTier}
}
