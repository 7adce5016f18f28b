// Package mep implements the interactive editing core for MEP runs
// (ducts, pipes, conduits, cable trays) laid inside a multi-tier trade
// rack: per-kind selection handlers with live snap resolution against
// rack beams and posts, tier inference, measurement annotations, a
// cross-kind selection broker, and a persistence gateway contract.
//
// The engine is headless. Scene nodes carry extents and appearance
// state only; pointer input arrives as window coordinates that the
// input router converts to rays against the orbit camera. All editing
// entry points are serialized by the Engine; the lower-level types are
// not safe for concurrent use on their own.
package mep

import (
	"strings"

	"github.com/abhipalit3/configur-mep/internal/scene"
)

// Kind identifies one of the four MEP item kinds.
type Kind string

const (
	KindDuct      Kind = "duct"
	KindPipe      Kind = "pipe"
	KindConduit   Kind = "conduit"
	KindCableTray Kind = "cableTray"
)

// Kinds returns all item kinds in canonical order.
func Kinds() []Kind {
	return []Kind{KindDuct, KindPipe, KindConduit, KindCableTray}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDuct, KindPipe, KindConduit, KindCableTray:
		return true
	}
	return false
}

// Plural returns the handler registry key for the kind, e.g. "ducts".
func (k Kind) Plural() string {
	switch k {
	case KindDuct:
		return "ducts"
	case KindPipe:
		return "pipes"
	case KindConduit:
		return "conduits"
	case KindCableTray:
		return "cableTrays"
	}
	return string(k) + "s"
}

// Item is the canonical persisted record for one MEP run. Dimension
// attributes are in inches; position is in metres. Kind-specific
// attributes are zero-valued on the kinds that do not use them and
// omitted from the serialized form.
type Item struct {
	ID        string     `json:"id"`
	Kind      Kind       `json:"kind"`
	Position  scene.Vec3 `json:"position"`
	Tier      *int       `json:"tier"`
	TierLabel string     `json:"tierLabel"`

	// duct and cableTray
	WidthIn  float64 `json:"width_in,omitempty"`
	HeightIn float64 `json:"height_in,omitempty"`

	// pipe and conduit
	DiameterIn float64 `json:"diameter_in,omitempty"`

	// duct and pipe
	InsulationIn float64 `json:"insulation_in,omitempty"`

	// pipe
	Material string `json:"material,omitempty"`

	// conduit
	Count       int     `json:"count,omitempty"`
	SpacingIn   float64 `json:"spacing_in,omitempty"`
	ConduitType string  `json:"conduitType,omitempty"`
	FillPercent float64 `json:"fillPercent,omitempty"`

	Color string `json:"color,omitempty"`
}

// BaseID returns the id prefix before the first underscore. Composite
// child ids such as "123_0" and plain ids share the same base.
func BaseID(id string) string {
	if i := strings.Index(id, "_"); i >= 0 {
		return id[:i]
	}
	return id
}

// BaseID returns the item's base id.
func (it *Item) BaseID() string {
	return BaseID(it.ID)
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	out := it
	if it.Tier != nil {
		tier := *it.Tier
		out.Tier = &tier
	}
	return out
}

// SetTier applies a tier classification to the record, keeping tier and
// tierLabel consistent.
func (it *Item) SetTier(tier *int, label string) {
	if tier == nil {
		it.Tier = nil
	} else {
		n := *tier
		it.Tier = &n
	}
	it.TierLabel = label
}
