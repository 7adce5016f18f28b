package mep

import "github.com/abhipalit3/configur-mep/internal/scene"

// ItemsUpdated is the change event the persistence gateway broadcasts
// after every mutation. Items is the full list after the write;
// UpdatedID names the mutated base id, empty for bulk replacements.
type ItemsUpdated struct {
	Items     []Item `json:"items"`
	UpdatedID string `json:"updatedId,omitempty"`
}

// SelectionChanged is broadcast by the selection broker one frame after
// a selection transition. Item is nil when the kind's selection was
// cleared.
type SelectionChanged struct {
	Kind Kind  `json:"kind"`
	Item *Item `json:"item"`
}

// ItemMoved is emitted at the end of every drag frame, after snap
// resolution, position assignment and measurement refresh.
type ItemMoved struct {
	Kind     Kind       `json:"kind"`
	ID       string     `json:"id"`
	Position scene.Vec3 `json:"position"`
	Snapped  bool       `json:"snapped"`
}
