package mep

import (
	"fmt"

	"github.com/abhipalit3/configur-mep/internal/scene"
)

// DimensionDelta is a partial update to a record's dimension
// attributes, keyed by serialized attribute name, e.g.
// {"width_in": 12, "material": "copper"}.
type DimensionDelta map[string]any

// Has reports whether key is present in the delta.
func (d DimensionDelta) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Float reads a numeric delta value. JSON decoding yields float64;
// int is accepted for deltas built in code.
func (d DimensionDelta) Float(key string) (float64, bool) {
	switch v := d[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Int reads an integer delta value.
func (d DimensionDelta) Int(key string) (int, bool) {
	switch v := d[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// String reads a string delta value.
func (d DimensionDelta) String(key string) (string, bool) {
	v, ok := d[key].(string)
	return v, ok
}

// Adapter parameterizes the interaction engine for one item kind. The
// engine itself carries no kind-specific branches; everything a kind
// does differently goes through these functions.
type Adapter struct {
	Kind Kind

	// FindSelectable walks from a raycast hit up to the node the kind
	// treats as selectable, or nil when the hit is foreign.
	FindSelectable func(n *scene.Node) *scene.Node

	// FindGroup returns the transform-attached root for a selectable
	// node. For conduits this is the multi-conduit parent.
	FindGroup func(n *scene.Node) *scene.Node

	// UpdateAppearance applies a visual state to the node and its
	// kind-owned children.
	UpdateAppearance func(n *scene.Node, ap scene.Appearance)

	// Dimensions computes the record's footprint in metres.
	Dimensions func(it Item) Footprint

	// NeedsGeometryRebuild reports whether the delta touches an
	// attribute that changes the built geometry.
	NeedsGeometryRebuild func(delta DimensionDelta) bool

	// ApplyDelta merges a dimension delta into the record.
	ApplyDelta func(it *Item, delta DimensionDelta)

	// Rebuild replaces the node's geometry in place from the record,
	// disposing the old child subtree.
	Rebuild func(n *scene.Node, it Item)

	// CopyFactory builds the duplicate of a record: fresh id, offset
	// position, new scene subtree.
	CopyFactory func(it Item) (Item, *scene.Node)

	// Serialize maps the record to its canonical storage shape.
	Serialize func(it Item) Item
}

// NewAdapter validates that every adapter method is present and returns
// the adapter unchanged. A gap panics: an unimplemented method is a
// wiring-time programming error, not a runtime condition.
func NewAdapter(a Adapter) Adapter {
	if !a.Kind.Valid() {
		panic(fmt.Sprintf("adapter kind %q is not a known kind", a.Kind))
	}
	missing := func(name string, absent bool) {
		if absent {
			panic(fmt.Sprintf("%s must be implemented for kind %s", name, a.Kind))
		}
	}
	missing("FindSelectable", a.FindSelectable == nil)
	missing("FindGroup", a.FindGroup == nil)
	missing("UpdateAppearance", a.UpdateAppearance == nil)
	missing("Dimensions", a.Dimensions == nil)
	missing("NeedsGeometryRebuild", a.NeedsGeometryRebuild == nil)
	missing("ApplyDelta", a.ApplyDelta == nil)
	missing("Rebuild", a.Rebuild == nil)
	missing("CopyFactory", a.CopyFactory == nil)
	missing("Serialize", a.Serialize == nil)
	return a
}
