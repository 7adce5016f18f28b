package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/abhipalit3/configur-mep/internal/fsutil"
	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/monitoring"
	"github.com/abhipalit3/configur-mep/internal/scene"
)

// legacyItem is one record from the browser-era JSON store. The shape
// drifted across builds: ids were numeric timestamps before they were
// strings, dimension fields gained the _in suffix late, the kind lived
// under "type" before "kind", and tier labels were stored as
// "tierName". Every variant decodes here.
type legacyItem struct {
	ID   json.RawMessage `json:"id"`
	Kind string          `json:"kind"`
	Type string          `json:"type"`

	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	} `json:"position"`

	Tier      *int   `json:"tier"`
	TierLabel string `json:"tierLabel"`
	TierName  string `json:"tierName"`

	WidthIn      float64 `json:"width_in"`
	Width        float64 `json:"width"`
	HeightIn     float64 `json:"height_in"`
	Height       float64 `json:"height"`
	DiameterIn   float64 `json:"diameter_in"`
	Diameter     float64 `json:"diameter"`
	InsulationIn float64 `json:"insulation_in"`
	Insulation   float64 `json:"insulation"`
	Material     string  `json:"material"`
	Count        int     `json:"count"`
	SpacingIn    float64 `json:"spacing_in"`
	Spacing      float64 `json:"spacing"`
	ConduitType  string  `json:"conduitType"`
	FillPercent  float64 `json:"fillPercent"`
	Color        string  `json:"color"`
}

// DecodeLegacyItems parses a legacy JSON item list. Both the bare array
// form and the {"items": [...]} envelope are accepted. Records with an
// unknown kind or no id are logged and skipped rather than failing the
// whole import.
func DecodeLegacyItems(data []byte) ([]mep.Item, error) {
	raw := bytes.TrimSpace(data)
	var list []legacyItem
	if len(raw) > 0 && raw[0] == '{' {
		var env struct {
			Items []legacyItem `json:"items"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("failed to parse legacy item list: %w", err)
		}
		list = env.Items
	} else if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse legacy item list: %w", err)
	}

	out := make([]mep.Item, 0, len(list))
	for _, l := range list {
		it, ok := l.canonical()
		if !ok {
			monitoring.Logf("[store] skipping unusable legacy item (id %q, kind %q)",
				legacyID(l.ID), firstNonEmpty(l.Kind, l.Type))
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// ReadLegacyItems reads and decodes the legacy JSON store at path.
func ReadLegacyItems(fsys fsutil.FileSystem, path string) ([]mep.Item, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy items file: %w", err)
	}
	return DecodeLegacyItems(data)
}

func (l legacyItem) canonical() (mep.Item, bool) {
	kind, ok := legacyKind(firstNonEmpty(l.Kind, l.Type))
	if !ok {
		return mep.Item{}, false
	}
	id := legacyID(l.ID)
	if id == "" {
		return mep.Item{}, false
	}

	it := mep.Item{
		ID:           id,
		Kind:         kind,
		Position:     scene.Vec3{X: l.Position.X, Y: l.Position.Y, Z: l.Position.Z},
		TierLabel:    firstNonEmpty(l.TierLabel, l.TierName),
		WidthIn:      firstNonZero(l.WidthIn, l.Width),
		HeightIn:     firstNonZero(l.HeightIn, l.Height),
		DiameterIn:   firstNonZero(l.DiameterIn, l.Diameter),
		InsulationIn: firstNonZero(l.InsulationIn, l.Insulation),
		Material:     l.Material,
		Count:        l.Count,
		SpacingIn:    firstNonZero(l.SpacingIn, l.Spacing),
		ConduitType:  l.ConduitType,
		FillPercent:  l.FillPercent,
		Color:        l.Color,
	}
	if l.Tier != nil && *l.Tier > 0 {
		tier := *l.Tier
		it.Tier = &tier
	}
	return it, true
}

// legacyID renders an id that may be a JSON string or a bare number.
// Numeric ids keep their literal digits, so Date.now() timestamps
// survive without float formatting artifacts.
func legacyID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func legacyKind(s string) (mep.Kind, bool) {
	k := strings.ToLower(s)
	k = strings.NewReplacer("-", "", "_", "", " ", "").Replace(k)
	k = strings.TrimSuffix(k, "s")
	switch k {
	case "duct":
		return mep.KindDuct, true
	case "pipe":
		return mep.KindPipe, true
	case "conduit":
		return mep.KindConduit, true
	case "cabletray":
		return mep.KindCableTray, true
	}
	return "", false
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstNonZero(a, b float64) float64 {
	if a != 0 {
		return a
	}
	return b
}

// TempState is the msgpack session snapshot older builds wrote between
// page loads. Ids are always strings here; the field set otherwise
// mirrors the canonical record.
type TempState struct {
	SavedAtUnixMs int64      `msgpack:"saved_at_ms,omitempty"`
	Items         []TempItem `msgpack:"items,omitempty"`
}

// TempItem is one record inside a TempState snapshot.
type TempItem struct {
	ID           string  `msgpack:"id"`
	Kind         string  `msgpack:"kind"`
	X            float64 `msgpack:"x,omitempty"`
	Y            float64 `msgpack:"y,omitempty"`
	Z            float64 `msgpack:"z,omitempty"`
	Tier         int     `msgpack:"tier,omitempty"`
	TierLabel    string  `msgpack:"tier_label,omitempty"`
	WidthIn      float64 `msgpack:"width_in,omitempty"`
	HeightIn     float64 `msgpack:"height_in,omitempty"`
	DiameterIn   float64 `msgpack:"diameter_in,omitempty"`
	InsulationIn float64 `msgpack:"insulation_in,omitempty"`
	Material     string  `msgpack:"material,omitempty"`
	Count        int     `msgpack:"count,omitempty"`
	SpacingIn    float64 `msgpack:"spacing_in,omitempty"`
	ConduitType  string  `msgpack:"conduit_type,omitempty"`
	FillPercent  float64 `msgpack:"fill_percent,omitempty"`
	Color        string  `msgpack:"color,omitempty"`
}

// ReadTempState reads and decodes the msgpack snapshot at path.
func ReadTempState(fsys fsutil.FileSystem, path string) (*TempState, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read temp state: %w", err)
	}
	var st TempState
	if err := msgpack.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to decode temp state: %w", err)
	}
	return &st, nil
}

// WriteTempState writes the snapshot atomically. The server saves one
// on shutdown so an interrupted session can be inspected later.
func WriteTempState(fsys fsutil.FileSystem, path string, st *TempState) error {
	data, err := msgpack.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode temp state: %w", err)
	}
	if err := fsys.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp state: %w", err)
	}
	return nil
}

// CanonicalItems converts the snapshot to canonical records, skipping
// entries with an unknown kind or empty id.
func (st *TempState) CanonicalItems() []mep.Item {
	out := make([]mep.Item, 0, len(st.Items))
	for _, t := range st.Items {
		kind, ok := legacyKind(t.Kind)
		if !ok || t.ID == "" {
			monitoring.Logf("[store] skipping temp state item %q: unknown kind %q", t.ID, t.Kind)
			continue
		}
		it := mep.Item{
			ID:           t.ID,
			Kind:         kind,
			Position:     scene.Vec3{X: t.X, Y: t.Y, Z: t.Z},
			TierLabel:    t.TierLabel,
			WidthIn:      t.WidthIn,
			HeightIn:     t.HeightIn,
			DiameterIn:   t.DiameterIn,
			InsulationIn: t.InsulationIn,
			Material:     t.Material,
			Count:        t.Count,
			SpacingIn:    t.SpacingIn,
			ConduitType:  t.ConduitType,
			FillPercent:  t.FillPercent,
			Color:        t.Color,
		}
		if t.Tier > 0 {
			tier := t.Tier
			it.Tier = &tier
		}
		out = append(out, it)
	}
	return out
}

// TempStateOf builds a snapshot from canonical records.
func TempStateOf(items []mep.Item, savedAt time.Time) *TempState {
	st := &TempState{SavedAtUnixMs: savedAt.UnixMilli()}
	for _, it := range items {
		t := TempItem{
			ID:           it.ID,
			Kind:         string(it.Kind),
			X:            it.Position.X,
			Y:            it.Position.Y,
			Z:            it.Position.Z,
			TierLabel:    it.TierLabel,
			WidthIn:      it.WidthIn,
			HeightIn:     it.HeightIn,
			DiameterIn:   it.DiameterIn,
			InsulationIn: it.InsulationIn,
			Material:     it.Material,
			Count:        it.Count,
			SpacingIn:    it.SpacingIn,
			ConduitType:  it.ConduitType,
			FillPercent:  it.FillPercent,
			Color:        it.Color,
		}
		if it.Tier != nil {
			t.Tier = *it.Tier
		}
		st.Items = append(st.Items, t)
	}
	return st
}

// SeedFromLegacy populates an empty gateway from the legacy stores,
// preferring the JSON item list and falling back to the msgpack
// snapshot. A non-empty store is left untouched. Returns the number of
// records imported.
func SeedFromLegacy(g *Gateway, fsys fsutil.FileSystem, itemsPath, tempPath string) (int, error) {
	existing, err := g.ReadAll()
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	var items []mep.Item
	if itemsPath != "" && fsys.Exists(itemsPath) {
		items, err = ReadLegacyItems(fsys, itemsPath)
		if err != nil {
			return 0, err
		}
	}
	if len(items) == 0 && tempPath != "" && fsys.Exists(tempPath) {
		st, err := ReadTempState(fsys, tempPath)
		if err != nil {
			return 0, err
		}
		items = st.CanonicalItems()
	}
	if len(items) == 0 {
		return 0, nil
	}

	if err := g.ReplaceAll(items); err != nil {
		return 0, err
	}
	return len(items), nil
}
