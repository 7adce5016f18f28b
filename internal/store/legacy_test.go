package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhipalit3/configur-mep/internal/fsutil"
	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/scene"
)

const legacyItemsJSON = `[
  {"id": 1716923456789, "type": "duct", "position": {"x": 0, "y": 1.2, "z": 0.3},
   "width": 12, "height": 8, "tier": 2, "tierName": "Tier 2"},
  {"id": "88_1", "kind": "pipe", "position": {"x": 0, "y": 0.9, "z": -0.2},
   "diameter_in": 2.5, "insulation_in": 0.5, "material": "copper", "tier": null},
  {"id": "beam-1", "type": "beam", "position": {"x": 0, "y": 0, "z": 0}},
  {"type": "duct", "position": {"x": 0, "y": 0.4, "z": 0}},
  {"id": "tray7", "kind": "cable-tray", "position": {"x": 0, "y": 0.5, "z": 0.1},
   "width_in": 18, "height_in": 4, "tier": 0}
]`

func TestDecodeLegacyItemsToleratesOldShapes(t *testing.T) {
	items, err := DecodeLegacyItems([]byte(legacyItemsJSON))
	require.NoError(t, err)

	// the unknown kind and the record without an id are skipped
	require.Len(t, items, 3)

	duct := items[0]
	assert.Equal(t, "1716923456789", duct.ID)
	assert.Equal(t, mep.KindDuct, duct.Kind)
	assert.Equal(t, scene.Vec3{X: 0, Y: 1.2, Z: 0.3}, duct.Position)
	assert.Equal(t, 12.0, duct.WidthIn)
	assert.Equal(t, 8.0, duct.HeightIn)
	require.NotNil(t, duct.Tier)
	assert.Equal(t, 2, *duct.Tier)
	assert.Equal(t, "Tier 2", duct.TierLabel)

	pipe := items[1]
	assert.Equal(t, "88_1", pipe.ID)
	assert.Equal(t, "88", pipe.BaseID())
	assert.Equal(t, mep.KindPipe, pipe.Kind)
	assert.Equal(t, 2.5, pipe.DiameterIn)
	assert.Equal(t, "copper", pipe.Material)
	assert.Nil(t, pipe.Tier)

	tray := items[2]
	assert.Equal(t, mep.KindCableTray, tray.Kind)
	assert.Equal(t, 18.0, tray.WidthIn)
	assert.Nil(t, tray.Tier)
}

func TestDecodeLegacyItemsEnvelope(t *testing.T) {
	data := []byte(`{"items": [{"id": "d1", "kind": "duct", "position": {"y": 1}}]}`)
	items, err := DecodeLegacyItems(data)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "d1", items[0].ID)
	assert.Equal(t, 1.0, items[0].Position.Y)
}

func TestDecodeLegacyItemsRejectsGarbage(t *testing.T) {
	_, err := DecodeLegacyItems([]byte(`{"items": not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "legacy item list")
}

func TestReadLegacyItemsMissingFile(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	_, err := ReadLegacyItems(fsys, "missing.json")
	require.Error(t, err)
}

func TestLegacyKindSpellings(t *testing.T) {
	cases := map[string]mep.Kind{
		"duct":       mep.KindDuct,
		"Ducts":      mep.KindDuct,
		"pipe":       mep.KindPipe,
		"conduits":   mep.KindConduit,
		"cableTray":  mep.KindCableTray,
		"cable-tray": mep.KindCableTray,
		"cable_tray": mep.KindCableTray,
		"CableTrays": mep.KindCableTray,
	}
	for in, want := range cases {
		got, ok := legacyKind(in)
		require.True(t, ok, "spelling %q", in)
		assert.Equal(t, want, got, "spelling %q", in)
	}

	_, ok := legacyKind("strut")
	assert.False(t, ok)
}

func TestTempStateRoundTrip(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	savedAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	want := sampleItems()

	require.NoError(t, WriteTempState(fsys, "session.msgpack", TempStateOf(want, savedAt)))

	st, err := ReadTempState(fsys, "session.msgpack")
	require.NoError(t, err)
	assert.Equal(t, savedAt.UnixMilli(), st.SavedAtUnixMs)

	got := st.CanonicalItems()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("temp state items mismatch (-want +got):\n%s", diff)
	}
}

func TestTempStateSkipsUnknownKinds(t *testing.T) {
	st := &TempState{Items: []TempItem{
		{ID: "d1", Kind: "duct", Y: 1},
		{ID: "s1", Kind: "strut", Y: 2},
		{Kind: "pipe", Y: 3},
	}}
	got := st.CanonicalItems()
	require.Len(t, got, 1)
	assert.Equal(t, "d1", got[0].ID)
}

func TestSeedFromLegacyPrefersJSON(t *testing.T) {
	g, _ := newTestGateway(t)
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("items.json", []byte(legacyItemsJSON), 0o644))
	require.NoError(t, WriteTempState(fsys, "session.msgpack",
		TempStateOf([]mep.Item{{ID: "x1", Kind: mep.KindPipe}}, time.Now())))

	n, err := SeedFromLegacy(g, fsys, "items.json", "session.msgpack")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := g.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "1716923456789", got[0].ID)

	// second run is a no-op because the store is no longer empty
	n, err = SeedFromLegacy(g, fsys, "items.json", "session.msgpack")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSeedFromLegacyFallsBackToTempState(t *testing.T) {
	g, _ := newTestGateway(t)
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, WriteTempState(fsys, "session.msgpack",
		TempStateOf([]mep.Item{{ID: "x1", Kind: mep.KindPipe, Position: scene.Vec3{Y: 0.9}}}, time.Now())))

	n, err := SeedFromLegacy(g, fsys, "items.json", "session.msgpack")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := g.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x1", got[0].ID)
}

func TestSeedFromLegacyNothingToImport(t *testing.T) {
	g, _ := newTestGateway(t)
	n, err := SeedFromLegacy(g, fsutil.NewMemoryFileSystem(), "items.json", "session.msgpack")
	require.NoError(t, err)
	assert.Zero(t, n)
}
