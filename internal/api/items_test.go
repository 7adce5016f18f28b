package api

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/scene"
	"github.com/abhipalit3/configur-mep/internal/store"
)

func TestDimensionCommit(t *testing.T) {
	t.Parallel()
	pos := scene.Vec3{X: 1, Y: 1, Z: 0.10}
	s, e := newTestServer(t, []mep.Item{
		{ID: "d1", Kind: mep.KindDuct, WidthIn: 12, HeightIn: 8, Position: pos},
	})
	mux := s.ServeMux()

	clickHTTP(t, mux, e, pos)

	w := doJSON(t, mux, http.MethodPatch, "/api/mep/dimensions", map[string]any{
		"width_in":  14.0,
		"height_in": 10.0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := getItems(t, mux)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 14.0, resp.Items[0].WidthIn)
	assert.Equal(t, 10.0, resp.Items[0].HeightIn)
	assert.Equal(t, int64(1), resp.Revision)
}

func TestDimensionRequiresSelection(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, []mep.Item{
		{ID: "d1", Kind: mep.KindDuct, WidthIn: 12, HeightIn: 8, Position: scene.Vec3{Y: 1.10}},
	})

	w := doJSON(t, s.ServeMux(), http.MethodPatch, "/api/mep/dimensions", map[string]any{
		"width_in": 14.0,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "No item selected", errorBody(t, w))
}

func TestDimensionEmptyDeltaRejected(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s.ServeMux(), http.MethodPatch, "/api/mep/dimensions", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "empty")
}

func TestCopySpawnsDuplicate(t *testing.T) {
	t.Parallel()
	pos := scene.Vec3{X: 1, Y: 1, Z: 0.10}
	s, e := newTestServer(t, []mep.Item{
		{ID: "d1", Kind: mep.KindDuct, WidthIn: 12, HeightIn: 8, Position: pos},
	})
	mux := s.ServeMux()

	clickHTTP(t, mux, e, pos)

	w := doJSON(t, mux, http.MethodPost, "/api/mep/copy", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := getItems(t, mux)
	require.Len(t, resp.Items, 2)
	var dupID string
	for _, it := range resp.Items {
		if it.ID != "d1" {
			dupID = it.ID
		}
	}
	require.NotEmpty(t, dupID, "the copy carries a fresh id")

	sel := getSelection(t, mux)
	require.NotNil(t, sel)
	require.NotNil(t, sel.Item)
	assert.Equal(t, dupID, sel.Item.ID, "the selection moves to the copy")
}

func TestCopyWithoutSelection(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s.ServeMux(), http.MethodPost, "/api/mep/copy", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteRemovesSelection(t *testing.T) {
	t.Parallel()
	pos := scene.Vec3{X: 1, Y: 1, Z: 0.10}
	s, e := newTestServer(t, []mep.Item{
		{ID: "d1", Kind: mep.KindDuct, WidthIn: 12, HeightIn: 8, Position: pos},
	})
	mux := s.ServeMux()

	clickHTTP(t, mux, e, pos)

	w := doJSON(t, mux, http.MethodDelete, "/api/mep/delete", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, getItems(t, mux).Items)
	assert.Nil(t, getSelection(t, mux))

	w = doJSON(t, mux, http.MethodDelete, "/api/mep/delete", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

// A store-backed gateway versions its own writes, so the reported
// revision tracks committed item changes rather than handler calls.
func TestStoreRevisionBacksItemReads(t *testing.T) {
	t.Parallel()
	db, err := store.Open(filepath.Join(t.TempDir(), "items.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	gw, err := store.NewGateway(db)
	require.NoError(t, err)
	t.Cleanup(gw.Close)

	pos := scene.Vec3{X: 1, Y: 1, Z: 0.10}
	seed := mep.Item{ID: "d1", Kind: mep.KindDuct, WidthIn: 12, HeightIn: 8, Position: pos}
	require.NoError(t, gw.Upsert(seed))

	e, err := mep.NewEngine(mep.Options{Geometry: standardRack(), Gateway: gw})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	s := NewServer(e)
	mux := s.ServeMux()

	before := getItems(t, mux)
	require.Len(t, before.Items, 1)

	doJSON(t, mux, http.MethodPost, "/api/mep/key", keyEvent{Key: "ArrowUp"})
	assert.Equal(t, before.Revision, getItems(t, mux).Revision,
		"a key with no edit effect leaves the stored revision alone")

	clickHTTP(t, mux, e, pos)
	w := doJSON(t, mux, http.MethodPatch, "/api/mep/dimensions", map[string]any{
		"width_in": 14.0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	after := getItems(t, mux)
	require.Len(t, after.Items, 1)
	assert.Equal(t, 14.0, after.Items[0].WidthIn)
	assert.Greater(t, after.Revision, before.Revision)
}
