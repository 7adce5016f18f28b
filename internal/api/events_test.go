package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/rack"
	"github.com/abhipalit3/configur-mep/internal/scene"
)

func TestPointerClickSelects(t *testing.T) {
	t.Parallel()
	pos := scene.Vec3{X: 1, Y: 1, Z: 0.10}
	s, e := newTestServer(t, []mep.Item{
		{ID: "d1", Kind: mep.KindDuct, WidthIn: 12, HeightIn: 8, Position: pos},
	})
	mux := s.ServeMux()

	require.Nil(t, getSelection(t, mux), "nothing is selected before the click")

	clickHTTP(t, mux, e, pos)

	sel := getSelection(t, mux)
	require.NotNil(t, sel)
	assert.Equal(t, mep.KindDuct, sel.Kind)
	require.NotNil(t, sel.Item)
	assert.Equal(t, "d1", sel.Item.ID)
}

func TestPointerMoveAccepted(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s.ServeMux(), http.MethodPost, "/api/mep/pointer", pointerEvent{
		Type: "move", X: 10, Y: 10, Width: testW, Height: testH,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPointerEventValidation(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)
	mux := s.ServeMux()

	w := doJSON(t, mux, http.MethodPost, "/api/mep/pointer", pointerEvent{
		Type: "hover", X: 1, Y: 1, Width: testW, Height: testH,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "Unknown pointer event type")

	w = doJSON(t, mux, http.MethodPost, "/api/mep/pointer", pointerEvent{
		Type: "click", X: 1, Y: 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "positive canvas size")

	req := httptest.NewRequest(http.MethodPost, "/api/mep/pointer", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec), "Invalid pointer event")
}

// A drag driven entirely over HTTP lands the pipe on the beam's top
// face, and the committed record carries the snapped position.
func TestDragMovesPipeOntoBeam(t *testing.T) {
	t.Parallel()
	g := rack.Geometry{
		LengthFt: 12,
		Beams:    []rack.Beam{{Y: 1.00, Face: rack.FaceBeamTop}},
	}
	start := scene.Vec3{Y: 1.018}
	s, e := newTestServerWith(t, g, []mep.Item{
		{ID: "p1", Kind: mep.KindPipe, DiameterIn: 2, Position: start},
	})
	mux := s.ServeMux()

	clickHTTP(t, mux, e, start)
	require.NotNil(t, getSelection(t, mux))

	w := doJSON(t, mux, http.MethodPost, "/api/mep/drag", dragEvent{Action: "begin"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dragging":true`)

	w = doJSON(t, mux, http.MethodPost, "/api/mep/drag", dragEvent{
		Action: "move", Delta: scene.Vec3{Y: 0.01},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, mux, http.MethodPost, "/api/mep/drag", dragEvent{Action: "end"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := getItems(t, mux)
	require.Len(t, resp.Items, 1)
	assert.InDelta(t, 1.0254, resp.Items[0].Position.Y, 1e-9,
		"the pipe underside rests on the beam")
	assert.Equal(t, int64(1), resp.Revision, "only the drag end commits a write")
}

func TestDragBeginWithoutSelection(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s.ServeMux(), http.MethodPost, "/api/mep/drag", dragEvent{Action: "begin"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dragging":false`)
}

func TestDragUnknownActionRejected(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s.ServeMux(), http.MethodPost, "/api/mep/drag", dragEvent{Action: "wiggle"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "Unknown drag action")
}

func TestDragCancelClearsSelection(t *testing.T) {
	t.Parallel()
	pos := scene.Vec3{X: 1, Y: 1, Z: 0.10}
	s, e := newTestServer(t, []mep.Item{
		{ID: "d1", Kind: mep.KindDuct, WidthIn: 12, HeightIn: 8, Position: pos},
	})
	mux := s.ServeMux()

	clickHTTP(t, mux, e, pos)
	doJSON(t, mux, http.MethodPost, "/api/mep/drag", dragEvent{Action: "begin"})

	w := doJSON(t, mux, http.MethodPost, "/api/mep/drag", dragEvent{Action: "cancel"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, getSelection(t, mux))
}

func TestKeyEscapeClearsSelection(t *testing.T) {
	t.Parallel()
	pos := scene.Vec3{X: 1, Y: 1, Z: 0.10}
	s, e := newTestServer(t, []mep.Item{
		{ID: "d1", Kind: mep.KindDuct, WidthIn: 12, HeightIn: 8, Position: pos},
	})
	mux := s.ServeMux()

	clickHTTP(t, mux, e, pos)
	require.NotNil(t, getSelection(t, mux))

	w := doJSON(t, mux, http.MethodPost, "/api/mep/key", keyEvent{Key: "Escape"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, getSelection(t, mux))
}

func TestDeleteKeyRemovesItem(t *testing.T) {
	t.Parallel()
	pos := scene.Vec3{X: 1, Y: 1, Z: 0.10}
	s, e := newTestServer(t, []mep.Item{
		{ID: "d1", Kind: mep.KindDuct, WidthIn: 12, HeightIn: 8, Position: pos},
	})
	mux := s.ServeMux()

	clickHTTP(t, mux, e, pos)
	w := doJSON(t, mux, http.MethodPost, "/api/mep/key", keyEvent{Key: "Delete"})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, getItems(t, mux).Items)
}

func TestKeyEventNeedsAKey(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s.ServeMux(), http.MethodPost, "/api/mep/key", keyEvent{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "needs a key")
}

func TestWheelAndOrbitDriveCamera(t *testing.T) {
	t.Parallel()
	s, e := newTestServer(t, nil)
	mux := s.ServeMux()
	cam := e.Camera()
	dist, yaw, pitch := cam.Distance, cam.Yaw, cam.Pitch

	w := doJSON(t, mux, http.MethodPost, "/api/mep/wheel", wheelEvent{Delta: 200})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Greater(t, cam.Distance, dist, "positive wheel delta zooms out")

	w = doJSON(t, mux, http.MethodPost, "/api/mep/orbit", orbitEvent{DYaw: 0.2, DPitch: 0.1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, yaw+0.2, cam.Yaw, 1e-9)
	assert.InDelta(t, pitch+0.1, cam.Pitch, 1e-9)
}

// Selection broadcasts hold until a frame tick, so remote drivers see
// them only after posting to the frame endpoint.
func TestFrameFlushesSelectionEvents(t *testing.T) {
	t.Parallel()
	pos := scene.Vec3{X: 1, Y: 1, Z: 0.10}
	s, e := newTestServer(t, []mep.Item{
		{ID: "d1", Kind: mep.KindDuct, WidthIn: 12, HeightIn: 8, Position: pos},
	})
	mux := s.ServeMux()

	subID, ch := e.Broker().Subscribe()
	defer e.Broker().Unsubscribe(subID)

	clickHTTP(t, mux, e, pos)
	assert.Zero(t, len(ch), "the selection event waits for the next frame")

	w := doJSON(t, mux, http.MethodPost, "/api/mep/frame", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, 1, len(ch))
	ev := <-ch
	assert.Equal(t, mep.KindDuct, ev.Kind)
	require.NotNil(t, ev.Item)
	assert.Equal(t, "d1", ev.Item.ID)
}
