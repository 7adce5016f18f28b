package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/rack"
	"github.com/abhipalit3/configur-mep/internal/scene"
)

// Window size the pointer tests report for the remote canvas.
const (
	testW = 800.0
	testH = 600.0
)

func standardRack() rack.Geometry {
	return rack.Geometry{
		LengthFt: 12,
		Beams: []rack.Beam{
			{Y: 1.40, Face: rack.FaceBeamBottom},
			{Y: 1.00, Face: rack.FaceBeamTop},
			{Y: 0.90, Face: rack.FaceBeamBottom},
			{Y: 0.50, Face: rack.FaceBeamTop},
		},
		Posts: []rack.Post{
			{Z: 0.60, Side: rack.SideLeft},
			{Z: -0.60, Side: rack.SideRight},
		},
	}
}

func newTestServerWith(t *testing.T, g rack.Geometry, seed []mep.Item) (*Server, *mep.Engine) {
	t.Helper()
	e, err := mep.NewEngine(mep.Options{
		Geometry: g,
		Gateway:  mep.NewMemoryGateway(seed),
	})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return NewServer(e), e
}

func newTestServer(t *testing.T, seed []mep.Item) (*Server, *mep.Engine) {
	t.Helper()
	return newTestServerWith(t, standardRack(), seed)
}

// doJSON performs one request against the mux, marshalling body when
// present.
func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp["error"]
}

func getItems(t *testing.T, mux *http.ServeMux) itemsResponse {
	t.Helper()
	w := doJSON(t, mux, http.MethodGet, "/api/mep/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp itemsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func getSelection(t *testing.T, mux *http.ServeMux) *mep.Selection {
	t.Helper()
	w := doJSON(t, mux, http.MethodGet, "/api/mep/selection", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sel *mep.Selection
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sel))
	return sel
}

// aimAt faces the camera straight down the -Z axis at the target, so
// the window center maps exactly onto it.
func aimAt(cam *scene.Camera, target scene.Vec3) {
	cam.Target = target
	cam.Yaw = 0
	cam.Pitch = 0
	cam.Distance = 8
}

func projectWindow(t *testing.T, cam *scene.Camera, p scene.Vec3) (float64, float64) {
	t.Helper()
	nx, ny, ok := cam.Project(p)
	require.True(t, ok, "point must be in front of the camera")
	return (nx + 1) / 2 * testW, (1 - ny) / 2 * testH
}

// clickHTTP clicks the window pixel a world point projects to, going
// through the pointer endpoint.
func clickHTTP(t *testing.T, mux *http.ServeMux, e *mep.Engine, p scene.Vec3) {
	t.Helper()
	aimAt(e.Camera(), p)
	x, y := projectWindow(t, e.Camera(), p)
	w := doJSON(t, mux, http.MethodPost, "/api/mep/pointer", pointerEvent{
		Type: "click", X: x, Y: y, Width: testW, Height: testH,
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestListItems(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, []mep.Item{
		{ID: "d1", Kind: mep.KindDuct, WidthIn: 12, HeightIn: 8, Position: scene.Vec3{Y: 1.10}},
		{ID: "p1", Kind: mep.KindPipe, DiameterIn: 2, Position: scene.Vec3{Y: 0.60}},
	})
	mux := s.ServeMux()

	w := doJSON(t, mux, http.MethodGet, "/api/mep/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp itemsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, int64(0), resp.Revision)
}

func TestListItemsEmptySceneIsEmptyArray(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s.ServeMux(), http.MethodGet, "/api/mep/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"items":[]`)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)
	mux := s.ServeMux()

	cases := []struct {
		path   string
		method string
	}{
		{"/api/mep/items", http.MethodPost},
		{"/api/mep/selection", http.MethodPost},
		{"/api/mep/pointer", http.MethodGet},
		{"/api/mep/key", http.MethodGet},
		{"/api/mep/wheel", http.MethodGet},
		{"/api/mep/orbit", http.MethodGet},
		{"/api/mep/drag", http.MethodGet},
		{"/api/mep/frame", http.MethodGet},
		{"/api/mep/dimensions", http.MethodGet},
		{"/api/mep/copy", http.MethodGet},
		{"/api/mep/delete", http.MethodGet},
		{"/api/mep/rack", http.MethodPost},
		{"/api/mep/arrange", http.MethodGet},
	}
	for _, tc := range cases {
		w := doJSON(t, mux, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "Method not allowed", errorBody(t, w), "%s %s", tc.method, tc.path)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s.ServeMux(), http.MethodGet, "/api/mep/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, []mep.Item{
		{ID: "d1", Kind: mep.KindDuct, WidthIn: 12, HeightIn: 8, Position: scene.Vec3{Y: 1.10}},
	})
	h := LoggingMiddleware(s.ServeMux())

	w := doJSON(t, h, http.MethodGet, "/api/mep/items", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp itemsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Items, 1)
}

func TestStatusCodeColor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, colorBoldGreen+"200"+colorReset, statusCodeColor(200))
	assert.Equal(t, colorYellow+"302"+colorReset, statusCodeColor(302))
	assert.Equal(t, colorBoldRed+"404"+colorReset, statusCodeColor(404))
	assert.Equal(t, colorBoldRed+"500"+colorReset, statusCodeColor(500))
	assert.Equal(t, "100", statusCodeColor(100))
}
