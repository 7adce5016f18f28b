package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abhipalit3/configur-mep/internal/testutil"
)

func TestWriteJSON(t *testing.T) {
	rec := testutil.NewTestRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"count": 3})

	testutil.AssertStatusCode(t, rec.Code, http.StatusCreated)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}

	var body map[string]int
	testutil.DecodeJSON(t, rec.Body, &body)
	if body["count"] != 3 {
		t.Errorf("count = %d, want 3", body["count"])
	}
}

func TestWriteJSONOK(t *testing.T) {
	rec := testutil.NewTestRecorder()
	WriteJSONOK(rec, []string{"a"})

	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
}

func TestWriteJSONError(t *testing.T) {
	rec := testutil.NewTestRecorder()
	WriteJSONError(rec, http.StatusBadRequest, "bad input")

	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)

	var body map[string]string
	testutil.DecodeJSON(t, rec.Body, &body)
	if body["error"] != "bad input" {
		t.Errorf("error = %q, want %q", body["error"], "bad input")
	}
}

func TestNoContent(t *testing.T) {
	rec := testutil.NewTestRecorder()
	NoContent(rec)

	testutil.AssertStatusCode(t, rec.Code, http.StatusNoContent)
	if rec.Body.Len() != 0 {
		t.Errorf("body length = %d, want 0", rec.Body.Len())
	}
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name string
		fn   func(http.ResponseWriter)
		want int
	}{
		{"method not allowed", MethodNotAllowed, http.StatusMethodNotAllowed},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "m") }, http.StatusBadRequest},
		{"internal error", func(w http.ResponseWriter) { InternalServerError(w, "m") }, http.StatusInternalServerError},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "m") }, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.fn(rec)
			testutil.AssertStatusCode(t, rec.Code, tt.want)
		})
	}
}
