package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/abhipalit3/configur-mep/internal/mep"
)

// itemsResponse pairs the item list with the revision it was read at.
// Clients poll the revision to decide when a refetch is due.
type itemsResponse struct {
	Items    []mep.Item `json:"items"`
	Revision int64      `json:"revision"`
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rev := s.revision()
	items, err := s.engine.Items()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to read items: %v", err))
		return
	}
	if items == nil {
		items = []mep.Item{}
	}

	if err := json.NewEncoder(w).Encode(itemsResponse{Items: items, Revision: rev}); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write items")
		return
	}
}

// showSelection reports the current selection, or null without one.
func (s *Server) showSelection(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	json.NewEncoder(w).Encode(s.engine.Selection())
}

func (s *Server) updateDimensions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPatch && r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var delta mep.DimensionDelta
	if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid dimension delta: %v", err))
		return
	}
	if len(delta) == 0 {
		s.writeJSONError(w, http.StatusBadRequest, "Dimension delta is empty")
		return
	}
	if s.engine.Selection() == nil {
		s.writeJSONError(w, http.StatusConflict, "No item selected")
		return
	}
	s.engine.UpdateDimensions(delta)
	s.bumpRevision()
	writeStatusOK(w)
}

func (s *Server) copySelection(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.engine.Selection() == nil {
		s.writeJSONError(w, http.StatusConflict, "No item selected")
		return
	}
	s.engine.Copy()
	s.bumpRevision()
	writeStatusOK(w)
}

func (s *Server) deleteSelection(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.engine.Selection() == nil {
		s.writeJSONError(w, http.StatusConflict, "No item selected")
		return
	}
	s.engine.Delete()
	s.bumpRevision()
	writeStatusOK(w)
}
