package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/abhipalit3/configur-mep/internal/rack"
)

// rackView is the derived read model of the active rack: the snap lines
// items settle onto and the tier spaces they classify into.
type rackView struct {
	LengthFt   float64      `json:"lengthFt"`
	SnapLines  rack.LineSet `json:"snapLines"`
	TierSpaces []rack.Space `json:"tierSpaces"`
}

func (s *Server) currentRack() rackView {
	idx := s.engine.RackIndex()
	spaces := idx.TierSpaces()
	if spaces == nil {
		spaces = []rack.Space{}
	}
	return rackView{
		LengthFt:   idx.RackLengthFt(),
		SnapLines:  idx.SnapLines(),
		TierSpaces: spaces,
	}
}

// handleRack serves the derived rack view on GET and swaps the rack
// geometry on PUT. A swap reclassifies every stored item.
func (s *Server) handleRack(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		json.NewEncoder(w).Encode(s.currentRack())
	case http.MethodPut:
		var g rack.Geometry
		if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid rack geometry: %v", err))
			return
		}
		s.engine.SetRackGeometry(g)
		s.bumpRevision()
		json.NewEncoder(w).Encode(s.currentRack())
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
