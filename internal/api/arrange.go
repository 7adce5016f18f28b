package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/abhipalit3/configur-mep/internal/arrange"
)

// arrangeRequest tunes one optimizer run. Zero values fall back to the
// optimizer defaults, so an empty body runs a full default search.
type arrangeRequest struct {
	Population    int     `json:"population"`
	Generations   int     `json:"generations"`
	MutationRate  float64 `json:"mutationRate"`
	CrossoverRate float64 `json:"crossoverRate"`
	ElitismRate   float64 `json:"elitismRate"`
	Seed          int64   `json:"seed"`

	// Apply moves the scene items onto the computed placements.
	Apply bool `json:"apply"`
}

type arrangeResponse struct {
	Result  *arrange.Result `json:"result"`
	Applied int             `json:"applied"`
	Missing []string        `json:"missing,omitempty"`
}

func (s *Server) runArrange(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req arrangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid arrange request: %v", err))
		return
	}

	items, err := s.engine.Items()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to read items: %v", err))
		return
	}

	res, err := arrange.Arrange(items, s.engine.RackIndex(), arrange.Config{
		PopulationSize: req.Population,
		Generations:    req.Generations,
		MutationRate:   req.MutationRate,
		CrossoverRate:  req.CrossoverRate,
		ElitismRate:    req.ElitismRate,
		Seed:           req.Seed,
	})
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Arrange failed: %v", err))
		return
	}

	resp := arrangeResponse{Result: res}
	if req.Apply {
		resp.Applied, resp.Missing = arrange.Apply(s.engine, res.Placements)
		s.bumpRevision()
	}
	json.NewEncoder(w).Encode(resp)
}
