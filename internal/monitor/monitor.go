// Package monitor serves occupancy dashboards for the rack editor:
// per-tier fill and count charts, a Z-Y elevation scatter with the snap
// lines overlaid, and a PNG elevation drawing for reports. All routes
// are read-only debugging surfaces; nothing here mutates the scene.
package monitor

import (
	"encoding/json"
	"net/http"

	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/rack"
)

// Server renders occupancy views over the gateway's current item list.
type Server struct {
	gateway mep.Gateway
	rack    rack.Provider
}

// Options configures a monitor server.
type Options struct {
	Gateway mep.Gateway
	Rack    rack.Provider
}

// NewServer creates a monitor over the given gateway and rack.
func NewServer(opts Options) *Server {
	return &Server{gateway: opts.Gateway, rack: opts.Rack}
}

// AttachRoutes mounts the monitor endpoints on mux.
func (s *Server) AttachRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/mep/occupancy", s.handleOccupancy)
	mux.HandleFunc("/debug/mep/dashboard", s.handleDashboard)
	mux.HandleFunc("/debug/mep/occupancy", s.handleOccupancyChart)
	mux.HandleFunc("/debug/mep/elevation", s.handleElevationChart)
	mux.HandleFunc("/debug/mep/elevation.png", s.handleElevationPNG)
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// readItems loads the current list, translating configuration and read
// failures into one error path shared by every handler.
func (s *Server) readItems(w http.ResponseWriter) ([]mep.Item, bool) {
	if s.gateway == nil || s.rack == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "item store not configured")
		return nil, false
	}
	items, err := s.gateway.ReadAll()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "failed to read items: "+err.Error())
		return nil, false
	}
	return items, true
}

// handleOccupancy returns the occupancy summary as JSON.
func (s *Server) handleOccupancy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	items, ok := s.readItems(w)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BuildSummary(items, s.rack))
}
