package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/abhipalit3/configur-mep/internal/scene"
)

// pointerEvent is one mouse sample from the remote canvas. Width and
// height carry the canvas size the coordinates were measured in.
type pointerEvent struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type keyEvent struct {
	Key       string `json:"key"`
	CtrlOrCmd bool   `json:"ctrlOrCmd"`
}

type wheelEvent struct {
	Delta float64 `json:"delta"`
}

type orbitEvent struct {
	DYaw   float64 `json:"dYaw"`
	DPitch float64 `json:"dPitch"`
}

// dragEvent drives the drag lifecycle. Delta is a world-space offset
// and only applies to the "move" action.
type dragEvent struct {
	Action string     `json:"action"`
	Delta  scene.Vec3 `json:"delta"`
}

func writeStatusOK(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var ev pointerEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid pointer event: %v", err))
		return
	}
	if ev.Width <= 0 || ev.Height <= 0 {
		s.writeJSONError(w, http.StatusBadRequest, "Pointer event needs a positive canvas size")
		return
	}
	switch ev.Type {
	case "move":
		s.engine.PointerMove(ev.X, ev.Y, ev.Width, ev.Height)
	case "click":
		s.engine.Click(ev.X, ev.Y, ev.Width, ev.Height)
	default:
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unknown pointer event type %q", ev.Type))
		return
	}
	writeStatusOK(w)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var ev keyEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid key event: %v", err))
		return
	}
	if ev.Key == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Key event needs a key")
		return
	}
	s.engine.KeyDown(ev.Key, ev.CtrlOrCmd)
	s.bumpRevision()
	writeStatusOK(w)
}

func (s *Server) handleWheel(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var ev wheelEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid wheel event: %v", err))
		return
	}
	s.engine.Wheel(ev.Delta)
	writeStatusOK(w)
}

func (s *Server) handleOrbit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var ev orbitEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid orbit event: %v", err))
		return
	}
	s.engine.Orbit(ev.DYaw, ev.DPitch)
	writeStatusOK(w)
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var ev dragEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid drag event: %v", err))
		return
	}
	switch ev.Action {
	case "begin":
		dragging := s.engine.BeginDrag()
		json.NewEncoder(w).Encode(map[string]bool{"dragging": dragging})
		return
	case "move":
		s.engine.DragBy(ev.Delta)
	case "end":
		s.engine.EndDrag()
		s.bumpRevision()
	case "cancel":
		s.engine.Escape()
	default:
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unknown drag action %q", ev.Action))
		return
	}
	writeStatusOK(w)
}

// handleFrame ticks the engine's frame clock. Remote drivers call it to
// flush deferred scene work and broker events.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.engine.Frame()
	writeStatusOK(w)
}
