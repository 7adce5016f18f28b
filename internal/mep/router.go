package mep

import (
	"math"

	"github.com/abhipalit3/configur-mep/internal/monitoring"
	"github.com/abhipalit3/configur-mep/internal/scene"
)

// Router turns pointer and keyboard input into handler dispatches: it
// normalizes window coordinates to device coordinates, raycasts the
// per-kind scene subgroups, picks the nearest hit across kinds, and
// routes clicks, hover transitions and keys to the owning handler.
// Selection input is suppressed while a gizmo drag is in progress.
type Router struct {
	camera *scene.Camera
	gizmo  *Gizmo
	broker *Broker

	entries []routerEntry

	hoverHandler *Handler
}

type routerEntry struct {
	kind    Kind
	group   *scene.Node
	handler *Handler
}

// NewRouter creates a router with no bound kinds.
func NewRouter(camera *scene.Camera, gizmo *Gizmo, broker *Broker) *Router {
	return &Router{camera: camera, gizmo: gizmo, broker: broker}
}

// Bind routes raycast hits inside group to the handler.
func (r *Router) Bind(kind Kind, group *scene.Node, h *Handler) {
	r.entries = append(r.entries, routerEntry{kind: kind, group: group, handler: h})
}

// NormalizePointer converts window coordinates to normalized device
// coordinates in [-1, 1] on both axes, +y up.
func NormalizePointer(x, y, width, height float64) (float64, float64) {
	return (x/width)*2 - 1, -(y/height)*2 + 1
}

// PointerMove updates hover state from a pointer position in window
// coordinates. Ignored while dragging.
func (r *Router) PointerMove(x, y, width, height float64) {
	if r.gizmo.Dragging() {
		return
	}
	hit, entry := r.pick(x, y, width, height)
	if entry == nil {
		r.clearHover()
		return
	}
	if r.hoverHandler != nil && r.hoverHandler != entry.handler {
		r.hoverHandler.HoverLeave()
	}
	r.hoverHandler = entry.handler
	entry.handler.HoverEnter(hit)
}

// Click dispatches a pointer click: a hit selects in the owning
// handler, a miss clears every kind's selection. Suppressed while
// dragging.
func (r *Router) Click(x, y, width, height float64) {
	if r.gizmo.Dragging() {
		return
	}
	hit, entry := r.pick(x, y, width, height)
	if entry == nil {
		for i := range r.entries {
			r.entries[i].handler.ClickEmpty()
		}
		return
	}
	entry.handler.Click(hit)
}

// KeyDown dispatches a keyboard event. Key names follow the DOM
// convention: "Delete", "Backspace", "Escape", "w", "e", "r", "c".
// Copy requires the ctrl or cmd modifier.
func (r *Router) KeyDown(key string, ctrlOrCmd bool) {
	switch key {
	case "Delete", "Backspace":
		if h := r.activeHandler(); h != nil {
			h.Delete()
		}
	case "Escape":
		if h := r.activeHandler(); h != nil {
			h.Escape()
		}
	case "w", "W":
		r.gizmo.SetMode(GizmoTranslate)
	case "e", "E":
		r.gizmo.SetMode(GizmoRotate)
	case "r", "R":
		r.gizmo.SetMode(GizmoScale)
	case "c", "C":
		if !ctrlOrCmd {
			return
		}
		if h := r.activeHandler(); h != nil {
			h.Copy()
		}
	}
}

// Wheel zooms the orbit camera.
func (r *Router) Wheel(delta float64) {
	r.camera.Zoom(delta)
}

// Orbit rotates the orbit camera. The camera itself ignores this while
// disabled during drags.
func (r *Router) Orbit(dYaw, dPitch float64) {
	r.camera.Orbit(dYaw, dPitch)
}

// pick raycasts every bound subgroup and returns the nearest hit with
// its owning entry.
func (r *Router) pick(x, y, width, height float64) (*scene.Node, *routerEntry) {
	if width <= 0 || height <= 0 {
		return nil, nil
	}
	ndcX, ndcY := NormalizePointer(x, y, width, height)
	ray := r.camera.Ray(ndcX, ndcY)

	var bestEntry *routerEntry
	var bestNode *scene.Node
	best := math.Inf(1)
	for i := range r.entries {
		hits := scene.Raycast(r.entries[i].group, ray)
		if len(hits) == 0 {
			continue
		}
		if hits[0].Distance < best {
			best = hits[0].Distance
			bestNode = hits[0].Node
			bestEntry = &r.entries[i]
		}
	}
	return bestNode, bestEntry
}

func (r *Router) clearHover() {
	if r.hoverHandler != nil {
		r.hoverHandler.HoverLeave()
		r.hoverHandler = nil
	}
}

// activeHandler resolves the handler holding the current selection.
func (r *Router) activeHandler() *Handler {
	sel := r.broker.CurrentSelection()
	if sel == nil {
		return nil
	}
	h, ok := r.broker.Handler(sel.Kind.Plural())
	if !ok {
		monitoring.Logf("[router] no handler registered for %q", sel.Kind.Plural())
		return nil
	}
	return h
}
