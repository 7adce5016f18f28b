package mep

import "github.com/abhipalit3/configur-mep/internal/scene"

// GizmoMode selects the transform tool. Rotate and scale are accepted
// and retained, but only translation moves items.
type GizmoMode string

const (
	GizmoTranslate GizmoMode = "translate"
	GizmoRotate    GizmoMode = "rotate"
	GizmoScale     GizmoMode = "scale"
)

// GizmoSize is the fixed control size relative to the renderer default.
const GizmoSize = 0.8

// Gizmo is the translation controller bound to the selected item's
// group node. X is hidden and locked; drags move Y and Z only. The
// orbit camera is disabled while a drag is active.
type Gizmo struct {
	camera   *scene.Camera
	target   *scene.Node
	mode     GizmoMode
	dragging bool

	onChange  func()
	onDragEnd func()
}

// NewGizmo creates a detached gizmo in translate mode.
func NewGizmo(camera *scene.Camera) *Gizmo {
	return &Gizmo{camera: camera, mode: GizmoTranslate}
}

// BindChange sets the callback fired after every drag-frame movement.
func (g *Gizmo) BindChange(fn func()) {
	g.onChange = fn
}

// BindDragEnd sets the callback fired when a drag completes.
func (g *Gizmo) BindDragEnd(fn func()) {
	g.onDragEnd = fn
}

// Size returns the fixed control size.
func (g *Gizmo) Size() float64 {
	return GizmoSize
}

// AxisVisible reports whether the named axis handle ("x", "y", "z") is
// shown.
func (g *Gizmo) AxisVisible(axis string) bool {
	return axis == "y" || axis == "z"
}

// Mode returns the current transform mode.
func (g *Gizmo) Mode() GizmoMode {
	return g.mode
}

// SetMode switches the transform mode. Unknown modes are ignored.
func (g *Gizmo) SetMode(m GizmoMode) {
	switch m {
	case GizmoTranslate, GizmoRotate, GizmoScale:
		g.mode = m
	}
}

// Attach binds the gizmo to a group node, replacing any previous
// target.
func (g *Gizmo) Attach(n *scene.Node) {
	g.target = n
}

// Detach releases the target. An active drag is abandoned and the
// camera re-enabled.
func (g *Gizmo) Detach() {
	g.target = nil
	if g.dragging {
		g.dragging = false
		g.setCameraEnabled(true)
	}
}

// Target returns the attached node, auto-detaching first when the node
// has been removed from the scene underneath the gizmo.
func (g *Gizmo) Target() *scene.Node {
	if g.target == nil {
		return nil
	}
	if g.target.Parent() == nil || g.target.Disposed() {
		g.Detach()
		return nil
	}
	return g.target
}

// Attached reports whether a live target is bound.
func (g *Gizmo) Attached() bool {
	return g.Target() != nil
}

// Dragging reports whether a drag is in progress.
func (g *Gizmo) Dragging() bool {
	return g.dragging
}

// BeginDrag starts a drag on the current target, disabling the orbit
// camera. Returns false without a live target.
func (g *Gizmo) BeginDrag() bool {
	if g.Target() == nil || g.dragging {
		return false
	}
	g.dragging = true
	g.setCameraEnabled(false)
	return true
}

// Drag translates the target by delta with X locked, then fires the
// change callback. Only translate mode moves anything; no-op when no
// drag is active.
func (g *Gizmo) Drag(delta scene.Vec3) {
	t := g.Target()
	if t == nil || !g.dragging {
		return
	}
	if g.mode != GizmoTranslate {
		return
	}
	t.Position.Y += delta.Y
	t.Position.Z += delta.Z
	if g.onChange != nil {
		g.onChange()
	}
}

// EndDrag completes the drag, re-enables the camera and fires the
// drag-end callback.
func (g *Gizmo) EndDrag() {
	if !g.dragging {
		return
	}
	g.dragging = false
	g.setCameraEnabled(true)
	if g.onDragEnd != nil {
		g.onDragEnd()
	}
}

// CancelDrag abandons the drag without firing drag-end. The caller
// restores the target position.
func (g *Gizmo) CancelDrag() {
	if !g.dragging {
		return
	}
	g.dragging = false
	g.setCameraEnabled(true)
}

func (g *Gizmo) setCameraEnabled(v bool) {
	if g.camera != nil {
		g.camera.Enabled = v
	}
}
