package mep

import (
	"fmt"

	"github.com/abhipalit3/configur-mep/internal/monitoring"
	"github.com/abhipalit3/configur-mep/internal/rack"
	"github.com/abhipalit3/configur-mep/internal/scene"
	"github.com/abhipalit3/configur-mep/internal/timeutil"
)

// DefaultCopyOffsetM is the Z offset applied to a copied item, metres.
const DefaultCopyOffsetM = 0.30

// HandlerState names the interaction state of one kind's handler.
type HandlerState string

const (
	StateIdle     HandlerState = "idle"
	StateHovered  HandlerState = "hovered"
	StateSelected HandlerState = "selected"
	StateDragging HandlerState = "dragging"
)

// HandlerConfig wires one kind's interaction handler.
type HandlerConfig struct {
	Adapter      Adapter
	Rack         rack.Provider
	Gateway      Gateway
	Broker       *Broker
	Gizmo        *Gizmo
	Measurements *MeasurementManager

	// Frames defers post-rebuild re-attachment by one frame. Nil runs
	// it synchronously.
	Frames *timeutil.FrameScheduler

	// Group is the scene subgroup owning this kind's item subtrees.
	Group *scene.Node

	// SnapTolerance in metres; zero or negative means the package
	// default.
	SnapTolerance float64

	// CopyOffsetM is the Z offset for copies; zero means the default.
	CopyOffsetM float64

	// ToleranceFallback is the tier tolerance for records without a
	// usable dimension; zero or negative means the rack default.
	ToleranceFallback float64

	// MeasurementStride refreshes measurements every Nth drag frame;
	// values below 1 mean every frame. Drag-end always refreshes.
	MeasurementStride int
}

// Handler drives the selection and transform state machine for one
// kind: hover and selection appearance, gizmo attachment, per-frame
// snap resolution, measurement upkeep, copy, delete, dimension edits,
// and persistence on drag-end.
type Handler struct {
	adapter Adapter
	rack    rack.Provider
	gateway Gateway
	broker  *Broker
	gizmo   *Gizmo
	measure *MeasurementManager
	frames  *timeutil.FrameScheduler
	group   *scene.Node

	snapTol     float64
	copyOffset  float64
	tolFallback float64
	stride      int

	state    HandlerState
	hovered  *scene.Node
	selected *scene.Node

	measurementIDs []string
	preDrag        scene.Vec3
	preDragOK      bool
	dragFrames     int

	moved *Signal[ItemMoved]
}

// NewHandler validates the adapter, applies tuning defaults, registers
// with the broker, and returns the handler in the idle state. Missing
// collaborators panic: handler wiring is a construction-time concern.
func NewHandler(cfg HandlerConfig) *Handler {
	a := NewAdapter(cfg.Adapter)
	require := func(name string, absent bool) {
		if absent {
			panic(fmt.Sprintf("handler for kind %s requires %s", a.Kind, name))
		}
	}
	require("Rack", cfg.Rack == nil)
	require("Gateway", cfg.Gateway == nil)
	require("Broker", cfg.Broker == nil)
	require("Gizmo", cfg.Gizmo == nil)
	require("Measurements", cfg.Measurements == nil)
	require("Group", cfg.Group == nil)

	h := &Handler{
		adapter:     a,
		rack:        cfg.Rack,
		gateway:     cfg.Gateway,
		broker:      cfg.Broker,
		gizmo:       cfg.Gizmo,
		measure:     cfg.Measurements,
		frames:      cfg.Frames,
		group:       cfg.Group,
		snapTol:     cfg.SnapTolerance,
		copyOffset:  cfg.CopyOffsetM,
		tolFallback: cfg.ToleranceFallback,
		stride:      cfg.MeasurementStride,
		state:       StateIdle,
		moved:       NewSignal[ItemMoved](),
	}
	if h.snapTol <= 0 {
		h.snapTol = SnapTolerance
	}
	if h.copyOffset == 0 {
		h.copyOffset = DefaultCopyOffsetM
	}
	if h.tolFallback <= 0 {
		h.tolFallback = rack.FallbackTolerance
	}
	if h.stride < 1 {
		h.stride = 1
	}

	h.broker.Register(a.Kind.Plural(), h)
	return h
}

// Kind returns the handler's item kind.
func (h *Handler) Kind() Kind {
	return h.adapter.Kind
}

// State returns the current interaction state.
func (h *Handler) State() HandlerState {
	return h.state
}

// Group returns the kind's scene subgroup.
func (h *Handler) Group() *scene.Node {
	return h.group
}

// SelectedNode returns the selected root node, nil when none.
func (h *Handler) SelectedNode() *scene.Node {
	return h.selected
}

// SelectedItem returns the live record of the selected item, nil when
// none.
func (h *Handler) SelectedItem() *Item {
	return itemOf(h.selected)
}

// MeasurementIDs returns a copy of the live measurement annotation ids.
func (h *Handler) MeasurementIDs() []string {
	out := make([]string, len(h.measurementIDs))
	copy(out, h.measurementIDs)
	return out
}

// Moves returns the per-drag-frame movement signal.
func (h *Handler) Moves() *Signal[ItemMoved] {
	return h.moved
}

// Dispose quietly drops any selection and unregisters from the broker.
func (h *Handler) Dispose() {
	if h.selected != nil {
		h.measure.Clear(h.measurementIDs)
		h.measurementIDs = nil
		h.gizmo.Detach()
		h.selected = nil
	}
	h.hovered = nil
	h.state = StateIdle
	h.broker.Unregister(h.Kind().Plural())
	h.moved.Close()
}

// HoverEnter marks the hit node's selectable root as hovered. Hover is
// suppressed on the selected item and entirely while dragging.
func (h *Handler) HoverEnter(target *scene.Node) {
	if h.gizmo.Dragging() {
		return
	}
	root := h.adapter.FindSelectable(target)
	if root == nil || root == h.selected || root == h.hovered {
		return
	}
	h.HoverLeave()
	h.hovered = root
	h.adapter.UpdateAppearance(root, scene.AppearanceHover)
	if h.state == StateIdle {
		h.state = StateHovered
	}
}

// HoverLeave restores the hovered node's appearance.
func (h *Handler) HoverLeave() {
	if h.hovered == nil {
		return
	}
	if h.hovered != h.selected {
		h.adapter.UpdateAppearance(h.hovered, scene.AppearanceNormal)
	}
	h.hovered = nil
	if h.state == StateHovered {
		h.state = StateIdle
	}
}

// Click selects the hit node's selectable root, or clears the selection
// when the hit resolves to nothing of this kind.
func (h *Handler) Click(target *scene.Node) {
	if h.gizmo.Dragging() {
		return
	}
	root := h.adapter.FindSelectable(target)
	if root == nil {
		h.ClickEmpty()
		return
	}
	h.Select(root)
}

// ClickEmpty handles a click that hit nothing: any selection clears.
func (h *Handler) ClickEmpty() {
	if h.gizmo.Dragging() {
		return
	}
	h.Deselect()
}

// Select makes root this kind's selection. All deselection, of this
// handler's previous item and of every other kind, completes before the
// new selection is recorded.
func (h *Handler) Select(root *scene.Node) {
	if root == nil || h.gizmo.Dragging() || root == h.selected {
		return
	}
	h.Deselect()
	h.broker.beginSelection(h)

	if h.hovered == root {
		h.hovered = nil
	}
	h.selected = root
	h.state = StateSelected
	h.adapter.UpdateAppearance(root, scene.AppearanceSelected)

	h.attachGizmo(root)

	it := itemOf(root)
	if it != nil {
		fp := h.adapter.Dimensions(*it)
		h.measurementIDs = h.measure.Refresh(root.WorldPosition(), fp, h.measurementIDs)
	}
	h.broker.noteSelected(h, it)
}

// attachGizmo rebinds the shared gizmo callbacks to this handler and
// attaches it to the selection's transform group.
func (h *Handler) attachGizmo(root *scene.Node) {
	group := h.adapter.FindGroup(root)
	if group == nil {
		group = root
	}
	h.gizmo.BindChange(h.onTransformChange)
	h.gizmo.BindDragEnd(h.onDragEnd)
	h.gizmo.Attach(group)
}

// Deselect clears this kind's selection: appearance back to normal,
// measurements released, gizmo detached, broker notified. No-op without
// a selection.
func (h *Handler) Deselect() {
	if h.selected == nil {
		return
	}
	if h.gizmo.Dragging() {
		h.restorePreDrag()
		h.gizmo.CancelDrag()
		h.rack.ClearTransientGuides()
	}
	node := h.selected
	h.selected = nil
	h.preDragOK = false
	if !node.Disposed() {
		h.adapter.UpdateAppearance(node, scene.AppearanceNormal)
	}
	h.gizmo.Detach()
	h.measure.Clear(h.measurementIDs)
	h.measurementIDs = nil
	h.state = StateIdle
	h.broker.noteDeselected(h)
}

// Escape cancels an in-progress drag, restoring the pre-drag position,
// then clears the selection.
func (h *Handler) Escape() {
	if h.selected == nil {
		return
	}
	h.Deselect()
}

// BeginDrag enters the dragging state for the current selection.
// Returns false when nothing is selected or the target is gone.
func (h *Handler) BeginDrag() bool {
	if h.selected == nil || h.state == StateDragging || !h.CheckSelectionAlive() {
		return false
	}
	t := h.gizmo.Target()
	if t == nil {
		return false
	}
	h.preDrag = t.Position
	h.preDragOK = true
	h.dragFrames = 0
	if !h.gizmo.BeginDrag() {
		return false
	}
	h.state = StateDragging
	return true
}

// DragBy feeds one drag frame of movement through the gizmo. X is
// locked by the gizmo itself.
func (h *Handler) DragBy(delta scene.Vec3) {
	if h.state != StateDragging {
		return
	}
	h.gizmo.Drag(delta)
}

// EndDrag completes the drag through the gizmo.
func (h *Handler) EndDrag() {
	if h.state != StateDragging {
		return
	}
	h.gizmo.EndDrag()
}

// restorePreDrag puts the gizmo target back at its last persisted
// position.
func (h *Handler) restorePreDrag() {
	if t := h.gizmo.Target(); t != nil && h.preDragOK {
		t.Position = h.preDrag
	}
	h.preDragOK = false
}

// onTransformChange runs once per drag frame, in order: snap
// resolution, position assignment, transient guides, measurement
// refresh, move notification.
func (h *Handler) onTransformChange() {
	if h.state != StateDragging {
		return
	}
	t := h.gizmo.Target()
	if t == nil {
		h.abandonToIdle()
		return
	}
	it := itemOf(h.selected)
	if it == nil {
		return
	}

	pos := t.WorldPosition()
	lines := h.rack.SnapLines()

	// Grouped children keep their spacing: resolve against the live
	// bounding box, translating it whole.
	var res SnapResult
	if box := t.Bounds(); box.IsEmpty() {
		res = ResolveSnap(pos, h.adapter.Dimensions(*it), lines, h.snapTol)
	} else {
		res = ResolveSnapBox(pos, box, lines, h.snapTol)
	}

	delta := res.Position.Sub(pos)
	t.Position = t.Position.Add(delta)

	h.rack.ClearTransientGuides()
	if res.Horizontal != nil {
		h.rack.ShowHorizontalGuide(*res.Horizontal)
	}
	if res.Vertical != nil {
		h.rack.ShowVerticalGuide(*res.Vertical)
	}

	h.dragFrames++
	if h.stride <= 1 || h.dragFrames%h.stride == 0 {
		fp := h.adapter.Dimensions(*it)
		h.measurementIDs = h.measure.Refresh(t.WorldPosition(), fp, h.measurementIDs)
	}

	h.moved.Emit(ItemMoved{
		Kind:     h.Kind(),
		ID:       it.ID,
		Position: t.WorldPosition(),
		Snapped:  res.Snapped,
	})
}

// onDragEnd finishes the drag, in order: guides cleared, record updated
// and re-classified, measurements refreshed, record persisted. The
// gateway emits the change signal as part of the write.
func (h *Handler) onDragEnd() {
	if h.state != StateDragging {
		return
	}
	h.state = StateSelected
	h.preDragOK = false
	h.rack.ClearTransientGuides()

	t := h.gizmo.Target()
	if t == nil {
		h.abandonToIdle()
		return
	}
	it := itemOf(h.selected)
	if it == nil {
		return
	}

	it.Position = t.WorldPosition()
	h.classify(it)

	fp := h.adapter.Dimensions(*it)
	h.measurementIDs = h.measure.Refresh(it.Position, fp, h.measurementIDs)

	h.persist(*it)
}

// Delete removes the selected item from scene and storage. The gizmo
// detaches and measurements clear before anything else. Silent no-op
// without a selection.
func (h *Handler) Delete() {
	if h.selected == nil || !h.CheckSelectionAlive() {
		return
	}
	node := h.selected
	it := itemOf(node)

	h.gizmo.Detach()
	h.measure.Clear(h.measurementIDs)
	h.measurementIDs = nil
	h.selected = nil
	h.hovered = nil
	h.state = StateIdle
	h.preDragOK = false

	node.Detach()
	node.Dispose()

	if it != nil {
		if err := h.gateway.Delete(it.BaseID(), h.Kind()); err != nil {
			monitoring.Logf("[%s] delete %s: %v", h.Kind().Plural(), it.BaseID(), err)
		}
	}
	h.broker.noteDeselected(h)
}

// Copy duplicates the selected item with a fresh id, offset along Z,
// registers it in scene and storage, and moves the selection to the
// duplicate. Silent no-op without a selection.
func (h *Handler) Copy() {
	if h.selected == nil || !h.CheckSelectionAlive() {
		return
	}
	src := itemOf(h.selected)
	if src == nil {
		return
	}

	newIt, node := h.adapter.CopyFactory(src.Clone())
	if node == nil {
		return
	}
	h.group.AddChild(node)

	rec := itemOf(node)
	if rec == nil {
		clone := newIt.Clone()
		node.Data = &clone
		rec = &clone
	}
	h.classify(rec)
	h.persist(*rec)

	h.Select(node)
}

// UpdateDimensions merges a dimension delta into the selected record,
// rebuilding geometry when the delta demands it. Re-attachment after a
// rebuild is deferred one frame so the scene settles first. Silent
// no-op without a selection.
func (h *Handler) UpdateDimensions(delta DimensionDelta) {
	if len(delta) == 0 || h.selected == nil || !h.CheckSelectionAlive() {
		return
	}
	it := itemOf(h.selected)
	if it == nil {
		return
	}

	h.adapter.ApplyDelta(it, delta)

	if h.adapter.NeedsGeometryRebuild(delta) {
		node := h.selected
		h.gizmo.Detach()
		h.adapter.Rebuild(node, *it)
		h.deferFrame(func() {
			if h.selected != node {
				return
			}
			h.adapter.UpdateAppearance(node, scene.AppearanceSelected)
			h.attachGizmo(node)
		})
	}

	h.classify(it)
	fp := h.adapter.Dimensions(*it)
	h.measurementIDs = h.measure.Refresh(h.selected.WorldPosition(), fp, h.measurementIDs)
	h.persist(*it)
}

// RefreshMeasurements redraws the selected item's post-distance
// annotations, for callers that changed the rack underneath a live
// selection. No-op without a selection.
func (h *Handler) RefreshMeasurements() {
	if h.selected == nil || !h.CheckSelectionAlive() {
		return
	}
	it := itemOf(h.selected)
	if it == nil {
		return
	}
	fp := h.adapter.Dimensions(*it)
	h.measurementIDs = h.measure.Refresh(h.selected.WorldPosition(), fp, h.measurementIDs)
}

// CheckSelectionAlive verifies the selected node is still attached
// under this kind's subgroup, dropping all selection state when it was
// removed externally. Returns true when the selection is live.
func (h *Handler) CheckSelectionAlive() bool {
	if h.selected == nil {
		return false
	}
	alive := !h.selected.Disposed() &&
		h.selected.Ancestor(func(n *scene.Node) bool { return n == h.group }) != nil
	if !alive {
		h.abandonToIdle()
		return false
	}
	return true
}

// abandonToIdle drops all selection state after the target disappeared
// from the scene underneath the handler.
func (h *Handler) abandonToIdle() {
	if h.selected != nil {
		h.measure.Clear(h.measurementIDs)
		h.measurementIDs = nil
		h.selected = nil
		h.broker.noteDeselected(h)
	}
	h.gizmo.Detach()
	h.state = StateIdle
	h.preDragOK = false
}

// classify refreshes the record's tier assignment from its current Y.
func (h *Handler) classify(it *Item) {
	tol := ToleranceOf(*it, h.tolFallback)
	c := rack.Classify(it.Position.Y, tol, h.rack.TierSpaces())
	it.SetTier(c.Tier, c.Label)
}

// persist writes the record through the gateway. Failures are logged
// and the scene keeps its state; there is no rollback.
func (h *Handler) persist(it Item) {
	rec := h.adapter.Serialize(it)
	if err := h.gateway.Upsert(rec); err != nil {
		monitoring.Logf("[%s] persist %s: %v", h.Kind().Plural(), rec.ID, err)
	}
}

// deferFrame schedules fn for the next frame flush, or runs it now when
// no scheduler is wired.
func (h *Handler) deferFrame(fn func()) {
	if h.frames == nil {
		fn()
		return
	}
	h.frames.Defer(fn)
}

// itemOf extracts the canonical record a root node carries.
func itemOf(n *scene.Node) *Item {
	if n == nil {
		return nil
	}
	if it, ok := n.Data.(*Item); ok {
		return it
	}
	return nil
}
