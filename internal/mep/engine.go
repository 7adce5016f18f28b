package mep

import (
	"fmt"
	"sync"

	"github.com/abhipalit3/configur-mep/internal/config"
	"github.com/abhipalit3/configur-mep/internal/monitoring"
	"github.com/abhipalit3/configur-mep/internal/rack"
	"github.com/abhipalit3/configur-mep/internal/scene"
	"github.com/abhipalit3/configur-mep/internal/timeutil"
	"github.com/abhipalit3/configur-mep/internal/units"
)

// Options configures an Engine. Every field is optional except
// Geometry; nil collaborators fall back to in-memory defaults.
type Options struct {
	// Gateway is the canonical item store. Nil builds an empty
	// MemoryGateway owned by the engine.
	Gateway Gateway

	// Measurements draws distance annotations. Nil builds a
	// MemoryMeasurements.
	Measurements MeasurementService

	// Factory builds item scene subtrees. Nil builds a BoxFactory.
	Factory Factory

	// Tuning overrides the editing thresholds. Nil uses the defaults.
	Tuning *config.Tuning

	// Geometry is the rack the items live in.
	Geometry rack.Geometry
}

// Engine is the headless editing facade: one rack, one scene graph
// with a subgroup per kind, one orbit camera, one shared gizmo, four
// kind handlers behind a selection broker, and an input router mapping
// window coordinates onto all of it.
//
// All methods are safe for concurrent use; the engine serializes every
// editing entry point behind one mutex, preserving the single logical
// editor thread the interaction model assumes.
type Engine struct {
	mu sync.Mutex

	tuning  *config.Tuning
	frames  *timeutil.FrameScheduler
	rack    *rack.Index
	root    *scene.Node
	groups  map[Kind]*scene.Node
	camera  *scene.Camera
	gizmo   *Gizmo
	broker  *Broker
	measure *MeasurementManager
	factory Factory

	gateway     Gateway
	ownsGateway bool

	adapters map[Kind]Adapter
	handlers map[Kind]*Handler
	router   *Router
}

// NewEngine wires the full interaction stack and loads the gateway's
// current records into the scene. Records with an unknown kind are
// skipped with a warning; invalid dimensions are sanitized in place.
func NewEngine(opts Options) (*Engine, error) {
	tuning := opts.Tuning
	if tuning == nil {
		tuning = config.EmptyTuning()
	}

	e := &Engine{
		tuning:  tuning,
		frames:  timeutil.NewFrameScheduler(),
		root:    scene.NewNode("root"),
		groups:  make(map[Kind]*scene.Node, len(Kinds())),
		camera:  scene.NewCamera(),
		gateway: opts.Gateway,
		factory: opts.Factory,
	}
	if e.gateway == nil {
		e.gateway = NewMemoryGateway(nil)
		e.ownsGateway = true
	}
	if e.factory == nil {
		e.factory = NewBoxFactory(tuning.GetFallbackDiameterIn())
	}
	measurements := opts.Measurements
	if measurements == nil {
		measurements = NewMemoryMeasurements()
	}

	e.rack = rack.NewIndex(opts.Geometry)
	e.rack.SetMinTierHeight(tuning.GetMinTierHeightM())

	e.gizmo = NewGizmo(e.camera)
	e.broker = NewBroker(e.frames)
	e.measure = NewMeasurementManager(measurements, e.rack)

	e.adapters = NewAdapters(AdapterDeps{
		Factory:            e.factory,
		RackLengthM:        func() float64 { return units.FeetToMeters(e.rack.RackLengthFt()) },
		CopyOffsetM:        tuning.GetCopyOffsetM(),
		FallbackDiameterIn: tuning.GetFallbackDiameterIn(),
	})

	e.handlers = make(map[Kind]*Handler, len(Kinds()))
	e.router = NewRouter(e.camera, e.gizmo, e.broker)
	for _, k := range Kinds() {
		group := scene.NewNode(k.Plural())
		e.root.AddChild(group)
		e.groups[k] = group

		h := NewHandler(HandlerConfig{
			Adapter:           e.adapters[k],
			Rack:              e.rack,
			Gateway:           e.gateway,
			Broker:            e.broker,
			Gizmo:             e.gizmo,
			Measurements:      e.measure,
			Frames:            e.frames,
			Group:             group,
			SnapTolerance:     tuning.GetSnapToleranceM(),
			CopyOffsetM:       tuning.GetCopyOffsetM(),
			ToleranceFallback: tuning.GetTierToleranceFallbackM(),
			MeasurementStride: tuning.GetMeasurementRefreshStride(),
		})
		e.handlers[k] = h
		e.router.Bind(k, group, h)
	}

	if err := e.loadItems(); err != nil {
		return nil, err
	}
	return e, nil
}

// loadItems populates the scene from the gateway's current list.
func (e *Engine) loadItems() error {
	items, err := e.gateway.ReadAll()
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}

	lengthM := units.FeetToMeters(e.rack.RackLengthFt())
	for _, it := range items {
		if !it.Kind.Valid() {
			monitoring.Logf("[engine] skipping item %s: unknown kind %q", it.ID, it.Kind)
			continue
		}
		SanitizeDimensions(&it, e.tuning.GetFallbackDiameterIn())
		e.classifyItem(&it)
		node := e.factory.Create(it, lengthM, it.Position)
		e.groups[it.Kind].AddChild(node)
	}
	return nil
}

// classifyItem refreshes the record's tier from its current Y.
func (e *Engine) classifyItem(it *Item) {
	tol := ToleranceOf(*it, e.tuning.GetTierToleranceFallbackM())
	c := rack.Classify(it.Position.Y, tol, e.rack.TierSpaces())
	it.SetTier(c.Tier, c.Label)
}

// PointerMove routes a pointer move in window coordinates.
func (e *Engine) PointerMove(x, y, width, height float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.router.PointerMove(x, y, width, height)
}

// Click routes a pointer click in window coordinates.
func (e *Engine) Click(x, y, width, height float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.router.Click(x, y, width, height)
}

// KeyDown routes a key press.
func (e *Engine) KeyDown(key string, ctrlOrCmd bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.router.KeyDown(key, ctrlOrCmd)
}

// Wheel zooms the orbit camera.
func (e *Engine) Wheel(delta float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.router.Wheel(delta)
}

// Orbit rotates the orbit camera.
func (e *Engine) Orbit(dYaw, dPitch float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.router.Orbit(dYaw, dPitch)
}

// BeginDrag starts a gizmo drag on the current selection. Returns false
// when nothing is selected.
func (e *Engine) BeginDrag() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := e.activeHandlerLocked()
	if h == nil {
		return false
	}
	return h.BeginDrag()
}

// DragBy feeds one drag frame of world-space movement to the selection.
func (e *Engine) DragBy(delta scene.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if h := e.activeHandlerLocked(); h != nil {
		h.DragBy(delta)
	}
}

// EndDrag completes an in-progress drag.
func (e *Engine) EndDrag() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if h := e.activeHandlerLocked(); h != nil {
		h.EndDrag()
	}
}

// Escape cancels a drag in progress and clears the selection.
func (e *Engine) Escape() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if h := e.activeHandlerLocked(); h != nil {
		h.Escape()
	}
}

// Copy duplicates the current selection. Silent no-op without one.
func (e *Engine) Copy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if h := e.activeHandlerLocked(); h != nil {
		h.Copy()
	}
}

// Delete removes the current selection. Silent no-op without one.
func (e *Engine) Delete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if h := e.activeHandlerLocked(); h != nil {
		h.Delete()
	}
}

// UpdateDimensions merges a dimension delta into the current selection.
// Silent no-op without one.
func (e *Engine) UpdateDimensions(delta DimensionDelta) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if h := e.activeHandlerLocked(); h != nil {
		h.UpdateDimensions(delta)
	}
}

// Frame advances one tick: deferred work flushes, then each handler
// verifies its selection is still attached to the scene.
func (e *Engine) Frame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frames.Flush()
	for _, h := range e.handlers {
		h.CheckSelectionAlive()
	}
}

// Items returns the gateway's current record list.
func (e *Engine) Items() ([]Item, error) {
	return e.gateway.ReadAll()
}

// Selection returns the current cross-kind selection, nil when none.
func (e *Engine) Selection() *Selection {
	return e.broker.CurrentSelection()
}

// SetRackGeometry replaces the rack. Snap lines and tier spaces
// re-derive lazily; every item re-classifies against the new spaces,
// and records whose tier changed persist. A live selection keeps its
// measurements current against the new posts.
func (e *Engine) SetRackGeometry(g rack.Geometry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rack.SetGeometry(g)

	for _, k := range Kinds() {
		ad := e.adapters[k]
		for _, n := range e.groups[k].Children() {
			it := itemOf(n)
			if it == nil {
				continue
			}
			prevTier := it.Tier
			prevLabel := it.TierLabel
			e.classifyItem(it)
			if tierEqual(prevTier, it.Tier) && prevLabel == it.TierLabel {
				continue
			}
			rec := ad.Serialize(*it)
			if err := e.gateway.Upsert(rec); err != nil {
				monitoring.Logf("[engine] persist %s: %v", rec.ID, err)
			}
		}
	}

	if h := e.activeHandlerLocked(); h != nil {
		h.RefreshMeasurements()
	}
}

// ApplyPlacement moves an item to the given position as if it had been
// dragged there: the position snap-resolves, the tier reassigns, and
// the record persists. Returns false when no item with the base id and
// kind is in the scene.
func (e *Engine) ApplyPlacement(kind Kind, baseID string, pos scene.Vec3) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	group, ok := e.groups[kind]
	if !ok {
		return false
	}
	ad := e.adapters[kind]

	for _, n := range group.Children() {
		it := itemOf(n)
		if it == nil || it.BaseID() != baseID {
			continue
		}

		n.Position = pos
		res := ResolveSnapBox(n.WorldPosition(), n.Bounds(), e.rack.SnapLines(), e.tuning.GetSnapToleranceM())
		n.Position = n.Position.Add(res.Position.Sub(n.WorldPosition()))

		it.Position = n.WorldPosition()
		e.classifyItem(it)

		rec := ad.Serialize(*it)
		if err := e.gateway.Upsert(rec); err != nil {
			monitoring.Logf("[engine] persist %s: %v", rec.ID, err)
		}
		return true
	}
	return false
}

// Handler returns the interaction handler for a kind, nil when the
// kind is unknown.
func (e *Engine) Handler(k Kind) *Handler {
	return e.handlers[k]
}

// Group returns the scene subgroup owning a kind's items, nil when the
// kind is unknown.
func (e *Engine) Group(k Kind) *scene.Node {
	return e.groups[k]
}

// Root returns the scene root.
func (e *Engine) Root() *scene.Node {
	return e.root
}

// Camera returns the orbit camera.
func (e *Engine) Camera() *scene.Camera {
	return e.camera
}

// Broker returns the selection broker.
func (e *Engine) Broker() *Broker {
	return e.broker
}

// RackIndex returns the live snap-line index.
func (e *Engine) RackIndex() *rack.Index {
	return e.rack
}

// Gateway returns the canonical item store.
func (e *Engine) Gateway() Gateway {
	return e.gateway
}

// Close disposes all handlers and the broker. The gateway closes only
// when the engine created it.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, h := range e.handlers {
		h.Dispose()
	}
	e.broker.Close()
	if e.ownsGateway {
		if g, ok := e.gateway.(*MemoryGateway); ok {
			g.Close()
		}
	}
}

// activeHandlerLocked resolves the handler owning the current
// selection. Callers hold e.mu.
func (e *Engine) activeHandlerLocked() *Handler {
	sel := e.broker.CurrentSelection()
	if sel == nil {
		return nil
	}
	h, ok := e.broker.Handler(sel.Kind.Plural())
	if !ok {
		return nil
	}
	return h
}

// tierEqual compares two tier assignments by value.
func tierEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
