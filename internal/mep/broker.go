package mep

import (
	"sync"

	"github.com/abhipalit3/configur-mep/internal/monitoring"
	"github.com/abhipalit3/configur-mep/internal/timeutil"
)

// Selection identifies the single item selected across all kinds.
type Selection struct {
	Kind Kind  `json:"kind"`
	Item *Item `json:"item"`
}

// Broker serializes selection across the per-kind handlers. Its
// invariant: at most one handler holds a non-nil selection at any time,
// enforced by a deselect round-trip through every other handler before
// a new selection is recorded. Selection events are broadcast one frame
// deferred so the scene settles after mesh replacement.
type Broker struct {
	mu         sync.Mutex
	handlers   map[string]*Handler
	current    *Selection
	currentKey string
	events     *Signal[SelectionChanged]
	frames     *timeutil.FrameScheduler
}

// NewBroker creates a broker that defers its broadcasts through the
// given scheduler. A nil scheduler broadcasts synchronously.
func NewBroker(frames *timeutil.FrameScheduler) *Broker {
	return &Broker{
		handlers: make(map[string]*Handler),
		events:   NewSignal[SelectionChanged](),
		frames:   frames,
	}
}

// Register binds a handler under the kind's plural key, replacing any
// previous binding.
func (b *Broker) Register(plural string, h *Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.handlers[plural]; dup {
		monitoring.Logf("[broker] replacing handler for %q", plural)
	}
	b.handlers[plural] = h
}

// Unregister removes the handler for the plural key and drops its
// selection record if it held one.
func (b *Broker) Unregister(plural string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, plural)
	if b.currentKey == plural {
		b.current = nil
		b.currentKey = ""
	}
}

// Handler returns the registered handler for the plural key.
func (b *Broker) Handler(plural string) (*Handler, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.handlers[plural]
	return h, ok
}

// Handlers returns all registered handlers, keyed by plural kind.
func (b *Broker) Handlers() map[string]*Handler {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]*Handler, len(b.handlers))
	for k, h := range b.handlers {
		out[k] = h
	}
	return out
}

// beginSelection runs the deselect round-trip: every handler other than
// h drops its selection before h records a new one.
func (b *Broker) beginSelection(h *Handler) {
	b.mu.Lock()
	others := make([]*Handler, 0, len(b.handlers))
	for _, o := range b.handlers {
		if o != h {
			others = append(others, o)
		}
	}
	b.mu.Unlock()

	for _, o := range others {
		o.Deselect()
	}
}

// noteSelected records h's new selection and schedules the broadcast.
// The event carries a snapshot so observers never alias the live
// record.
func (b *Broker) noteSelected(h *Handler, it *Item) {
	b.mu.Lock()
	b.current = &Selection{Kind: h.Kind(), Item: it}
	b.currentKey = h.Kind().Plural()
	b.mu.Unlock()

	var snapshot *Item
	if it != nil {
		c := it.Clone()
		snapshot = &c
	}
	b.deferEmit(SelectionChanged{Kind: h.Kind(), Item: snapshot})
}

// noteDeselected clears the record if h held it and schedules the
// broadcast.
func (b *Broker) noteDeselected(h *Handler) {
	b.mu.Lock()
	if b.currentKey == h.Kind().Plural() {
		b.current = nil
		b.currentKey = ""
	}
	b.mu.Unlock()

	b.deferEmit(SelectionChanged{Kind: h.Kind(), Item: nil})
}

func (b *Broker) deferEmit(ev SelectionChanged) {
	if b.frames == nil {
		b.events.Emit(ev)
		return
	}
	b.frames.Defer(func() {
		b.events.Emit(ev)
	})
}

// CurrentSelection returns a snapshot of the live selection, or nil
// when nothing is selected anywhere.
func (b *Broker) CurrentSelection() *Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil
	}
	sel := Selection{Kind: b.current.Kind}
	if b.current.Item != nil {
		it := b.current.Item.Clone()
		sel.Item = &it
	}
	return &sel
}

// Subscribe registers a listener for selection events.
func (b *Broker) Subscribe() (string, chan SelectionChanged) {
	return b.events.Subscribe()
}

// Unsubscribe removes a selection listener.
func (b *Broker) Unsubscribe(id string) {
	b.events.Unsubscribe(id)
}

// Close releases all subscriber channels.
func (b *Broker) Close() {
	b.events.Close()
}
