package mep

import "sync"

// Gateway is the persistence surface the editing engine writes through.
// One authoritative list of canonical records; mutations match by base
// id and kind, preserve list order, and broadcast a change event plus a
// secondary updated-id event after every write.
type Gateway interface {
	// ReadAll returns the current list in storage order.
	ReadAll() ([]Item, error)

	// Upsert inserts rec or replaces the records sharing its base id
	// and kind. The first match is replaced in place; further matches
	// (legacy composite children) are collapsed into it.
	Upsert(rec Item) error

	// Delete removes every record matching the base id and kind.
	Delete(baseID string, kind Kind) error

	// SubscribeChanges registers a listener for post-mutation change
	// events. The id identifies the channel when unsubscribing.
	SubscribeChanges() (string, chan ItemsUpdated)
	UnsubscribeChanges(id string)

	// SubscribeUpdatedIDs registers a listener for the secondary
	// event stream carrying just the mutated base id.
	SubscribeUpdatedIDs() (string, chan string)
	UnsubscribeUpdatedIDs(id string)
}

// MergeUpsert returns items with rec inserted, or replacing the first
// record sharing rec's base id and kind. Later records with the same
// base id and kind are dropped so composite legacy children collapse
// into one canonical record. List order is preserved otherwise.
func MergeUpsert(items []Item, rec Item) []Item {
	base := rec.BaseID()
	out := make([]Item, 0, len(items)+1)
	replaced := false
	for _, it := range items {
		if it.Kind == rec.Kind && it.BaseID() == base {
			if !replaced {
				out = append(out, rec)
				replaced = true
			}
			continue
		}
		out = append(out, it)
	}
	if !replaced {
		out = append(out, rec)
	}
	return out
}

// MergeDelete returns items with every record matching the base id and
// kind removed. The second return reports whether anything was removed.
func MergeDelete(items []Item, baseID string, kind Kind) ([]Item, bool) {
	out := make([]Item, 0, len(items))
	removed := false
	for _, it := range items {
		if it.Kind == kind && it.BaseID() == baseID {
			removed = true
			continue
		}
		out = append(out, it)
	}
	return out, removed
}

// CloneItems returns a deep copy of the list.
func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// MemoryGateway is an in-memory Gateway. It backs tests and the import
// tooling; the sqlite gateway carries the same contract in production.
type MemoryGateway struct {
	mu         sync.Mutex
	items      []Item
	changes    *Signal[ItemsUpdated]
	updatedIDs *Signal[string]
}

// NewMemoryGateway creates a gateway seeded with the given records.
func NewMemoryGateway(seed []Item) *MemoryGateway {
	return &MemoryGateway{
		items:      CloneItems(seed),
		changes:    NewSignal[ItemsUpdated](),
		updatedIDs: NewSignal[string](),
	}
}

func (g *MemoryGateway) ReadAll() ([]Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return CloneItems(g.items), nil
}

func (g *MemoryGateway) Upsert(rec Item) error {
	g.mu.Lock()
	g.items = MergeUpsert(g.items, rec.Clone())
	snapshot := CloneItems(g.items)
	g.mu.Unlock()

	g.changes.Emit(ItemsUpdated{Items: snapshot, UpdatedID: rec.BaseID()})
	g.updatedIDs.Emit(rec.BaseID())
	return nil
}

func (g *MemoryGateway) Delete(baseID string, kind Kind) error {
	g.mu.Lock()
	merged, removed := MergeDelete(g.items, baseID, kind)
	if !removed {
		g.mu.Unlock()
		return nil
	}
	g.items = merged
	snapshot := CloneItems(g.items)
	g.mu.Unlock()

	g.changes.Emit(ItemsUpdated{Items: snapshot, UpdatedID: baseID})
	g.updatedIDs.Emit(baseID)
	return nil
}

// ReplaceAll swaps the whole list, emitting one change event with no
// updated id.
func (g *MemoryGateway) ReplaceAll(items []Item) error {
	g.mu.Lock()
	g.items = CloneItems(items)
	snapshot := CloneItems(g.items)
	g.mu.Unlock()

	g.changes.Emit(ItemsUpdated{Items: snapshot})
	return nil
}

func (g *MemoryGateway) SubscribeChanges() (string, chan ItemsUpdated) {
	return g.changes.Subscribe()
}

func (g *MemoryGateway) UnsubscribeChanges(id string) {
	g.changes.Unsubscribe(id)
}

func (g *MemoryGateway) SubscribeUpdatedIDs() (string, chan string) {
	return g.updatedIDs.Subscribe()
}

func (g *MemoryGateway) UnsubscribeUpdatedIDs(id string) {
	g.updatedIDs.Unsubscribe(id)
}

// Close releases all subscriber channels.
func (g *MemoryGateway) Close() {
	g.changes.Close()
	g.updatedIDs.Close()
}
