package store

import (
	"sync"

	"github.com/abhipalit3/configur-mep/internal/mep"
)

// Gateway is the sqlite-backed persistence gateway. It carries the same
// merge semantics as the in-memory gateway the engine tests against:
// upserts match by base id and kind, composite legacy children collapse
// into one canonical record, and every mutation fires a change event
// plus the secondary updated-id event. The working list is held in
// memory; each write rewrites the sqlite copy in one transaction before
// any event fires, so subscribers only ever observe committed state.
type Gateway struct {
	mu         sync.Mutex
	db         *DB
	items      []mep.Item
	rev        int64
	changes    *mep.Signal[mep.ItemsUpdated]
	updatedIDs *mep.Signal[string]
	manifest   *ManifestHook
}

// NewGateway loads the stored item list and revision from db. The
// caller keeps ownership of db and closes it after the gateway.
func NewGateway(db *DB) (*Gateway, error) {
	items, err := db.ReadItems()
	if err != nil {
		return nil, err
	}
	rev, err := db.Revision()
	if err != nil {
		return nil, err
	}
	return &Gateway{
		db:         db,
		items:      items,
		rev:        rev,
		changes:    mep.NewSignal[mep.ItemsUpdated](),
		updatedIDs: mep.NewSignal[string](),
	}, nil
}

// SetManifestHook registers a hook notified after every successful
// write. Passing nil disables notifications.
func (g *Gateway) SetManifestHook(h *ManifestHook) {
	g.mu.Lock()
	g.manifest = h
	g.mu.Unlock()
}

// Revision returns the revision committed by the most recent write.
func (g *Gateway) Revision() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rev
}

func (g *Gateway) ReadAll() ([]mep.Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return mep.CloneItems(g.items), nil
}

func (g *Gateway) Upsert(rec mep.Item) error {
	g.mu.Lock()
	merged := mep.MergeUpsert(g.items, rec.Clone())
	rev, err := g.db.ReplaceItems(merged)
	if err != nil {
		g.mu.Unlock()
		return err
	}
	g.items = merged
	g.rev = rev
	snapshot := mep.CloneItems(merged)
	hook := g.manifest
	g.mu.Unlock()

	g.changes.Emit(mep.ItemsUpdated{Items: snapshot, UpdatedID: rec.BaseID()})
	g.updatedIDs.Emit(rec.BaseID())
	if hook != nil {
		hook.Notify(rev, rec.BaseID(), snapshot)
	}
	return nil
}

func (g *Gateway) Delete(baseID string, kind mep.Kind) error {
	g.mu.Lock()
	merged, removed := mep.MergeDelete(g.items, baseID, kind)
	if !removed {
		g.mu.Unlock()
		return nil
	}
	rev, err := g.db.ReplaceItems(merged)
	if err != nil {
		g.mu.Unlock()
		return err
	}
	g.items = merged
	g.rev = rev
	snapshot := mep.CloneItems(merged)
	hook := g.manifest
	g.mu.Unlock()

	g.changes.Emit(mep.ItemsUpdated{Items: snapshot, UpdatedID: baseID})
	g.updatedIDs.Emit(baseID)
	if hook != nil {
		hook.Notify(rev, baseID, snapshot)
	}
	return nil
}

// ReplaceAll swaps the whole list, emitting one change event with no
// updated id. The importers seed through this.
func (g *Gateway) ReplaceAll(items []mep.Item) error {
	g.mu.Lock()
	cloned := mep.CloneItems(items)
	rev, err := g.db.ReplaceItems(cloned)
	if err != nil {
		g.mu.Unlock()
		return err
	}
	g.items = cloned
	g.rev = rev
	snapshot := mep.CloneItems(cloned)
	hook := g.manifest
	g.mu.Unlock()

	g.changes.Emit(mep.ItemsUpdated{Items: snapshot})
	if hook != nil {
		hook.Notify(rev, "", snapshot)
	}
	return nil
}

func (g *Gateway) SubscribeChanges() (string, chan mep.ItemsUpdated) {
	return g.changes.Subscribe()
}

func (g *Gateway) UnsubscribeChanges(id string) {
	g.changes.Unsubscribe(id)
}

func (g *Gateway) SubscribeUpdatedIDs() (string, chan string) {
	return g.updatedIDs.Subscribe()
}

func (g *Gateway) UnsubscribeUpdatedIDs(id string) {
	g.updatedIDs.Unsubscribe(id)
}

// Close releases all subscriber channels. The sqlite handle stays open;
// it belongs to the caller.
func (g *Gateway) Close() {
	g.changes.Close()
	g.updatedIDs.Close()
}
