package store

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/abhipalit3/configur-mep/internal/httputil"
	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/monitoring"
)

// Manifest is the snapshot posted to the project manifest endpoint
// after each write.
type Manifest struct {
	Revision  int64      `json:"revision"`
	UpdatedID string     `json:"updatedId,omitempty"`
	ItemCount int        `json:"itemCount"`
	SavedAt   time.Time  `json:"savedAt"`
	Items     []mep.Item `json:"items"`
}

// ManifestHook posts a Manifest to an external endpoint after every
// successful write. Failures are logged and never fail the write; the
// manifest is a mirror, not a second source of truth.
type ManifestHook struct {
	client httputil.HTTPClient
	url    string
	now    func() time.Time
}

// NewManifestHook creates a hook posting to url. A nil client falls
// back to the default HTTP client.
func NewManifestHook(client httputil.HTTPClient, url string) *ManifestHook {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &ManifestHook{client: client, url: url, now: time.Now}
}

// Notify posts the post-write snapshot. updatedID is empty for
// whole-list replacements.
func (h *ManifestHook) Notify(rev int64, updatedID string, items []mep.Item) {
	payload := Manifest{
		Revision:  rev,
		UpdatedID: updatedID,
		ItemCount: len(items),
		SavedAt:   h.now().UTC(),
		Items:     items,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		monitoring.Logf("[store] manifest marshal: %v", err)
		return
	}

	resp, err := h.client.Post(h.url, "application/json", bytes.NewReader(body))
	if err != nil {
		monitoring.Logf("[store] manifest post: %v", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		monitoring.Logf("[store] manifest post: unexpected status %d", resp.StatusCode)
	}
}
