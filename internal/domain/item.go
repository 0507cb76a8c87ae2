package domain

import (
	"strings"
	"time"
)

// RemoteItem is a page as reported by the content source during one sync pass.
// It is never persisted as-is.
type RemoteItem struct {
	ID            string   // Stable page identifier
	CollectionKey string   // Space key, e.g. "DEV"
	Title         string
	Version       int      // Source-side version counter
	RawContent    string   // Storage-format markup
	Lineage       []string // Ancestor titles, root first
	SourceURL     string
}

// Path returns the lineage and title joined for display (e.g. "Home / Guides / Setup")
func (i RemoteItem) Path() string {
	parts := make([]string, 0, len(i.Lineage)+1)
	parts = append(parts, i.Lineage...)
	parts = append(parts, i.Title)
	return strings.Join(parts, " / ")
}

// SyncedRecord is the durable mirror of one previously synced page
type SyncedRecord struct {
	ID               string
	CollectionKey    string
	Title            string
	Version          int // Last successfully synced version
	LastSyncedAt     time.Time
	ArtifactLocation string
	ExternalIndexRef *string // nil until the artifact has been indexed
	SourceURL        string

	// IndexPending is set while the current version still has to be
	// uploaded. ExternalIndexRef may point at an older version meanwhile.
	IndexPending bool
}

// Indexed reports whether the record has an external index entry
func (r SyncedRecord) Indexed() bool {
	return r.ExternalIndexRef != nil && *r.ExternalIndexRef != ""
}

// CollectionKeys returns the distinct collection keys of items in first-seen order
func CollectionKeys(items []RemoteItem) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, item := range items {
		if seen[item.CollectionKey] {
			continue
		}
		seen[item.CollectionKey] = true
		keys = append(keys, item.CollectionKey)
	}
	return keys
}
