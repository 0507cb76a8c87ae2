package ports

import (
	"context"
	"errors"
	"time"

	"github.com/jooleearr/chatty-boxy/internal/domain"
)

// ErrListingTruncated is returned by ListItems together with the items read
// so far when the listing stopped before the end of the collection
var ErrListingTruncated = errors.New("listing truncated")

// ContentSource lists the pages of a remote collection
type ContentSource interface {
	// ListItems returns every item in the collection, paginating internally.
	// A capped listing returns its items with an error wrapping ErrListingTruncated.
	ListItems(ctx context.Context, collectionKey string) ([]domain.RemoteItem, error)

	// TestConnection returns nil when the source is reachable and credentials work
	TestConnection(ctx context.Context) error
}

// ConvertMetadata is written alongside converted content
type ConvertMetadata struct {
	ItemID        string
	CollectionKey string
	Title         string
	Version       int
	Lineage       []string
	Path          string // Lineage and title, for display
	SourceURL     string
	SyncedAt      time.Time
}

// Converter turns raw source markup into the artifact format
type Converter interface {
	Convert(raw string, meta ConvertMetadata) (string, error)
}
