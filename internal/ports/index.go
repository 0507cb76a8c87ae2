package ports

import (
	"context"

	"github.com/jooleearr/chatty-boxy/internal/domain"
)

// SearchIndex is the external service artifacts are projected into.
// Uploads are upserts: sending the same item twice must not duplicate it.
type SearchIndex interface {
	// GetOrCreateIndex returns the index name for displayName, creating it if absent
	GetOrCreateIndex(ctx context.Context, displayName string) (string, error)

	// UploadItem submits one artifact for indexing
	UploadItem(ctx context.Context, req UploadRequest) (*domain.Operation, error)

	// PollOperation refreshes the state of a pending operation
	PollOperation(ctx context.Context, op *domain.Operation) (*domain.Operation, error)

	// DeleteItem removes an entry previously returned in Operation.EntryRef
	DeleteItem(ctx context.Context, indexName, entryRef string) error
}

// UploadRequest carries one artifact to the search index
type UploadRequest struct {
	IndexName     string
	DisplayName   string
	Location      string // Artifact store location
	MimeType      string
	Content       []byte
	ItemID        string
	CollectionKey string
	Title         string
	SourceURL     string
}

// IndexRefCache persists the single known search index reference
type IndexRefCache interface {
	GetIndexRef(ctx context.Context) (*domain.IndexRef, error)
	SaveIndexRef(ctx context.Context, ref *domain.IndexRef) error
	TouchIndexRef(ctx context.Context) error
}
