package ports

import (
	"context"
	"time"

	"github.com/jooleearr/chatty-boxy/internal/domain"
)

// RecordStore is the durable mirror of synced items, keyed by item ID.
// Get returns nil, nil when no record exists.
type RecordStore interface {
	Get(ctx context.Context, id string) (*domain.SyncedRecord, error)
	GetByCollection(ctx context.Context, collectionKey string) ([]domain.SyncedRecord, error)
	GetAll(ctx context.Context) ([]domain.SyncedRecord, error)
	Upsert(ctx context.Context, record *domain.SyncedRecord) error
	Delete(ctx context.Context, id string) error

	// CountByCollection returns the number of records per collection key
	CountByCollection(ctx context.Context) (map[string]int, error)
}

// RunLedger is the append-only history of sync attempts.
// GetLastRun returns nil, nil when no run was ever started.
// An empty summary is stored as NULL.
type RunLedger interface {
	StartRun(ctx context.Context) (int64, error)
	CompleteRun(ctx context.Context, runID int64, counts domain.RunCounts, summary string) error
	FailRun(ctx context.Context, runID int64, counts domain.RunCounts, summary string) error
	GetLastRun(ctx context.Context) (*domain.RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// StalledRuns lists runs still marked running that started before now-olderThan
	StalledRuns(ctx context.Context, olderThan time.Duration) ([]domain.RunRecord, error)
}

// ArtifactStore holds converted item content. Locations are opaque to callers.
type ArtifactStore interface {
	Save(itemID, collectionKey, title, content string) (string, error)
	Delete(location string) (bool, error)
	Exists(location string) (bool, error)
	List() ([]string, error)
	Read(location string) ([]byte, error)
}
