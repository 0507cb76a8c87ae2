package domain

import (
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of a sync run
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunCounts holds outcome counters for one run
type RunCounts struct {
	Added   int
	Updated int
	Deleted int
	Skipped int // Unchanged items
	Failed  int
}

// Processed returns the number of items that were written locally
func (c RunCounts) Processed() int {
	return c.Added + c.Updated
}

// RunRecord is one row of the run ledger
type RunRecord struct {
	ID           int64
	StartedAt    time.Time
	CompletedAt  *time.Time // nil while running
	Counts       RunCounts
	Status       RunStatus
	ErrorSummary *string
}

// Duration returns the elapsed run time, or false while the run is open
func (r RunRecord) Duration() (time.Duration, bool) {
	if r.CompletedAt == nil {
		return 0, false
	}
	return r.CompletedAt.Sub(r.StartedAt), true
}

// Stalled reports whether the run is still open after the given threshold
func (r RunRecord) Stalled(now time.Time, threshold time.Duration) bool {
	return r.Status == RunRunning && now.Sub(r.StartedAt) > threshold
}

// Stage names the part of a run where a recoverable error happened
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageClassify Stage = "classify"
	StageConvert  Stage = "convert"
	StageSave     Stage = "save"
	StageUpload   Stage = "upload"
	StagePersist  Stage = "persist"
	StageDelete   Stage = "delete"
)

// SyncError is a recoverable failure collected during a run
type SyncError struct {
	Stage         Stage
	ItemID        string // Empty for collection-level failures
	CollectionKey string
	Message       string
}

func (e SyncError) String() string {
	switch {
	case e.ItemID != "":
		return fmt.Sprintf("[%s] %s/%s: %s", e.Stage, e.CollectionKey, e.ItemID, e.Message)
	case e.CollectionKey != "":
		return fmt.Sprintf("[%s] %s: %s", e.Stage, e.CollectionKey, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
	}
}
