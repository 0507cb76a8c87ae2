package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jooleearr/chatty-boxy/internal/domain"
	"github.com/jooleearr/chatty-boxy/internal/ports"
)

// DefaultStalledAfter is how long a run may stay open before status flags it
const DefaultStalledAfter = time.Hour

// CollectionCount is the number of mirrored records in one collection
type CollectionCount struct {
	CollectionKey string
	Records       int
}

// StatusResult summarizes the mirror
type StatusResult struct {
	LastRun      *domain.RunRecord
	Collections  []CollectionCount
	TotalRecords int
	Stalled      []domain.RunRecord
	Message      string
}

// StatusCommand reports the last run, record counts and stalled runs
type StatusCommand struct {
	ledger       ports.RunLedger
	records      ports.RecordStore
	StalledAfter time.Duration
}

// NewStatusCommand creates a new StatusCommand
func NewStatusCommand(ledger ports.RunLedger, records ports.RecordStore) *StatusCommand {
	return &StatusCommand{
		ledger:       ledger,
		records:      records,
		StalledAfter: DefaultStalledAfter,
	}
}

// Execute runs the status command
func (c *StatusCommand) Execute(ctx context.Context) (*StatusResult, error) {
	last, err := c.ledger.GetLastRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read last run: %w", err)
	}

	counts, err := c.records.CountByCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	stalled, err := c.ledger.StalledRuns(ctx, c.StalledAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to list stalled runs: %w", err)
	}

	result := &StatusResult{LastRun: last, Stalled: stalled}
	for key, n := range counts {
		result.Collections = append(result.Collections, CollectionCount{CollectionKey: key, Records: n})
		result.TotalRecords += n
	}
	sort.Slice(result.Collections, func(i, j int) bool {
		return result.Collections[i].CollectionKey < result.Collections[j].CollectionKey
	})

	switch {
	case last == nil:
		result.Message = "No sync has run yet"
	default:
		result.Message = fmt.Sprintf("Last run %d %s; %d records in %d collections",
			last.ID, last.Status, result.TotalRecords, len(result.Collections))
	}
	if len(stalled) > 0 {
		result.Message += fmt.Sprintf("; %d stalled runs", len(stalled))
	}

	return result, nil
}
