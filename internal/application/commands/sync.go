package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jooleearr/chatty-boxy/internal/application"
	"github.com/jooleearr/chatty-boxy/internal/application/report"
	"github.com/jooleearr/chatty-boxy/internal/application/syncer"
)

// Runner executes sync runs; satisfied by *syncer.Orchestrator
type Runner interface {
	Run(ctx context.Context, opts syncer.RunOptions) (*syncer.RunResult, error)
}

// SyncResult contains the result of a sync run
type SyncResult struct {
	Run     *syncer.RunResult
	Message string
}

// SyncCommand runs one synchronization pass
type SyncCommand struct {
	runner         Runner
	ForceFullSync  bool
	CollectionKeys []string
	DryRun         bool
}

// NewSyncCommand creates a new SyncCommand
func NewSyncCommand(runner Runner, collectionKeys []string, forceFullSync, dryRun bool) *SyncCommand {
	return &SyncCommand{
		runner:         runner,
		CollectionKeys: collectionKeys,
		ForceFullSync:  forceFullSync,
		DryRun:         dryRun,
	}
}

// Validate checks the requested collection keys
func (c *SyncCommand) Validate() error {
	for _, key := range c.CollectionKeys {
		if strings.TrimSpace(key) == "" {
			return &application.ValidationError{
				Field:   "collectionKey",
				Message: "collection key cannot be empty",
			}
		}
		if strings.ContainsAny(key, "/\\ ") {
			return &application.ValidationError{
				Field:   "collectionKey",
				Message: fmt.Sprintf("invalid collection key: %q", key),
			}
		}
	}
	return nil
}

// Execute runs the sync. A run that completes with item failures is not an error.
func (c *SyncCommand) Execute(ctx context.Context) (*SyncResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	run, err := c.runner.Run(ctx, syncer.RunOptions{
		ForceFullSync:  c.ForceFullSync,
		CollectionKeys: c.CollectionKeys,
		DryRun:         c.DryRun,
	})
	if err != nil {
		return &SyncResult{Run: run}, fmt.Errorf("sync failed: %w", err)
	}

	return &SyncResult{Run: run, Message: syncMessage(run, c.DryRun)}, nil
}

func syncMessage(run *syncer.RunResult, dryRun bool) string {
	if dryRun && run.Plan != nil {
		if run.Plan.IsEmpty() {
			return fmt.Sprintf("Dry run %d: nothing to do, %d unchanged", run.RunID, run.Plan.UnchangedCount)
		}
		return fmt.Sprintf("Dry run %d: %d to create, %d to update, %d to delete, %d unchanged",
			run.RunID, run.Plan.Added, run.Plan.Updated, len(run.Plan.ToDelete), run.Plan.UnchangedCount)
	}

	msg := fmt.Sprintf("Run %d %s in %s: %s", run.RunID, run.Status, run.Duration.Round(time.Millisecond), report.CountsLine(run.Counts))
	if len(run.Errors) > 0 {
		msg += fmt.Sprintf(" (%d errors)", len(run.Errors))
	}
	return msg
}

var _ Runner = (*syncer.Orchestrator)(nil)
