package commands

import (
	"context"
	"fmt"

	"github.com/jooleearr/chatty-boxy/internal/application"
	"github.com/jooleearr/chatty-boxy/internal/domain"
	"github.com/jooleearr/chatty-boxy/internal/ports"
)

const maxRunsLimit = 500

// ListRunsResult contains the most recent runs, newest first
type ListRunsResult struct {
	Runs    []domain.RunRecord
	Message string
}

// ListRunsCommand lists the run ledger
type ListRunsCommand struct {
	ledger ports.RunLedger
	Limit  int
}

// NewListRunsCommand creates a new ListRunsCommand
func NewListRunsCommand(ledger ports.RunLedger, limit int) *ListRunsCommand {
	return &ListRunsCommand{
		ledger: ledger,
		Limit:  limit,
	}
}

// Validate checks the limit
func (c *ListRunsCommand) Validate() error {
	if err := application.ValidatePositive("limit", c.Limit); err != nil {
		return err
	}
	if c.Limit > maxRunsLimit {
		return &application.ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("limit cannot exceed %d", maxRunsLimit),
		}
	}
	return nil
}

// Execute runs the list runs command
func (c *ListRunsCommand) Execute(ctx context.Context) (*ListRunsResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	runs, err := c.ledger.ListRuns(ctx, c.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return &ListRunsResult{
		Runs:    runs,
		Message: fmt.Sprintf("%d runs", len(runs)),
	}, nil
}
