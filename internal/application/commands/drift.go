package commands

import (
	"context"
	"fmt"

	"github.com/jooleearr/chatty-boxy/internal/application/syncer"
	"github.com/jooleearr/chatty-boxy/internal/domain"
)

// DriftFinder compares records with artifacts; satisfied by *syncer.Detector
type DriftFinder interface {
	FindArtifactDrift(ctx context.Context) (*domain.Drift, error)
}

// DriftResult contains missing and orphaned artifacts
type DriftResult struct {
	Drift   *domain.Drift
	Message string
}

// DriftCommand reports records without artifacts and artifacts without records
type DriftCommand struct {
	finder DriftFinder
}

// NewDriftCommand creates a new DriftCommand
func NewDriftCommand(finder DriftFinder) *DriftCommand {
	return &DriftCommand{finder: finder}
}

// Execute runs the drift command
func (c *DriftCommand) Execute(ctx context.Context) (*DriftResult, error) {
	drift, err := c.finder.FindArtifactDrift(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check drift: %w", err)
	}

	msg := "Records and artifacts agree"
	if !drift.Clean() {
		msg = fmt.Sprintf("%d missing artifacts, %d orphaned artifacts",
			len(drift.MissingArtifacts), len(drift.OrphanedArtifacts))
	}

	return &DriftResult{Drift: drift, Message: msg}, nil
}

var _ DriftFinder = (*syncer.Detector)(nil)
