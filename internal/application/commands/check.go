package commands

import (
	"context"
	"errors"

	"github.com/jooleearr/chatty-boxy/internal/ports"
)

// CheckResult reports whether the content source answered
type CheckResult struct {
	OK      bool
	Message string
}

// CheckCommand tests the connection to the content source
type CheckCommand struct {
	source ports.ContentSource
}

// NewCheckCommand creates a new CheckCommand
func NewCheckCommand(source ports.ContentSource) *CheckCommand {
	return &CheckCommand{source: source}
}

// Execute runs the check. An unreachable source is reported in the result;
// only a cancelled context is returned as an error.
func (c *CheckCommand) Execute(ctx context.Context) (*CheckResult, error) {
	if err := c.source.TestConnection(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return &CheckResult{OK: false, Message: err.Error()}, nil
	}
	return &CheckResult{OK: true, Message: "Connection OK"}, nil
}
