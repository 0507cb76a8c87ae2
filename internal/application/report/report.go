// Package report builds the plain-text summaries stored in the run ledger
// and shown after a sync.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jooleearr/chatty-boxy/internal/domain"
)

// MaxErrorsShown caps how many error messages a summary lists
const MaxErrorsShown = 5

// Representative returns at most MaxErrorsShown errors and how many were left out
func Representative(errs []domain.SyncError) ([]domain.SyncError, int) {
	if len(errs) <= MaxErrorsShown {
		return errs, 0
	}
	return errs[:MaxErrorsShown], len(errs) - MaxErrorsShown
}

// ErrorSummary renders errors one per line, followed by a suppressed count.
// Returns "" when there are no errors.
func ErrorSummary(errs []domain.SyncError) string {
	if len(errs) == 0 {
		return ""
	}

	shown, suppressed := Representative(errs)
	lines := make([]string, 0, len(shown)+1)
	for _, e := range shown {
		lines = append(lines, e.String())
	}
	if suppressed > 0 {
		lines = append(lines, fmt.Sprintf("... and %d more", suppressed))
	}
	return strings.Join(lines, "\n")
}

// CountsLine renders run counts on a single line
func CountsLine(c domain.RunCounts) string {
	return fmt.Sprintf("processed=%d added=%d updated=%d deleted=%d skipped=%d errored=%d",
		c.Processed(), c.Added, c.Updated, c.Deleted, c.Skipped, c.Failed)
}

// RunLine renders one ledger entry, e.g.
// "#4 completed 2026-03-01T09:00:00Z (42s) processed=3 ..."
func RunLine(r domain.RunRecord) string {
	took := "open"
	if d, ok := r.Duration(); ok {
		took = d.Round(time.Second).String()
	}
	return fmt.Sprintf("#%d %s %s (%s) %s",
		r.ID, r.Status, r.StartedAt.UTC().Format(time.RFC3339), took, CountsLine(r.Counts))
}
