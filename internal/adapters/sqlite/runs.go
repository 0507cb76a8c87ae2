package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jooleearr/chatty-boxy/internal/domain"
)

const runColumns = `id, started_at, completed_at, added, updated, deleted, skipped, failed, status, error_summary`

func scanRun(row rowScanner) (*domain.RunRecord, error) {
	var r domain.RunRecord
	var startedAt int64
	var completedAt sql.NullInt64
	var status string
	var summary sql.NullString

	if err := row.Scan(&r.ID, &startedAt, &completedAt,
		&r.Counts.Added, &r.Counts.Updated, &r.Counts.Deleted, &r.Counts.Skipped, &r.Counts.Failed,
		&status, &summary); err != nil {
		return nil, err
	}

	r.StartedAt = time.UnixMilli(startedAt).UTC()
	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64).UTC()
		r.CompletedAt = &t
	}
	r.Status = domain.RunStatus(status)
	if summary.Valid {
		r.ErrorSummary = &summary.String
	}
	return &r, nil
}

// StartRun appends a run in the running state
func (s *Store) StartRun(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (started_at, status) VALUES (?, ?)`,
		time.Now().UnixMilli(), string(domain.RunRunning))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// CompleteRun closes a run as completed
func (s *Store) CompleteRun(ctx context.Context, runID int64, counts domain.RunCounts, summary string) error {
	return s.finishRun(ctx, runID, domain.RunCompleted, counts, summary)
}

// FailRun closes a run as failed
func (s *Store) FailRun(ctx context.Context, runID int64, counts domain.RunCounts, summary string) error {
	return s.finishRun(ctx, runID, domain.RunFailed, counts, summary)
}

func (s *Store) finishRun(ctx context.Context, runID int64, status domain.RunStatus, c domain.RunCounts, summary string) error {
	var errSummary sql.NullString
	if summary != "" {
		errSummary = sql.NullString{String: summary, Valid: true}
	}

	// Only an open run can be closed
	res, err := s.db.ExecContext(ctx, `
		UPDATE sync_runs
		SET completed_at = ?, added = ?, updated = ?, deleted = ?, skipped = ?, failed = ?,
			status = ?, error_summary = ?
		WHERE id = ? AND status = ?
	`, time.Now().UnixMilli(), c.Added, c.Updated, c.Deleted, c.Skipped, c.Failed,
		string(status), errSummary, runID, string(domain.RunRunning))
	if err != nil {
		return fmt.Errorf("update run %d: %w", runID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %d is not open", runID)
	}
	return nil
}

// GetLastRun returns the most recently started run
func (s *Store) GetLastRun(ctx context.Context) (*domain.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM sync_runs ORDER BY id DESC LIMIT 1`)

	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListRuns returns up to limit runs, newest first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryRuns(ctx, `SELECT `+runColumns+` FROM sync_runs ORDER BY id DESC LIMIT ?`, limit)
}

// StalledRuns lists runs still open that started more than olderThan ago
func (s *Store) StalledRuns(ctx context.Context, olderThan time.Duration) ([]domain.RunRecord, error) {
	cutoff := time.Now().Add(-olderThan).UnixMilli()
	return s.queryRuns(ctx, `
		SELECT `+runColumns+` FROM sync_runs
		WHERE status = ? AND started_at < ?
		ORDER BY id
	`, string(domain.RunRunning), cutoff)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]domain.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}

	return runs, rows.Err()
}
