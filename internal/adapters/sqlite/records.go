package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jooleearr/chatty-boxy/internal/domain"
)

const recordColumns = `id, collection_key, title, version, last_synced_at, artifact_location, external_index_ref, source_url, index_pending`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.SyncedRecord, error) {
	var r domain.SyncedRecord
	var syncedAt int64
	var ref sql.NullString

	if err := row.Scan(&r.ID, &r.CollectionKey, &r.Title, &r.Version, &syncedAt,
		&r.ArtifactLocation, &ref, &r.SourceURL, &r.IndexPending); err != nil {
		return nil, err
	}

	r.LastSyncedAt = time.UnixMilli(syncedAt).UTC()
	if ref.Valid {
		r.ExternalIndexRef = &ref.String
	}
	return &r, nil
}

// Get retrieves a record by item ID
func (s *Store) Get(ctx context.Context, id string) (*domain.SyncedRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM synced_records WHERE id = ?`, id)

	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetByCollection returns all records in a collection, ordered by ID
func (s *Store) GetByCollection(ctx context.Context, collectionKey string) ([]domain.SyncedRecord, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM synced_records WHERE collection_key = ? ORDER BY id`, collectionKey)
}

// GetAll returns every record, ordered by collection and ID
func (s *Store) GetAll(ctx context.Context) ([]domain.SyncedRecord, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM synced_records ORDER BY collection_key, id`)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]domain.SyncedRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.SyncedRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}

	return records, rows.Err()
}

// Upsert inserts or replaces the record for r.ID
func (s *Store) Upsert(ctx context.Context, r *domain.SyncedRecord) error {
	var ref sql.NullString
	if r.ExternalIndexRef != nil {
		ref = sql.NullString{String: *r.ExternalIndexRef, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO synced_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.CollectionKey, r.Title, r.Version, r.LastSyncedAt.UnixMilli(),
		r.ArtifactLocation, ref, r.SourceURL, r.IndexPending)
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", r.ID, err)
	}
	return nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM synced_records WHERE id = ?`, id)
	return err
}

// CountByCollection returns the number of records per collection key
func (s *Store) CountByCollection(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT collection_key, COUNT(*) FROM synced_records GROUP BY collection_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}

	return counts, rows.Err()
}
