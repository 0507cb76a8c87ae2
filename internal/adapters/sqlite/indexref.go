package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/jooleearr/chatty-boxy/internal/domain"
)

// GetIndexRef returns the cached search index reference, or nil if none
func (s *Store) GetIndexRef(ctx context.Context) (*domain.IndexRef, error) {
	var ref domain.IndexRef
	var createdAt, lastUsedAt int64

	err := s.db.QueryRowContext(ctx, `
		SELECT name, display_name, created_at, last_used_at
		FROM index_ref WHERE id = 1
	`).Scan(&ref.Name, &ref.DisplayName, &createdAt, &lastUsedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ref.CreatedAt = time.UnixMilli(createdAt).UTC()
	ref.LastUsedAt = time.UnixMilli(lastUsedAt).UTC()
	return &ref, nil
}

// SaveIndexRef replaces the cached reference
func (s *Store) SaveIndexRef(ctx context.Context, ref *domain.IndexRef) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO index_ref (id, name, display_name, created_at, last_used_at)
		VALUES (1, ?, ?, ?, ?)
	`, ref.Name, ref.DisplayName, ref.CreatedAt.UnixMilli(), ref.LastUsedAt.UnixMilli())
	return err
}

// TouchIndexRef bumps the last-used timestamp
func (s *Store) TouchIndexRef(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE index_ref SET last_used_at = ? WHERE id = 1`, time.Now().UnixMilli())
	return err
}
