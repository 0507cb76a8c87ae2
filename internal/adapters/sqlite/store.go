package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jooleearr/chatty-boxy/internal/ports"
)

const schemaVersion = "2"

// Store implements the record store, run ledger and index ref cache on SQLite
type Store struct {
	db *sql.DB
}

// Ensure Store implements the persistence ports
var (
	_ ports.RecordStore   = (*Store)(nil)
	_ ports.RunLedger     = (*Store)(nil)
	_ ports.IndexRefCache = (*Store)(nil)
)

// NewStore creates a new SQLite store
func NewStore() *Store {
	return &Store{}
}

// Open creates the database file if needed and applies the schema
func (s *Store) Open(dbPath string) error {
	dbPath, err := expandHome(dbPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer
	db.SetMaxOpenConns(1)
	s.db = db

	// Pragmas + schema in a single batch
	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS synced_records (
			id TEXT PRIMARY KEY,
			collection_key TEXT NOT NULL,
			title TEXT NOT NULL,
			version INTEGER NOT NULL,
			last_synced_at INTEGER NOT NULL,
			artifact_location TEXT NOT NULL,
			external_index_ref TEXT,
			source_url TEXT NOT NULL DEFAULT '',
			index_pending INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS sync_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at INTEGER NOT NULL,
			completed_at INTEGER,
			added INTEGER NOT NULL DEFAULT 0,
			updated INTEGER NOT NULL DEFAULT 0,
			deleted INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error_summary TEXT
		);
		CREATE TABLE IF NOT EXISTS index_ref (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			name TEXT NOT NULL,
			display_name TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			last_used_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_records_collection ON synced_records(collection_key);
		CREATE INDEX IF NOT EXISTS idx_runs_status ON sync_runs(status);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return err
	}

	if _, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return fmt.Errorf("failed to update metadata: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// migrate upgrades databases created by older schema versions
func (s *Store) migrate() error {
	version, err := s.SchemaVersion(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version == "1" {
		if _, err := s.db.Exec(`ALTER TABLE synced_records ADD COLUMN index_pending INTEGER NOT NULL DEFAULT 0`); err != nil {
			return fmt.Errorf("failed to migrate schema 1: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the stored schema version, or "" if unset
func (s *Store) SchemaVersion(ctx context.Context) (string, error) {
	var version string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return version, err
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
