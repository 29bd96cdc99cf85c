package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mednerd/internal/logging"
	"mednerd/internal/types"

	_ "modernc.org/sqlite"
)

const conditionsSchema = `
CREATE TABLE IF NOT EXISTS conditions (
	position INTEGER PRIMARY KEY,
	condition TEXT NOT NULL UNIQUE COLLATE NOCASE,
	payload TEXT NOT NULL
);`

// SQLite persists the knowledge base in a single table, one row per entry,
// keeping insertion order in the position column.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	logging.StoreDebug("Opening SQLite knowledge base at %s", path)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}

	if _, err := db.Exec(conditionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create conditions table: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) String() string { return "sqlite:" + s.path }

// Load returns all rows in position order.
func (s *SQLite) Load(ctx context.Context) ([]types.ConditionEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM conditions ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query conditions: %w", err)
	}
	defer rows.Close()

	var entries []types.ConditionEntry
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan condition: %w", err)
		}
		var e types.ConditionEntry
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("failed to decode condition payload: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Save replaces the table contents in one transaction.
func (s *SQLite) Save(ctx context.Context, entries []types.ConditionEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM conditions"); err != nil {
		return fmt.Errorf("failed to clear conditions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO conditions (position, condition, payload) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", e.Condition, err)
		}
		if _, err := stmt.ExecContext(ctx, i, e.Condition, string(payload)); err != nil {
			return fmt.Errorf("failed to insert %q: %w", e.Condition, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
