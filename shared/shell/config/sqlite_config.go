package config

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // sqlite driver
)

// SQLiteDB opens an embedded sqlite database at the given path with the
// pragmas the ledger engine relies on: WAL for concurrent readers, foreign
// keys on, and a busy timeout instead of immediate SQLITE_BUSY failures.
// Use ":memory:" for an in-process throwaway database.
func SQLiteDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// A single writer connection keeps transactions serialized.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, execErr)
		}
	}

	return db, nil
}
