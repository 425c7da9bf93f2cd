package kv

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/extkeeper/internal/filex"
	_ "modernc.org/sqlite"
)

var sqliteQueries = sqlQueries{
	upsert: `INSERT INTO kv_hashes (hash_key, field, value)
		VALUES (?, ?, ?)
		ON CONFLICT (hash_key, field) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
	get:    `SELECT value FROM kv_hashes WHERE hash_key = ? AND field = ?`,
	getAll: `SELECT field, value FROM kv_hashes WHERE hash_key = ?`,
	del:    `DELETE FROM kv_hashes WHERE hash_key = ? AND field = ?`,
}

// NewSQLiteStore opens (creating if needed) the database file at path and
// applies the embedded migrations. Other processes sharing the file wait on
// the busy timeout instead of failing.
func NewSQLiteStore(ctx context.Context, path string) (*SQLStore, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	// one connection; SQLite serialises writers anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, unavailable("sqlite ping", err)
	}

	if err := gooseUp(ctx, db, "sqlite3", "sqlite"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return newSQLStore(db, sqliteQueries), nil
}
