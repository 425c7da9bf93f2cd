package kv

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var postgresQueries = sqlQueries{
	upsert: `INSERT INTO kv_hashes (hash_key, field, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (hash_key, field) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
	get:    `SELECT value FROM kv_hashes WHERE hash_key = $1 AND field = $2`,
	getAll: `SELECT field, value FROM kv_hashes WHERE hash_key = $1`,
	del:    `DELETE FROM kv_hashes WHERE hash_key = $1 AND field = $2`,
}

// NewPostgresStore opens dsn with the pgx driver, pings it and applies the
// embedded migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, unavailable("postgres ping", err)
	}

	if err := gooseUp(ctx, db, "pgx", "postgres"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return NewPostgresStoreFromDB(db), nil
}

// NewPostgresStoreFromDB wraps an already migrated database handle.
func NewPostgresStoreFromDB(db *sql.DB) *SQLStore {
	return newSQLStore(db, postgresQueries)
}
