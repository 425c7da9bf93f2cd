package kv

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"sort"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	"github.com/dmitrijs2005/extkeeper/internal/dbx"
	"github.com/dmitrijs2005/extkeeper/internal/kv/migrations"
	"github.com/pressly/goose/v3"
)

// sqlQueries differ between dialects only in placeholder style and the
// timestamp function.
type sqlQueries struct {
	upsert string
	get    string
	getAll string
	del    string
}

// SQLStore keeps hashes in the kv_hashes table, one row per (key, field).
// Multi-field writes run in one transaction.
type SQLStore struct {
	db *sql.DB
	q  sqlQueries
}

func newSQLStore(db *sql.DB, q sqlQueries) *SQLStore {
	return &SQLStore{db: db, q: q}
}

// gooseUp is a seam for testing migrations.
var gooseUp = func(ctx context.Context, db *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(log.New(io.Discard, "", 0))
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, dir)
}

func (s *SQLStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	// fixed order keeps lock acquisition consistent between writers
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, f := range names {
			if _, err := tx.ExecContext(ctx, s.q.upsert, key, f, fields[f]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return unavailable("db hset", err)
	}
	return nil
}

func (s *SQLStore) HGet(ctx context.Context, key, field string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.q.get, key, field).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", unavailable("db hget", err)
	}
	return v, nil
}

func (s *SQLStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q.getAll, key)
	if err != nil {
		return nil, unavailable("db hgetall", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var f, v string
		if err := rows.Scan(&f, &v); err != nil {
			return nil, unavailable("db hgetall", err)
		}
		out[f] = v
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("db hgetall", err)
	}
	return out, nil
}

func (s *SQLStore) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}

	var total int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, f := range fields {
			res, err := tx.ExecContext(ctx, s.q.del, key, f)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, unavailable("db hdel", err)
	}
	return total, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("db ping", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
