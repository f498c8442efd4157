// Package db provides shared Postgres helpers for bulk loading.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom bulk-inserts rows into a table using the PostgreSQL COPY protocol.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	return n, nil
}

// ReplaceRows deletes the rows of table matching key = value and copies the
// new rows in, inside one transaction.
func ReplaceRows(ctx context.Context, pool Pool, table, key string, value any, columns []string, rows [][]any) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	del := "DELETE FROM " + pgx.Identifier{table}.Sanitize() + " WHERE " + pgx.Identifier{key}.Sanitize() + " = $1"
	if _, err := tx.Exec(ctx, del, value); err != nil {
		return 0, eris.Wrapf(err, "db: clear %s", table)
	}

	var n int64
	if len(rows) > 0 {
		n, err = tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: commit tx")
	}
	return n, nil
}
