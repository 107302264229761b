package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nijaru/yt-blog/errors"
)

const (
	upsertJobQuery = `
        INSERT INTO jobs (
            id, kind, url, status, error, output_length, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            status = excluded.status,
            error = excluded.error,
            output_length = excluded.output_length,
            updated_at = excluded.updated_at
    `

	getJobQuery = `
        SELECT id, kind, url, status, error, output_length, created_at, updated_at
        FROM jobs WHERE id = ?
    `
)

type PreparedStatements struct {
	upsert *sql.Stmt
	get    *sql.Stmt
}

func (stmts *PreparedStatements) Prepare(ctx context.Context, db *sql.DB) error {
	const op = "PreparedStatements.Prepare"

	var err error

	if stmts.upsert, err = db.PrepareContext(ctx, upsertJobQuery); err != nil {
		return errors.Internal(op, err, "failed to prepare upsert statement")
	}

	if stmts.get, err = db.PrepareContext(ctx, getJobQuery); err != nil {
		return errors.Internal(op, err, "failed to prepare get statement")
	}

	return nil
}

func (stmts *PreparedStatements) Close() error {
	var errs []error

	for _, stmt := range [...]*sql.Stmt{stmts.upsert, stmts.get} {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to close prepared statements: %v", errs)
	}

	return nil
}
