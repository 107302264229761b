package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nijaru/yt-blog/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    url TEXT NOT NULL,
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    output_length INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
`

type DBConfig struct {
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	BusyRetries        int
	BusyDelay          time.Duration
}

func DefaultDBConfig() DBConfig {
	return DBConfig{
		MaxConnections:     10,
		MaxIdleConnections: 5,
		ConnMaxLifetime:    time.Hour,
		BusyRetries:        3,
		BusyDelay:          100 * time.Millisecond,
	}
}

// DB owns the sqlite handle and its prepared statements.
type DB struct {
	db         *sql.DB
	statements *PreparedStatements
	config     DBConfig
}

func Open(ctx context.Context, dbPath string, config DBConfig) (*DB, error) {
	const op = "sqlite.Open"

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.Internal(op, err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Internal(op, err, "failed to open database")
	}

	db.SetMaxOpenConns(config.MaxConnections)
	db.SetMaxIdleConns(config.MaxIdleConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := configurePragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := execSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	stmts := &PreparedStatements{}
	if err := stmts.Prepare(ctx, db); err != nil {
		stmts.Close()
		db.Close()
		return nil, err
	}

	return &DB{db: db, statements: stmts, config: config}, nil
}

func (d *DB) Close() error {
	stmtErr := d.statements.Close()
	if err := d.db.Close(); err != nil {
		return err
	}
	return stmtErr
}

func configurePragmas(ctx context.Context, db *sql.DB) error {
	const op = "sqlite.configurePragmas"

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return errors.Internal(op, err, fmt.Sprintf("failed to set pragma: %s", pragma))
		}
	}

	return nil
}

func execSchema(ctx context.Context, db *sql.DB) error {
	const op = "sqlite.execSchema"

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Internal(op, err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Internal(op, err, fmt.Sprintf("failed to execute schema statement: %s", stmt))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Internal(op, err, "failed to commit schema transaction")
	}

	return nil
}
