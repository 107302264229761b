package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/nijaru/yt-blog/errors"
	"github.com/nijaru/yt-blog/models"
)

type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Save inserts the job or updates its mutable fields. Writes that hit a
// locked database are retried a few times.
func (r *Repository) Save(ctx context.Context, job *models.Job) error {
	const op = "SQLiteRepository.Save"

	var err error
	for i := 0; i <= r.db.config.BusyRetries; i++ {
		if err = r.save(ctx, job); err == nil {
			return nil
		}
		if !isLockError(err) {
			return errors.Internal(op, err, "Failed to save job")
		}

		select {
		case <-ctx.Done():
			return errors.Internal(op, ctx.Err(), "context cancelled")
		case <-time.After(r.db.config.BusyDelay * time.Duration(i+1)):
		}
	}
	return errors.Internal(op, err, "Failed after retries")
}

func (r *Repository) save(ctx context.Context, job *models.Job) error {
	_, err := r.db.statements.upsert.ExecContext(ctx,
		job.ID,
		string(job.Kind),
		job.URL,
		string(job.Status),
		job.Error,
		job.OutputLength,
		job.CreatedAt.UTC(),
		job.UpdatedAt.UTC(),
	)
	return err
}

func (r *Repository) Find(ctx context.Context, id string) (*models.Job, error) {
	const op = "SQLiteRepository.Find"

	job := &models.Job{}
	var kind, status string

	err := r.db.statements.get.QueryRowContext(ctx, id).Scan(
		&job.ID,
		&kind,
		&job.URL,
		&status,
		&job.Error,
		&job.OutputLength,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "Job not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to query job")
	}

	job.Kind = models.Kind(kind)
	job.Status = models.Status(status)
	return job, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func isLockError(err error) bool {
	return strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "busy")
}
