package repository

import (
	"context"

	"github.com/nijaru/yt-blog/models"
)

// JobRepository records the lifecycle of pipeline jobs.
type JobRepository interface {
	Save(ctx context.Context, job *models.Job) error
	Find(ctx context.Context, id string) (*models.Job, error)
	Close() error
}
