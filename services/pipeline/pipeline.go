package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nijaru/yt-blog/downloader"
	"github.com/nijaru/yt-blog/models"
	"github.com/nijaru/yt-blog/repository"
	"github.com/nijaru/yt-blog/storage"
	"github.com/sirupsen/logrus"
)

// InferFunc turns acquired audio into text.
type InferFunc func(ctx context.Context, audio *downloader.Audio) (string, error)

type Config struct {
	// TempDir is the root under which each job gets its own workspace.
	TempDir string
	// ProcessTimeout bounds a whole job. Zero means no limit.
	ProcessTimeout time.Duration
}

// Pipeline runs one job: acquire audio into a private workspace, infer,
// then journal and archive the outcome. Journal and archive are optional
// and their failures never fail the job.
type Pipeline struct {
	downloader downloader.Downloader
	repo       repository.JobRepository
	archiver   storage.Archiver
	config     Config
	logger     *logrus.Logger
}

func New(
	d downloader.Downloader,
	repo repository.JobRepository,
	archiver storage.Archiver,
	config Config,
	logger *logrus.Logger,
) *Pipeline {
	if archiver == nil {
		archiver = storage.Nop{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{
		downloader: d,
		repo:       repo,
		archiver:   archiver,
		config:     config,
		logger:     logger,
	}
}

// Run executes a job of the given kind and returns the job record along
// with the produced text. The returned error is the raw pipeline error;
// callers decide how it is presented.
func (p *Pipeline) Run(ctx context.Context, kind models.Kind, url string, infer InferFunc) (*models.Job, string, error) {
	now := time.Now()
	job := &models.Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		URL:       url,
		Status:    models.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}

	logger := p.logger.WithFields(logrus.Fields{
		"job_id": job.ID,
		"kind":   kind,
		"url":    url,
	})
	logger.Info("Starting job")
	p.record(ctx, logger, job)

	if p.config.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.ProcessTimeout)
		defer cancel()
	}

	var text string
	err := downloader.Acquire(ctx, p.downloader, p.config.TempDir, url, func(audio *downloader.Audio) error {
		var err error
		text, err = infer(ctx, audio)
		return err
	})
	if err != nil {
		job.Fail(err)
		logger.WithError(err).WithField("duration", job.Duration()).Error("Job failed")
		p.record(context.WithoutCancel(ctx), logger, job)
		return job, "", err
	}

	job.Complete(len(text))
	logger.WithFields(logrus.Fields{
		"duration":      job.Duration(),
		"output_length": job.OutputLength,
	}).Info("Job completed")

	bg := context.WithoutCancel(ctx)
	p.record(bg, logger, job)
	if err := p.archiver.Archive(bg, job, text); err != nil {
		logger.WithError(err).Warn("Failed to archive output")
	}

	return job, text, nil
}

func (p *Pipeline) record(ctx context.Context, logger *logrus.Entry, job *models.Job) {
	if p.repo == nil {
		return
	}
	if err := p.repo.Save(ctx, job); err != nil {
		logger.WithError(err).Warn("Failed to record job")
	}
}
