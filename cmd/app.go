package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nijaru/yt-blog/config"
	"github.com/nijaru/yt-blog/downloader"
	"github.com/nijaru/yt-blog/inference"
	"github.com/nijaru/yt-blog/logger"
	"github.com/nijaru/yt-blog/repository"
	"github.com/nijaru/yt-blog/repository/sqlite"
	"github.com/nijaru/yt-blog/server"
	"github.com/nijaru/yt-blog/services/blog"
	"github.com/nijaru/yt-blog/services/pipeline"
	"github.com/nijaru/yt-blog/services/transcript"
	"github.com/nijaru/yt-blog/storage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// mount says which pipeline endpoints a command exposes.
type mount struct {
	blog       bool
	transcript bool
}

func runServer(ctx context.Context, m mount) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if port != "" {
		cfg.ServerPort = port
	}

	access, logCloser, err := logger.Setup(logger.Options{
		Dir:   cfg.LogDir,
		Level: cfg.LogLevel,
		Debug: cfg.Debug,
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	defer logCloser.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcs, closer, err := build(ctx, cfg, m)
	if err != nil {
		logrus.WithError(err).Error("Startup failed")
		return err
	}
	defer closer.Close()

	return server.Run(ctx, server.New(cfg, access, svcs), cfg)
}

// build wires the long-lived collaborators for the mounted endpoints. The
// returned closer releases the job journal.
func build(ctx context.Context, cfg *config.Config, m mount) (server.Services, io.Closer, error) {
	var svcs server.Services

	if m.blog {
		if err := cfg.RequireGenAI(); err != nil {
			return svcs, nil, err
		}
	}

	d, err := downloader.New(cfg.Media)
	if err != nil {
		return svcs, nil, err
	}

	archiver, err := storage.New(ctx, cfg.Archive)
	if err != nil {
		return svcs, nil, errors.Wrap(err, "failed to initialize archive")
	}

	var (
		repo   repository.JobRepository
		closer io.Closer = nopCloser{}
	)
	if cfg.Database.Path != "" {
		dbCfg := sqlite.DefaultDBConfig()
		if cfg.Database.MaxConnections > 0 {
			dbCfg.MaxConnections = cfg.Database.MaxConnections
		}
		db, err := sqlite.Open(ctx, cfg.Database.Path, dbCfg)
		if err != nil {
			return svcs, nil, err
		}
		r := sqlite.NewRepository(db)
		repo, closer = r, r
		svcs.Jobs = r
	}

	p := pipeline.New(d, repo, archiver, pipeline.Config{
		TempDir:        cfg.TempDir,
		ProcessTimeout: cfg.Media.ProcessTimeout,
	}, logrus.StandardLogger())

	if m.blog {
		gen, err := inference.NewGemini(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model)
		if err != nil {
			closer.Close()
			return server.Services{}, nil, err
		}
		svcs.Blog = blog.NewService(p, gen)
	}

	if m.transcript {
		tr, err := inference.NewTranscriber(cfg.Whisper)
		if err != nil {
			closer.Close()
			return server.Services{}, nil, err
		}
		svcs.Transcript = transcript.NewService(p, tr)
	}

	logrus.WithFields(logrus.Fields{
		"blog":        svcs.Blog != nil,
		"transcribe":  svcs.Transcript != nil,
		"journal":     svcs.Jobs != nil,
		"archive":     cfg.Archive.Bucket != "",
		"downloader":  cfg.Media.Downloader,
		"transcriber": cfg.Whisper.Backend,
	}).Info("Services initialized")

	return svcs, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
