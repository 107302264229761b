package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nijaru/yt-blog/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// AudioFormat is the codec every backend transcodes to.
	AudioFormat = "mp3"
	AudioMIME   = "audio/mp3"

	audioBaseName = "audio"
)

// ErrAudioMissing is returned when a backend reported success but the
// transcoded file is not where it should be.
var ErrAudioMissing = errors.New("Audio file not found after download")

// Audio is a transcoded audio file inside a job workspace.
type Audio struct {
	Path     string
	MIMEType string
}

// Downloader fetches the best audio stream of url and writes it, transcoded
// to AudioFormat, into dir.
type Downloader interface {
	Download(ctx context.Context, url string, dir string) (*Audio, error)
}

// DownloadError is a failure to fetch the media itself: network errors,
// unavailable or unsupported videos, extraction errors.
type DownloadError struct {
	URL string
	Msg string
	Err error
}

func (e *DownloadError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("failed to download %s", e.URL)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

func IsDownloadError(err error) bool {
	var dlErr *DownloadError
	return errors.As(err, &dlErr)
}

// New returns the backend selected by cfg.Downloader.
func New(cfg config.MediaConfig) (Downloader, error) {
	switch cfg.Downloader {
	case config.DownloaderYtDlp, "":
		return NewYtDlp(cfg.YtDlpPath, cfg.AudioQuality), nil
	case config.DownloaderNative:
		return NewNative(cfg.FFmpegPath, cfg.AudioQuality), nil
	default:
		return nil, errors.Errorf("unknown downloader %q", cfg.Downloader)
	}
}

// Workspace is a temporary directory private to one job.
type Workspace struct {
	dir string
}

func NewWorkspace(root string) (*Workspace, error) {
	dir, err := os.MkdirTemp(root, "job-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create job workspace")
	}
	return &Workspace{dir: dir}, nil
}

func (w *Workspace) Dir() string { return w.dir }

func (w *Workspace) Close() error {
	if err := os.RemoveAll(w.dir); err != nil {
		logrus.WithError(err).WithField("dir", w.dir).Error("Failed to remove job workspace")
		return err
	}
	return nil
}

// Acquire downloads url into a fresh workspace under root and hands the
// audio to fn. The workspace is removed when Acquire returns, whatever the
// outcome.
func Acquire(ctx context.Context, d Downloader, root, url string, fn func(*Audio) error) error {
	ws, err := NewWorkspace(root)
	if err != nil {
		return err
	}
	defer ws.Close()

	logger := logrus.WithFields(logrus.Fields{
		"url":       url,
		"workspace": ws.Dir(),
	})
	logger.Debug("Downloading audio")

	audio, err := d.Download(ctx, url, ws.Dir())
	if err != nil {
		return err
	}

	if audio == nil || audio.Path == "" {
		return ErrAudioMissing
	}
	if _, err := os.Stat(audio.Path); err != nil {
		logger.WithError(err).WithField("path", audio.Path).Error("Audio file missing after download")
		return ErrAudioMissing
	}

	logger.WithField("path", audio.Path).Debug("Audio downloaded")
	return fn(audio)
}

func audioPath(dir string) string {
	return filepath.Join(dir, audioBaseName+"."+AudioFormat)
}
