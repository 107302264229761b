package downloader

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// YtDlp downloads through the yt-dlp executable, which also drives ffmpeg
// for the audio extraction.
type YtDlp struct {
	path    string
	quality string
	logger  *logrus.Logger
}

func NewYtDlp(path, quality string) *YtDlp {
	if path == "" {
		path = "yt-dlp"
	}
	if quality == "" {
		quality = "192"
	}
	return &YtDlp{
		path:    path,
		quality: quality,
		logger:  logrus.StandardLogger(),
	}
}

func (y *YtDlp) Download(ctx context.Context, url string, dir string) (*Audio, error) {
	args := y.buildArgs(url, dir)

	y.logger.WithFields(logrus.Fields{
		"command": y.path,
		"args":    args,
	}).Debug("Executing yt-dlp")

	cmd := exec.CommandContext(ctx, y.path, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrap(ctxErr, "download interrupted")
		}

		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, errors.Wrapf(err, "failed to run %s", y.path)
		}

		y.logger.WithFields(logrus.Fields{
			"url":    url,
			"error":  err,
			"stderr": stderr.String(),
		}).Warn("yt-dlp failed")

		return nil, &DownloadError{
			URL: url,
			Msg: errorMessage(stderr.String(), err),
			Err: err,
		}
	}

	return &Audio{Path: audioPath(dir), MIMEType: AudioMIME}, nil
}

func (y *YtDlp) buildArgs(url, dir string) []string {
	return []string{
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", AudioFormat,
		"--audio-quality", y.quality + "K",
		"--output", filepath.Join(dir, audioBaseName+".%(ext)s"),
		"--quiet",
		"--no-warnings",
		"--no-playlist",
		"--no-progress",
		"--",
		url,
	}
}

// errorMessage extracts yt-dlp's ERROR lines from stderr, falling back to
// the whole output and then to the exit status.
func errorMessage(stderr string, err error) string {
	var lines []string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR:") {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 {
		return strings.Join(lines, "; ")
	}
	if msg := strings.TrimSpace(stderr); msg != "" {
		return msg
	}
	return err.Error()
}
