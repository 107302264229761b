package downloader

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Native resolves YouTube streams in-process and only shells out to ffmpeg
// for the transcode.
type Native struct {
	client     *youtube.Client
	ffmpegPath string
	quality    string
	logger     *logrus.Logger
}

func NewNative(ffmpegPath, quality string) *Native {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if quality == "" {
		quality = "192"
	}
	return &Native{
		client:     &youtube.Client{},
		ffmpegPath: ffmpegPath,
		quality:    quality,
		logger:     logrus.StandardLogger(),
	}
}

func (n *Native) Download(ctx context.Context, url string, dir string) (*Audio, error) {
	video, err := n.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, &DownloadError{URL: url, Msg: "failed to resolve video: " + err.Error(), Err: err}
	}

	format := selectAudioFormat(video.Formats)
	if format == nil {
		return nil, &DownloadError{URL: url, Msg: "no audio stream available for " + video.ID}
	}

	n.logger.WithFields(logrus.Fields{
		"video_id": video.ID,
		"itag":     format.ItagNo,
		"mime":     format.MimeType,
		"bitrate":  format.Bitrate,
	}).Debug("Selected audio format")

	source := filepath.Join(dir, "source"+sourceExt(format.MimeType))
	if err := n.fetch(ctx, video, format, source); err != nil {
		return nil, &DownloadError{URL: url, Msg: "failed to download audio stream: " + err.Error(), Err: err}
	}
	defer os.Remove(source)

	target := audioPath(dir)
	if err := n.transcode(ctx, source, target); err != nil {
		return nil, err
	}

	return &Audio{Path: target, MIMEType: AudioMIME}, nil
}

func (n *Native) fetch(ctx context.Context, video *youtube.Video, format *youtube.Format, path string) error {
	stream, _, err := n.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return err
	}
	defer stream.Close()

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(file, stream); err != nil {
		return err
	}
	return file.Sync()
}

func (n *Native) transcode(ctx context.Context, source, target string) error {
	cmd := exec.CommandContext(ctx, n.ffmpegPath,
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", source,
		"-vn",
		"-codec:a", "libmp3lame",
		"-b:a", n.quality+"k",
		target,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "ffmpeg: %s", strings.TrimSpace(stderr.String()))
	}
	return nil
}

// selectAudioFormat picks the audio-only format with the highest bitrate,
// preferring mp4 containers on ties.
func selectAudioFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate ||
			(f.Bitrate == best.Bitrate && isMP4(f) && !isMP4(best)) {
			best = f
		}
	}
	return best
}

func isMP4(f *youtube.Format) bool {
	return strings.Contains(f.MimeType, "mp4")
}

func sourceExt(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "mp4"):
		return ".m4a"
	case strings.Contains(mimeType, "webm"):
		return ".webm"
	default:
		return ".bin"
	}
}
