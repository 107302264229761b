package transcript

import (
	"context"

	"github.com/nijaru/yt-blog/errors"
	"github.com/nijaru/yt-blog/inference"
	"github.com/nijaru/yt-blog/models"
	"github.com/nijaru/yt-blog/services/pipeline"
)

type Service interface {
	// Transcribe downloads the video's audio and returns its transcript.
	Transcribe(ctx context.Context, url string) (string, error)
}

type service struct {
	pipeline    *pipeline.Pipeline
	transcriber inference.Transcriber
}

func NewService(p *pipeline.Pipeline, transcriber inference.Transcriber) Service {
	return &service{pipeline: p, transcriber: transcriber}
}

func (s *service) Transcribe(ctx context.Context, url string) (string, error) {
	const op = "TranscriptService.Transcribe"

	_, text, err := s.pipeline.Run(ctx, models.KindTranscription, url, s.transcriber.Transcribe)
	if err != nil {
		return "", errors.Internal(op, err, err.Error())
	}
	return text, nil
}
