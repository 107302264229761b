package blog

import (
	"context"
	"fmt"

	"github.com/nijaru/yt-blog/downloader"
	"github.com/nijaru/yt-blog/errors"
	"github.com/nijaru/yt-blog/inference"
	"github.com/nijaru/yt-blog/models"
	"github.com/nijaru/yt-blog/services/pipeline"
)

type Service interface {
	// Generate downloads the video's audio and returns a markdown blog post.
	Generate(ctx context.Context, url string) (string, error)
}

type service struct {
	pipeline  *pipeline.Pipeline
	generator inference.Generator
}

func NewService(p *pipeline.Pipeline, generator inference.Generator) Service {
	return &service{pipeline: p, generator: generator}
}

func (s *service) Generate(ctx context.Context, url string) (string, error) {
	const op = "BlogService.Generate"

	_, text, err := s.pipeline.Run(ctx, models.KindBlog, url, s.generator.Generate)
	if err != nil {
		return "", classify(op, err)
	}
	return text, nil
}

// classify maps download failures to 400 and everything else to 500.
func classify(op string, err error) *errors.AppError {
	if downloader.IsDownloadError(err) {
		return errors.InvalidInput(op, err, fmt.Sprintf("Couldn't download video: %s", err.Error()))
	}
	return errors.Internal(op, err, fmt.Sprintf("Error: %s", err.Error()))
}
