package inference

import (
	"context"
	"strings"

	"github.com/nijaru/yt-blog/config"
	"github.com/nijaru/yt-blog/downloader"
	"github.com/nijaru/yt-blog/scripts"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// Transcriber turns a local audio file into its transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio *downloader.Audio) (string, error)
}

// AudioClient is the part of the go-openai client the whisper transcriber
// uses. *openai.Client satisfies it.
type AudioClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// Whisper talks to an OpenAI-compatible speech endpoint. By default that
// is a whisper server on localhost that keeps the model loaded.
type Whisper struct {
	client AudioClient
	model  string
}

func NewWhisper(baseURL, apiKey, model string) *Whisper {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return NewWhisperWithClient(openai.NewClientWithConfig(cfg), model)
}

func NewWhisperWithClient(client AudioClient, model string) *Whisper {
	if model == "" {
		model = openai.Whisper1
	}
	return &Whisper{client: client, model: model}
}

func (w *Whisper) Transcribe(ctx context.Context, audio *downloader.Audio) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audio.Path,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", errors.Wrap(err, "transcription request failed")
	}
	return strings.TrimSpace(resp.Text), nil
}

// Script runs a local whisper model through the Python script runner.
type Script struct {
	runner *scripts.Runner
	model  string
}

func NewScript(runner *scripts.Runner, model string) *Script {
	return &Script{runner: runner, model: model}
}

func (s *Script) Transcribe(ctx context.Context, audio *downloader.Audio) (string, error) {
	result, err := s.runner.Transcribe(ctx, audio.Path, s.model)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}

// NewTranscriber returns the backend selected by cfg.Backend.
func NewTranscriber(cfg config.WhisperConfig) (Transcriber, error) {
	switch cfg.Backend {
	case config.TranscriberWhisper, "":
		return NewWhisper(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case config.TranscriberScript:
		runner, err := scripts.NewRunner(scripts.Config{
			PythonPath:  cfg.PythonPath,
			ScriptsPath: cfg.ScriptsPath,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize script runner")
		}
		return NewScript(runner, cfg.Model), nil
	default:
		return nil, errors.Errorf("unknown transcriber %q", cfg.Backend)
	}
}
