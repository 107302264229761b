package inference

import (
	"context"
	"os"
	"strings"

	"github.com/nijaru/yt-blog/downloader"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// BlogPrompt is the instruction sent alongside the audio.
const BlogPrompt = "Generate a detailed blog post from this audio. Include markdown formatting."

// Generator turns audio into long-form text with a hosted generative model.
type Generator interface {
	Generate(ctx context.Context, audio *downloader.Audio) (string, error)
}

// ContentGenerator is the part of the genai client the Gemini generator
// uses. *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

type Gemini struct {
	models ContentGenerator
	model  string
	prompt string
	logger *logrus.Logger
}

// NewGemini builds the long-lived Gemini handle shared by all requests.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("GENAI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create genai client")
	}

	return NewGeminiWithModels(client.Models, model), nil
}

func NewGeminiWithModels(models ContentGenerator, model string) *Gemini {
	return &Gemini{
		models: models,
		model:  model,
		prompt: BlogPrompt,
		logger: logrus.StandardLogger(),
	}
}

func (g *Gemini) Generate(ctx context.Context, audio *downloader.Audio) (string, error) {
	data, err := os.ReadFile(audio.Path)
	if err != nil {
		return "", errors.Wrap(err, "failed to read audio")
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: g.prompt},
			{InlineData: &genai.Blob{MIMEType: audio.MIMEType, Data: data}},
		},
	}}

	g.logger.WithFields(logrus.Fields{
		"model":       g.model,
		"audio_bytes": len(data),
	}).Debug("Requesting blog generation")

	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", errors.Wrap(err, "content generation failed")
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", errors.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("model returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", errors.Errorf("model returned no content (finish reason: %s)", candidate.FinishReason)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}

	if sb.Len() == 0 {
		return "", errors.New("model returned empty text")
	}
	return sb.String(), nil
}
