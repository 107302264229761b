package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nijaru/yt-blog/models"
	"github.com/nijaru/yt-blog/services/transcript"
)

type TranscriptHandler struct {
	service transcript.Service
}

func NewTranscriptHandler(service transcript.Service) *TranscriptHandler {
	return &TranscriptHandler{service: service}
}

// Transcribe handles POST /transcribe.
func (h *TranscriptHandler) Transcribe(c *fiber.Ctx) error {
	url, err := parseVideoLink(c, "TranscriptHandler.Transcribe")
	if err != nil {
		return err
	}

	text, err := h.service.Transcribe(c.UserContext(), url)
	if err != nil {
		return err
	}

	return c.JSON(models.TranscriptionResponse{Transcription: text})
}
