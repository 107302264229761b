package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nijaru/yt-blog/models"
	"github.com/nijaru/yt-blog/services/blog"
)

type BlogHandler struct {
	service blog.Service
}

func NewBlogHandler(service blog.Service) *BlogHandler {
	return &BlogHandler{service: service}
}

// Generate handles POST /generate_blog.
func (h *BlogHandler) Generate(c *fiber.Ctx) error {
	url, err := parseVideoLink(c, "BlogHandler.Generate")
	if err != nil {
		return err
	}

	text, err := h.service.Generate(c.UserContext(), url)
	if err != nil {
		return err
	}

	return c.JSON(models.BlogResponse{BlogContent: text})
}
