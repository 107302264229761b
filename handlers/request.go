package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nijaru/yt-blog/errors"
	"github.com/nijaru/yt-blog/models"
)

// parseVideoLink decodes a {"url": string} body. The body is a 422 when it
// is not JSON or url is missing, null or not a string. The url value itself
// is passed through unchecked.
func parseVideoLink(c *fiber.Ctx, op string) (string, error) {
	var req models.VideoLink
	if err := c.App().Config().JSONDecoder(c.Body(), &req); err != nil {
		return "", errors.Unprocessable(op, err, "Request body must be a JSON object with a string \"url\" field")
	}
	if req.URL == nil {
		return "", errors.Unprocessable(op, nil, "Field \"url\" is required")
	}
	return *req.URL, nil
}
