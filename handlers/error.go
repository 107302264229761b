package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nijaru/yt-blog/errors"
	"github.com/nijaru/yt-blog/models"
	"github.com/sirupsen/logrus"
)

// ErrorHandler renders every error as {"detail": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	op := ""

	if appErr, ok := errors.As(err); ok {
		code = appErr.Code
		message = appErr.Message
		op = appErr.Op
	} else if fiberErr, ok := err.(*fiber.Error); ok {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	entry := logrus.WithFields(logrus.Fields{
		"request_id": c.Locals("requestid"),
		"path":       c.Path(),
		"method":     c.Method(),
		"status":     code,
		"op":         op,
	}).WithError(err)
	if code >= fiber.StatusInternalServerError {
		entry.Error("Request error")
	} else {
		entry.Warn("Request error")
	}

	return c.Status(code).JSON(models.ErrorResponse{Detail: message})
}
