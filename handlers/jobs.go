package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nijaru/yt-blog/errors"
	"github.com/nijaru/yt-blog/repository"
)

type JobHandler struct {
	repo repository.JobRepository
}

// NewJobHandler serves job records. A nil repo means the journal is off.
func NewJobHandler(repo repository.JobRepository) *JobHandler {
	return &JobHandler{repo: repo}
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
	const op = "JobHandler.Get"

	if h.repo == nil {
		return errors.Unavailable(op, nil, "Job journal is disabled")
	}

	job, err := h.repo.Find(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(job)
}
