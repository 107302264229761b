package models

import (
	"time"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type Kind string

const (
	KindBlog          Kind = "blog"
	KindTranscription Kind = "transcription"
)

// Job is one pass through the pipeline for a single request.
type Job struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	URL          string    `json:"url"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
	OutputLength int       `json:"output_length"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (j *Job) IsProcessing() bool { return j.Status == StatusProcessing }
func (j *Job) IsCompleted() bool  { return j.Status == StatusCompleted }
func (j *Job) IsFailed() bool     { return j.Status == StatusFailed }

// Complete marks the job as finished with an output of n characters.
func (j *Job) Complete(n int) {
	j.Status = StatusCompleted
	j.OutputLength = n
	j.Error = ""
	j.UpdatedAt = time.Now()
}

func (j *Job) Fail(err error) {
	j.Status = StatusFailed
	if err != nil {
		j.Error = err.Error()
	}
	j.UpdatedAt = time.Now()
}

// Duration is the time the job spent between creation and its last update.
func (j *Job) Duration() time.Duration {
	return j.UpdatedAt.Sub(j.CreatedAt)
}
