package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nijaru/yt-blog/errors"
	"github.com/nijaru/yt-blog/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBlogService struct {
	text   string
	err    error
	gotURL string
}

func (s *stubBlogService) Generate(_ context.Context, url string) (string, error) {
	s.gotURL = url
	return s.text, s.err
}

type stubTranscriptService struct {
	text string
	err  error
}

func (s *stubTranscriptService) Transcribe(context.Context, string) (string, error) {
	return s.text, s.err
}

type stubRepo struct {
	job *models.Job
}

func (r *stubRepo) Save(context.Context, *models.Job) error { return nil }
func (r *stubRepo) Close() error                           { return nil }
func (r *stubRepo) Find(_ context.Context, id string) (*models.Job, error) {
	if r.job == nil || r.job.ID != id {
		return nil, errors.NotFound("stubRepo.Find", nil, "Job not found")
	}
	return r.job, nil
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode, decode(t, resp.Body)
}

func decode(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestBlogHandler(t *testing.T) {
	svc := &stubBlogService{text: "# Post\n\nBody"}
	app := newApp()
	app.Post("/generate_blog", NewBlogHandler(svc).Generate)

	code, body := postJSON(t, app, "/generate_blog", `{"url": "https://youtu.be/abc"}`)

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, map[string]any{"blog_content": "# Post\n\nBody"}, body)
	assert.Equal(t, "https://youtu.be/abc", svc.gotURL)
}

func TestBlogHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantDetail string
	}{
		{
			name:       "download failure",
			err:        errors.InvalidInput("op", nil, "Couldn't download video: ERROR: Video unavailable"),
			wantCode:   fiber.StatusBadRequest,
			wantDetail: "Couldn't download video: ERROR: Video unavailable",
		},
		{
			name:       "internal failure",
			err:        errors.Internal("op", nil, "Error: quota exceeded"),
			wantCode:   fiber.StatusInternalServerError,
			wantDetail: "Error: quota exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Post("/generate_blog", NewBlogHandler(&stubBlogService{err: tt.err}).Generate)

			code, body := postJSON(t, app, "/generate_blog", `{"url": "https://youtu.be/abc"}`)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantDetail, body["detail"])
		})
	}
}

func TestInvalidBody(t *testing.T) {
	app := newApp()
	app.Post("/generate_blog", NewBlogHandler(&stubBlogService{}).Generate)
	app.Post("/transcribe", NewTranscriptHandler(&stubTranscriptService{}).Transcribe)

	bodies := []string{
		``,
		`not json`,
		`{}`,
		`{"url": null}`,
		`{"url": 42}`,
		`["https://youtu.be/abc"]`,
	}

	for _, path := range []string{"/generate_blog", "/transcribe"} {
		for _, b := range bodies {
			code, body := postJSON(t, app, path, b)
			assert.Equal(t, fiber.StatusUnprocessableEntity, code, "%s %q", path, b)
			assert.NotEmpty(t, body["detail"])
		}
	}
}

func TestEmptyURLReachesService(t *testing.T) {
	for _, url := range []string{"", "   "} {
		svc := &stubBlogService{err: errors.InvalidInput("op", nil, "Couldn't download video: ERROR: [generic] '' is not a valid URL")}
		app := newApp()
		app.Post("/generate_blog", NewBlogHandler(svc).Generate)

		payload, err := json.Marshal(map[string]string{"url": url})
		require.NoError(t, err)
		code, body := postJSON(t, app, "/generate_blog", string(payload))

		assert.Equal(t, fiber.StatusBadRequest, code)
		assert.Equal(t, url, svc.gotURL)
		assert.Contains(t, body["detail"], "Couldn't download video: ")
	}

	app := newApp()
	app.Post("/transcribe", NewTranscriptHandler(&stubTranscriptService{
		err: errors.Internal("op", nil, "ERROR: [generic] '' is not a valid URL"),
	}).Transcribe)

	code, _ := postJSON(t, app, "/transcribe", `{"url": ""}`)
	assert.Equal(t, fiber.StatusInternalServerError, code)
}

func TestTranscriptHandler(t *testing.T) {
	app := newApp()
	app.Post("/transcribe", NewTranscriptHandler(&stubTranscriptService{text: "hello"}).Transcribe)

	code, body := postJSON(t, app, "/transcribe", `{"url": "https://youtu.be/abc"}`)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, map[string]any{"transcription": "hello"}, body)

	app = newApp()
	app.Post("/transcribe", NewTranscriptHandler(&stubTranscriptService{
		err: errors.Internal("op", nil, "ERROR: Unsupported URL: nope"),
	}).Transcribe)

	code, body = postJSON(t, app, "/transcribe", `{"url": "nope"}`)
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "ERROR: Unsupported URL: nope", body["detail"])
}

func TestJobHandler(t *testing.T) {
	job := &models.Job{ID: "j1", Kind: models.KindBlog, URL: "u", Status: models.StatusCompleted, OutputLength: 10}
	app := newApp()
	app.Get("/jobs/:id", NewJobHandler(&stubRepo{job: job}).Get)

	resp, err := app.Test(httptest.NewRequest("GET", "/jobs/j1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "blog", body["kind"])

	resp, err = app.Test(httptest.NewRequest("GET", "/jobs/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Job not found", decode(t, resp.Body)["detail"])
}

func TestJobHandlerDisabled(t *testing.T) {
	app := newApp()
	app.Get("/jobs/:id", NewJobHandler(nil).Get)

	resp, err := app.Test(httptest.NewRequest("GET", "/jobs/j1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthHandler(t *testing.T) {
	app := newApp()
	app.Get("/health", HealthHandler("1.2.3"))

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body := decode(t, resp.Body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	_, err = time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)
}

func TestErrorHandlerUnknownError(t *testing.T) {
	app := newApp()
	app.Get("/boom", func(c *fiber.Ctx) error { return io.ErrUnexpectedEOF })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal Server Error", decode(t, resp.Body)["detail"])
}

func TestErrorHandlerFiberError(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Cannot GET /nowhere", decode(t, resp.Body)["detail"])
}
