package server

import (
	"context"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/nijaru/yt-blog/config"
	"github.com/nijaru/yt-blog/handlers"
	"github.com/nijaru/yt-blog/middleware"
	"github.com/nijaru/yt-blog/repository"
	"github.com/nijaru/yt-blog/services/blog"
	"github.com/nijaru/yt-blog/services/transcript"
	"github.com/sirupsen/logrus"
)

// Services selects what the app mounts. A nil service leaves its route
// unregistered; a nil Jobs repository makes /jobs/:id answer 503.
type Services struct {
	Blog       blog.Service
	Transcript transcript.Service
	Jobs       repository.JobRepository
}

func New(cfg *config.Config, access *fiberLogger.Config, svcs Services) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: !cfg.Debug,
		AppName:               "yt-blog " + cfg.Version,
	})

	setupMiddleware(app, cfg, access)

	if svcs.Blog != nil {
		app.Post("/generate_blog", handlers.NewBlogHandler(svcs.Blog).Generate)
	}
	if svcs.Transcript != nil {
		app.Post("/transcribe", handlers.NewTranscriptHandler(svcs.Transcript).Transcribe)
	}

	app.Get("/jobs/:id", handlers.NewJobHandler(svcs.Jobs).Get)
	app.Get("/health", handlers.HealthHandler(cfg.Version))

	return app
}

func setupMiddleware(app *fiber.App, cfg *config.Config, access *fiberLogger.Config) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.New().String()
		},
	}))

	if access != nil {
		app.Use(fiberLogger.New(*access))
	}

	if cfg.CORS.Enabled {
		app.Use(cors.New(corsConfig(cfg.CORS)))
	}

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
		app.Use(limiter.Handler("/health"))
	}
}

func corsConfig(c config.CORSConfig) cors.Config {
	allowCredentials := c.AllowCredentials
	if allowCredentials && slices.Contains(c.AllowedOrigins, "*") {
		logrus.Warn("CORS credentials cannot be combined with a wildcard origin, disabling credentials")
		allowCredentials = false
	}

	return cors.Config{
		AllowOrigins:     strings.Join(c.AllowedOrigins, ","),
		AllowMethods:     strings.Join(c.AllowedMethods, ","),
		AllowHeaders:     strings.Join(c.AllowedHeaders, ","),
		AllowCredentials: allowCredentials,
		MaxAge:           c.MaxAge,
	}
}

// Run serves app on the configured port until ctx is cancelled, then shuts
// it down within the configured grace period.
func Run(ctx context.Context, app *fiber.App, cfg *config.Config) error {
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		logrus.WithField("addr", addr).Info("Server starting")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
