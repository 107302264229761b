package middleware

import (
	"slices"
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key.
type RateLimiter interface {
	Allow(key string) bool
	// Handler limits by client IP. Requests to skipPaths are never limited.
	Handler(skipPaths ...string) fiber.Handler
}

type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewRateLimiter(requestsPerMinute int, burst int) RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(requestsPerMinute) / 60,
		burst:    burst,
	}
}

func (rl *rateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = limiter
	}
	rl.mu.Unlock()

	return limiter.Allow()
}

// Handler rejects requests with 429 once the client's bucket is empty.
func (rl *rateLimiter) Handler(skipPaths ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if slices.Contains(skipPaths, c.Path()) {
			return c.Next()
		}
		if !rl.Allow(c.IP()) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"detail": "Rate limit exceeded",
			})
		}
		return c.Next()
	}
}
