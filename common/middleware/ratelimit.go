package middleware

import (
	"net/http"

	"github.com/clinovia/contentvault/common/logger"
	"github.com/clinovia/contentvault/common/ratelimit"
	"github.com/labstack/echo/v4"
)

// RateLimitConfig controls the upload rate limits
type RateLimitConfig struct {
	// GlobalLimit caps uploads across all actors per minute
	GlobalLimit int64
	// ActorLimit caps uploads per actor per window
	ActorLimit int64
	// ActorWindowSec is the per-actor window length in seconds
	ActorWindowSec int
}

// DefaultRateLimitConfig returns sensible defaults for write endpoints
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		GlobalLimit:    600,
		ActorLimit:     60,
		ActorWindowSec: 60,
	}
}

// RateLimit returns echo middleware enforcing per-actor and global upload
// limits. The actor is taken from the X-Actor-Id header; requests without
// one share the "anonymous" bucket.
func RateLimit(limiter *ratelimit.RateLimiter, cfg RateLimitConfig, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			actorID := c.Request().Header.Get("X-Actor-Id")
			if actorID == "" {
				actorID = "anonymous"
			}

			result, err := limiter.CheckActorLimit(ctx, actorID, cfg.ActorLimit, cfg.ActorWindowSec)
			if err != nil {
				// A limiter outage must not take the write path down
				log.Warn("rate limiter unavailable, allowing request", "error", err)
				return next(c)
			}
			if !result.Allowed {
				return tooManyRequests(c, result)
			}

			result, err = limiter.CheckGlobalLimit(ctx, cfg.GlobalLimit)
			if err != nil {
				log.Warn("rate limiter unavailable, allowing request", "error", err)
				return next(c)
			}
			if !result.Allowed {
				return tooManyRequests(c, result)
			}

			return next(c)
		}
	}
}

func tooManyRequests(c echo.Context, result *ratelimit.RateLimitResult) error {
	return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
		"error":       "rate limit exceeded",
		"limit":       result.Limit,
		"retry_after": result.RetryAfterSeconds,
	})
}
