package echo

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/mohammadpnp/member-import/internal/logging"
)

// RequestLogger puts a request scoped entry into the request context and
// logs each request once it completes. It expects RequestID to run first.
func RequestLogger(logger *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			entry := logger.WithFields(logrus.Fields{
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"method":     req.Method,
				"path":       c.Path(),
			})
			if clubID := c.Param("clubID"); clubID != "" {
				entry = entry.WithField("club_id", clubID)
			}
			if importID := c.Param("importID"); importID != "" {
				entry = entry.WithField("import_log_id", importID)
			}
			c.SetRequest(req.WithContext(logging.WithLogger(req.Context(), entry)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			entry.WithFields(logrus.Fields{
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
			}).Info("request handled")
			return nil
		}
	}
}

// RateLimit throttles by client IP and answers 429 in the usual envelope
// once the budget is spent.
func RateLimit(lim *limiter.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, err := lim.Get(c.Request().Context(), c.RealIP())
			if err != nil {
				logging.FromContext(c.Request().Context()).WithError(err).Warn("rate limiter unavailable")
				return next(c)
			}

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
			header.Set("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(ctx.Reset, 10))

			if ctx.Reached {
				return respondError(c, http.StatusTooManyRequests, CodeRateLimited, "too many requests, try again later")
			}
			return next(c)
		}
	}
}
