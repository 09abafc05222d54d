package observability

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/fluxo-portal/pkg/util/errorutil"
)

// RequestLogger logs one line per request and feeds the request counters.
// Errors are still returned so the error middleware can render them; the
// status logged here is the one that middleware will send.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			status = StatusOf(err)
		}
		route := c.Route().Path

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("ip", c.IP()),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Warn("http request", fields...)
		default:
			logger.Info("http request", fields...)
		}
		metrics.RecordRequest(route, c.Method(), status, elapsed)
		return err
	}
}

// StatusOf maps a handler error to the HTTP status it is rendered with.
func StatusOf(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return apperrors.ToDomainError(err).HTTPStatus
}
