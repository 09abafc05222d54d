package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/fluxo-portal/internal/api/dto"
	"github.com/spec-kit/fluxo-portal/internal/api/http/handlers"
	"github.com/spec-kit/fluxo-portal/internal/observability"
	"github.com/spec-kit/fluxo-portal/internal/web"
	apperrors "github.com/spec-kit/fluxo-portal/pkg/util/errorutil"
)

const genericFailureMessage = "Ocorreu um erro inesperado. Tente novamente mais tarde."

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware turns every error that escapes a handler into a
// response: the 404 or error page for browsers, JSON for API clients.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(fmt.Errorf("panic: %v", r))
			}
			if err != nil {
				err = writeError(c, logger, metrics, err)
			}
		}()
		return c.Next()
	}
}

func writeError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, err error) error {
	status := observability.StatusOf(err)
	var code, message string
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code, message = strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_")), fiberErr.Message
	} else {
		domainErr := apperrors.ToDomainError(err)
		code, message = domainErr.Code, domainErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err))
		message = genericFailureMessage
	}
	metrics.RecordError(c.Route().Path, c.Method(), code)

	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"error": fiber.Map{
			"code":    code,
			"message": message,
		}})
	}

	view, data := "error", dto.ErrorView{Layout: handlers.LayoutFor(c, handlers.TitleError), Status: status, Message: message}
	if status == http.StatusNotFound {
		view, data.Layout.Title = "404", handlers.TitleNotFound
	}
	if renderErr := c.Status(status).Render(view, data, web.DefaultLayout); renderErr != nil {
		logger.Error("render error page", zap.Error(renderErr))
		return c.Status(status).SendString(message)
	}
	return nil
}

func wantsJSON(c *fiber.Ctx) bool {
	path := c.Path()
	if strings.HasPrefix(path, "/admin/") || strings.HasPrefix(path, "/health/") {
		return true
	}
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}
