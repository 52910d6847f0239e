package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/inbox-service/internal/observability"
	apperrors "github.com/spec-kit/inbox-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches the global chain: request deadline, panic
// recovery with the error envelope, request logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(withRequestDeadline(timeout))
	}
	app.Use(recoverAndRespond(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func withRequestDeadline(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// recoverAndRespond converts handler errors and panics into the JSON
// DomainError envelope.
func recoverAndRespond(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.Stack("stack"))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				writeDomainError(c, logger, metrics, err)
				err = nil
			}
		}()
		return c.Next()
	}
}

func writeDomainError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, err error) {
	domainErr := apperrors.ToDomainError(err)
	if metrics != nil {
		metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
	}
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.Path()), zap.Error(domainErr))
	}

	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	c.Status(domainErr.HTTPStatus)
	_ = c.JSON(fiber.Map{"error": body})
}
