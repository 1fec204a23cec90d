package middleware

import (
	"errors"

	customErrors "github.com/abisalde/marketplace-service/internal/errors"
	"github.com/abisalde/marketplace-service/internal/response"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler renders every error returned by a handler as an envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	log := logger.FromContext(c.UserContext())

	var typedErr customErrors.TypedError
	if errors.As(err, &typedErr) {
		var data any
		if appErr, ok := customErrors.As(err); ok {
			data = appErr.Data
		}
		if typedErr.ErrorType() == customErrors.ErrorTypeInternal {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			return response.Send(c, typedErr.StatusCode(), "Internal server error", data)
		}
		return response.Send(c, typedErr.StatusCode(), messageOf(err, typedErr), data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return response.Send(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
	return response.Send(c, fiber.StatusInternalServerError, "Internal server error", nil)
}

func messageOf(err error, typedErr customErrors.TypedError) string {
	if appErr, ok := customErrors.As(err); ok {
		return appErr.Message
	}
	return typedErr.Error()
}

// Disabled answers every request with 405 and message.
func Disabled(message string) fiber.Handler {
	return func(*fiber.Ctx) error {
		return customErrors.MethodNotAllowed(message)
	}
}
