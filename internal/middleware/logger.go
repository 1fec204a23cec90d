package middleware

import (
	"time"

	"github.com/abisalde/marketplace-service/internal/auth"
	"github.com/abisalde/marketplace-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// RequestLogger puts a request-scoped logger on the user context and logs
// one line per request once the handler chain returns.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
		reqLogger := logger.L().With(zap.String("request_id", requestID))
		c.SetUserContext(logger.WithContext(c.UserContext(), reqLogger))

		err := c.Next()
		if err != nil {
			// Let the error handler write the response so the logged status is final.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if p := auth.PrincipalFromContext(c.UserContext()); p != nil {
			fields = append(fields, zap.Int64("user_id", p.UserID()))
		}
		reqLogger.Info("HTTP Request", fields...)
		return nil
	}
}
