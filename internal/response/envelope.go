package response

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Envelope is the body shape of every API response.
type Envelope struct {
	Success   bool   `json:"success"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

var now = time.Now

func New(code int, message string, data any) Envelope {
	if data == nil {
		data = fiber.Map{}
	}
	return Envelope{
		Success:   code >= 200 && code < 300,
		Code:      code,
		Message:   message,
		Timestamp: now().UTC().Format(timestampLayout),
		Data:      data,
	}
}

// Send writes an envelope with the given status.
func Send(c *fiber.Ctx, code int, message string, data any) error {
	return c.Status(code).JSON(New(code, message, data))
}

func OK(c *fiber.Ctx, message string, data any) error {
	return Send(c, fiber.StatusOK, message, data)
}

func Created(c *fiber.Ctx, message string, data any) error {
	return Send(c, fiber.StatusCreated, message, data)
}
