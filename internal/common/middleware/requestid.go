package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// RequestIDHeader сквозной идентификатор запроса gateway -> planner.
const RequestIDHeader = "X-Request-ID"

// RequestID берет id из входящего заголовка или выдает новый и
// возвращает его в ответе.
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			c.Request().Header.Set(RequestIDHeader, id)
		}
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}
