package middleware

import (
	"io"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// ============================================================
// Logger Middleware
// ============================================================

const logFormat = "[${time}] ${status} - ${latency} ${method} ${path} | rid=${respHeader:" + RequestIDHeader + "}\n"

// Logger пишет строку на запрос в stdout.
func Logger() fiber.Handler {
	return LoggerTo(os.Stdout)
}

// LoggerTo то же, но в произвольный writer.
func LoggerTo(w io.Writer) fiber.Handler {
	return logger.New(logger.Config{
		Format:     logFormat,
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
		Stream:     w,
	})
}
