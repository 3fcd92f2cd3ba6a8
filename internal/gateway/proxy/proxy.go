package proxy

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"room-planner/internal/common/logutil"
	"room-planner/internal/common/middleware"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// ============================================================
// Proxy Handler
// ============================================================

const RequestIDHeader = middleware.RequestIDHeader

var client = &http.Client{Timeout: 30 * time.Second}

// ProxyTo проксирует все под-пути группы на baseURL с сохранением
// query-строки: /api/v1/projects/1 -> baseURL/projects/1.
func ProxyTo(baseURL string) fiber.Handler {
	base := strings.TrimRight(baseURL, "/")
	return func(c fiber.Ctx) error {
		target := base + "/" + c.Params("*")
		if q := string(c.Request().URI().QueryString()); q != "" {
			target += "?" + q
		}
		return forwardRequest(c, target)
	}
}

// Forward проксирует запрос по переданному URL (для динамических путей).
func Forward(c fiber.Ctx, targetURL string) error {
	return forwardRequest(c, targetURL)
}

func forwardRequest(c fiber.Ctx, targetURL string) error {
	requestID := c.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(RequestIDHeader, requestID)
	logutil.Debugf("[PROXY] %s %s -> %s (request %s)", c.Method(), c.Path(), targetURL, requestID)

	var body io.Reader
	if len(c.Body()) > 0 {
		body = bytes.NewReader(c.Body())
	}
	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, body)
	if err != nil {
		logutil.Errorf("[PROXY] build request error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	if contentType := c.Get("Content-Type"); contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth := c.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if tp := c.Get("traceparent"); tp != "" {
		req.Header.Set("traceparent", tp)
	}
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := client.Do(req)
	if err != nil {
		logutil.Warnf("[PROXY] upstream error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logutil.Warnf("[PROXY] read response error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if len(values) > 0 {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
