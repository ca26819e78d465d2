package utils

import (
	"time"

	"dispatch-board/types"

	"github.com/gofiber/fiber/v2"
)

// CreateLogEntry builds a request log entry from the fiber context.
// All data is deep-copied because fiber reuses its buffers between requests.
func CreateLogEntry(c *fiber.Ctx) types.LogEntry {
	method := string([]byte(c.Method()))
	url := string([]byte(c.OriginalURL()))
	clientIP := string([]byte(c.IP()))
	requestBody := string(append([]byte(nil), c.Body()...))
	responseBody := string(append([]byte(nil), c.Response().Body()...))

	requestHeaders := make([]byte, len(c.Request().Header.Header()))
	copy(requestHeaders, c.Request().Header.Header())

	responseHeaders := make([]byte, len(c.Response().Header.Header()))
	copy(responseHeaders, c.Response().Header.Header())

	return types.LogEntry{
		Method:          method,
		URL:             url,
		ClientIP:        clientIP,
		RequestBody:     requestBody,
		ResponseBody:    responseBody,
		RequestHeaders:  string(requestHeaders),
		ResponseHeaders: string(responseHeaders),
		StatusCode:      c.Response().StatusCode(),
		CreatedAt:       time.Now(),
	}
}
