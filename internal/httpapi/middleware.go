package httpapi

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

const requestIDLocal = "request_id"

// RequestLogger assigns a request id, stores a request-scoped logger on the
// user context and logs one line per completed request. Health checks are
// not logged.
func RequestLogger(base logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()

		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)
		c.Locals(requestIDLocal, requestID)

		lgr := base.With(
			logger.Field{Key: "request_id", Value: requestID},
			logger.Field{Key: "method", Value: c.Method()},
			logger.Field{Key: "path", Value: path},
		)
		c.SetUserContext(logger.WithContext(c.UserContext(), lgr))

		err := c.Next()
		if err != nil {
			// let the error handler set the final status before logging
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		if path == "/healthz" {
			return nil
		}
		latency := time.Since(start)
		status := c.Response().StatusCode()
		fields := []logger.Field{
			{Key: "status", Value: status},
			{Key: "latency", Value: latency.String()},
			{Key: "latency_ms", Value: latency.Milliseconds()},
		}
		switch {
		case status >= 500:
			lgr.Error("request completed with server error", fields...)
		case status >= 400:
			lgr.Warn("request completed with client error", fields...)
		default:
			lgr.Info("request completed", fields...)
		}
		return nil
	}
}

// Recovery turns panics into a JSON 500.
func Recovery(base logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				base.Error("panic recovered",
					logger.Field{Key: "request_id", Value: RequestID(c)},
					logger.Field{Key: "method", Value: c.Method()},
					logger.Field{Key: "path", Value: c.Path()},
					logger.Field{Key: "panic", Value: fmt.Sprintf("%v", r)},
					logger.Field{Key: "stack", Value: string(debug.Stack())},
				)
				err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"code":    "INTERNAL_ERROR",
					"message": "Internal server error",
				})
			}
		}()
		return c.Next()
	}
}

// RequestID returns the id assigned by RequestLogger.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDLocal).(string); ok {
		return id
	}
	return ""
}
