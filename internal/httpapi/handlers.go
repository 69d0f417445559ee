package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-relay/pkg/relay"
	"github.com/goliatone/go-survey-relay/pkg/routing"
)

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) start(c *fiber.Ctx) error {
	res, err := s.service.Enter(c.UserContext(), relay.EntryRequest{
		Cell:      c.Query("cell"),
		Source:    c.Query("src"),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		RequestID: RequestID(c),
	})
	if err != nil {
		return err
	}
	return c.Redirect(res.Location.String(), fiber.StatusFound)
}

func (s *Server) exit(c *fiber.Ctx) error {
	res, err := s.service.Exit(c.UserContext(), relay.ExitRequest{
		Status:    c.Params("status"),
		Source:    c.Query("src"),
		Lookup:    func(name string) string { return c.Query(name) },
		UserAgent: c.Get(fiber.HeaderUserAgent),
		RequestID: RequestID(c),
	})
	if err != nil {
		return err
	}
	return c.Redirect(res.Location.String(), fiber.StatusFound)
}

// StatusFor maps a resolution error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case routing.IsUnknownStatus(err):
		return fiber.StatusNotFound
	case routing.IsUnknownCell(err):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// handleError renders failures as plain text. The body never carries a
// Location header.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return c.Status(ferr.Code).SendString(ferr.Message)
	}

	code := StatusFor(err)
	message := "Internal server error"
	var rerr *routing.ResolutionError
	if errors.As(err, &rerr) {
		message = rerr.UserMessage()
	} else {
		logger.FromContext(c.UserContext(), s.logger).Error("request failed",
			logger.Field{Key: "error", Value: err},
		)
	}
	c.Response().Header.Del(fiber.HeaderLocation)
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(code).SendString(message)
}
