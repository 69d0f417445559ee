// Package httpapi exposes the relay over HTTP with fiber.
package httpapi

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-survey-relay/pkg/config"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-relay/pkg/relay"
)

// Dependencies groups what the HTTP surface needs.
type Dependencies struct {
	Service *relay.Service
	Logger  logger.Logger
	Config  config.ServerConfig
}

var ErrMissingService = errors.New("httpapi: relay service is required")

// Server wraps the fiber app serving the relay routes.
type Server struct {
	app     *fiber.App
	service *relay.Service
	logger  logger.Logger
}

// New builds the fiber app and registers routes and middleware.
func New(deps Dependencies) (*Server, error) {
	if deps.Service == nil {
		return nil, ErrMissingService
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	s := &Server{service: deps.Service, logger: deps.Logger}
	s.app = fiber.New(fiber.Config{
		AppName:               "survey-relay",
		Immutable:             true,
		UnescapePath:          true,
		DisableStartupMessage: true,
		ReadTimeout:           deps.Config.ReadTimeout,
		WriteTimeout:          deps.Config.WriteTimeout,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(RequestLogger(deps.Logger))
	s.app.Use(Recovery(deps.Logger))
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.health)

	s.app.Get("/start", s.start)
	s.app.Get("/api/start", s.start)
	s.app.Get("/api/redirect/:status", s.exit)
	s.app.Get("/api/:status", s.exit)
	s.app.Get("/:status", s.exit)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for active ones within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
