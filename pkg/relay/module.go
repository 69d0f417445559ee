package relay

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-survey-relay/internal/di"
	"github.com/goliatone/go-survey-relay/internal/dispatcher"
	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/config"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-relay/pkg/routing"
)

// ModuleOptions configure the relay module facade.
type ModuleOptions struct {
	Config   config.Config
	Logger   logger.Logger
	Tracer   trace.Tracer
	Adapters []adapters.Messenger
	// SkipConfiguredAdapters registers only Adapters, ignoring the
	// channels enabled in Config.
	SkipConfiguredAdapters bool
	Getenv                 func(string) string
}

// Module bundles the container and exposes high-level accessors.
type Module struct {
	container *di.Container
	service   *Service
}

// NewModule assembles the resolver, messengers, dispatcher and service.
func NewModule(opts ModuleOptions) (*Module, error) {
	container, err := di.New(di.Options{
		Config:                 opts.Config,
		Logger:                 opts.Logger,
		Adapters:               opts.Adapters,
		SkipConfiguredAdapters: opts.SkipConfiguredAdapters,
		Getenv:                 opts.Getenv,
	})
	if err != nil {
		return nil, err
	}
	service, err := New(Dependencies{
		Resolver:       container.Resolver,
		Dispatcher:     container.Dispatcher,
		Logger:         container.Logger,
		Tracer:         opts.Tracer,
		DefaultProject: container.Config.Project.DefaultLabel,
		Postbacks:      container.Config.Postback.IsEnabled(),
	})
	if err != nil {
		return nil, err
	}
	return &Module{container: container, service: service}, nil
}

// Service returns the relay service.
func (m *Module) Service() *Service {
	if m == nil {
		return nil
	}
	return m.service
}

// Resolver returns the routing resolver.
func (m *Module) Resolver() *routing.Resolver {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Resolver
}

// Dispatcher returns the background dispatcher.
func (m *Module) Dispatcher() *dispatcher.Service {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Dispatcher
}

// AdapterRegistry exposes the configured messenger registry.
func (m *Module) AdapterRegistry() *adapters.Registry {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Adapters
}

// Config returns the effective module configuration.
func (m *Module) Config() config.Config {
	if m == nil || m.container == nil {
		return config.Config{}
	}
	return m.container.Config
}

// Close drains in-flight notifications and releases adapter resources.
func (m *Module) Close(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.container.Close(ctx)
}
