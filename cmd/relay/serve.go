package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-survey-relay/internal/httpapi"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-relay/pkg/relay"
	"github.com/goliatone/go-survey-relay/pkg/telemetry"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the relay over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			lgr, err := logger.Setup(os.Stderr, logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
			if err != nil {
				return err
			}
			lgr.Info("configuration loaded", logger.Field{Key: "config", Value: cfg.Summary()})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
			if err != nil {
				return err
			}

			mod, err := relay.NewModule(relay.ModuleOptions{
				Config: cfg,
				Logger: lgr,
				Tracer: telemetry.Tracer(),
			})
			if err != nil {
				return err
			}
			lgr.Info("adapters registered", logger.Field{Key: "adapters", Value: mod.AdapterRegistry().Describe()})

			srv, err := httpapi.New(httpapi.Dependencies{
				Service: mod.Service(),
				Logger:  lgr,
				Config:  cfg.Server,
			})
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				lgr.Info("listening", logger.Field{Key: "addr", Value: cfg.Server.Addr})
				errCh <- srv.Listen(cfg.Server.Addr)
			}()

			var serveErr error
			select {
			case <-ctx.Done():
			case serveErr = <-errCh:
			}

			lgr.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
			defer cancel()

			var errs []error
			if serveErr != nil {
				errs = append(errs, serveErr)
			}
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
			if err := mod.Close(shutdownCtx); err != nil {
				lgr.Warn("notifications still in flight at shutdown", logger.Field{Key: "error", Value: err})
			}
			if err := shutdownTracing(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
