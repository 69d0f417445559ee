package di

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"

	"github.com/goliatone/go-survey-relay/internal/dispatcher"
	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/adapters/analytics"
	"github.com/goliatone/go-survey-relay/pkg/adapters/aws_ses"
	"github.com/goliatone/go-survey-relay/pkg/adapters/console"
	"github.com/goliatone/go-survey-relay/pkg/adapters/kafka"
	"github.com/goliatone/go-survey-relay/pkg/adapters/postback"
	"github.com/goliatone/go-survey-relay/pkg/adapters/slack"
	"github.com/goliatone/go-survey-relay/pkg/adapters/webhook"
	"github.com/goliatone/go-survey-relay/pkg/cells"
	"github.com/goliatone/go-survey-relay/pkg/config"
	"github.com/goliatone/go-survey-relay/pkg/identity"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-relay/pkg/links"
	"github.com/goliatone/go-survey-relay/pkg/routing"
	"github.com/goliatone/go-survey-relay/pkg/status"
	"github.com/goliatone/go-survey-relay/pkg/vendors"
)

// Options configure the DI container.
type Options struct {
	Config config.Config
	Logger logger.Logger
	// Adapters are registered after the ones built from Config.
	Adapters []adapters.Messenger
	// SkipConfiguredAdapters registers only Adapters.
	SkipConfiguredAdapters bool
	// Getenv resolves vendor project_id_env lookups. Defaults to os.Getenv.
	Getenv func(string) string
}

// Container holds the resolver, messenger registry and dispatcher built from
// configuration.
type Container struct {
	Config     config.Config
	Logger     logger.Logger
	Resolver   *routing.Resolver
	Adapters   *adapters.Registry
	Dispatcher *dispatcher.Service

	closers []func() error
}

func isZeroConfig(cfg config.Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

// New constructs the container using the supplied options.
func New(opts Options) (*Container, error) {
	cfg := opts.Config
	if isZeroConfig(cfg) {
		var err error
		if cfg, err = config.Load(nil); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	c := &Container{Config: cfg, Logger: lgr}

	vendorList, err := BuildVendors(cfg.Vendors, getenv)
	if err != nil {
		return nil, err
	}
	c.Resolver = routing.New(
		routing.WithStatusTable(status.NewConfiguredTable(status.QualityMode(cfg.Statuses.QualityMode), cfg.Statuses.ExtraAliases)),
		routing.WithClientURLs(clientURLs(cfg.Client)),
		routing.WithClientLink(links.ClientLink{
			IDParam:        cfg.Client.ForwardIDParam,
			SignatureParam: cfg.Client.SignatureParam,
			Signer:         links.NewHMACSigner(cfg.Client.SigningSecret),
		}),
		routing.WithVendors(vendors.NewRegistry(vendorList...)),
		routing.WithCells(cells.NewTable(BuildCells(cfg.Cells)...)),
		routing.WithGenerator(identity.NewGenerator(identity.Mode(cfg.Identity.Mode))),
	)

	var messengers []adapters.Messenger
	if !opts.SkipConfiguredAdapters {
		messengers = c.configuredAdapters(cfg, lgr)
	}
	messengers = append(messengers, opts.Adapters...)
	c.Adapters = adapters.NewRegistry(messengers...)

	c.Dispatcher, err = dispatcher.New(dispatcher.Dependencies{
		Registry: c.Adapters,
		Logger:   lgr,
		Config:   cfg.Dispatcher,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) configuredAdapters(cfg config.Config, lgr logger.Logger) []adapters.Messenger {
	var out []adapters.Messenger
	dryRun := cfg.Dispatcher.DryRun
	if cfg.Console.IsEnabled() {
		out = append(out, console.New(lgr, console.WithStructured(cfg.Console.Structured)))
	}
	if strings.TrimSpace(cfg.Webhook.URL) != "" {
		out = append(out, webhook.New(lgr, webhook.WithConfig(webhook.Config{
			URL:             cfg.Webhook.URL,
			Headers:         cfg.Webhook.Headers,
			Timeout:         cfg.Dispatcher.Timeout,
			DryRun:          dryRun,
			ForwardMetadata: cfg.Webhook.ForwardMetadata,
		})))
	}
	if cfg.Analytics.Enabled() {
		out = append(out, analytics.New(lgr, analytics.WithConfig(analytics.Config{
			MeasurementID: cfg.Analytics.MeasurementID,
			APISecret:     cfg.Analytics.APISecret,
			Endpoint:      cfg.Analytics.Endpoint,
			Timeout:       cfg.Dispatcher.Timeout,
			DryRun:        dryRun,
		})))
	}
	if cfg.Postback.IsEnabled() {
		out = append(out, postback.New(lgr, postback.WithConfig(postback.Config{
			Timeout:   cfg.Dispatcher.PostbackTimeout,
			UserAgent: cfg.Postback.UserAgent,
			DryRun:    dryRun,
		})))
	}
	if cfg.Kafka.Enabled() {
		k := kafka.New(lgr, kafka.WithConfig(kafka.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			WriteTimeout: cfg.Dispatcher.Timeout,
			DryRun:       dryRun,
		}))
		c.closers = append(c.closers, k.Close)
		out = append(out, k)
	}
	if cfg.Alert.SlackEnabled() {
		out = append(out, slack.New(lgr, slack.WithConfig(slack.Config{
			Token:   cfg.Alert.SlackToken,
			Channel: cfg.Alert.SlackChannel,
			Timeout: cfg.Dispatcher.Timeout,
			DryRun:  dryRun,
		})))
	}
	if cfg.Alert.SESEnabled() {
		out = append(out, aws_ses.New(lgr, aws_ses.WithConfig(aws_ses.Config{
			From:    cfg.Alert.From,
			To:      cfg.Alert.To,
			Region:  cfg.Alert.Region,
			Profile: cfg.Alert.Profile,
			DryRun:  dryRun,
		})))
	}
	return out
}

// Close drains in-flight notifications, then releases adapter resources.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Dispatcher != nil {
		if err := c.Dispatcher.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func clientURLs(cfg config.ClientConfig) map[status.Status]string {
	out := make(map[status.Status]string, len(status.Known))
	for name, raw := range cfg.URLs() {
		out[status.Status(name)] = raw
	}
	return out
}
