package console

import (
	"context"
	"fmt"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
)

// Adapter writes one line per respondent event to the configured logger.
type Adapter struct {
	name string
	base adapters.BaseAdapter
	caps adapters.Capability
	opts Options
}

type Option func(*Adapter)

// Options tweak console output.
type Options struct {
	Structured bool // when true, emit structured fields instead of a formatted line
}

// WithName overrides the adapter provider name (defaults to "console").
func WithName(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.name = name
		}
	}
}

// WithStructured enables structured logging mode.
func WithStructured(enabled bool) Option {
	return func(a *Adapter) {
		a.opts.Structured = enabled
	}
}

// New constructs a console adapter.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "console",
		caps: adapters.Capability{
			Name:     "console",
			Channels: []string{adapters.ChannelEntry, adapters.ChannelRedirect},
		},
	}
	adapter.base = adapters.NewBaseAdapter(l)
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	return adapter
}

// Name implements adapters.Messenger.
func (a *Adapter) Name() string {
	return a.name
}

// Capabilities implements adapters.Messenger.
func (a *Adapter) Capabilities() adapters.Capability {
	return a.caps
}

// Send logs the event.
func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	if a.opts.Structured {
		a.base.Logger().Info("respondent event",
			logger.Field{Key: "channel", Value: msg.Channel},
			logger.Field{Key: "status", Value: msg.Status},
			logger.Field{Key: "rid", Value: msg.RID},
			logger.Field{Key: "src", Value: msg.Source},
			logger.Field{Key: "cell", Value: msg.Cell},
			logger.Field{Key: "ua", Value: msg.UserAgent},
			logger.Field{Key: "request_id", Value: msg.RequestID},
		)
		return nil
	}
	a.base.Logger().Info(Line(msg))
	return nil
}

// Line renders the one-line event summary.
func Line(msg adapters.Message) string {
	if msg.Kind == adapters.KindEntry {
		return fmt.Sprintf("[entry] cell=%s rid=%s src=%s ua=%s", msg.Cell, msg.RID, msg.Source, msg.UserAgent)
	}
	return fmt.Sprintf("[redirect] status=%s rid=%s src=%s ua=%s", msg.Status, msg.RID, msg.Source, msg.UserAgent)
}
