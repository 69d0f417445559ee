package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
)

// SchemaVersion is stamped on every published event.
const SchemaVersion = "1.0"

// Writer abstracts the kafka-go writer for testing.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Adapter publishes respondent events to a Kafka topic keyed by rid.
type Adapter struct {
	name   string
	base   adapters.BaseAdapter
	caps   adapters.Capability
	cfg    Config
	writer Writer
}

// Config holds broker settings.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	DryRun       bool
}

type Option func(*Adapter)

// WithName overrides the adapter provider name.
func WithName(name string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(name) != "" {
			a.name = name
		}
	}
}

// WithConfig sets the adapter configuration.
func WithConfig(cfg Config) Option {
	return func(a *Adapter) {
		a.cfg = cfg
	}
}

// WithWriter injects a custom writer.
func WithWriter(w Writer) Option {
	return func(a *Adapter) {
		if w != nil {
			a.writer = w
		}
	}
}

// New constructs the Kafka adapter. A kafka-go writer is created from the
// broker list unless one was injected.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "kafka",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:     "kafka",
			Channels: []string{adapters.ChannelEntry, adapters.ChannelRedirect},
		},
		cfg: Config{
			Topic:        "survey.redirects.v1",
			WriteTimeout: 3 * time.Second,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	if adapter.writer == nil && len(adapter.cfg.Brokers) > 0 {
		adapter.writer = &kafkago.Writer{
			Addr:                   kafkago.TCP(adapter.cfg.Brokers...),
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           adapter.cfg.WriteTimeout,
		}
	}
	return adapter
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Capabilities() adapters.Capability { return a.caps }

// Event is the JSON document published for each message.
type Event struct {
	Kind       string    `json:"kind"`
	Status     string    `json:"status,omitempty"`
	RID        string    `json:"rid"`
	Src        string    `json:"src,omitempty"`
	Cell       string    `json:"cell,omitempty"`
	Project    string    `json:"project,omitempty"`
	Vendor     string    `json:"vendor,omitempty"`
	Postback   string    `json:"postback_url,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventFrom converts a message into its published form.
func EventFrom(msg adapters.Message) Event {
	occurred := msg.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return Event{
		Kind:       msg.Kind,
		Status:     msg.Status,
		RID:        msg.RID,
		Src:        msg.Source,
		Cell:       msg.Cell,
		Project:    msg.Project,
		Vendor:     adapters.StringValue(msg.Metadata, adapters.MetaVendor),
		Postback:   adapters.StringValue(msg.Metadata, adapters.MetaPostbackURL),
		RequestID:  msg.RequestID,
		OccurredAt: occurred,
	}
}

func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	if strings.TrimSpace(a.cfg.Topic) == "" {
		return fmt.Errorf("kafka: topic is required")
	}
	body, err := json.Marshal(EventFrom(msg))
	if err != nil {
		return fmt.Errorf("kafka: encode event: %w", err)
	}
	if a.cfg.DryRun {
		a.base.Logger().Info("[kafka:during-dry-run] publish skipped",
			logger.Field{Key: "topic", Value: a.cfg.Topic},
			logger.Field{Key: "rid", Value: msg.RID},
		)
		return nil
	}
	if a.writer == nil {
		return fmt.Errorf("kafka: no brokers configured")
	}
	kmsg := kafkago.Message{
		Topic: a.cfg.Topic,
		Key:   []byte(msg.RID),
		Value: body,
		Headers: []kafkago.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "schema-version", Value: []byte(SchemaVersion)},
			{Key: "event-kind", Value: []byte(msg.Kind)},
		},
	}
	if err := a.writer.WriteMessages(ctx, kmsg); err != nil {
		return fmt.Errorf("kafka: publish: %w", err)
	}
	a.base.LogSuccess(a.name, msg)
	return nil
}

// Close flushes and closes the underlying writer.
func (a *Adapter) Close() error {
	if a.writer == nil {
		return nil
	}
	return a.writer.Close()
}
