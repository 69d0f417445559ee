package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/identity"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
)

const (
	// DefaultEndpoint is the GA4 measurement protocol collector.
	DefaultEndpoint = "https://www.google-analytics.com/mp/collect"
	// DefaultEventName is the event reported for each exit.
	DefaultEventName = "survey_redirect"
)

// Adapter reports exits to a GA4 measurement protocol endpoint.
type Adapter struct {
	name   string
	base   adapters.BaseAdapter
	caps   adapters.Capability
	cfg    Config
	client *http.Client
}

// Config holds GA4 credentials.
type Config struct {
	MeasurementID string
	APISecret     string
	Endpoint      string
	EventName     string
	Timeout       time.Duration
	DryRun        bool
}

// Enabled reports whether both credentials are present.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.MeasurementID) != "" && strings.TrimSpace(c.APISecret) != ""
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

// WithClient allows injecting a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

// New constructs the analytics adapter.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "analytics",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:     "analytics",
			Channels: []string{adapters.ChannelRedirect},
		},
		cfg: Config{Timeout: 3 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	if strings.TrimSpace(adapter.cfg.Endpoint) == "" {
		adapter.cfg.Endpoint = DefaultEndpoint
	}
	if strings.TrimSpace(adapter.cfg.EventName) == "" {
		adapter.cfg.EventName = DefaultEventName
	}
	if adapter.client == nil {
		adapter.client = &http.Client{Timeout: adapter.cfg.Timeout}
	}
	return adapter
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Capabilities() adapters.Capability { return a.caps }

type event struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

type payload struct {
	ClientID string  `json:"client_id"`
	Events   []event `json:"events"`
}

func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	if !a.cfg.Enabled() {
		return fmt.Errorf("analytics: measurement id and api secret are required")
	}
	endpoint, err := url.Parse(a.cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("analytics: parse endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("measurement_id", a.cfg.MeasurementID)
	q.Set("api_secret", a.cfg.APISecret)
	endpoint.RawQuery = q.Encode()

	clientID := strings.TrimSpace(msg.RID)
	if clientID == "" {
		clientID = identity.RandomHex(16)
	}
	body := payload{
		ClientID: clientID,
		Events: []event{{
			Name: a.cfg.EventName,
			Params: map[string]any{
				"status": msg.Status,
				"rid":    msg.RID,
				"src":    msg.Source,
			},
		}},
	}

	if a.cfg.DryRun {
		a.base.Logger().Info("[analytics:during-dry-run] send skipped",
			logger.Field{Key: "client_id", Value: clientID},
			logger.Field{Key: "status", Value: msg.Status},
		)
		return nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("analytics: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("analytics: request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("analytics: unexpected status %d", resp.StatusCode)
	}
	a.base.LogSuccess(a.name, msg)
	return nil
}
