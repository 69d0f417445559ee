package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
)

// Adapter posts respondent events to a logging endpoint such as a
// spreadsheet web app.
type Adapter struct {
	name   string
	base   adapters.BaseAdapter
	caps   adapters.Capability
	cfg    Config
	client *http.Client
}

// Config configures the webhook adapter.
type Config struct {
	URL             string
	Method          string
	Headers         map[string]string
	Timeout         time.Duration
	BasicAuthUser   string
	BasicAuthPass   string
	DryRun          bool
	// ForwardMetadata adds msg.Metadata under "metadata".
	ForwardMetadata bool
}

type Option func(*Adapter)

// WithName overrides the adapter name.
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

// New constructs the webhook adapter.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "webhook",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:     "webhook",
			Channels: []string{adapters.ChannelEntry, adapters.ChannelRedirect},
		},
		cfg: Config{
			Method:  http.MethodPost,
			Timeout: 3 * time.Second,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	if strings.TrimSpace(adapter.cfg.Method) == "" {
		adapter.cfg.Method = http.MethodPost
	}
	if adapter.client == nil {
		adapter.client = &http.Client{Timeout: adapter.cfg.Timeout}
	}
	return adapter
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Capabilities() adapters.Capability { return a.caps }

// Payload builds the JSON document for msg. Entry events carry the cell and a
// literal "entry" status.
func Payload(msg adapters.Message) map[string]any {
	payload := map[string]any{
		"status":     msg.Status,
		"rid":        msg.RID,
		"src":        msg.Source,
		"user_agent": msg.UserAgent,
		"project":    msg.Project,
	}
	if msg.Kind == adapters.KindEntry {
		payload["status"] = "entry"
		payload["cell"] = msg.Cell
	}
	return payload
}

func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	if a.cfg.DryRun {
		a.base.Logger().Info("[webhook:during-dry-run] send skipped",
			logger.Field{Key: "url", Value: a.cfg.URL},
			logger.Field{Key: "channel", Value: msg.Channel},
		)
		return nil
	}

	if strings.TrimSpace(a.cfg.URL) == "" {
		return fmt.Errorf("webhook: url is required")
	}

	payload := Payload(msg)
	if a.cfg.ForwardMetadata && len(msg.Metadata) > 0 {
		payload["metadata"] = msg.Metadata
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(a.cfg.Method), a.cfg.URL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}

	for k, v := range a.cfg.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.cfg.BasicAuthUser != "" {
		req.SetBasicAuth(a.cfg.BasicAuthUser, a.cfg.BasicAuthPass)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}

	a.base.LogSuccess(a.name, msg)
	return nil
}
