package slack

import (
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

// Adapter posts operator alerts to a Slack channel via chat.postMessage.
type Adapter struct {
	name   string
	base   adapters.BaseAdapter
	caps   adapters.Capability
	cfg    Config
	client *http.Client
}

// Config holds Slack API settings.
type Config struct {
	Token   string
	Channel string
	BaseURL string
	Timeout time.Duration
	DryRun  bool
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

// WithConfig sets adapter configuration.
func WithConfig(cfg Config) Option {
	return func(a *Adapter) {
		a.cfg = cfg
	}
}

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

// New constructs the Slack adapter.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "slack",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:     "slack",
			Channels: []string{adapters.ChannelAlert},
		},
		cfg: Config{
			BaseURL: "https://slack.com/api",
			Timeout: 3 * time.Second,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	if strings.TrimSpace(adapter.cfg.BaseURL) == "" {
		adapter.cfg.BaseURL = "https://slack.com/api"
	}
	if adapter.client == nil {
		adapter.client = &http.Client{Timeout: adapter.cfg.Timeout}
	}
	return adapter
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Capabilities() adapters.Capability { return a.caps }

// Text renders the mrkdwn alert text.
func Text(msg adapters.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", adapters.FirstNonEmpty(msg.Subject, "relay alert"))
	if msg.Body != "" {
		fmt.Fprintf(&b, "```%s```\n", msg.Body)
	}
	fmt.Fprintf(&b, "status=%s rid=%s src=%s", msg.Status, msg.RID, msg.Source)
	if code := adapters.StringValue(msg.Metadata, adapters.MetaCode); code != "" {
		fmt.Fprintf(&b, " code=%s", code)
	}
	if vendor := adapters.StringValue(msg.Metadata, adapters.MetaVendor); vendor != "" {
		fmt.Fprintf(&b, " vendor=%s", vendor)
	}
	if msg.Cell != "" {
		fmt.Fprintf(&b, " cell=%s", msg.Cell)
	}
	if msg.RequestID != "" {
		fmt.Fprintf(&b, " request_id=%s", msg.RequestID)
	}
	return b.String()
}

func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	token := strings.TrimSpace(a.cfg.Token)
	if token == "" && !a.cfg.DryRun {
		return fmt.Errorf("slack: token required")
	}
	channel := strings.TrimSpace(a.cfg.Channel)
	if channel == "" {
		return fmt.Errorf("slack: channel required")
	}
	text := Text(msg)

	if a.cfg.DryRun {
		a.base.Logger().Info("[slack:during-dry-run] send skipped",
			logger.Field{Key: "channel", Value: channel},
			logger.Field{Key: "text", Value: text},
		)
		return nil
	}

	bodyBytes, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    text,
		"mrkdwn":  true,
	})
	if err != nil {
		return fmt.Errorf("slack: encode payload: %w", err)
	}
	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/chat.postMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(bodyBytes)))
	if err != nil {
		return fmt.Errorf("slack: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack: unexpected status %d", resp.StatusCode)
	}

	// Slack returns ok=false on logical errors
	var apiResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	_ = json.Unmarshal(data, &apiResp)
	if !apiResp.OK {
		return fmt.Errorf("slack: api error: %s", apiResp.Error)
	}

	a.base.LogSuccess(a.name, msg)
	return nil
}
