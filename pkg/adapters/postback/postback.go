package postback

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
)

// DefaultTimeout bounds a vendor server-to-server call.
const DefaultTimeout = 900 * time.Millisecond

// Adapter notifies a vendor of an exit by requesting the vendor URL carried
// in Message.TargetURL.
type Adapter struct {
	name   string
	base   adapters.BaseAdapter
	caps   adapters.Capability
	cfg    Config
	client *http.Client
}

// Config configures the postback adapter.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	DryRun    bool
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

// New constructs the postback adapter.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "postback",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:     "postback",
			Channels: []string{adapters.ChannelPostback},
		},
		cfg: Config{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	if adapter.cfg.Timeout <= 0 {
		adapter.cfg.Timeout = DefaultTimeout
	}
	if adapter.client == nil {
		adapter.client = &http.Client{Timeout: adapter.cfg.Timeout}
	}
	return adapter
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Capabilities() adapters.Capability { return a.caps }

func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	target := strings.TrimSpace(msg.TargetURL)
	if target == "" {
		return fmt.Errorf("postback: target url is required")
	}
	if a.cfg.DryRun {
		a.base.Logger().Info("[postback:during-dry-run] send skipped",
			logger.Field{Key: "url", Value: target},
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("postback: build request: %w", err)
	}
	if ua := strings.TrimSpace(a.cfg.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("postback: request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postback: unexpected status %d", resp.StatusCode)
	}
	a.base.LogSuccess(a.name, msg)
	return nil
}
