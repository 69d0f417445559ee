package aws_ses

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
)

// Adapter e-mails operator alerts via AWS SES.
type Adapter struct {
	name   string
	base   adapters.BaseAdapter
	caps   adapters.Capability
	cfg    Config
	client SESClient
}

// Config holds SES settings.
type Config struct {
	From             string
	To               []string
	Region           string
	Profile          string
	ConfigurationSet string
	SubjectPrefix    string
	DryRun           bool
}

type Option func(*Adapter)

// SESClient abstracts the SES client for testing.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

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

// WithClient injects a custom SES client.
func WithClient(c SESClient) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

// New constructs the SES adapter.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "aws_ses",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:     "aws_ses",
			Channels: []string{adapters.ChannelAlert},
		},
		cfg: Config{
			Region: "us-east-1",
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	if strings.TrimSpace(adapter.cfg.Region) == "" {
		adapter.cfg.Region = "us-east-1"
	}
	if strings.TrimSpace(adapter.cfg.SubjectPrefix) == "" {
		adapter.cfg.SubjectPrefix = "[survey-relay]"
	}
	return adapter
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Capabilities() adapters.Capability { return a.caps }

func (a *Adapter) ensureClient(ctx context.Context) error {
	if a.client != nil {
		return nil
	}
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(a.cfg.Region),
	}
	if a.cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(a.cfg.Profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("aws_ses: load config: %w", err)
	}
	a.client = ses.NewFromConfig(cfg, func(o *ses.Options) {
		o.RetryMaxAttempts = 1
	})
	return nil
}

// Body renders the plain-text alert body.
func Body(msg adapters.Message) string {
	var b strings.Builder
	if msg.Body != "" {
		b.WriteString(msg.Body)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "status: %s\n", msg.Status)
	fmt.Fprintf(&b, "rid: %s\n", msg.RID)
	fmt.Fprintf(&b, "src: %s\n", msg.Source)
	if code := adapters.StringValue(msg.Metadata, adapters.MetaCode); code != "" {
		fmt.Fprintf(&b, "code: %s\n", code)
	}
	if vendor := adapters.StringValue(msg.Metadata, adapters.MetaVendor); vendor != "" {
		fmt.Fprintf(&b, "vendor: %s\n", vendor)
	}
	if msg.Cell != "" {
		fmt.Fprintf(&b, "cell: %s\n", msg.Cell)
	}
	fmt.Fprintf(&b, "request_id: %s\n", msg.RequestID)
	if !msg.OccurredAt.IsZero() {
		fmt.Fprintf(&b, "occurred_at: %s\n", msg.OccurredAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	return b.String()
}

func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	recipients := make([]string, 0, len(a.cfg.To))
	for _, to := range a.cfg.To {
		if to = strings.TrimSpace(to); to != "" {
			recipients = append(recipients, to)
		}
	}
	if len(recipients) == 0 {
		return fmt.Errorf("aws_ses: destination required")
	}
	from := strings.TrimSpace(a.cfg.From)
	if from == "" {
		return fmt.Errorf("aws_ses: from required")
	}
	subject := strings.TrimSpace(a.cfg.SubjectPrefix + " " + adapters.FirstNonEmpty(msg.Subject, "relay alert"))

	if a.cfg.DryRun {
		a.base.Logger().Info("[aws_ses:during-dry-run] send skipped",
			logger.Field{Key: "to", Value: strings.Join(recipients, ",")},
			logger.Field{Key: "subject", Value: subject},
		)
		return nil
	}

	if err := a.ensureClient(ctx); err != nil {
		return err
	}

	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: recipients,
		},
		Source: aws.String(from),
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(Body(msg))},
			},
		},
	}
	if cs := strings.TrimSpace(a.cfg.ConfigurationSet); cs != "" {
		input.ConfigurationSetName = aws.String(cs)
	}

	if _, err := a.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("aws_ses: send email: %w", err)
	}
	a.base.LogSuccess(a.name, msg)
	return nil
}
