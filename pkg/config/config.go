package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-config/cfgx"
)

const (
	DefaultNotificationTimeout = 3 * time.Second
	DefaultPostbackTimeout     = 900 * time.Millisecond
	DefaultProjectLabel        = "Default_Project"
	DefaultGomrBase            = "https://globalopinionmr.com/admintool"
)

// Config captures relay configuration. It is read once at startup and never
// mutated afterwards; feature packages pull from the nested structs.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" json:"server"`
	Log        LogConfig        `mapstructure:"log" json:"log"`
	Project    ProjectConfig    `mapstructure:"project" json:"project"`
	Client     ClientConfig     `mapstructure:"client" json:"client"`
	Statuses   StatusConfig     `mapstructure:"statuses" json:"statuses"`
	Identity   IdentityConfig   `mapstructure:"identity" json:"identity"`
	Vendors    VendorsConfig    `mapstructure:"vendors" json:"vendors"`
	Cells      []CellConfig     `mapstructure:"cells" json:"cells"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher" json:"dispatcher"`
	Console    ConsoleConfig    `mapstructure:"console" json:"console"`
	Webhook    WebhookConfig    `mapstructure:"webhook" json:"webhook"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics" json:"analytics"`
	Postback   PostbackConfig   `mapstructure:"postback" json:"postback"`
	Kafka      KafkaConfig      `mapstructure:"kafka" json:"kafka"`
	Alert      AlertConfig      `mapstructure:"alert" json:"alert"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry" json:"telemetry"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" json:"addr" env:"RELAY_HTTP_ADDR"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
}

// LogConfig selects level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" env:"RELAY_LOG_LEVEL"`
	Format string `mapstructure:"format" json:"format" env:"RELAY_LOG_FORMAT"`
}

// ProjectConfig holds the label reported when a cell has none.
type ProjectConfig struct {
	DefaultLabel string `mapstructure:"default_label" json:"default_label" env:"PROJECT_NAME"`
}

// ClientConfig lists the client destination per status and how the
// respondent id is forwarded to it.
type ClientConfig struct {
	CompleteURL    string `mapstructure:"complete_url" json:"complete_url" env:"CLIENT_COMPLETE_URL"`
	TerminateURL   string `mapstructure:"terminate_url" json:"terminate_url" env:"CLIENT_TERMINATE_URL"`
	QuotaURL       string `mapstructure:"quota_url" json:"quota_url" env:"CLIENT_QUOTA_URL"`
	QualityURL     string `mapstructure:"quality_url" json:"quality_url" env:"CLIENT_QUALITY_URL"`
	ForwardIDParam string `mapstructure:"forward_id_param" json:"forward_id_param" env:"FORWARD_ID_PARAM"`
	SignatureParam string `mapstructure:"signature_param" json:"signature_param"`
	SigningSecret  string `mapstructure:"signing_secret" json:"-" env:"SIGNING_SECRET"`
}

// URLs returns the configured destinations keyed by canonical status name.
func (c ClientConfig) URLs() map[string]string {
	return map[string]string{
		"complete":  c.CompleteURL,
		"terminate": c.TerminateURL,
		"quota":     c.QuotaURL,
		"quality":   c.QualityURL,
	}
}

// StatusConfig tunes the alias table.
type StatusConfig struct {
	QualityMode  string              `mapstructure:"quality_mode" json:"quality_mode"`
	ExtraAliases map[string][]string `mapstructure:"extra_aliases" json:"extra_aliases"`
}

// IdentityConfig selects the identifier format minted at entry.
type IdentityConfig struct {
	Mode string `mapstructure:"mode" json:"mode" env:"RID_MODE"`
}

// VendorsConfig holds the built-in vendor and operator-defined ones.
type VendorsConfig struct {
	Gomr   GomrConfig     `mapstructure:"gomr" json:"gomr"`
	Custom []VendorConfig `mapstructure:"custom" json:"custom"`
}

// GomrConfig configures the built-in Global Opinion MR vendor.
type GomrConfig struct {
	Enabled   *bool  `mapstructure:"enabled" json:"enabled,omitempty"`
	ProjectID string `mapstructure:"project_id" json:"project_id" env:"GOMR_PID"`
	BaseURL   string `mapstructure:"base_url" json:"base_url" env:"GOMR_BASE"`
	Mode      string `mapstructure:"mode" json:"mode"`
}

// IsEnabled reports whether gomr is registered; unset means enabled.
func (g GomrConfig) IsEnabled() bool { return g.Enabled == nil || *g.Enabled }

// VendorConfig describes an operator-defined vendor. Either Templates or
// Query must be set.
type VendorConfig struct {
	Key          string            `mapstructure:"key" json:"key"`
	Mode         string            `mapstructure:"mode" json:"mode"`
	ProjectID    string            `mapstructure:"project_id" json:"project_id"`
	ProjectIDEnv string            `mapstructure:"project_id_env" json:"project_id_env"`
	Templates    map[string]string `mapstructure:"templates" json:"templates"`
	Query        *QueryConfig      `mapstructure:"query" json:"query,omitempty"`
}

// QueryConfig describes a vendor URL assembled from query parameters.
type QueryConfig struct {
	BaseURL      string            `mapstructure:"base_url" json:"base_url"`
	StatusParam  string            `mapstructure:"status_param" json:"status_param"`
	StatusCodes  map[string]string `mapstructure:"status_codes" json:"status_codes"`
	IDParam      string            `mapstructure:"id_param" json:"id_param"`
	ProjectParam string            `mapstructure:"project_param" json:"project_param"`
	Params       map[string]string `mapstructure:"params" json:"params"`
}

// CellConfig describes one client survey link.
type CellConfig struct {
	Key             string   `mapstructure:"key" json:"key"`
	StartURL        string   `mapstructure:"start_url" json:"start_url"`
	Project         string   `mapstructure:"project" json:"project"`
	IDParam         string   `mapstructure:"id_param" json:"id_param"`
	SecondaryParams []string `mapstructure:"secondary_params" json:"secondary_params"`
}

// DispatcherConfig bounds background notifications.
type DispatcherConfig struct {
	Timeout         time.Duration `mapstructure:"timeout" json:"timeout"`
	PostbackTimeout time.Duration `mapstructure:"postback_timeout" json:"postback_timeout"`
	// DryRun makes every outbound channel log instead of sending.
	DryRun bool `mapstructure:"dry_run" json:"dry_run" env:"RELAY_DRY_RUN"`
}

// ConsoleConfig controls the per-event log line.
type ConsoleConfig struct {
	Enabled    *bool `mapstructure:"enabled" json:"enabled,omitempty"`
	Structured bool  `mapstructure:"structured" json:"structured"`
}

// IsEnabled reports whether the console channel is on; unset means enabled.
func (c ConsoleConfig) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

// WebhookConfig configures spreadsheet logging.
type WebhookConfig struct {
	URL     string            `mapstructure:"url" json:"url" env:"SHEETS_WEBHOOK"`
	Headers map[string]string `mapstructure:"headers" json:"headers"`
	// ForwardMetadata adds vendor and postback details to each row.
	ForwardMetadata bool `mapstructure:"forward_metadata" json:"forward_metadata" env:"RELAY_WEBHOOK_FORWARD_METADATA"`
}

// AnalyticsConfig configures GA4 measurement protocol reporting.
type AnalyticsConfig struct {
	MeasurementID string `mapstructure:"measurement_id" json:"measurement_id" env:"GA4_MEASUREMENT_ID"`
	APISecret     string `mapstructure:"api_secret" json:"-" env:"GA4_API_SECRET"`
	Endpoint      string `mapstructure:"endpoint" json:"endpoint" env:"GA4_ENDPOINT"`
}

// Enabled reports whether both credentials are set.
func (a AnalyticsConfig) Enabled() bool {
	return strings.TrimSpace(a.MeasurementID) != "" && strings.TrimSpace(a.APISecret) != ""
}

// PostbackConfig toggles vendor server-to-server calls.
type PostbackConfig struct {
	Enabled   *bool  `mapstructure:"enabled" json:"enabled,omitempty"`
	UserAgent string `mapstructure:"user_agent" json:"user_agent"`
}

// IsEnabled reports whether postbacks fire; unset means enabled.
func (p PostbackConfig) IsEnabled() bool { return p.Enabled == nil || *p.Enabled }

// KafkaConfig configures the optional event stream.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers" json:"brokers" env:"RELAY_KAFKA_BROKERS" envSeparator:","`
	Topic   string   `mapstructure:"topic" json:"topic" env:"RELAY_KAFKA_TOPIC"`
}

// Enabled reports whether brokers are configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// AlertConfig configures operator alerts by SES e-mail and Slack.
type AlertConfig struct {
	To           []string `mapstructure:"to" json:"to" env:"RELAY_ALERT_TO" envSeparator:","`
	From         string   `mapstructure:"from" json:"from" env:"RELAY_ALERT_FROM"`
	Region       string   `mapstructure:"region" json:"region" env:"RELAY_ALERT_REGION"`
	Profile      string   `mapstructure:"profile" json:"profile"`
	SlackToken   string   `mapstructure:"slack_token" json:"-" env:"RELAY_ALERT_SLACK_TOKEN"`
	SlackChannel string   `mapstructure:"slack_channel" json:"slack_channel" env:"RELAY_ALERT_SLACK_CHANNEL"`
}

// SESEnabled reports whether e-mail recipients and sender are configured.
func (a AlertConfig) SESEnabled() bool {
	return len(a.To) > 0 && strings.TrimSpace(a.From) != ""
}

// SlackEnabled reports whether a Slack token and channel are configured.
func (a AlertConfig) SlackEnabled() bool {
	return strings.TrimSpace(a.SlackToken) != "" && strings.TrimSpace(a.SlackChannel) != ""
}

// Enabled reports whether any alert channel is configured.
func (a AlertConfig) Enabled() bool {
	return a.SESEnabled() || a.SlackEnabled()
}

// TelemetryConfig configures OTLP tracing.
type TelemetryConfig struct {
	Endpoint    string  `mapstructure:"endpoint" json:"endpoint" env:"RELAY_OTEL_ENDPOINT"`
	ServiceName string  `mapstructure:"service_name" json:"service_name"`
	Insecure    bool    `mapstructure:"insecure" json:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio" json:"sample_ratio"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log:      LogConfig{Level: "info", Format: "json"},
		Project:  ProjectConfig{DefaultLabel: DefaultProjectLabel},
		Client:   ClientConfig{ForwardIDParam: "rid", SignatureParam: "sig"},
		Statuses: StatusConfig{QualityMode: "quality"},
		Identity: IdentityConfig{Mode: "random"},
		Vendors: VendorsConfig{
			Gomr: GomrConfig{BaseURL: DefaultGomrBase, Mode: "postback"},
		},
		Dispatcher: DispatcherConfig{
			Timeout:         DefaultNotificationTimeout,
			PostbackTimeout: DefaultPostbackTimeout,
		},
		Kafka:     KafkaConfig{Topic: "survey.redirects.v1"},
		Alert:     AlertConfig{Region: "us-east-1"},
		Telemetry: TelemetryConfig{ServiceName: "survey-relay", SampleRatio: 1},
	}
}

// DefaultCells returns the built-in cell table used when none is configured.
func DefaultCells() []CellConfig {
	return []CellConfig{
		{Key: "riva-main", Project: "Riva_Study", StartURL: "https://rivaresearch.surveybackoffice.com/capture.php?gid=MTI5OTktMjYyMTU%3D&cada=MTE1MTUtY21sMllYSmxjMlZoY21Obw%3D%3D&pid=XXXXX"},
		{Key: "uae-main-ar", Project: "UAE_WWR", StartURL: "https://app.worldwide-research.ai/surveyInitiate.php?gid=MTA5MTMtNTQ4NTI=&pid=XXX"},
		{Key: "uae-boost-ar", Project: "UAE_WWR", StartURL: "https://app.worldwide-research.ai/surveyInitiate.php?gid=MTA5MjAtNTQ4NDU=&pid=XXX"},
		{Key: "uae-boost-en", Project: "UAE_WWR", StartURL: "https://app.worldwide-research.ai/surveyInitiate.php?gid=MTA5MjctNTQ4Mzg=&pid=XXX"},
		{Key: "uae-main-en", Project: "UAE_WWR", StartURL: "https://app.worldwide-research.ai/surveyInitiate.php?gid=MTA5MzQtNTQ4MzE=&pid=XXX"},
	}
}

// Load decodes arbitrary input (struct, map, cfg struct) using cfgx helpers.
// Maps are decoded onto Defaults() first so absent keys keep their defaults.
// Environment overrides apply last when requested.
func Load(input any, opts ...LoadOption) (Config, error) {
	settings := loadOptions{}
	for _, opt := range opts {
		opt(&settings)
	}

	switch v := input.(type) {
	case nil:
		input = Defaults()
	case map[string]any:
		cfg := Defaults()
		if err := decodeMap(v, &cfg); err != nil {
			return Config{}, err
		}
		input = cfg
	}

	cfg, err := cfgx.Build(input, settings.buildOpts...)
	if err != nil {
		return Config{}, err
	}

	if isZero(cfg) {
		if err := decodeFallback(input, &cfg); err != nil {
			return Config{}, err
		}
	}

	if settings.useEnv {
		if err := applyEnv(&cfg, settings.environ); err != nil {
			return Config{}, err
		}
	}

	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOption lets callers amend cfgx build options and env handling.
type LoadOption func(*loadOptions)

type loadOptions struct {
	buildOpts []cfgx.Option[Config]
	useEnv    bool
	environ   map[string]string
}

// WithBuildOptions forwards cfgx options (duration hooks, preprocessors, etc.).
func WithBuildOptions(opts ...cfgx.Option[Config]) LoadOption {
	return func(lo *loadOptions) {
		lo.buildOpts = append(lo.buildOpts, opts...)
	}
}

// FromEnv applies overrides from the process environment.
func FromEnv() LoadOption {
	return func(lo *loadOptions) {
		lo.useEnv = true
		lo.environ = nil
	}
}

// WithEnvironment applies overrides from the given variables instead of the
// process environment.
func WithEnvironment(environ map[string]string) LoadOption {
	return func(lo *loadOptions) {
		lo.useEnv = true
		lo.environ = environ
	}
}

func applyEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	lookup := os.LookupEnv
	if environ != nil {
		lookup = func(key string) (string, bool) {
			v, ok := environ[key]
			return v, ok
		}
	}
	if raw, ok := lookup(EnvVendorS2S); ok {
		if enabled, set := parseSwitch(raw); set {
			cfg.Postback.Enabled = &enabled
		}
	}
	return nil
}

// EnvVendorS2S toggles vendor postbacks. Only "true" in any case enables
// them; an empty value keeps the configured setting.
const EnvVendorS2S = "ENABLE_VENDOR_S2S"

func parseSwitch(raw string) (enabled bool, set bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	return strings.EqualFold(raw, "true"), true
}

func (c Config) withDefaults() Config {
	defaults := Defaults()

	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if strings.TrimSpace(c.Project.DefaultLabel) == "" {
		c.Project.DefaultLabel = defaults.Project.DefaultLabel
	}
	if c.Client.ForwardIDParam == "" {
		c.Client.ForwardIDParam = defaults.Client.ForwardIDParam
	}
	if c.Client.SignatureParam == "" {
		c.Client.SignatureParam = defaults.Client.SignatureParam
	}
	if c.Statuses.QualityMode == "" {
		c.Statuses.QualityMode = defaults.Statuses.QualityMode
	}
	if c.Identity.Mode == "" {
		c.Identity.Mode = defaults.Identity.Mode
	}
	if c.Vendors.Gomr.BaseURL == "" {
		c.Vendors.Gomr.BaseURL = defaults.Vendors.Gomr.BaseURL
	}
	if c.Vendors.Gomr.Mode == "" {
		c.Vendors.Gomr.Mode = defaults.Vendors.Gomr.Mode
	}
	if len(c.Cells) == 0 {
		c.Cells = DefaultCells()
	}
	if c.Dispatcher.Timeout == 0 {
		c.Dispatcher.Timeout = defaults.Dispatcher.Timeout
	}
	if c.Dispatcher.PostbackTimeout == 0 {
		c.Dispatcher.PostbackTimeout = defaults.Dispatcher.PostbackTimeout
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = defaults.Kafka.Topic
	}
	if c.Alert.Region == "" {
		c.Alert.Region = defaults.Alert.Region
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = defaults.Telemetry.ServiceName
	}
	if c.Telemetry.SampleRatio == 0 {
		c.Telemetry.SampleRatio = defaults.Telemetry.SampleRatio
	}
	return c
}

func isZero(cfg Config) bool {
	return reflect.DeepEqual(cfg, Config{})
}

func decodeFallback(input any, cfg *Config) error {
	switch v := input.(type) {
	case nil:
		return nil
	case Config:
		*cfg = v
		return nil
	case *Config:
		if v != nil {
			*cfg = *v
		}
		return nil
	case map[string]any:
		return decodeMap(v, cfg)
	default:
		return fmt.Errorf("unsupported config input type: %T", input)
	}
}

func decodeMap(input map[string]any, cfg *Config) error {
	if input == nil {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("config: build decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}
	return nil
}
