package relay

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/config"
	"github.com/goliatone/go-survey-relay/pkg/identity"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-relay/pkg/routing"
	"github.com/goliatone/go-survey-relay/pkg/status"
	"github.com/goliatone/go-survey-relay/pkg/vendors"
)

// Dispatcher starts background notifications for a channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, channel string, msg adapters.Message) int
}

// Dependencies bundles what the service needs.
type Dependencies struct {
	Resolver       *routing.Resolver
	Dispatcher     Dispatcher
	Logger         logger.Logger
	Tracer         trace.Tracer
	DefaultProject string
	// Postbacks enables server-to-server calls for vendors in postback mode.
	Postbacks bool
}

var ErrMissingResolver = errors.New("relay: resolver is required")

// Service orchestrates the entry and exit flows: resolve synchronously, then
// hand side effects to the dispatcher.
type Service struct {
	resolver   *routing.Resolver
	dispatcher Dispatcher
	logger     logger.Logger
	tracer     trace.Tracer
	project    string
	postbacks  bool
}

// EntryRequest is an inbound survey entry.
type EntryRequest struct {
	Cell      string
	Source    string
	UserAgent string
	RequestID string
}

// EntryResult carries the minted identifier and the client start URL.
type EntryResult struct {
	RID      string
	Cell     string
	Source   string
	Project  string
	Location *url.URL
}

// ExitRequest is an inbound vendor status callback. Lookup reads request
// parameters such as rid or pid.
type ExitRequest struct {
	Status    string
	Source    string
	Lookup    func(string) string
	UserAgent string
	RequestID string
}

// ExitResult describes where the respondent goes and what fires in the
// background.
type ExitResult struct {
	Status   status.Status
	RID      string
	Source   string
	Vendor   string
	Mode     vendors.Mode
	Project  string
	Location *url.URL
	// Postback is the vendor URL called server-to-server, when one applies.
	Postback *url.URL
}

// New builds the relay service.
func New(deps Dependencies) (*Service, error) {
	if deps.Resolver == nil {
		return nil, ErrMissingResolver
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider().Tracer("relay")
	}
	if strings.TrimSpace(deps.DefaultProject) == "" {
		deps.DefaultProject = config.DefaultProjectLabel
	}
	return &Service{
		resolver:   deps.Resolver,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		tracer:     deps.Tracer,
		project:    deps.DefaultProject,
		postbacks:  deps.Postbacks,
	}, nil
}

// Enter mints an identifier for a respondent entering a cell and returns the
// client start URL. The entry log fires in the background.
func (s *Service) Enter(ctx context.Context, req EntryRequest) (EntryResult, error) {
	ctx, span := s.tracer.Start(ctx, "relay.enter")
	defer span.End()

	source := adapters.FirstNonEmpty(normalizeSource(req.Source), routing.DefaultSource)
	span.SetAttributes(
		attribute.String("relay.cell", req.Cell),
		attribute.String("relay.src", source),
	)
	lgr := logger.FromContext(ctx, s.logger)

	rid, location, err := s.resolver.ResolveStart(req.Cell, source)
	if err != nil {
		s.fail(ctx, span, lgr, err, adapters.Message{
			Kind:      adapters.KindEntry,
			Cell:      req.Cell,
			Source:    source,
			UserAgent: req.UserAgent,
			RequestID: req.RequestID,
		})
		return EntryResult{}, err
	}

	cell, _ := s.resolver.Cell(req.Cell)
	result := EntryResult{
		RID:      rid,
		Cell:     cell.Key,
		Source:   source,
		Project:  adapters.FirstNonEmpty(cell.Project, s.project),
		Location: location,
	}
	span.SetAttributes(attribute.String("relay.rid", rid))

	s.dispatch(ctx, adapters.ChannelEntry, adapters.Message{
		Kind:      adapters.KindEntry,
		Status:    adapters.KindEntry,
		RID:       rid,
		Source:    source,
		Cell:      result.Cell,
		Project:   result.Project,
		UserAgent: req.UserAgent,
		TargetURL: location.String(),
		RequestID: req.RequestID,
	}, span)
	return result, nil
}

// Plan resolves an exit without side effects.
func (s *Service) Plan(req ExitRequest) (ExitResult, error) {
	st := s.resolver.Normalize(req.Status)
	if !st.Valid() {
		return ExitResult{}, routing.NewUnknownStatusError(req.Status)
	}
	result := ExitResult{
		Status:  st,
		RID:     identity.Resolve(identity.FromQuery(req.Lookup)),
		Source:  adapters.FirstNonEmpty(normalizeSource(req.Source), routing.DefaultSource),
		Project: s.project,
	}

	route, err := s.resolver.ResolveExit(st, result.Source, result.RID, s.postbacks)
	result.Vendor = route.Vendor
	result.Mode = route.Mode
	if err != nil {
		return result, err
	}
	result.Location = route.Location
	result.Postback = route.Postback
	if route.PostbackErr != nil {
		s.logger.Warn("postback skipped",
			logger.Field{Key: "vendor", Value: result.Vendor},
			logger.Field{Key: "status", Value: st.String()},
			logger.Field{Key: "error", Value: route.PostbackErr},
		)
	}
	return result, nil
}

// Exit resolves where a returning respondent goes and fires the redirect
// notifications and vendor postback in the background. Side effects run only
// after a successful resolution.
func (s *Service) Exit(ctx context.Context, req ExitRequest) (ExitResult, error) {
	ctx, span := s.tracer.Start(ctx, "relay.exit")
	defer span.End()

	lgr := logger.FromContext(ctx, s.logger)
	result, err := s.Plan(req)
	span.SetAttributes(
		attribute.String("relay.status", result.Status.String()),
		attribute.String("relay.src", result.Source),
		attribute.String("relay.vendor", result.Vendor),
	)
	if err != nil {
		s.fail(ctx, span, lgr, err, adapters.Message{
			Kind:      adapters.KindExit,
			Status:    adapters.FirstNonEmpty(result.Status.String(), req.Status),
			RID:       result.RID,
			Source:    result.Source,
			UserAgent: req.UserAgent,
			RequestID: req.RequestID,
			Metadata:  exitMetadata(result),
		})
		return ExitResult{}, err
	}

	if result.RID == "" {
		lgr.Warn("respondent id missing",
			logger.Field{Key: "status", Value: result.Status.String()},
			logger.Field{Key: "src", Value: result.Source},
		)
	}
	span.SetAttributes(attribute.String("relay.rid", result.RID))

	msg := adapters.Message{
		Kind:      adapters.KindExit,
		Status:    result.Status.String(),
		RID:       result.RID,
		Source:    result.Source,
		Project:   result.Project,
		UserAgent: req.UserAgent,
		TargetURL: result.Location.String(),
		RequestID: req.RequestID,
		Metadata:  exitMetadata(result),
	}
	s.dispatch(ctx, adapters.ChannelRedirect, msg, span)
	if result.Postback != nil {
		msg.TargetURL = result.Postback.String()
		s.dispatch(ctx, adapters.ChannelPostback, msg, span)
	}
	return result, nil
}

func (s *Service) dispatch(ctx context.Context, channel string, msg adapters.Message, span trace.Span) {
	if s.dispatcher == nil {
		return
	}
	if sc := span.SpanContext(); sc.HasTraceID() {
		msg.TraceID = sc.TraceID().String()
	}
	s.dispatcher.Dispatch(ctx, channel, msg)
}

// fail records err on the span. Configuration errors are logged at error
// level and raise an operator alert; respondent errors are informational.
func (s *Service) fail(ctx context.Context, span trace.Span, lgr logger.Logger, err error, msg adapters.Message) {
	code := routing.CodeOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, code)

	fields := []logger.Field{
		{Key: "code", Value: code},
		{Key: "kind", Value: msg.Kind},
		{Key: "status", Value: msg.Status},
		{Key: "cell", Value: msg.Cell},
		{Key: "src", Value: msg.Source},
		{Key: "error", Value: err},
	}
	if !routing.IsConfigurationError(err) {
		lgr.Info("resolution rejected", fields...)
		return
	}
	lgr.Error("resolution failed", fields...)

	msg.Kind = adapters.KindAlert
	msg.Project = s.project
	meta := map[string]any{adapters.MetaCode: code}
	for k, v := range msg.Metadata {
		meta[k] = v
	}
	msg.Metadata = meta
	msg.Subject = "relay configuration error: " + code
	msg.Body = err.Error()
	s.dispatch(ctx, adapters.ChannelAlert, msg, span)
}

// exitMetadata describes the vendor routing of res. Messages share the map
// read-only.
func exitMetadata(res ExitResult) map[string]any {
	if res.Vendor == "" && res.Postback == nil {
		return nil
	}
	meta := map[string]any{}
	if res.Vendor != "" {
		meta[adapters.MetaVendor] = res.Vendor
		meta[adapters.MetaVendorMode] = string(res.Mode)
	}
	if res.Postback != nil {
		meta[adapters.MetaPostbackURL] = res.Postback.String()
	}
	return meta
}

func normalizeSource(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
