package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/config"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
)

// Dependencies groups what the dispatcher needs.
type Dependencies struct {
	Registry *adapters.Registry
	Logger   logger.Logger
	Config   config.DispatcherConfig
}

// Service fans respondent events out to messengers in the background. Sends
// never block the caller and failures are only logged.
type Service struct {
	registry *adapters.Registry
	logger   logger.Logger
	cfg      config.DispatcherConfig
	wg       sync.WaitGroup
	now      func() time.Time
}

var ErrMissingRegistry = errors.New("dispatcher: adapter registry is required")

// New builds the dispatcher service.
func New(deps Dependencies) (*Service, error) {
	if deps.Registry == nil {
		return nil, ErrMissingRegistry
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Config.Timeout <= 0 {
		deps.Config.Timeout = config.DefaultNotificationTimeout
	}
	if deps.Config.PostbackTimeout <= 0 {
		deps.Config.PostbackTimeout = config.DefaultPostbackTimeout
	}
	return &Service{
		registry: deps.Registry,
		logger:   deps.Logger,
		cfg:      deps.Config,
		now:      time.Now,
	}, nil
}

// Dispatch starts one background send per messenger subscribed to channel and
// returns how many were started. The sends run on a context detached from
// ctx's cancellation, each bounded by the channel timeout.
func (s *Service) Dispatch(ctx context.Context, channel string, msg adapters.Message) int {
	if s == nil {
		return 0
	}
	messengers := s.registry.List(channel)
	if len(messengers) == 0 {
		return 0
	}
	if ctx == nil {
		ctx = context.Background()
	}
	msg.Channel = channel
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = s.now().UTC()
	}

	detached := context.WithoutCancel(ctx)
	timeout := s.TimeoutFor(channel)
	for _, m := range messengers {
		s.wg.Add(1)
		go s.deliver(detached, m, msg, timeout)
	}
	return len(messengers)
}

// TimeoutFor returns the per-send deadline for channel.
func (s *Service) TimeoutFor(channel string) time.Duration {
	base, _ := adapters.ParseChannel(channel)
	if base == adapters.ChannelPostback {
		return s.cfg.PostbackTimeout
	}
	return s.cfg.Timeout
}

func (s *Service) deliver(ctx context.Context, m adapters.Messenger, msg adapters.Message, timeout time.Duration) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logFailure(m, msg, fmt.Errorf("panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := m.Send(ctx, msg); err != nil {
		s.logFailure(m, msg, err)
	}
}

func (s *Service) logFailure(m adapters.Messenger, msg adapters.Message, err error) {
	s.logger.Warn("notification failed",
		logger.Field{Key: "adapter", Value: m.Name()},
		logger.Field{Key: "channel", Value: msg.Channel},
		logger.Field{Key: "status", Value: msg.Status},
		logger.Field{Key: "rid", Value: msg.RID},
		logger.Field{Key: "request_id", Value: msg.RequestID},
		logger.Field{Key: "error", Value: err},
	)
}

// Wait blocks until in-flight sends finish or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	if s == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher: wait: %w", ctx.Err())
	}
}
