package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/config"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
)

type captureLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *captureLogger) With(fields ...logger.Field) logger.Logger { return l }
func (l *captureLogger) Debug(msg string, fields ...logger.Field)  { l.record("DEBUG", msg, fields) }
func (l *captureLogger) Info(msg string, fields ...logger.Field)   { l.record("INFO", msg, fields) }
func (l *captureLogger) Warn(msg string, fields ...logger.Field)   { l.record("WARN", msg, fields) }
func (l *captureLogger) Error(msg string, fields ...logger.Field)  { l.record("ERROR", msg, fields) }

func (l *captureLogger) record(level, msg string, fields []logger.Field) {
	var parts []string
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
	}
	l.mu.Lock()
	l.entries = append(l.entries, strings.TrimSpace(fmt.Sprintf("%s %s %s", level, msg, strings.Join(parts, " "))))
	l.mu.Unlock()
}

func (l *captureLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type funcMessenger struct {
	name     string
	channels []string
	send     func(ctx context.Context, msg adapters.Message) error
}

func (f *funcMessenger) Name() string { return f.name }
func (f *funcMessenger) Capabilities() adapters.Capability {
	return adapters.Capability{Name: f.name, Channels: f.channels}
}
func (f *funcMessenger) Send(ctx context.Context, msg adapters.Message) error {
	return f.send(ctx, msg)
}

func newService(t *testing.T, lgr logger.Logger, cfg config.DispatcherConfig, ms ...adapters.Messenger) *Service {
	t.Helper()
	svc, err := New(Dependencies{Registry: adapters.NewRegistry(ms...), Logger: lgr, Config: cfg})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return svc
}

func TestNewRequiresRegistry(t *testing.T) {
	if _, err := New(Dependencies{}); !errors.Is(err, ErrMissingRegistry) {
		t.Fatalf("expected ErrMissingRegistry, got %v", err)
	}
}

func TestDispatchDoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	slow := &funcMessenger{name: "slow", channels: []string{adapters.ChannelRedirect}, send: func(ctx context.Context, msg adapters.Message) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}}
	svc := newService(t, nil, config.DispatcherConfig{Timeout: 5 * time.Second}, slow)

	start := time.Now()
	if n := svc.Dispatch(context.Background(), adapters.ChannelRedirect, adapters.Message{RID: "R1"}); n != 1 {
		t.Fatalf("expected 1 send started, got %d", n)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("dispatch blocked for %s", elapsed)
	}
	close(release)
	if err := svc.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestDispatchDetachesFromRequestCancellation(t *testing.T) {
	got := make(chan error, 1)
	m := &funcMessenger{name: "m", channels: []string{adapters.ChannelEntry}, send: func(ctx context.Context, msg adapters.Message) error {
		time.Sleep(20 * time.Millisecond)
		got <- ctx.Err()
		return nil
	}}
	svc := newService(t, nil, config.DispatcherConfig{}, m)

	ctx, cancel := context.WithCancel(context.Background())
	svc.Dispatch(ctx, adapters.ChannelEntry, adapters.Message{})
	cancel()
	if err := <-got; err != nil {
		t.Fatalf("expected send context to survive request cancellation, got %v", err)
	}
}

func TestDispatchAppliesChannelTimeouts(t *testing.T) {
	deadlines := make(chan time.Duration, 2)
	probe := func(ctx context.Context, msg adapters.Message) error {
		dl, ok := ctx.Deadline()
		if !ok {
			deadlines <- 0
			return nil
		}
		deadlines <- time.Until(dl)
		return nil
	}
	svc := newService(t, nil, config.DispatcherConfig{Timeout: 3 * time.Second, PostbackTimeout: 900 * time.Millisecond},
		&funcMessenger{name: "pb", channels: []string{adapters.ChannelPostback}, send: probe},
		&funcMessenger{name: "hook", channels: []string{adapters.ChannelRedirect}, send: probe},
	)

	svc.Dispatch(context.Background(), adapters.ChannelPostback, adapters.Message{})
	if d := <-deadlines; d <= 0 || d > 900*time.Millisecond {
		t.Fatalf("expected postback deadline within 900ms, got %s", d)
	}
	svc.Dispatch(context.Background(), adapters.ChannelRedirect, adapters.Message{})
	if d := <-deadlines; d <= 900*time.Millisecond || d > 3*time.Second {
		t.Fatalf("expected redirect deadline within 3s, got %s", d)
	}
}

func TestDispatchLogsFailuresAndPanics(t *testing.T) {
	lgr := &captureLogger{}
	svc := newService(t, lgr, config.DispatcherConfig{},
		&funcMessenger{name: "failing", channels: []string{adapters.ChannelRedirect}, send: func(context.Context, adapters.Message) error {
			return errors.New("endpoint down")
		}},
		&funcMessenger{name: "panicky", channels: []string{adapters.ChannelRedirect}, send: func(context.Context, adapters.Message) error {
			panic("nil map")
		}},
	)
	if n := svc.Dispatch(context.Background(), adapters.ChannelRedirect, adapters.Message{RID: "R7", Status: "complete"}); n != 2 {
		t.Fatalf("expected 2 sends, got %d", n)
	}
	if err := svc.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	entries := lgr.snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 warnings, got %v", entries)
	}
	joined := strings.Join(entries, "\n")
	if !strings.Contains(joined, "adapter=failing") || !strings.Contains(joined, "endpoint down") {
		t.Fatalf("missing failure warning: %s", joined)
	}
	if !strings.Contains(joined, "adapter=panicky") || !strings.Contains(joined, "panic: nil map") {
		t.Fatalf("missing panic warning: %s", joined)
	}
	for _, e := range entries {
		if !strings.HasPrefix(e, "WARN notification failed") {
			t.Fatalf("expected warning level, got %s", e)
		}
	}
}

func TestDispatchFillsMessageEnvelope(t *testing.T) {
	got := make(chan adapters.Message, 1)
	svc := newService(t, nil, config.DispatcherConfig{}, &funcMessenger{name: "m", channels: []string{adapters.ChannelAlert}, send: func(ctx context.Context, msg adapters.Message) error {
		got <- msg
		return nil
	}})
	svc.Dispatch(context.Background(), adapters.ChannelAlert, adapters.Message{})
	msg := <-got
	if msg.Channel != adapters.ChannelAlert || msg.ID == "" || msg.OccurredAt.IsZero() {
		t.Fatalf("unexpected envelope %+v", msg)
	}
}

func TestDispatchWithoutSubscribers(t *testing.T) {
	svc := newService(t, nil, config.DispatcherConfig{})
	if n := svc.Dispatch(context.Background(), adapters.ChannelPostback, adapters.Message{}); n != 0 {
		t.Fatalf("expected no sends, got %d", n)
	}
	var nilSvc *Service
	if n := nilSvc.Dispatch(context.Background(), adapters.ChannelPostback, adapters.Message{}); n != 0 {
		t.Fatalf("expected nil service to skip")
	}
}

func TestWaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	svc := newService(t, nil, config.DispatcherConfig{Timeout: time.Minute}, &funcMessenger{name: "stuck", channels: []string{adapters.ChannelRedirect}, send: func(ctx context.Context, msg adapters.Message) error {
		<-release
		return nil
	}})
	svc.Dispatch(context.Background(), adapters.ChannelRedirect, adapters.Message{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := svc.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
