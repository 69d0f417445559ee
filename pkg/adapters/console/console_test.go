package console

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/interfaces/logger"
)

type captureLogger struct {
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
	l.entries = append(l.entries, strings.TrimSpace(fmt.Sprintf("%s %s %s", level, msg, strings.Join(parts, " "))))
}

func TestSendRedirectLine(t *testing.T) {
	lgr := &captureLogger{}
	a := New(lgr)
	err := a.Send(context.Background(), adapters.Message{
		Kind:      adapters.KindExit,
		Status:    "complete",
		RID:       "R1",
		Source:    "gomr",
		UserAgent: "curl/8",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(lgr.entries) != 1 || lgr.entries[0] != "INFO [redirect] status=complete rid=R1 src=gomr ua=curl/8" {
		t.Fatalf("unexpected entries %v", lgr.entries)
	}
}

func TestSendEntryStructured(t *testing.T) {
	lgr := &captureLogger{}
	a := New(lgr, WithStructured(true), WithName("stdout"))
	if a.Name() != "stdout" {
		t.Fatalf("expected name override")
	}
	_ = a.Send(context.Background(), adapters.Message{Kind: adapters.KindEntry, Channel: adapters.ChannelEntry, Cell: "uae", RID: "R2"})
	if len(lgr.entries) != 1 || !strings.Contains(lgr.entries[0], "cell=uae") || !strings.Contains(lgr.entries[0], "rid=R2") {
		t.Fatalf("unexpected entries %v", lgr.entries)
	}
}

func TestLineEntry(t *testing.T) {
	got := Line(adapters.Message{Kind: adapters.KindEntry, Cell: "c1", RID: "R", Source: "s", UserAgent: "u"})
	if got != "[entry] cell=c1 rid=R src=s ua=u" {
		t.Fatalf("unexpected line %q", got)
	}
}
