package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/config"
)

type recordingMessenger struct {
	mu   sync.Mutex
	msgs []adapters.Message
}

func (r *recordingMessenger) Name() string { return "recorder" }
func (r *recordingMessenger) Capabilities() adapters.Capability {
	return adapters.Capability{Name: "recorder", Channels: []string{adapters.ChannelRedirect, adapters.ChannelPostback}}
}
func (r *recordingMessenger) Send(_ context.Context, msg adapters.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func TestModuleWiresConfiguredVendorAndClient(t *testing.T) {
	cfg, err := config.Load(map[string]any{
		"client": map[string]any{
			"complete_url":   "https://client.test/done",
			"signing_secret": "k",
		},
		"vendors": map[string]any{
			"gomr": map[string]any{"project_id": "P7", "base_url": "https://v.test"},
		},
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	rec := &recordingMessenger{}
	mod, err := NewModule(ModuleOptions{
		Config:                 cfg,
		Adapters:               []adapters.Messenger{rec},
		SkipConfiguredAdapters: true,
	})
	if err != nil {
		t.Fatalf("module: %v", err)
	}

	res, err := mod.Service().Exit(context.Background(), ExitRequest{
		Status: "complete",
		Source: "gomr",
		Lookup: lookup(map[string]string{"rid": "abc123"}),
	})
	if err != nil {
		t.Fatalf("exit: %v", err)
	}
	if res.Location.Query().Get("rid") != "abc123" || res.Location.Query().Get("sig") == "" {
		t.Fatalf("expected signed client url, got %s", res.Location)
	}
	if res.Postback == nil || res.Postback.String() != "https://v.test/complete?pid=P7&uid=abc123" {
		t.Fatalf("unexpected postback %v", res.Postback)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := mod.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.msgs) != 2 {
		t.Fatalf("expected redirect and postback deliveries, got %d", len(rec.msgs))
	}
	if len(mod.AdapterRegistry().Describe()) != 1 {
		t.Fatalf("expected only the injected messenger")
	}
}

func TestModuleDefaults(t *testing.T) {
	mod, err := NewModule(ModuleOptions{})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	if len(mod.Resolver().CellKeys()) != 5 {
		t.Fatalf("expected built-in cells")
	}
	if mod.Config().Project.DefaultLabel != config.DefaultProjectLabel {
		t.Fatalf("unexpected project label")
	}
	if _, ok := mod.Resolver().Vendor("gomr"); !ok {
		t.Fatalf("expected gomr vendor")
	}
	if err := mod.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}
