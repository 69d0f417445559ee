package di

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
	"github.com/goliatone/go-survey-relay/pkg/config"
	"github.com/goliatone/go-survey-relay/pkg/status"
	"github.com/goliatone/go-survey-relay/pkg/vendors"
)

func TestNewDefaults(t *testing.T) {
	c, err := New(Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	desc := strings.Join(c.Adapters.Describe(), ";")
	if !strings.Contains(desc, "console") || !strings.Contains(desc, "postback") {
		t.Fatalf("expected console and postback adapters, got %s", desc)
	}
	if strings.Contains(desc, "kafka") || strings.Contains(desc, "aws_ses") || strings.Contains(desc, "webhook") {
		t.Fatalf("unexpected optional adapters %s", desc)
	}
	if _, ok := c.Resolver.Vendor(GomrKey); !ok {
		t.Fatalf("expected gomr vendor")
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewRegistersConfiguredChannels(t *testing.T) {
	cfg, err := config.Load(map[string]any{
		"webhook":   map[string]any{"url": "https://hooks.test/exec"},
		"analytics": map[string]any{"measurement_id": "G-1", "api_secret": "s"},
		"kafka":     map[string]any{"brokers": []any{"127.0.0.1:9092"}},
		"alert": map[string]any{
			"to":            []any{"ops@example.com"},
			"from":          "relay@example.com",
			"slack_token":   "xoxb",
			"slack_channel": "#ops",
		},
		"postback":  map[string]any{"enabled": false},
		"console":   map[string]any{"enabled": false},
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	c, err := New(Options{Config: cfg})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	desc := strings.Join(c.Adapters.Describe(), ";")
	for _, name := range []string{"webhook", "analytics", "kafka", "aws_ses", "slack"} {
		if !strings.Contains(desc, name) {
			t.Fatalf("expected %s in %s", name, desc)
		}
	}
	if strings.Contains(desc, "console") || strings.Contains(desc, "postback") {
		t.Fatalf("expected console and postback disabled, got %s", desc)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

type hookRecorder struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (h *hookRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	h.mu.Lock()
	h.bodies = append(h.bodies, body)
	h.mu.Unlock()
}

func (h *hookRecorder) received() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]map[string]any(nil), h.bodies...)
}

func dispatchExit(t *testing.T, c *Container, target string) {
	t.Helper()
	msg := adapters.Message{
		Kind:      adapters.KindExit,
		Status:    "complete",
		RID:       "R1",
		Source:    "gomr",
		TargetURL: target,
		Metadata:  map[string]any{adapters.MetaVendor: "gomr"},
	}
	c.Dispatcher.Dispatch(context.Background(), adapters.ChannelRedirect, msg)
	c.Dispatcher.Dispatch(context.Background(), adapters.ChannelPostback, msg)
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestDryRunReachesEveryChannel(t *testing.T) {
	rec := &hookRecorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	cfg, err := config.Load(map[string]any{
		"webhook":    map[string]any{"url": srv.URL},
		"console":    map[string]any{"enabled": false},
		"dispatcher": map[string]any{"dry_run": true},
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	c, err := New(Options{Config: cfg})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	dispatchExit(t, c, srv.URL+"/postback")
	if got := rec.received(); len(got) != 0 {
		t.Fatalf("expected no outbound calls during dry run, got %v", got)
	}
}

func TestWebhookForwardsMetadata(t *testing.T) {
	rec := &hookRecorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	cfg, err := config.Load(map[string]any{
		"webhook":  map[string]any{"url": srv.URL, "forward_metadata": true},
		"console":  map[string]any{"enabled": false},
		"postback": map[string]any{"enabled": false},
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	c, err := New(Options{Config: cfg})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	dispatchExit(t, c, "https://client.test/done")
	got := rec.received()
	if len(got) != 1 {
		t.Fatalf("expected one webhook call, got %d", len(got))
	}
	meta, ok := got[0]["metadata"].(map[string]any)
	if !ok || meta[adapters.MetaVendor] != "gomr" {
		t.Fatalf("expected vendor metadata, got %v", got[0])
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Log.Level = "loud"
	if _, err := New(Options{Config: cfg}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestGomrTemplates(t *testing.T) {
	tmpl := GomrTemplates("https://v.test/admintool/")
	if tmpl[status.Quota] != "https://v.test/admintool/quotafull?pid={pid}&uid={uid}" {
		t.Fatalf("unexpected quota template %s", tmpl[status.Quota])
	}
	if _, ok := tmpl[status.Quality]; ok {
		t.Fatalf("gomr has no quality template")
	}
}

func TestBuildVendorsProjectIDFromEnv(t *testing.T) {
	cfg := config.VendorsConfig{
		Gomr: config.GomrConfig{Enabled: new(bool)},
		Custom: []config.VendorConfig{
			{
				Key:          "Alt",
				Mode:         "redirect",
				ProjectID:    "fallback",
				ProjectIDEnv: "ALT_PID",
				Templates:    map[string]string{"Complete": "https://alt.test/c?p={pid}&u={uid}"},
			},
			{
				Key:   "qlab",
				Query: &config.QueryConfig{BaseURL: "https://q.test/r", StatusCodes: map[string]string{"complete": "1"}},
			},
		},
	}
	list, err := BuildVendors(cfg, func(name string) string {
		if name == "ALT_PID" {
			return "A1"
		}
		return ""
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected gomr disabled and two custom vendors, got %d", len(list))
	}
	u, err := list[0].BuildURL(status.Complete, "R1")
	if err != nil {
		t.Fatalf("build url: %v", err)
	}
	if u.String() != "https://alt.test/c?p=A1&u=R1" || list[0].Mode() != vendors.ModeRedirect {
		t.Fatalf("unexpected vendor url %s", u)
	}
	q, err := list[1].BuildURL(status.Complete, "R2")
	if err != nil {
		t.Fatalf("query url: %v", err)
	}
	if q.Query().Get("status") != "1" || q.Query().Get("arid") != "R2" {
		t.Fatalf("unexpected query url %s", q)
	}
}

func TestBuildVendorsRejectsEmpty(t *testing.T) {
	_, err := BuildVendors(config.VendorsConfig{Custom: []config.VendorConfig{{Key: "x"}}}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestBuildCells(t *testing.T) {
	out := BuildCells(config.DefaultCells())
	if len(out) != 5 || out[0].Key != "riva-main" || out[0].Project != "Riva_Study" {
		t.Fatalf("unexpected cells %+v", out)
	}
}
