package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
)

func TestSendExitPayload(t *testing.T) {
	var got map[string]any
	var contentType, method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := New(nil, WithConfig(Config{URL: srv.URL}))
	err := a.Send(context.Background(), adapters.Message{
		Kind:      adapters.KindExit,
		Status:    "complete",
		RID:       "R1",
		Source:    "gomr",
		UserAgent: "ua",
		Project:   "Default_Project",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if method != http.MethodPost || contentType != "application/json" {
		t.Fatalf("unexpected request %s %s", method, contentType)
	}
	want := map[string]any{"status": "complete", "rid": "R1", "src": "gomr", "user_agent": "ua", "project": "Default_Project"}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("expected %s=%v, got %v", k, v, got[k])
		}
	}
	if _, ok := got["cell"]; ok {
		t.Fatalf("exit payload must not carry cell")
	}
}

func TestPayloadEntry(t *testing.T) {
	p := Payload(adapters.Message{Kind: adapters.KindEntry, Status: "ignored", Cell: "uae", RID: "R2", Project: "UAE"})
	if p["status"] != "entry" || p["cell"] != "uae" || p["project"] != "UAE" {
		t.Fatalf("unexpected entry payload %v", p)
	}
}

func TestSendNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := New(nil, WithConfig(Config{URL: srv.URL, Headers: map[string]string{"X-Token": "t"}}))
	err := a.Send(context.Background(), adapters.Message{Status: "quota"})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSendRequiresURL(t *testing.T) {
	if err := New(nil).Send(context.Background(), adapters.Message{}); err == nil {
		t.Fatalf("expected missing url error")
	}
}

func TestDryRunSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	a := New(nil, WithConfig(Config{URL: srv.URL, DryRun: true}))
	if err := a.Send(context.Background(), adapters.Message{}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if called {
		t.Fatalf("dry run must not call the endpoint")
	}
}

func TestSendForwardsMetadataWhenEnabled(t *testing.T) {
	bodies := make(chan map[string]any, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got map[string]any
		_ = json.NewDecoder(r.Body).Decode(&got)
		bodies <- got
	}))
	defer srv.Close()

	msg := adapters.Message{
		Kind:     adapters.KindExit,
		Status:   "terminate",
		RID:      "R9",
		Metadata: map[string]any{adapters.MetaVendor: "gomr"},
	}
	if err := New(nil, WithConfig(Config{URL: srv.URL, ForwardMetadata: true})).Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	got := <-bodies
	meta, ok := got["metadata"].(map[string]any)
	if !ok || meta[adapters.MetaVendor] != "gomr" {
		t.Fatalf("expected forwarded metadata, got %v", got)
	}

	if err := New(nil, WithConfig(Config{URL: srv.URL})).Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := <-bodies; got["metadata"] != nil {
		t.Fatalf("expected metadata omitted by default, got %v", got["metadata"])
	}
}
