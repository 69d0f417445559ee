package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/goliatone/go-survey-relay/pkg/adapters"
)

type captured struct {
	query url.Values
	body  payload
}

func collector(t *testing.T, status int, out *captured) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out.query = r.URL.Query()
		if err := json.NewDecoder(r.Body).Decode(&out.body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(status)
	}))
}

func TestSendMeasurementProtocol(t *testing.T) {
	var got captured
	srv := collector(t, http.StatusNoContent, &got)
	defer srv.Close()

	a := New(nil, WithConfig(Config{MeasurementID: "G-1", APISecret: "sec", Endpoint: srv.URL + "/mp/collect"}))
	err := a.Send(context.Background(), adapters.Message{Status: "complete", RID: "R1", Source: "gomr"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.query.Get("measurement_id") != "G-1" || got.query.Get("api_secret") != "sec" {
		t.Fatalf("unexpected query %v", got.query)
	}
	if got.body.ClientID != "R1" || len(got.body.Events) != 1 {
		t.Fatalf("unexpected body %+v", got.body)
	}
	ev := got.body.Events[0]
	if ev.Name != DefaultEventName || ev.Params["status"] != "complete" || ev.Params["src"] != "gomr" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestSendAnonymousClientID(t *testing.T) {
	var got captured
	srv := collector(t, http.StatusOK, &got)
	defer srv.Close()

	a := New(nil, WithConfig(Config{MeasurementID: "G-1", APISecret: "sec", Endpoint: srv.URL}))
	if err := a.Send(context.Background(), adapters.Message{Status: "terminate"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(got.body.ClientID) != 32 {
		t.Fatalf("expected random hex client id, got %q", got.body.ClientID)
	}
}

func TestSendRequiresCredentials(t *testing.T) {
	if err := New(nil).Send(context.Background(), adapters.Message{}); err == nil {
		t.Fatalf("expected credential error")
	}
}

func TestSendNon2xx(t *testing.T) {
	var got captured
	srv := collector(t, http.StatusInternalServerError, &got)
	defer srv.Close()

	a := New(nil, WithConfig(Config{MeasurementID: "G-1", APISecret: "sec", Endpoint: srv.URL}))
	if err := a.Send(context.Background(), adapters.Message{RID: "R"}); err == nil {
		t.Fatalf("expected status error")
	}
}
