package exporters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPExporterSuccess(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if h := r.Header.Get("X-Test"); h != "1" {
			t.Errorf("missing header, got %s", h)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	exp, err := newHTTPExporter(context.Background(), ExporterConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPExporterConfig{
			URL:            srv.URL,
			Method:         http.MethodPut,
			Headers:        map[string]string{"X-Test": "1"},
			TimeoutSeconds: 2,
		},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPExporter: %v", err)
	}
	defer exp.(*httpExporter).Close()

	evt := NewEvent(KindGraphSnapshot, "api", json.RawMessage(`{"nodes":[]}`))
	if err := exp.Export(context.Background(), evt); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if got.ID != evt.ID || got.Kind != KindGraphSnapshot || string(got.Payload) != `{"nodes":[]}` {
		t.Fatalf("server received %#v", got)
	}
}

func TestHTTPExporterErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	exp, err := newHTTPExporter(context.Background(), ExporterConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPExporterConfig{URL: srv.URL, TimeoutSeconds: 1},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPExporter: %v", err)
	}

	if err := exp.Export(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}

func TestHTTPExporterRequiresConfig(t *testing.T) {
	if _, err := newHTTPExporter(context.Background(), ExporterConfig{ID: "x", Type: TypeHTTP}, nil); err == nil {
		t.Fatalf("expected error for missing http block")
	}
}
