package exporters

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubExporter struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubExporter) ID() string   { return s.id }
func (s *stubExporter) Type() string { return s.typ }
func (s *stubExporter) Export(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubExporter) Close() error {
	s.closed = true
	return nil
}

func TestFanoutExportAggregatesErrors(t *testing.T) {
	ok := &stubExporter{id: "ok", typ: "http"}
	bad := &stubExporter{id: "bad", typ: "sqs", err: errors.New("failed")}
	fanout := NewFanout([]Exporter{ok, nil, bad})

	if fanout.Size() != 2 {
		t.Fatalf("expected nil exporters to be dropped, size=%d", fanout.Size())
	}

	count, err := fanout.Export(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil || !strings.Contains(err.Error(), "sqs exporter[bad]") {
		t.Fatalf("expected aggregated error naming the exporter, got %v", err)
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("each exporter should be called once: ok=%d bad=%d", ok.calls, bad.calls)
	}

	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !ok.closed || !bad.closed {
		t.Fatalf("expected all exporters to be closed")
	}
}

func TestNilFanoutIsEmpty(t *testing.T) {
	var f *Fanout
	if n, err := f.Export(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("nil fanout Export = %d, %v", n, err)
	}
	if f.Size() != 0 || f.Close() != nil {
		t.Fatalf("nil fanout should be inert")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	exps, err := BuildAll(context.Background(), reg, []ExporterConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPExporterConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(exps) != 1 || exps[0].Type() != TypeHTTP {
		t.Fatalf("expected 1 http exporter, got %#v", exps)
	}
}

func TestBuildAllClosesBuiltExportersOnFailure(t *testing.T) {
	built := &stubExporter{id: "first", typ: "stub"}
	reg := NewRegistry(map[string]Builder{
		"stub": func(context.Context, ExporterConfig, Logger) (Exporter, error) { return built, nil },
	})

	_, err := BuildAll(context.Background(), reg, []ExporterConfig{
		{ID: "first", Type: "stub"},
		{ID: "second", Type: "carrier-pigeon"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unregistered type")
	}
	if !built.closed {
		t.Fatalf("expected already built exporter to be closed")
	}
}
