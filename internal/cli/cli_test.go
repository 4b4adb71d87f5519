package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/samvad-hq/triage-kg-client/internal/app"
	"github.com/samvad-hq/triage-kg-client/internal/config"
	"github.com/samvad-hq/triage-kg-client/internal/logger"
	"github.com/samvad-hq/triage-kg-client/internal/transcript"
	"github.com/samvad-hq/triage-kg-client/pkg/kgapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	asked   []string
	graph   json.RawMessage
	status  app.StatusReport
	history []transcript.Entry
	closed  int
}

func (f *fakeRuntime) Profile() kgapi.Profile { return kgapi.Profile{Name: kgapi.ProfileAPI} }

func (f *fakeRuntime) Chat(_ context.Context, message string) (json.RawMessage, error) {
	f.asked = append(f.asked, message)
	return json.RawMessage(`{"response":"echo: ` + message + `","timestamp":"now"}`), nil
}

func (f *fakeRuntime) Health(context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"status":"healthy"}`), nil
}

func (f *fakeRuntime) Graph(context.Context) (json.RawMessage, error) { return f.graph, nil }

func (f *fakeRuntime) Search(_ context.Context, keyword string) (json.RawMessage, error) {
	return json.RawMessage(`{"results":[{"type":"Condition","name":"` + keyword + `","details":{"severity":"high"}}]}`), nil
}

func (f *fakeRuntime) Neo4jStatus(context.Context) (json.RawMessage, error) {
	return nil, errors.New("api request failed: 500")
}

func (f *fakeRuntime) Status(context.Context) app.StatusReport { return f.status }

func (f *fakeRuntime) History(limit int) ([]transcript.Entry, error) {
	if limit < len(f.history) {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakeRuntime) ExportGraph(context.Context) (int, error) { return 2, nil }

func (f *fakeRuntime) Close() error {
	f.closed++
	return nil
}

type harness struct {
	rt     *fakeRuntime
	cfg    *config.Config
	builds int
	out    bytes.Buffer
}

func newHarness() *harness {
	return &harness{rt: &fakeRuntime{
		graph: json.RawMessage(`{"nodes":[{"id":"n1","label":"Sepsis","group":"Condition"}],"links":[{"source":"n1","target":"n2","value":1,"relationshipType":"TREATS"}]}`),
	}}
}

func (h *harness) run(args ...string) error {
	cmd := newCLI(func(_ context.Context, cfg *config.Config, _ logger.Logger) (Runtime, error) {
		h.builds++
		h.cfg = cfg
		return h.rt, nil
	}, &h.out)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestChatJoinsArgsAndPrintsJSON(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run("chat", "what", "is", "sepsis?"))

	assert.Equal(t, []string{"what is sepsis?"}, h.rt.asked)
	assert.JSONEq(t, `{"response":"echo: what is sepsis?","timestamp":"now"}`, h.out.String())
	assert.Contains(t, h.out.String(), "\n  \"response\"", "output should be indented")
	assert.Equal(t, 1, h.rt.closed)
}

func TestSelectNarrowsBody(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run("chat", "hi", "--select", "response"))
	assert.Equal(t, "\"echo: hi\"\n", h.out.String())

	h = newHarness()
	err := h.run("chat", "hi", "--select", "missing.path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matched nothing")
	assert.Equal(t, 1, h.rt.closed, "runtime must be closed after a failed command")
}

func TestGraphTable(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run("graph", "-o", "table"))

	out := h.out.String()
	assert.Contains(t, out, "Nodes (1)")
	assert.Contains(t, out, "Sepsis")
	assert.Contains(t, out, "Links (1)")
	assert.Contains(t, out, "TREATS")
}

func TestSearchTable(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run("search", "shock", "--output", "table"))

	out := h.out.String()
	assert.Contains(t, out, "shock")
	assert.Contains(t, out, `{"severity":"high"}`)
}

func TestNeo4jErrorIsReturned(t *testing.T) {
	h := newHarness()
	err := h.run("neo4j")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Empty(t, h.out.String())
}

func TestStatusReportsEachProbe(t *testing.T) {
	h := newHarness()
	h.rt.status = app.StatusReport{
		Profile: kgapi.ProfileAPI,
		Health:  app.Result{Body: json.RawMessage(`{"status":"healthy"}`)},
		Neo4j:   app.Result{Err: kgapi.ErrRouteUnavailable},
		Graph:   app.Result{Body: h.rt.graph},
	}

	err := h.run("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 status probes failed")

	var view statusView
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &view))
	assert.True(t, view.Health.OK)
	assert.False(t, view.Neo4j.OK)
	assert.Contains(t, view.Neo4j.Error, "route not available")
	assert.JSONEq(t, `{"nodes":1,"links":1}`, string(view.Graph.Body))
}

func TestHistoryTable(t *testing.T) {
	h := newHarness()
	h.rt.history = []transcript.Entry{
		{Profile: "api", Question: "q1", Answer: json.RawMessage(`{"response":"a1"}`), CreatedAt: time.Now()},
		{Profile: "api", Question: "q2", Error: "boom", CreatedAt: time.Now()},
	}

	require.NoError(t, h.run("history", "-n", "5", "-o", "table"))
	out := h.out.String()
	assert.Contains(t, out, "a1")
	assert.Contains(t, out, "boom")
}

func TestExportPrintsDeliveries(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run("export"))
	assert.JSONEq(t, `{"delivered":2}`, h.out.String())
}

func TestFlagsOverrideConfig(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run("health", "--profile", "Blueprint", "--base-url", " http://backend:5000 ", "--timeout", "3s"))

	require.NotNil(t, h.cfg)
	assert.Equal(t, "blueprint", h.cfg.APIProfile)
	assert.Equal(t, "http://backend:5000", h.cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, h.cfg.APITimeout)
	assert.EqualValues(t, 3000, h.cfg.APITimeoutMs)
}

func TestInvalidOutputRejectedBeforeRuntime(t *testing.T) {
	h := newHarness()
	err := h.run("health", "-o", "yaml")
	require.Error(t, err)
	assert.Zero(t, h.builds)
}

func TestVersionSkipsRuntime(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.run("version"))
	assert.Zero(t, h.builds)
	assert.Contains(t, h.out.String(), "kgclient version")
}

func TestTruncate(t *testing.T) {
	long := bytes.Repeat([]byte("é"), maxCellWidth+5)
	got := []rune(truncate(string(long)))
	assert.Len(t, got, maxCellWidth)
	assert.Equal(t, "...", string(got[len(got)-3:]))
	assert.Equal(t, "short", truncate("short"))
}
