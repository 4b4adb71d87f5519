package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/samvad-hq/triage-kg-client/internal/config"
	"github.com/samvad-hq/triage-kg-client/internal/logger"
	"github.com/samvad-hq/triage-kg-client/internal/transcript"
	"github.com/samvad-hq/triage-kg-client/pkg/exporters"
	"github.com/samvad-hq/triage-kg-client/pkg/httpclient"
	"github.com/samvad-hq/triage-kg-client/pkg/kgapi"
)

// ErrNoExporters is returned by ExportGraph when no enabled exporter accepts
// graph snapshots.
var ErrNoExporters = errors.New("no exporters configured for graph snapshots")

// clientFactory builds the shared HTTP client for a console.
type clientFactory func(cfg httpclient.Config, opts ...httpclient.Option) (*httpclient.Client, error)

// Console is the operator runtime. It binds the API groups to the shared
// client and records chat exchanges in the transcript store while fanning
// them out to the configured exporters.
type Console struct {
	cfg    *config.Config
	client *httpclient.Client
	api    *kgapi.API
	store  transcript.Store
	all    *exporters.Fanout
	byKind map[string]*exporters.Fanout
	log    logger.Logger
}

// Result is the outcome of one backend call.
type Result struct {
	Body json.RawMessage `json:"body,omitempty"`
	Err  error           `json:"-"`
}

// StatusReport collects the independent results of the status probes.
type StatusReport struct {
	Profile string `json:"profile"`
	Health  Result `json:"health"`
	Neo4j   Result `json:"neo4j"`
	Graph   Result `json:"knowledge_graph"`
}

// NewConsole builds a console runtime from config. The HTTP client is the
// process-wide one; a second console in the same process reuses it.
func NewConsole(ctx context.Context, cfg *config.Config, log logger.Logger) (*Console, error) {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return newConsole(ctx, cfg, log, func(c httpclient.Config, opts ...httpclient.Option) (*httpclient.Client, error) {
		client, err := httpclient.Init(c, opts...)
		if errors.Is(err, httpclient.ErrAlreadyInitialized) {
			log.WarnObj("http client already initialized; reusing it", "client_config", client.Config())
			return client, nil
		}
		return client, err
	})
}

func newConsole(ctx context.Context, cfg *config.Config, log logger.Logger, build clientFactory) (*Console, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	profile, err := resolveProfile(cfg)
	if err != nil {
		return nil, err
	}

	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = profile.BaseURL
	}
	client, err := build(httpclient.Config{
		BaseURL: baseURL,
		Timeout: cfg.APITimeout,
	}, httpclient.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("init http client: %w", err)
	}
	log.InfoObj("api client configured", "client_meta", map[string]any{
		"profile":    profile.Name,
		"base_url":   client.Config().BaseURL,
		"timeout_ms": client.Config().Timeout.Milliseconds(),
	})

	store, err := transcript.NewStore(cfg.TranscriptType, cfg.TranscriptPath, transcript.Options{
		EntryTTL:        cfg.TranscriptTTL,
		CleanupInterval: cfg.TranscriptCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init transcript: %w", err)
	}
	log.InfoObj("transcript initialized", "transcript_config", map[string]any{
		"type":                     cfg.TranscriptType,
		"path":                     cfg.TranscriptPath,
		"ttl_seconds":              int(cfg.TranscriptTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.TranscriptCleanupInterval.Seconds()),
	})

	all, byKind, err := buildExporters(ctx, cfg.ExportersFile, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Console{
		cfg:    cfg,
		client: client,
		api:    kgapi.New(client, profile),
		store:  store,
		all:    all,
		byKind: byKind,
		log:    log,
	}, nil
}

func resolveProfile(cfg *config.Config) (kgapi.Profile, error) {
	profiles := kgapi.DefaultProfiles()
	if cfg.ProfilesFile != "" {
		loaded, err := kgapi.LoadProfiles(cfg.ProfilesFile)
		if err != nil {
			return kgapi.Profile{}, fmt.Errorf("load profiles: %w", err)
		}
		profiles = loaded
	}

	name := cfg.APIProfile
	if name == "" {
		name = kgapi.ProfileAPI
	}
	profile, ok := profiles.ByName(name)
	if !ok {
		return kgapi.Profile{}, fmt.Errorf("unknown api profile %q (available: %s)", name, strings.Join(profiles.Names(), ", "))
	}
	return profile, nil
}

// buildExporters loads the exporters file. A missing file disables exporting.
func buildExporters(ctx context.Context, path string, log logger.Logger) (*exporters.Fanout, map[string]*exporters.Fanout, error) {
	if path == "" {
		return exporters.NewFanout(nil), nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.DebugObj("exporters file not found; exporting disabled", "exporters_file", path)
		return exporters.NewFanout(nil), nil, nil
	}

	reg, err := exporters.LoadRegistry(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load exporters registry: %w", err)
	}

	enabled := reg.Enabled("")
	built, err := exporters.BuildAll(ctx, exporters.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, nil, fmt.Errorf("build exporters: %w", err)
	}

	byKind := make(map[string]*exporters.Fanout)
	for _, kind := range []string{exporters.KindGraphSnapshot, exporters.KindChatExchange} {
		var selected []exporters.Exporter
		for i, exp := range built {
			if enabled[i].Accepts(kind) {
				selected = append(selected, exp)
			}
		}
		byKind[kind] = exporters.NewFanout(selected)
	}

	summaries := make([]map[string]any, 0, len(enabled))
	for _, c := range enabled {
		summaries = append(summaries, map[string]any{
			"id":    c.ID,
			"type":  c.Type,
			"kinds": c.Kinds,
		})
	}
	log.InfoObj("exporters registry loaded", "exporters_meta", map[string]any{
		"count":     len(summaries),
		"exporters": summaries,
	})

	return exporters.NewFanout(built), byKind, nil
}

// Profile returns the route profile the console is bound to.
func (c *Console) Profile() kgapi.Profile { return c.api.Profile() }

// Chat sends a question to the backend, records the exchange and exports it.
// The backend result is returned unchanged; recording failures are only logged.
func (c *Console) Chat(ctx context.Context, message string) (json.RawMessage, error) {
	body, err := c.api.Chat.SendMessage(ctx, message)

	entry := transcript.Entry{
		Profile:  c.Profile().Name,
		Question: message,
		Answer:   body,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	saved, serr := c.store.Append(entry)
	if serr != nil {
		c.log.WarnObj("transcript append failed", "error", serr.Error())
		saved = entry
	}

	if payload, merr := json.Marshal(saved); merr == nil {
		c.export(ctx, exporters.KindChatExchange, payload)
	}
	return body, err
}

// Health calls the health route.
func (c *Console) Health(ctx context.Context) (json.RawMessage, error) {
	return c.api.Chat.HealthCheck(ctx)
}

// Graph fetches the full knowledge graph.
func (c *Console) Graph(ctx context.Context) (json.RawMessage, error) {
	return c.api.Knowledge.GetKnowledgeGraph(ctx)
}

// Search looks up keyword in the knowledge base.
func (c *Console) Search(ctx context.Context, keyword string) (json.RawMessage, error) {
	return c.api.Knowledge.SearchKnowledge(ctx, keyword)
}

// Neo4jStatus reports the graph database status.
func (c *Console) Neo4jStatus(ctx context.Context) (json.RawMessage, error) {
	return c.api.Neo4j.GetNeo4jStatus(ctx)
}

// Status probes health, neo4j and the graph concurrently. A failing probe
// never affects the others.
func (c *Console) Status(ctx context.Context) StatusReport {
	report := StatusReport{Profile: c.Profile().Name}

	probes := []struct {
		dst  *Result
		call func(context.Context) (json.RawMessage, error)
	}{
		{&report.Health, c.Health},
		{&report.Neo4j, c.Neo4jStatus},
		{&report.Graph, c.Graph},
	}

	var wg sync.WaitGroup
	for _, p := range probes {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, err := p.call(ctx)
			*p.dst = Result{Body: body, Err: err}
		}()
	}
	wg.Wait()
	return report
}

// History returns the most recent recorded chat exchanges, newest first.
func (c *Console) History(limit int) ([]transcript.Entry, error) {
	entries, err := c.store.Recent(limit)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return entries, nil
}

// ExportGraph fetches the knowledge graph and delivers it to every exporter
// accepting graph snapshots. It returns the number of successful deliveries.
func (c *Console) ExportGraph(ctx context.Context) (int, error) {
	fan := c.byKind[exporters.KindGraphSnapshot]
	if fan.Size() == 0 {
		return 0, ErrNoExporters
	}

	body, err := c.Graph(ctx)
	if err != nil {
		return 0, err
	}

	evt := exporters.NewEvent(exporters.KindGraphSnapshot, c.Profile().Name, body)
	delivered, err := fan.Export(ctx, evt)
	c.log.InfoObj("graph snapshot exported", "export_meta", map[string]any{
		"event_id":  evt.ID,
		"delivered": delivered,
		"targets":   fan.Size(),
	})
	return delivered, err
}

func (c *Console) export(ctx context.Context, kind string, payload json.RawMessage) {
	fan := c.byKind[kind]
	if fan.Size() == 0 {
		return
	}
	evt := exporters.NewEvent(kind, c.Profile().Name, payload)
	if _, err := fan.Export(ctx, evt); err != nil {
		c.log.WarnObj("event export failed", "export_error", map[string]any{
			"event_id": evt.ID,
			"kind":     kind,
			"error":    err.Error(),
		})
	}
}

// Close releases the transcript store, exporter clients and idle connections.
func (c *Console) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close transcript: %w", err))
		}
	}
	if err := c.all.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close exporters: %w", err))
	}
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close http client: %w", err))
		}
	}
	return errors.Join(errs...)
}
