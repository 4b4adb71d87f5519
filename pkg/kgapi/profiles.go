package kgapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// ProfileAPI is the canonical route set served under /api.
	ProfileAPI = "api"
	// ProfileBlueprint is the route set of the blueprint-mounted backend.
	ProfileBlueprint = "blueprint"
)

// Profile is one backend route table. An empty route means the backend
// variant does not expose that operation.
type Profile struct {
	Name            string `json:"name" yaml:"name"`
	BaseURL         string `json:"base_url" yaml:"base_url"`
	Chat            string `json:"chat" yaml:"chat"`
	Health          string `json:"health" yaml:"health"`
	KnowledgeGraph  string `json:"knowledge_graph" yaml:"knowledge_graph"`
	KnowledgeSearch string `json:"knowledge_search" yaml:"knowledge_search"`
	Neo4jStatus     string `json:"neo4j_status" yaml:"neo4j_status"`
}

func builtinProfiles() []Profile {
	return []Profile{
		{
			Name:            ProfileAPI,
			BaseURL:         "http://localhost:5000/api",
			Chat:            "/chat",
			Health:          "/health",
			KnowledgeGraph:  "/knowledge-graph",
			KnowledgeSearch: "/knowledge/search",
		},
		{
			Name:           ProfileBlueprint,
			BaseURL:        "http://localhost:5000",
			Chat:           "/chat/answer_questions",
			KnowledgeGraph: "/knowledge_graph/get_kg",
			Neo4jStatus:    "/knowledge_graph/neo4j/status",
		},
	}
}

type profilesFile struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}

// Profiles indexes route tables by name.
type Profiles struct {
	mu  sync.RWMutex
	idx map[string]Profile
}

// DefaultProfiles returns the built-in route tables.
func DefaultProfiles() *Profiles {
	p := &Profiles{idx: make(map[string]Profile)}
	for _, prof := range builtinProfiles() {
		p.idx[prof.Name] = prof
	}
	return p
}

// LoadProfiles loads the built-in tables and overlays the entries of a
// YAML/JSON file. An empty path yields only the built-ins.
func LoadProfiles(path string) (*Profiles, error) {
	p := DefaultProfiles()

	path = strings.TrimSpace(path)
	if path == "" {
		return p, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	parsed, err := parseProfiles(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Profiles) == 0 {
		return nil, errors.New("profiles file contains no profiles entries")
	}

	seen := make(map[string]struct{}, len(parsed.Profiles))
	for i := range parsed.Profiles {
		prof := sanitizeProfile(parsed.Profiles[i])
		if err := validateProfile(prof); err != nil {
			return nil, fmt.Errorf("profiles[%d]: %w", i, err)
		}
		if _, dup := seen[prof.Name]; dup {
			return nil, fmt.Errorf("duplicate profile name %q", prof.Name)
		}
		seen[prof.Name] = struct{}{}
		p.idx[prof.Name] = prof
	}
	return p, nil
}

type unmarshalFn func([]byte, any) error

func parseProfiles(data []byte, ext string) (profilesFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var out profilesFile
		if err := d.fn(data, &out); err == nil {
			return out, nil
		}
	}

	return profilesFile{}, errors.New("profiles file format not recognized (expected YAML or JSON)")
}

func sanitizeProfile(p Profile) Profile {
	p.Name = strings.ToLower(strings.TrimSpace(p.Name))
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	p.Chat = sanitizeRoute(p.Chat)
	p.Health = sanitizeRoute(p.Health)
	p.KnowledgeGraph = sanitizeRoute(p.KnowledgeGraph)
	p.KnowledgeSearch = sanitizeRoute(p.KnowledgeSearch)
	p.Neo4jStatus = sanitizeRoute(p.Neo4jStatus)
	return p
}

func sanitizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return ""
	}
	return "/" + strings.TrimLeft(route, "/")
}

func validateProfile(p Profile) error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.BaseURL == "" {
		return fmt.Errorf("base_url is required for profile %q", p.Name)
	}
	if p.Chat == "" && p.Health == "" && p.KnowledgeGraph == "" && p.KnowledgeSearch == "" && p.Neo4jStatus == "" {
		return fmt.Errorf("profile %q declares no routes", p.Name)
	}
	return nil
}

// ByName returns the profile with the given name.
func (p *Profiles) ByName(name string) (Profile, bool) {
	if p == nil {
		return Profile{}, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Profile{}, false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	prof, ok := p.idx[name]
	return prof, ok
}

// Names lists the known profile names in sorted order.
func (p *Profiles) Names() []string {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, 0, len(p.idx))
	for name := range p.idx {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
