// Package kgapi exposes the triage backend operations as small method groups
// that forward to one shared httpclient.Requester.
package kgapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samvad-hq/triage-kg-client/pkg/httpclient"
)

// ErrRouteUnavailable is returned, without any network call, when the active
// profile does not expose an operation.
var ErrRouteUnavailable = errors.New("route not available in profile")

// API bundles the method groups bound to one client and profile.
type API struct {
	Chat      ChatAPI
	Knowledge KnowledgeAPI
	Neo4j     Neo4jAPI
	profile   Profile
}

// New binds the method groups to client using the routes of profile.
func New(client httpclient.Requester, profile Profile) *API {
	b := binding{client: client, profile: profile}
	return &API{
		Chat:      ChatAPI{b},
		Knowledge: KnowledgeAPI{b},
		Neo4j:     Neo4jAPI{b},
		profile:   profile,
	}
}

// Default binds the groups to the process-wide client and the api profile.
func Default() *API {
	prof, _ := DefaultProfiles().ByName(ProfileAPI)
	return New(httpclient.Default(), prof)
}

// Profile returns the route table in use.
func (a *API) Profile() Profile { return a.profile }

type binding struct {
	client  httpclient.Requester
	profile Profile
}

func (b binding) route(op, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%s: %w %q", op, ErrRouteUnavailable, b.profile.Name)
	}
	return path, nil
}

func (b binding) get(ctx context.Context, op, path string, query map[string]string) (json.RawMessage, error) {
	p, err := b.route(op, path)
	if err != nil {
		return nil, err
	}
	return b.client.Get(ctx, p, query)
}

func (b binding) post(ctx context.Context, op, path string, body any) (json.RawMessage, error) {
	p, err := b.route(op, path)
	if err != nil {
		return nil, err
	}
	return b.client.Post(ctx, p, body)
}

// ChatAPI covers the question-answering endpoints.
type ChatAPI struct{ b binding }

type chatRequest struct {
	Message string `json:"message"`
}

// SendMessage posts {"message": message} to the chat route.
func (c ChatAPI) SendMessage(ctx context.Context, message string) (json.RawMessage, error) {
	return c.b.post(ctx, "send message", c.b.profile.Chat, chatRequest{Message: message})
}

// HealthCheck queries the health route.
func (c ChatAPI) HealthCheck(ctx context.Context) (json.RawMessage, error) {
	return c.b.get(ctx, "health check", c.b.profile.Health, nil)
}

// KnowledgeAPI covers the knowledge graph endpoints.
type KnowledgeAPI struct{ b binding }

// GetKnowledgeGraph fetches the whole graph.
func (k KnowledgeAPI) GetKnowledgeGraph(ctx context.Context) (json.RawMessage, error) {
	return k.b.get(ctx, "get knowledge graph", k.b.profile.KnowledgeGraph, nil)
}

// SearchKnowledge searches the knowledge base with q=keyword.
func (k KnowledgeAPI) SearchKnowledge(ctx context.Context, keyword string) (json.RawMessage, error) {
	return k.b.get(ctx, "search knowledge", k.b.profile.KnowledgeSearch, map[string]string{"q": keyword})
}

// Neo4jAPI reports on the graph database behind the backend.
type Neo4jAPI struct{ b binding }

// GetNeo4jStatus queries the neo4j status route.
func (n Neo4jAPI) GetNeo4jStatus(ctx context.Context) (json.RawMessage, error) {
	return n.b.get(ctx, "get neo4j status", n.b.profile.Neo4jStatus, nil)
}
