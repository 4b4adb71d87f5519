package kgapi

import (
	"encoding/json"
	"fmt"
)

// Typed views of the bodies the backend is known to return. The client never
// enforces them; callers opt in through Decode.

type ChatReply struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

type HealthStatus struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	DatabaseStatus string `json:"database_status,omitempty"`
}

type GraphNode struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Group      string `json:"group"`
	Type       string `json:"type,omitempty"`
	Properties any    `json:"properties,omitempty"`
}

type GraphLink struct {
	Source           string `json:"source"`
	Target           string `json:"target"`
	Value            int    `json:"value"`
	RelationshipType string `json:"relationshipType,omitempty"`
	Properties       any    `json:"properties,omitempty"`
}

type KnowledgeGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

type SearchHit struct {
	Type    string          `json:"type"`
	Name    string          `json:"name"`
	Details json.RawMessage `json:"details"`
}

type SearchResults struct {
	Results []SearchHit `json:"results"`
	Error   string      `json:"error,omitempty"`
}

type Neo4jStatus struct {
	Status  string `json:"status"`
	URI     string `json:"uri,omitempty"`
	Message string `json:"message"`
}

// Decode unmarshals a raw body into T.
func Decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %T: %w", out, err)
	}
	return out, nil
}
