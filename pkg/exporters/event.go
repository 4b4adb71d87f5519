package exporters

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	KindGraphSnapshot = "knowledge_graph_snapshot"
	KindChatExchange  = "chat_exchange"
)

// Event represents the payload exported downstream.
type Event struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Profile     string          `json:"profile"`
	Payload     json.RawMessage `json:"payload"`
	CollectedAt time.Time       `json:"collected_at"`
}

// NewEvent wraps a raw backend body for export.
func NewEvent(kind, profile string, payload json.RawMessage) Event {
	return Event{
		ID:          uuid.NewString(),
		Kind:        kind,
		Profile:     profile,
		Payload:     payload,
		CollectedAt: time.Now().UTC(),
	}
}
