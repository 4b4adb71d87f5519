// Package transcript keeps a local, expiring history of chat exchanges.
// It is never consulted to answer a request.
package transcript

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Entry is one question/answer exchange.
type Entry struct {
	ID        string          `json:"id"`
	Profile   string          `json:"profile"`
	Question  string          `json:"question"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Store persists chat exchanges.
type Store interface {
	Close() error
	Append(entry Entry) (Entry, error)
	Recent(limit int) ([]Entry, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEntryTTL        = 7 * 24 * time.Hour
	defaultCleanupInterval = time.Hour
	defaultRecentLimit     = 20
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt transcript requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported transcript type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                   { return nil }
func (noopStore) Append(e Entry) (Entry, error) { return e, nil }
func (noopStore) Recent(int) ([]Entry, error)   { return nil, nil }
