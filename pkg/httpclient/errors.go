package httpclient

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyInitialized is returned by Init when the process-wide client exists.
	ErrAlreadyInitialized = errors.New("default client already initialized")
	// ErrInvalidRequest marks requests rejected before any network I/O.
	ErrInvalidRequest = errors.New("invalid request")
)

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: http response status %d: %s", e.Method, e.URL, e.StatusCode, readBodySnippet(e.Body))
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
