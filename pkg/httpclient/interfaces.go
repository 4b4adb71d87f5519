package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
)

// Requester is the call surface API groups depend on. *Client implements it;
// tests inject fakes.
type Requester interface {
	Get(ctx context.Context, path string, query map[string]string) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// Request describes one outgoing call. Path is relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Body   any
	Query  map[string]string
}

// Response is the transport envelope. Callers of Do never see it; only
// response hooks do.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RequestHook runs before the request is sent. Returning an error aborts the
// call before any network I/O.
type RequestHook func(ctx context.Context, req *Request) (*Request, error)

// ResponseHook runs after the transport step with either an envelope, an
// error, or both (non-2xx responses carry both).
type ResponseHook func(ctx context.Context, resp *Response, err error) (*Response, error)
