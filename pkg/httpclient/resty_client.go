package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "http://localhost:5000/api"
	DefaultTimeout = 10 * time.Second

	headerContentType = "Content-Type"
	mimeJSON          = "application/json"
)

// Config binds a client to one backend. It is copied on construction.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

// DefaultConfig returns the local backend settings.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
		Headers: map[string]string{headerContentType: mimeJSON},
	}
}

func normalizeConfig(cfg Config) Config {
	out := Config{
		BaseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		Timeout: cfg.Timeout,
		Headers: make(map[string]string, len(cfg.Headers)+1),
	}
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	for k, v := range cfg.Headers {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		out.Headers[http.CanonicalHeaderKey(key)] = strings.TrimSpace(v)
	}
	if out.Headers[headerContentType] == "" {
		out.Headers[headerContentType] = mimeJSON
	}
	return out
}

// Client is the shared facade every API group calls through. Its
// configuration and hook chains are fixed at construction.
type Client struct {
	cfg           Config
	rest          *resty.Client
	log           Logger
	requestHooks  []RequestHook
	responseHooks []ResponseHook
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(log Logger) Option {
	return func(c *Client) { c.log = ensureLogger(log) }
}

// WithRequestHooks appends hooks after the default pass-through hook.
func WithRequestHooks(hooks ...RequestHook) Option {
	return func(c *Client) {
		for _, h := range hooks {
			if h != nil {
				c.requestHooks = append(c.requestHooks, h)
			}
		}
	}
}

// WithResponseHooks appends hooks after the default failure logger.
func WithResponseHooks(hooks ...ResponseHook) Option {
	return func(c *Client) {
		for _, h := range hooks {
			if h != nil {
				c.responseHooks = append(c.responseHooks, h)
			}
		}
	}
}

// New configures a client bound to cfg.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg: normalizeConfig(cfg),
		log: noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.requestHooks = append([]RequestHook{PassThrough}, c.requestHooks...)
	c.responseHooks = append([]ResponseHook{LogFailures(c.log)}, c.responseHooks...)
	c.rest = newRestyBaseClient(c.cfg.Timeout).
		SetBaseURL(c.cfg.BaseURL).
		SetHeaders(c.cfg.Headers).
		SetLogger(restyLogger{log: c.log})
	return c
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// Config returns a copy of the bound configuration.
func (c *Client) Config() Config {
	out := c.cfg
	out.Headers = make(map[string]string, len(c.cfg.Headers))
	for k, v := range c.cfg.Headers {
		out.Headers[k] = v
	}
	return out
}

// Get issues a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query map[string]string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Do runs the request hooks, performs exactly one HTTP call and runs the
// response hooks. On success only the body is returned; failures are
// returned as produced by the transport or the hooks.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := c.roundTrip(ctx, req)
	for _, hook := range c.responseHooks {
		resp, err = hook(ctx, resp, err)
	}
	if err != nil {
		return nil, err
	}
	return unwrapBody(resp), nil
}

func (c *Client) roundTrip(ctx context.Context, req Request) (*Response, error) {
	prepared := &req
	for _, hook := range c.requestHooks {
		next, err := hook(ctx, prepared)
		if err != nil {
			return nil, err
		}
		if next != nil {
			prepared = next
		}
	}
	if err := validateRequest(prepared); err != nil {
		return nil, err
	}
	return c.send(ctx, prepared)
}

func validateRequest(req *Request) error {
	req.Method = strings.ToUpper(strings.TrimSpace(req.Method))
	switch req.Method {
	case http.MethodGet:
		if req.Body != nil {
			return fmt.Errorf("%w: GET %s must not carry a body", ErrInvalidRequest, req.Path)
		}
	case http.MethodPost:
	default:
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidRequest, req.Method)
	}
	if strings.TrimSpace(req.Path) == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidRequest)
	}
	return nil
}

func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	r := c.rest.R().SetContext(ctx)
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return nil, err
	}

	env := &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}
	if !resp.IsSuccess() {
		return env, &StatusError{
			Method:     req.Method,
			URL:        resp.Request.URL,
			StatusCode: env.StatusCode,
			Body:       env.Body,
		}
	}
	return env, nil
}

// Close releases idle keep-alive connections. The client stays usable.
func (c *Client) Close() error {
	if c == nil || c.rest == nil {
		return nil
	}
	c.rest.GetClient().CloseIdleConnections()
	return nil
}

// unwrapBody strips the envelope. JSON bodies pass through verbatim; anything
// else (including an empty body) becomes a JSON string.
func unwrapBody(resp *Response) json.RawMessage {
	if resp == nil {
		return json.RawMessage("null")
	}
	trimmed := bytes.TrimSpace(resp.Body)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		out := make(json.RawMessage, len(trimmed))
		copy(out, trimmed)
		return out
	}
	text, _ := json.Marshal(string(resp.Body))
	return text
}
