package httpclient

import "sync"

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Init builds the process-wide client. Only the first call constructs;
// later calls return the existing client with ErrAlreadyInitialized.
func Init(cfg Config, opts ...Option) (*Client, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultClient != nil {
		return defaultClient, ErrAlreadyInitialized
	}
	defaultClient = New(cfg, opts...)
	return defaultClient, nil
}

// Default returns the process-wide client, building it from DefaultConfig
// when Init was never called.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultClient == nil {
		defaultClient = New(DefaultConfig())
	}
	return defaultClient
}
