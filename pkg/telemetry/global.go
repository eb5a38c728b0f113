package telemetry

import (
	"context"
	"errors"
	"sync"

	"github.com/agentops-ai/agentops-go/pkg/config"
)

// ErrAlreadyInitialized is returned by Init when a global client exists.
var ErrAlreadyInitialized = errors.New("global agentops client already initialized")

var (
	globalMu     sync.Mutex
	globalClient *Client
)

// Init creates the process-wide client. Call Teardown before calling Init
// again.
func Init(ctx context.Context, cfg config.Config, opts ...Option) (*Client, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalClient != nil {
		return nil, ErrAlreadyInitialized
	}

	client, err := New(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	globalClient = client
	return client, nil
}

// Default returns the process-wide client, or nil before Init.
func Default() *Client {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalClient
}

// Teardown shuts the process-wide client down and forgets it.
func Teardown(ctx context.Context) error {
	globalMu.Lock()
	client := globalClient
	globalClient = nil
	globalMu.Unlock()

	if client == nil {
		return nil
	}
	return client.Shutdown(ctx)
}
