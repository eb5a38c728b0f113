package telemetry

import (
	"context"

	"github.com/agentops-ai/agentops-go/pkg/event"
)

type contextKey struct{}

// WithClient adds a client to the context
func WithClient(ctx context.Context, client *Client) context.Context {
	return context.WithValue(ctx, contextKey{}, client)
}

// FromContext retrieves the client from context
func FromContext(ctx context.Context) *Client {
	if client, ok := ctx.Value(contextKey{}).(*Client); ok {
		return client
	}
	return nil
}

// Record sends ev to the client in ctx, or to the global client. Without
// either it does nothing.
func Record(ctx context.Context, ev event.Event) error {
	client := FromContext(ctx)
	if client == nil {
		client = Default()
	}
	if client == nil {
		return nil
	}
	return client.Record(ctx, ev)
}
