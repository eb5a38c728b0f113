package event

import "context"

type agentContextKey struct{}

// WithAgent attaches the id of the agent doing the current work to ctx.
// Events recorded with this context inherit it unless they set their own.
func WithAgent(ctx context.Context, agentID string) context.Context {
	return context.WithValue(ctx, agentContextKey{}, agentID)
}

// AgentFromContext returns the agent id attached with WithAgent, or "".
func AgentFromContext(ctx context.Context) string {
	if agentID, ok := ctx.Value(agentContextKey{}).(string); ok {
		return agentID
	}
	return ""
}
