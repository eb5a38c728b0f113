package env

import "context"

// Provider resolves configuration values by environment variable name.
type Provider interface {
	// GetEnv returns the value of name, or "" when it is not set.
	GetEnv(ctx context.Context, name string) (string, error)
}
