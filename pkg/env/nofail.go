package env

import "context"

// NoFailProvider turns errors of the wrapped provider into "not set".
type NoFailProvider struct {
	provider Provider
}

func NewNoFailProvider(provider Provider) *NoFailProvider {
	return &NoFailProvider{
		provider: provider,
	}
}

func (p *NoFailProvider) GetEnv(ctx context.Context, name string) (string, error) {
	value, err := p.provider.GetEnv(ctx, name)
	if err != nil {
		return "", nil
	}
	return value, nil
}
