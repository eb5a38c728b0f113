package env

import (
	"context"
	"os"
)

// OSProvider reads the process environment.
type OSProvider struct{}

func NewOSProvider() *OSProvider {
	return &OSProvider{}
}

func (p *OSProvider) GetEnv(_ context.Context, name string) (string, error) {
	return os.Getenv(name), nil
}

// MapProvider serves values from a fixed map.
type MapProvider struct {
	values map[string]string
}

func NewMapProvider(values map[string]string) *MapProvider {
	return &MapProvider{values: values}
}

func (p *MapProvider) GetEnv(_ context.Context, name string) (string, error) {
	return p.values[name], nil
}
