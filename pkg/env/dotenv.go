package env

import (
	"context"
	"errors"
	"io/fs"
	"sync"

	"github.com/joho/godotenv"
)

// DotEnvProvider serves values from a .env file. The file is read once, on
// first use; a missing file behaves like an empty one.
type DotEnvProvider struct {
	path string

	once   sync.Once
	values map[string]string
	err    error
}

func NewDotEnvProvider(path string) *DotEnvProvider {
	return &DotEnvProvider{path: path}
}

func (p *DotEnvProvider) GetEnv(_ context.Context, name string) (string, error) {
	p.once.Do(func() {
		p.values, p.err = godotenv.Read(p.path)
		if errors.Is(p.err, fs.ErrNotExist) {
			p.values, p.err = map[string]string{}, nil
		}
	})
	if p.err != nil {
		return "", p.err
	}
	return p.values[name], nil
}
