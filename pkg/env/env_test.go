package env

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSProvider(t *testing.T) {
	t.Setenv("AGENTOPS_TEST_SET", "VALUE1")
	t.Setenv("AGENTOPS_TEST_EMPTY", "")

	provider := NewOSProvider()

	value, err := provider.GetEnv(t.Context(), "AGENTOPS_TEST_SET")
	require.NoError(t, err)
	assert.Equal(t, "VALUE1", value)

	value, err = provider.GetEnv(t.Context(), "AGENTOPS_TEST_EMPTY")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestMapProvider(t *testing.T) {
	provider := NewMapProvider(map[string]string{"KEY": "v"})

	value, err := provider.GetEnv(t.Context(), "KEY")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	value, err = provider.GetEnv(t.Context(), "OTHER")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestDotEnvProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AGENTOPS_API_KEY=from-file\n# comment\nAGENTOPS_TAGS=\"a,b\"\n"), 0o600))

	provider := NewDotEnvProvider(path)

	value, err := provider.GetEnv(t.Context(), "AGENTOPS_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)

	value, err = provider.GetEnv(t.Context(), "AGENTOPS_TAGS")
	require.NoError(t, err)
	assert.Equal(t, "a,b", value)
}

func TestDotEnvProviderMissingFile(t *testing.T) {
	provider := NewDotEnvProvider(filepath.Join(t.TempDir(), "missing.env"))

	value, err := provider.GetEnv(t.Context(), "ANYTHING")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestMultiProviderNone(t *testing.T) {
	provider := NewMultiProvider()
	value, err := provider.GetEnv(t.Context(), "TEST1")

	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestMultiProviderTryInOrder(t *testing.T) {
	provider := NewMultiProvider(
		NewMapProvider(nil),
		NewMapProvider(map[string]string{"TEST": "first"}),
		NewMapProvider(map[string]string{"TEST": "second"}),
	)
	value, err := provider.GetEnv(t.Context(), "TEST")

	require.NoError(t, err)
	assert.Equal(t, "first", value)
}

func TestMultiProviderFails(t *testing.T) {
	provider := NewMultiProvider(&alwaysFailProvider{})
	value, err := provider.GetEnv(t.Context(), "TEST")

	require.Error(t, err)
	assert.Empty(t, value)
}

func TestNoFailProviderIgnoreError(t *testing.T) {
	provider := NewNoFailProvider(&alwaysFailProvider{})
	value, err := provider.GetEnv(t.Context(), "TEST")

	require.NoError(t, err)
	assert.Empty(t, value)
}

type alwaysFailProvider struct{}

func (p *alwaysFailProvider) GetEnv(context.Context, string) (string, error) {
	return "Ignored", errors.New("not found")
}
