package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentops-ai/agentops-go/pkg/logging"
	"github.com/agentops-ai/agentops-go/pkg/paths"
)

func TestLoggingToFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv(paths.DataDirEnv, home)

	cfg := testConfig()
	cfg.LoggingToFile = true

	c, err := New(t.Context(), cfg, WithTransport(&fakeTransport{}), WithSignalHandling(false))
	require.NoError(t, err)

	_, err = c.StartSession(t.Context())
	require.NoError(t, err)
	require.NoError(t, c.Shutdown(context.Background()))

	data, err := os.ReadFile(filepath.Join(home, logging.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), logPrefix+"Session started")
	assert.Contains(t, string(data), logPrefix+"Session ended")
}

func TestLoggingToFileIgnoredWithLogger(t *testing.T) {
	home := t.TempDir()
	t.Setenv(paths.DataDirEnv, home)

	cfg := testConfig()
	cfg.LoggingToFile = true
	newTestClient(t, &fakeTransport{}, cfg)

	assert.NoFileExists(t, filepath.Join(home, logging.FileName))
}
