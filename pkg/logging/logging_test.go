package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentops-ai/agentops-go/pkg/paths"
)

func TestNew_StderrOnly(t *testing.T) {
	var stderr bytes.Buffer
	logger, closer, err := New(Options{Stderr: &stderr})
	require.NoError(t, err)
	require.NotNil(t, closer)

	logger.Debug("hidden")
	logger.Info("session started")
	require.NoError(t, closer.Close())

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "session started")
}

func TestNew_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o600))

	var stderr bytes.Buffer
	logger, closer, err := New(Options{Debug: true, ToFile: true, FilePath: path, Stderr: &stderr})
	require.NoError(t, err)

	logger.Debug("flushing", "events", 3)
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "previous run")
	assert.Contains(t, string(content), "level=DEBUG msg=flushing events=3")
	assert.Contains(t, stderr.String(), "msg=flushing")
}

func TestNew_DefaultFileInDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(paths.DataDirEnv, dir)

	logger, closer, err := New(Options{ToFile: true, Stderr: &bytes.Buffer{}})
	require.NoError(t, err)
	logger.Info("session ended")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "session ended")
}
