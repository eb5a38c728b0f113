package paths

import (
	"os"
	"path/filepath"
)

// DataDirEnv overrides the data directory when set.
const DataDirEnv = "AGENTOPS_HOME"

// GetDataDir returns the directory for the client's local files (logs).
//
// If the home directory cannot be determined, it falls back to a directory
// under the system temporary directory.
func GetDataDir() string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return filepath.Clean(dir)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(filepath.Join(os.TempDir(), ".agentops"))
	}
	return filepath.Clean(filepath.Join(homeDir, ".agentops"))
}
