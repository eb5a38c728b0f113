// Package logging builds the slog handlers used by the client and the CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agentops-ai/agentops-go/pkg/paths"
)

// FileName is the client log written when logging to file is enabled.
const FileName = "agentops.log"

// Options control New.
type Options struct {
	Debug bool
	// ToFile also writes every record to FilePath, truncated at start.
	ToFile   bool
	FilePath string
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// New returns a logger writing text records to stderr and, when asked, to a
// log file. The returned closer releases the file and is never nil.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if opts.Stderr != nil {
		w = opts.Stderr
	}

	var closer io.Closer = io.NopCloser(nil)
	if opts.ToFile {
		path := opts.FilePath
		if path == "" {
			path = filepath.Join(paths.GetDataDir(), FileName)
		}
		file, err := OpenFile(path, WithTruncate())
		if err != nil {
			return nil, nil, err
		}
		w = io.MultiWriter(w, file)
		closer = file
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closer, nil
}
