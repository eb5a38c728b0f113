package session

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// isGitRepo reports whether dir or one of its parents contains a .git
// directory. Worktrees (where .git is a file) also count.
func isGitRepo(dir string) bool {
	if dir == "" {
		return false
	}

	current, err := filepath.Abs(dir)
	if err != nil {
		return false
	}

	for {
		_, err := os.Stat(filepath.Join(current, ".git"))
		switch {
		case err == nil:
			return true
		case !errors.Is(err, fs.ErrNotExist):
			return false
		}

		parent := filepath.Dir(current)
		if parent == current {
			return false
		}
		current = parent
	}
}
