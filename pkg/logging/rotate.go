package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	DefaultMaxSize    = 5 * 1024 * 1024 // 5MB
	DefaultMaxBackups = 2
)

// File is an io.WriteCloser for the client log. It starts empty for each
// process when truncation is enabled and rotates once it grows past maxSize.
type File struct {
	path       string
	maxSize    int64
	maxBackups int
	truncate   bool

	mu   sync.Mutex
	file *os.File
	size int64
}

type Option func(*File)

func WithMaxSize(size int64) Option {
	return func(f *File) {
		f.maxSize = size
	}
}

func WithMaxBackups(count int) Option {
	return func(f *File) {
		f.maxBackups = count
	}
}

// WithTruncate discards whatever the file held before this process opened it.
func WithTruncate() Option {
	return func(f *File) {
		f.truncate = true
	}
}

// OpenFile opens the log file at path, creating parent directories.
func OpenFile(path string, opts ...Option) (*File, error) {
	f := &File{
		path:       path,
		maxSize:    DefaultMaxSize,
		maxBackups: DefaultMaxBackups,
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	flags := os.O_APPEND | os.O_CREATE | os.O_WRONLY
	if f.truncate {
		flags |= os.O_TRUNC
	}
	if err := f.open(flags); err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the location of the active log file.
func (f *File) Path() string {
	return f.path
}

func (f *File) open(flags int) error {
	file, err := os.OpenFile(f.path, flags, 0o600)
	if err != nil {
		return err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}

	f.file = file
	f.size = info.Size()
	return nil
}

func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return 0, os.ErrClosed
	}

	if f.size > 0 && f.size+int64(len(p)) > f.maxSize {
		if err := f.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := f.file.Write(p)
	f.size += int64(n)
	return n, err
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

func (f *File) rotate() error {
	if err := f.file.Close(); err != nil {
		return err
	}

	_ = os.Remove(backupName(f.path, f.maxBackups))
	for i := f.maxBackups - 1; i >= 1; i-- {
		_ = os.Rename(backupName(f.path, i), backupName(f.path, i+1))
	}

	if f.maxBackups > 0 {
		if err := os.Rename(f.path, backupName(f.path, 1)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	f.size = 0
	return f.open(os.O_APPEND | os.O_CREATE | os.O_WRONLY | os.O_TRUNC)
}

func backupName(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}
