package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores objects as files under a base directory.
type Local struct {
	base string
}

// NewLocal creates a local byte store rooted at basePath, creating the
// directory if needed.
func NewLocal(basePath string) (*Local, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolving base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating base path: %w", err)
	}
	return &Local{base: abs}, nil
}

// resolve maps a storage path to a filesystem path, rejecting anything
// that would escape the base directory.
func (l *Local) resolve(path string) (string, error) {
	full := filepath.Join(l.base, filepath.FromSlash(path))
	if full != l.base && !strings.HasPrefix(full, l.base+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage path %q", path)
	}
	return full, nil
}

// Put writes the object, creating parent directories as needed. The
// content type is ignored for local storage.
func (l *Local) Put(ctx context.Context, path string, r io.Reader, contentType string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return fmt.Errorf("writing file: %w", err)
	}
	return f.Close()
}

// Get opens the object for reading.
func (l *Local) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return f, nil
}

// Delete removes the object. Empty parent directories are left in place.
func (l *Local) Delete(ctx context.Context, path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return err
	}
	return nil
}
