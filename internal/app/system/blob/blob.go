// Package blob provides the byte-store backends that hold file contents.
//
// Resource records reference backing bytes by an opaque storage path. The
// Store contract is deliberately narrow: a key-addressed Put/Get/Delete
// where absence is reported as ErrNotFound so callers can tell "already
// gone" apart from a real I/O failure.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound reports that no bytes exist at the requested path.
var ErrNotFound = errors.New("blob: not found")

// Store is a key-addressed byte store.
//
// Delete returns ErrNotFound (possibly wrapped) when the path holds no
// bytes; any other error is an I/O failure. Deleting is otherwise
// idempotent at the backend level.
type Store interface {
	Put(ctx context.Context, path string, r io.Reader, contentType string) error
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// NewKey generates a storage path for a new object:
// files/YYYY/MM/<random><ext>. The original filename contributes only its
// extension, so keys never collide on user-chosen names and a record's
// storage path can stay immutable across renames.
func NewKey(filename string) string {
	now := time.Now().UTC()
	ext := filepath.Ext(filename)
	unique := uuid.New().String()[:8]
	return fmt.Sprintf("files/%04d/%02d/%s%s", now.Year(), int(now.Month()), unique, ext)
}
