package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory is an in-memory byte store for tests. It counts operations and
// can be told to fail deletes for specific paths, which is how partial
// deletion failures are exercised.
type Memory struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleteErr map[string]error
	puts      int
	deletes   int
}

// NewMemory creates an empty in-memory byte store.
func NewMemory() *Memory {
	return &Memory{
		objects:   make(map[string][]byte),
		deleteErr: make(map[string]error),
	}
}

// Put stores the object bytes.
func (m *Memory) Put(ctx context.Context, path string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = data
	m.puts++
	return nil
}

// Get returns a reader over the object bytes.
func (m *Memory) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the object, honoring any injected failure first.
func (m *Memory) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if err, ok := m.deleteErr[path]; ok {
		return err
	}
	if _, ok := m.objects[path]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	delete(m.objects, path)
	return nil
}

// FailDelete makes Delete return err for the given path.
func (m *Memory) FailDelete(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr[path] = err
}

// ClearDeleteFailure removes an injected delete failure for path.
func (m *Memory) ClearDeleteFailure(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.deleteErr, path)
}

// Has reports whether bytes exist at path.
func (m *Memory) Has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[path]
	return ok
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// DeleteCalls returns how many times Delete was invoked.
func (m *Memory) DeleteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}
