package storage

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// MemoryUploader keeps uploads in process.
type MemoryUploader struct {
	baseURL string
	now     func() time.Time

	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryUploader(baseURL string) *MemoryUploader {
	return &MemoryUploader{baseURL: baseURL, now: time.Now, objects: map[string][]byte{}}
}

func (m *MemoryUploader) Upload(ctx context.Context, f File, folder string) (string, error) {
	data, err := io.ReadAll(f.Reader)
	if err != nil {
		return "", errors.Wrap(err, "read upload")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := objectName(folder, f.Name, m.now())
	m.mu.Lock()
	m.objects[name] = data
	m.mu.Unlock()
	return m.baseURL + name, nil
}

// Object returns the stored bytes for an object name.
func (m *MemoryUploader) Object(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	return data, ok
}

func (m *MemoryUploader) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
