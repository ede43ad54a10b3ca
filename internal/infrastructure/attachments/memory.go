package attachments

import (
	"bytes"
	"context"
	"io"
	"sync"

	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"
)

// MemoryStore keeps attachments in process memory for development and
// tests. URL returns a path served by the API itself.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]object
	baseURL string
}

type object struct {
	data        []byte
	contentType string
}

var _ repository.AttachmentStore = (*MemoryStore)(nil)

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: make(map[string]object), baseURL: baseURL}
}

func (m *MemoryStore) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(r, size)); err != nil {
		return appErrors.NewInternal("failed to read attachment", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = object{data: buf.Bytes(), contentType: contentType}
	return nil
}

func (m *MemoryStore) URL(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[key]; !ok {
		return "", appErrors.NewNotFound("attachment not found")
	}
	return m.baseURL + "/" + key, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Object returns the stored bytes and content type of key.
func (m *MemoryStore) Object(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o.data, o.contentType, ok
}
