// Package snapshot persists the per-session slices of client state (graph and
// UI mode) as versioned JSON envelopes.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"jirai-backend/internal/repository"
)

// Version is written into every envelope.
const Version = 0

const (
	workspacePrefix = "jirai-workspace"
	uiPrefix        = "jirai-ui"
)

// WorkspaceKey names the graph slice of a session.
func WorkspaceKey(userID, sessionID string) string {
	return fmt.Sprintf("%s:%s:%s", workspacePrefix, userID, sessionID)
}

// UIKey names the UI mode slice of a session.
func UIKey(userID, sessionID string) string {
	return fmt.Sprintf("%s:%s:%s", uiPrefix, userID, sessionID)
}

// ErrUnreadable marks a stored envelope that cannot be decoded or has
// another version. Store failures are never wrapped with it.
var ErrUnreadable = errors.New("unreadable snapshot")

type envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// Encode wraps state in an envelope.
func Encode(state any) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot state: %w", err)
	}
	return json.Marshal(envelope{State: raw, Version: Version})
}

// Decode unwraps an envelope into out. Every failure wraps ErrUnreadable.
func Decode(data []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: envelope: %v", ErrUnreadable, err)
	}
	if env.Version != Version {
		return fmt.Errorf("%w: version %d", ErrUnreadable, env.Version)
	}
	if len(env.State) == 0 || string(env.State) == "null" {
		return fmt.Errorf("%w: no state", ErrUnreadable)
	}
	if err := json.Unmarshal(env.State, out); err != nil {
		return fmt.Errorf("%w: state: %v", ErrUnreadable, err)
	}
	return nil
}

// Load reads and decodes key. found is false when nothing is stored. Errors
// from the store are returned as is; decode failures wrap ErrUnreadable.
func Load(ctx context.Context, store repository.SnapshotStore, key string, out any) (found bool, err error) {
	data, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := Decode(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// Save encodes state and writes it under key.
func Save(ctx context.Context, store repository.SnapshotStore, key string, state any) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, data)
}

// MemoryStore keeps envelopes in a map. Entries expire after ttl when ttl is
// positive.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

var _ repository.SnapshotStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.data...), true, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := memoryEntry{data: append([]byte(nil), data...)}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
