// Package session owns the per-tab state objects. A session is identified by
// user and session id and holds one graph store, one UI mode store and one
// conversation. Every graph and UI mutation is mirrored to the snapshot
// store, and a session opened for the first time is rehydrated from it.
package session

import (
	"context"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"jirai-backend/internal/domain/chat"
	"jirai-backend/internal/domain/graph"
	"jirai-backend/internal/domain/uimode"
	appErrors "jirai-backend/pkg/errors"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Key identifies a session.
type Key struct {
	UserID    string
	SessionID string
}

// Validate rejects empty users and session ids that would not make safe
// snapshot keys.
func (k Key) Validate() error {
	if k.UserID == "" {
		return appErrors.NewUnauthorized("missing user")
	}
	if !sessionIDPattern.MatchString(k.SessionID) {
		return appErrors.NewValidation("session id must be 1-128 letters, digits, '-' or '_'")
	}
	return nil
}

// Session is one browser tab's state.
type Session struct {
	Key
	Graph *graph.Store
	UI    *uimode.Store
	Chat  *chat.Store

	// mu serializes request handling for the session.
	mu       sync.Mutex
	lastUsed atomic.Int64
	unsubs   []func()
}

// Do runs fn while holding the session lock.
func (s *Session) Do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

func (s *Session) detach() {
	for _, u := range s.unsubs {
		u()
	}
	s.unsubs = nil
}

// snapshotContext bounds a mirror write, which runs outside any request
// context.
func snapshotContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
