package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"jirai-backend/internal/domain/chat"
	"jirai-backend/internal/domain/graph"
	"jirai-backend/internal/domain/uimode"
	"jirai-backend/internal/infrastructure/observability"
	"jirai-backend/internal/infrastructure/persistence/snapshot"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultIdleTTL      = 30 * time.Minute
	snapshotWriteTimeout = 3 * time.Second
	snapshotReadTimeout  = 3 * time.Second
)

// Options configures a Manager.
type Options struct {
	// SeedSample fills sessions without a snapshot with the sample canvas.
	SeedSample bool
	IdleTTL    time.Duration
	ChatDelay  time.Duration
	Now        func() time.Time
	Metrics    *observability.Collector
}

// Manager creates, rehydrates and evicts sessions.
type Manager struct {
	snapshots repository.SnapshotStore
	assistant *chat.Assistant
	logger    *zap.Logger
	opts      Options

	mu       sync.Mutex
	sessions map[Key]*Session
	opening  singleflight.Group
}

// NewManager creates a manager writing snapshots to store.
func NewManager(store repository.SnapshotStore, logger *zap.Logger, opts Options) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		snapshots: store,
		assistant: chat.NewAssistant(opts.ChatDelay, nil),
		logger:    logger,
		opts:      opts,
		sessions:  make(map[Key]*Session),
	}
}

// Assistant returns the shared assistant.
func (m *Manager) Assistant() *chat.Assistant {
	return m.assistant
}

// SetChatDelay changes the simulated reply latency.
func (m *Manager) SetChatDelay(d time.Duration) {
	m.assistant.SetDelay(d)
}

// Open returns the session for key, rehydrating it from its snapshots the
// first time it is seen. Concurrent first opens share one rehydration.
func (m *Manager) Open(ctx context.Context, key Key) (*Session, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if s := m.lookup(key); s != nil {
		s.touch(m.opts.Now())
		return s, nil
	}

	v, err, _ := m.opening.Do(key.UserID+"\x00"+key.SessionID, func() (any, error) {
		if s := m.lookup(key); s != nil {
			return s, nil
		}
		s, err := m.rehydrate(ctx, key)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.sessions[key] = s
		n := len(m.sessions)
		m.mu.Unlock()
		m.setActive(n)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	s := v.(*Session)
	s.touch(m.opts.Now())
	return s, nil
}

func (m *Manager) lookup(key Key) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[key]
}

// rehydrate builds a session from its snapshots. A missing, undecodable or
// outdated snapshot yields a fresh state. A failing store fails the open so
// the stored copy is never replaced by a fresh one.
func (m *Manager) rehydrate(ctx context.Context, key Key) (*Session, error) {
	now := m.opts.Now()
	log := m.logger.With(zap.String("user_id", key.UserID), zap.String("session_id", key.SessionID))

	// The read is shared by every concurrent opener, so it must not die with
	// the first caller's request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotReadTimeout)
	defer cancel()

	initial := graph.EmptyState()
	if m.opts.SeedSample {
		initial = graph.SampleState(now)
	}
	var stored graph.State
	found, err := snapshot.Load(ctx, m.snapshots, snapshot.WorkspaceKey(key.UserID, key.SessionID), &stored)
	switch {
	case errors.Is(err, snapshot.ErrUnreadable):
		log.Warn("discarding workspace snapshot", zap.Error(err))
	case err != nil:
		log.Error("failed to read workspace snapshot", zap.Error(err))
		return nil, appErrors.NewUnavailable("session state is temporarily unavailable", err)
	case found:
		initial = stored
	}

	ui := uimode.Default(now)
	var persisted uimode.Persisted
	found, err = snapshot.Load(ctx, m.snapshots, snapshot.UIKey(key.UserID, key.SessionID), &persisted)
	switch {
	case errors.Is(err, snapshot.ErrUnreadable):
		log.Warn("discarding ui snapshot", zap.Error(err))
	case err != nil:
		log.Error("failed to read ui snapshot", zap.Error(err))
		return nil, appErrors.NewUnavailable("session state is temporarily unavailable", err)
	case found:
		ui = persisted.Restore(now)
	}

	s := &Session{
		Key:   key,
		Graph: graph.NewStore(initial, graph.WithClock(m.opts.Now)),
		UI:    uimode.NewStore(ui),
		Chat:  chat.NewStore(),
	}
	s.touch(now)
	s.unsubs = append(s.unsubs,
		s.Graph.Subscribe(m.mirror(key, snapshot.WorkspaceKey(key.UserID, key.SessionID))),
		s.UI.Subscribe(func(p uimode.Persisted) {
			m.write(key, snapshot.UIKey(key.UserID, key.SessionID), p)
		}),
	)
	return s, nil
}

func (m *Manager) mirror(key Key, snapshotKey string) func(graph.State) {
	return func(st graph.State) {
		m.write(key, snapshotKey, st)
	}
}

func (m *Manager) write(key Key, snapshotKey string, state any) {
	ctx, cancel := snapshotContext(snapshotWriteTimeout)
	defer cancel()
	if err := snapshot.Save(ctx, m.snapshots, snapshotKey, state); err != nil {
		m.logger.Warn("failed to mirror session state",
			zap.String("user_id", key.UserID),
			zap.String("session_id", key.SessionID),
			zap.String("key", snapshotKey),
			zap.Error(err))
	}
}

// Reset drops the session's snapshots and in-memory state.
func (m *Manager) Reset(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	s := m.sessions[key]
	delete(m.sessions, key)
	n := len(m.sessions)
	m.mu.Unlock()
	m.setActive(n)

	if s != nil {
		s.detach()
		m.assistant.Cancel(s.Chat.ID())
	}
	if err := m.snapshots.Delete(ctx, snapshot.WorkspaceKey(key.UserID, key.SessionID)); err != nil {
		return err
	}
	return m.snapshots.Delete(ctx, snapshot.UIKey(key.UserID, key.SessionID))
}

// EvictIdle forgets sessions unused for longer than the idle TTL. Their
// snapshots stay, so the next request rehydrates them.
func (m *Manager) EvictIdle() int {
	cutoff := m.opts.Now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	var evicted []*Session
	for k, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			evicted = append(evicted, s)
			delete(m.sessions, k)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range evicted {
		s.detach()
		m.assistant.Cancel(s.Chat.ID())
	}
	if len(evicted) > 0 {
		m.setActive(n)
		m.logger.Debug("evicted idle sessions", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Run evicts idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle()
		}
	}
}

// Len reports how many sessions are held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) setActive(n int) {
	if m.opts.Metrics != nil {
		m.opts.Metrics.ActiveSessions.Set(float64(n))
	}
}

// SendChat posts a user message and schedules the assistant reply. done is
// closed once the reply has been appended or abandoned.
func (m *Manager) SendChat(s *Session, content string) (chat.Message, <-chan struct{}) {
	return m.assistant.Send(s.Chat, content, func(chat.Message) {
		if m.opts.Metrics != nil {
			m.opts.Metrics.ChatReplies.WithLabelValues(string(chat.Classify(content))).Inc()
		}
	})
}

// NewConversation clears the session's chat and cancels its pending replies.
func (m *Manager) NewConversation(s *Session) chat.Conversation {
	previous := s.Chat.StartNewConversation()
	m.assistant.Cancel(previous)
	return s.Chat.Snapshot()
}
