// Package chat keeps the assistant conversation of a session and the canned
// keyword responder that answers it.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role of a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of the log.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a snapshot of the store.
type Conversation struct {
	ID       string    `json:"conversationId"`
	Messages []Message `json:"messages"`
	Loading  bool      `json:"isLoading"`
}

// Store is an append-only message log with a loading flag. The flag is set
// while at least one reply is outstanding.
type Store struct {
	mu       sync.RWMutex
	id       string
	messages []Message
	pending  int
	now      func() time.Time
}

// NewStore starts with an empty conversation.
func NewStore() *Store {
	return &Store{id: uuid.NewString(), messages: []Message{}, now: time.Now}
}

// Snapshot returns a copy of the conversation.
func (s *Store) Snapshot() Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)
	return Conversation{ID: s.id, Messages: msgs, Loading: s.pending > 0}
}

// ID returns the current conversation id.
func (s *Store) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// AddUserMessage appends a user message and marks a reply as outstanding.
// It returns the message and the id of the conversation it was added to.
func (s *Store) AddUserMessage(content string) (Message, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := Message{ID: uuid.NewString(), Role: RoleUser, Content: content, Timestamp: s.now()}
	s.messages = append(s.messages, msg)
	s.pending++
	return msg, s.id
}

// AppendReply appends an assistant message to conversationID. A reply for a
// conversation that has since been replaced is discarded and false returned.
func (s *Store) AppendReply(conversationID, content string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conversationID != s.id {
		return Message{}, false
	}
	msg := Message{ID: uuid.NewString(), Role: RoleAssistant, Content: content, Timestamp: s.now()}
	s.messages = append(s.messages, msg)
	if s.pending > 0 {
		s.pending--
	}
	return msg, true
}

// StartNewConversation clears the log, drops outstanding replies and assigns
// a fresh id. It returns the id that was replaced.
func (s *Store) StartNewConversation() (previous string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous = s.id
	s.id = uuid.NewString()
	s.messages = []Message{}
	s.pending = 0
	return previous
}
