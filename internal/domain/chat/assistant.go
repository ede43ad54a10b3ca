package chat

import (
	"context"
	"sync"
	"time"
)

// Assistant answers user messages after a simulated delay. Pending replies
// are keyed by conversation id so that starting a new conversation cancels
// them.
type Assistant struct {
	delay   time.Duration
	respond func(string) string

	mu      sync.Mutex
	pending map[string]map[int]context.CancelFunc
	seq     int
}

// NewAssistant creates an assistant with the given delay and responder. A nil
// responder means Respond.
func NewAssistant(delay time.Duration, respond func(string) string) *Assistant {
	if respond == nil {
		respond = Respond
	}
	return &Assistant{
		delay:   delay,
		respond: respond,
		pending: make(map[string]map[int]context.CancelFunc),
	}
}

// SetDelay changes the delay used for subsequent replies.
func (a *Assistant) SetDelay(d time.Duration) {
	a.mu.Lock()
	a.delay = d
	a.mu.Unlock()
}

// Send appends content as a user message to store and schedules the reply.
// The returned channel is closed once the reply has been appended or
// abandoned. onReply, when set, is called for replies that were appended.
func (a *Assistant) Send(store *Store, content string, onReply func(Message)) (Message, <-chan struct{}) {
	msg, conversationID := store.AddUserMessage(content)

	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.seq++
	key := a.seq
	if a.pending[conversationID] == nil {
		a.pending[conversationID] = make(map[int]context.CancelFunc)
	}
	a.pending[conversationID][key] = cancel
	delay := a.delay
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer a.forget(conversationID, key)

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}
		reply, ok := store.AppendReply(conversationID, a.respond(content))
		if ok && onReply != nil {
			onReply(reply)
		}
	}()
	return msg, done
}

// Cancel abandons every pending reply for conversationID.
func (a *Assistant) Cancel(conversationID string) {
	a.mu.Lock()
	cancels := a.pending[conversationID]
	delete(a.pending, conversationID)
	a.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Pending returns the number of outstanding replies across conversations.
func (a *Assistant) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, m := range a.pending {
		n += len(m)
	}
	return n
}

func (a *Assistant) forget(conversationID string, key int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if m, ok := a.pending[conversationID]; ok {
		if cancel, ok := m[key]; ok {
			cancel()
			delete(m, key)
		}
		if len(m) == 0 {
			delete(a.pending, conversationID)
		}
	}
}
