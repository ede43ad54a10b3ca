package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reply did not settle")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		input string
		want  Topic
	}{
		{"Make me a Mind Map about space", TopicMindMap},
		{"mindmap please", TopicMindMap},
		{"help me study chemistry", TopicStudy},
		{"I want to LEARN go", TopicStudy},
		{"add a task", TopicTasks},
		{"my todo list", TopicTasks},
		{"hello there", TopicGeneral},
		{"learn how to make a mind map", TopicMindMap},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.input))
		})
	}
}

func TestRespond_FallbackEchoesInput(t *testing.T) {
	assert.Contains(t, Respond("weather tomorrow"), `"weather tomorrow"`)
}

func TestStore_Lifecycle(t *testing.T) {
	s := NewStore()
	first := s.ID()

	msg, id := s.AddUserMessage("hi")
	assert.Equal(t, first, id)
	assert.Equal(t, RoleUser, msg.Role)
	assert.True(t, s.Snapshot().Loading)

	_, ok := s.AppendReply(first, "hello")
	require.True(t, ok)
	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Len(t, snap.Messages, 2)

	prev := s.StartNewConversation()
	assert.Equal(t, first, prev)
	assert.NotEqual(t, first, s.ID())
	assert.Empty(t, s.Snapshot().Messages)

	_, ok = s.AppendReply(first, "late")
	assert.False(t, ok)
	assert.Empty(t, s.Snapshot().Messages)
}

func TestAssistant_Replies(t *testing.T) {
	s := NewStore()
	a := NewAssistant(5*time.Millisecond, nil)

	var got []Message
	_, done := a.Send(s, "break this into tasks", func(m Message) { got = append(got, m) })
	waitFor(t, done)

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, RoleAssistant, snap.Messages[1].Role)
	assert.Equal(t, Respond("task"), snap.Messages[1].Content)
	assert.False(t, snap.Loading)
	require.Len(t, got, 1)
	assert.Zero(t, a.Pending())
}

func TestAssistant_NewConversationDiscardsPendingReply(t *testing.T) {
	s := NewStore()
	a := NewAssistant(time.Hour, nil)

	_, done := a.Send(s, "hello", nil)
	assert.Equal(t, 1, a.Pending())

	a.Cancel(s.StartNewConversation())
	waitFor(t, done)

	snap := s.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.False(t, snap.Loading)
	assert.Zero(t, a.Pending())
}

func TestAssistant_StaleReplyIsDroppedEvenWithoutCancel(t *testing.T) {
	s := NewStore()
	a := NewAssistant(20*time.Millisecond, nil)

	_, done := a.Send(s, "hello", nil)
	s.StartNewConversation()
	waitFor(t, done)

	assert.Empty(t, s.Snapshot().Messages)
}
