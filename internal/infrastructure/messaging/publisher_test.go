package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"jirai-backend/internal/domain/workspace"
	appErrors "jirai-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	mu      sync.Mutex
	calls   [][]types.PutEventsRequestEntry
	failAll bool
}

func (f *fakeBus) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in.Entries)
	if f.failAll {
		out := &eventbridge.PutEventsOutput{FailedEntryCount: int32(len(in.Entries))}
		for range in.Entries {
			out.Entries = append(out.Entries, types.PutEventsResultEntry{
				ErrorCode:    aws.String("InternalFailure"),
				ErrorMessage: aws.String("nope"),
			})
		}
		return out, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func (f *fakeBus) entries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += len(c)
	}
	return n
}

func events(n int) []workspace.Event {
	out := make([]workspace.Event, n)
	for i := range out {
		out[i] = workspace.Event{
			Type:        workspace.EventSaved,
			WorkspaceID: "ws-1",
			OwnerID:     "alice",
			OccurredAt:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	return out
}

func TestEventBridgePublisher_Batches(t *testing.T) {
	bus := &fakeBus{}
	p := NewEventBridgePublisher(bus, "jirai-bus", "", nil)

	require.NoError(t, p.Publish(context.Background(), events(23)...))
	require.Len(t, bus.calls, 3)
	assert.Len(t, bus.calls[0], 10)
	assert.Len(t, bus.calls[2], 3)

	entry := bus.calls[0][0]
	assert.Equal(t, "jirai-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, DefaultSource, aws.ToString(entry.Source))
	assert.Equal(t, "WorkspaceSaved", aws.ToString(entry.DetailType))

	var detail workspace.Event
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "ws-1", detail.WorkspaceID)
}

func TestEventBridgePublisher_FailedEntries(t *testing.T) {
	p := NewEventBridgePublisher(&fakeBus{failAll: true}, "", "", nil)
	err := p.Publish(context.Background(), events(2)...)
	require.Error(t, err)
	assert.True(t, appErrors.IsExternal(err))
}

func TestEventBridgePublisher_NothingToSend(t *testing.T) {
	bus := &fakeBus{}
	require.NoError(t, NewEventBridgePublisher(bus, "", "", nil).Publish(context.Background()))
	assert.Empty(t, bus.calls)
}

func TestAsyncPublisher_DrainsOnClose(t *testing.T) {
	bus := &fakeBus{}
	async := NewAsyncPublisher(NewEventBridgePublisher(bus, "", "", nil), 100, time.Hour, nil)

	require.NoError(t, async.Publish(context.Background(), events(15)...))
	async.Close()
	assert.Equal(t, 15, bus.entries())
	async.Close()
}

func TestAsyncPublisher_FullQueue(t *testing.T) {
	blocked := make(chan struct{})
	inner := publisherFunc(func(context.Context, ...workspace.Event) error {
		<-blocked
		return nil
	})
	async := NewAsyncPublisher(inner, 1, time.Millisecond, nil)
	defer func() {
		close(blocked)
		async.Close()
	}()

	var err error
	for i := 0; i < 50 && err == nil; i++ {
		err = async.Publish(context.Background(), events(1)...)
	}
	assert.True(t, appErrors.IsUnavailable(err))
}

type publisherFunc func(ctx context.Context, events ...workspace.Event) error

func (f publisherFunc) Publish(ctx context.Context, events ...workspace.Event) error {
	return f(ctx, events...)
}
