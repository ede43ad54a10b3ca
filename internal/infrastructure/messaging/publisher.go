// Package messaging publishes workspace events to EventBridge.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

// maxEntriesPerPut is the EventBridge limit for one PutEvents call.
const maxEntriesPerPut = 10

// DefaultSource is the event source stamped on every entry.
const DefaultSource = "jirai.workspaces"

// EventBridgeAPI is the part of the EventBridge client the publisher needs.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgePublisher implements repository.EventPublisher using AWS EventBridge.
type EventBridgePublisher struct {
	client   EventBridgeAPI
	eventBus string
	source   string
	logger   *zap.Logger
}

var _ repository.EventPublisher = (*EventBridgePublisher)(nil)

// NewEventBridgePublisher creates a publisher for eventBus.
func NewEventBridgePublisher(client EventBridgeAPI, eventBus, source string, logger *zap.Logger) *EventBridgePublisher {
	if eventBus == "" {
		eventBus = "default"
	}
	if source == "" {
		source = DefaultSource
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBridgePublisher{client: client, eventBus: eventBus, source: source, logger: logger}
}

// Publish sends events in batches of ten.
func (p *EventBridgePublisher) Publish(ctx context.Context, events ...workspace.Event) error {
	for start := 0; start < len(events); start += maxEntriesPerPut {
		end := min(start+maxEntriesPerPut, len(events))
		if err := p.publishBatch(ctx, events[start:end]); err != nil {
			return err
		}
	}
	if len(events) > 0 {
		p.logger.Debug("published events", zap.Int("count", len(events)), zap.String("bus", p.eventBus))
	}
	return nil
}

func (p *EventBridgePublisher) publishBatch(ctx context.Context, events []workspace.Event) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(events))
	for _, ev := range events {
		entry, err := p.entry(ev)
		if err != nil {
			return appErrors.NewInternal("failed to encode event", err)
		}
		entries = append(entries, entry)
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return appErrors.NewExternal("failed to put events", err)
	}
	if out.FailedEntryCount > 0 {
		for i, e := range out.Entries {
			if e.ErrorCode != nil {
				p.logger.Warn("event rejected",
					zap.String("type", string(events[i].Type)),
					zap.String("workspace_id", events[i].WorkspaceID),
					zap.String("code", aws.ToString(e.ErrorCode)),
					zap.String("message", aws.ToString(e.ErrorMessage)))
			}
		}
		return appErrors.NewExternal(fmt.Sprintf("%d events failed to publish", out.FailedEntryCount), nil)
	}
	return nil
}

func (p *EventBridgePublisher) entry(ev workspace.Event) (types.PutEventsRequestEntry, error) {
	detail, err := json.Marshal(ev)
	if err != nil {
		return types.PutEventsRequestEntry{}, err
	}
	at := ev.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	return types.PutEventsRequestEntry{
		EventBusName: aws.String(p.eventBus),
		Source:       aws.String(p.source),
		DetailType:   aws.String(string(ev.Type)),
		Detail:       aws.String(string(detail)),
		Resources:    []string{"workspace/" + ev.WorkspaceID},
		Time:         aws.Time(at),
	}, nil
}

// LogPublisher writes events to the log. It stands in when no event bus is
// configured.
type LogPublisher struct {
	logger *zap.Logger
}

var _ repository.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, events ...workspace.Event) error {
	for _, ev := range events {
		p.logger.Info("workspace event",
			zap.String("type", string(ev.Type)),
			zap.String("workspace_id", ev.WorkspaceID),
			zap.String("owner_id", ev.OwnerID),
			zap.Int("nodes", ev.NodeCount),
			zap.Int("edges", ev.EdgeCount))
	}
	return nil
}
