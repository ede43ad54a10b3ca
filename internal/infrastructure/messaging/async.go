package messaging

import (
	"context"
	"sync"
	"time"

	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"

	"go.uber.org/zap"
)

// AsyncPublisher queues events and publishes them from a background worker
// so request handlers never wait on the event bus.
type AsyncPublisher struct {
	publisher     repository.EventPublisher
	queue         chan workspace.Event
	flushInterval time.Duration
	logger        *zap.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ repository.EventPublisher = (*AsyncPublisher)(nil)

// NewAsyncPublisher starts the worker. Call Close to drain the queue.
func NewAsyncPublisher(publisher repository.EventPublisher, queueSize int, flushInterval time.Duration, logger *zap.Logger) *AsyncPublisher {
	if queueSize <= 0 {
		queueSize = 1000
	}
	if flushInterval <= 0 {
		flushInterval = 100 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &AsyncPublisher{
		publisher:     publisher,
		queue:         make(chan workspace.Event, queueSize),
		flushInterval: flushInterval,
		logger:        logger,
		done:          make(chan struct{}),
	}
	p.wg.Add(1)
	go p.worker()
	return p
}

// Publish enqueues events. A full queue is reported, not waited on.
func (p *AsyncPublisher) Publish(ctx context.Context, events ...workspace.Event) error {
	for _, ev := range events {
		select {
		case p.queue <- ev:
		case <-ctx.Done():
			return ctx.Err()
		default:
			return appErrors.NewUnavailable("event queue is full", nil)
		}
	}
	return nil
}

func (p *AsyncPublisher) worker() {
	defer p.wg.Done()
	batch := make([]workspace.Event, 0, maxEntriesPerPut)
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.publisher.Publish(ctx, batch...); err != nil {
			p.logger.Error("failed to publish events", zap.Int("count", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-p.queue:
			batch = append(batch, ev)
			if len(batch) >= maxEntriesPerPut {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-p.done:
			for {
				select {
				case ev := <-p.queue:
					batch = append(batch, ev)
					if len(batch) >= maxEntriesPerPut {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops the worker after publishing whatever is queued.
func (p *AsyncPublisher) Close() {
	p.closeOnce.Do(func() { close(p.done) })
	p.wg.Wait()
}
