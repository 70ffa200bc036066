package consumer

import (
	"context"
	"errors"
	"log"

	"reqsync/internal/models"
)

// ErrClosed is returned by MockConsumer once it has been closed and drained.
var ErrClosed = errors.New("consumer closed")

// MockConsumer replays a fixed list of events from memory.
type MockConsumer struct {
	logger *log.Logger
	events chan *models.RecordEvent
}

// NewMockConsumer creates a MockConsumer preloaded with events.
func NewMockConsumer(logger *log.Logger, events ...models.RecordEvent) *MockConsumer {
	mc := &MockConsumer{
		logger: logger,
		events: make(chan *models.RecordEvent, len(events)+5),
	}
	for i := range events {
		evt := events[i]
		mc.events <- &evt
	}
	logger.Printf("[MockConsumer] Loaded %d events", len(events))
	return mc
}

// Consume returns the next queued event. A NACK puts the event back at the tail.
func (m *MockConsumer) Consume(ctx context.Context) (*models.RecordEvent, func(success bool), error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case evt, ok := <-m.events:
		if !ok {
			return nil, nil, ErrClosed
		}
		ack := func(success bool) {
			if success {
				return
			}
			select {
			case m.events <- evt:
				m.logger.Printf("[MockConsumer] Event re-queued: record=%s", evt.RecordID)
			default:
				m.logger.Printf("[MockConsumer] Warning: failed to re-queue event (channel full?): record=%s", evt.RecordID)
			}
		}
		return evt, ack, nil
	}
}

// Close stops accepting re-queues; events already queued are still delivered.
func (m *MockConsumer) Close() error {
	close(m.events)
	return nil
}

var _ Consumer = (*MockConsumer)(nil)
