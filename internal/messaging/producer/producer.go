package producer

import (
	"context"

	"reqsync/internal/models"
)

// Producer publishes record lifecycle events
type Producer interface {
	// Publish sends a single event
	Publish(ctx context.Context, evt *models.RecordEvent) error

	// PublishBatch sends events in one write, in order
	PublishBatch(ctx context.Context, evts []*models.RecordEvent) error

	// Close flushes and closes the producer
	Close() error
}
