package consumer

import (
	"context"

	"reqsync/internal/models"
)

// Consumer reads record lifecycle events.
type Consumer interface {
	// Consume blocks until an event is received or the context is cancelled.
	// ack(true) commits the event; ack(false) leaves it for redelivery.
	Consume(ctx context.Context) (evt *models.RecordEvent, ack func(success bool), err error)

	// Close gracefully shuts down the consumer connection.
	Close() error
}
