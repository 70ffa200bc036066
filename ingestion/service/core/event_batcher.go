package service

import (
	"context"
	"log"
	"sync"
	"time"

	"reqsync/internal/messaging/producer"
	"reqsync/internal/models"
)

// EventBatcher collects lifecycle events off the request path and hands them
// to the producer in batches, either when batchSize is reached or every batchTimeout.
type EventBatcher struct {
	batchSize    int
	batchTimeout time.Duration
	producer     producer.Producer
	logger       *log.Logger

	bufferMutex sync.Mutex
	buffer      []*models.RecordEvent
	closed      bool
	flushChan   chan []*models.RecordEvent

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEventBatcher starts the background flusher
func NewEventBatcher(batchSize int, batchTimeout time.Duration, p producer.Producer, logger *log.Logger) *EventBatcher {
	if batchSize <= 0 {
		batchSize = 100
	}
	if batchTimeout <= 0 {
		batchTimeout = 100 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())

	b := &EventBatcher{
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		producer:     p,
		logger:       logger,
		buffer:       make([]*models.RecordEvent, 0, batchSize),
		flushChan:    make(chan []*models.RecordEvent, 4),
		ctx:          ctx,
		cancel:       cancel,
	}

	b.wg.Add(1)
	go b.run()
	return b
}

// Add queues an event. Events added after Close are dropped.
func (b *EventBatcher) Add(evt *models.RecordEvent) {
	b.bufferMutex.Lock()
	defer b.bufferMutex.Unlock()
	if b.closed {
		b.logger.Printf("Event batcher closed, dropping %s event for record %s", evt.Type, evt.RecordID)
		return
	}
	b.buffer = append(b.buffer, evt)
	if len(b.buffer) < b.batchSize {
		return
	}
	// Sent under the lock so Close cannot slip in before run drains flushChan.
	batch := b.takeLocked()
	select {
	case b.flushChan <- batch:
	default:
		// Flusher is busy; the timer picks these up.
		b.buffer = append(batch, b.buffer...)
	}
}

func (b *EventBatcher) run() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.publish(b.take())
		case batch := <-b.flushChan:
			b.publish(batch)
		case <-b.ctx.Done():
			for {
				select {
				case batch := <-b.flushChan:
					b.publish(batch)
				default:
					b.publish(b.take())
					return
				}
			}
		}
	}
}

func (b *EventBatcher) take() []*models.RecordEvent {
	b.bufferMutex.Lock()
	defer b.bufferMutex.Unlock()
	return b.takeLocked()
}

func (b *EventBatcher) takeLocked() []*models.RecordEvent {
	if len(b.buffer) == 0 {
		return nil
	}
	batch := make([]*models.RecordEvent, len(b.buffer))
	copy(batch, b.buffer)
	b.buffer = b.buffer[:0]
	return batch
}

func (b *EventBatcher) publish(batch []*models.RecordEvent) {
	if len(batch) == 0 {
		return
	}
	start := time.Now()
	var err error
	if len(batch) == 1 {
		err = b.producer.Publish(context.Background(), batch[0])
	} else {
		err = b.producer.PublishBatch(context.Background(), batch)
	}
	if err != nil {
		// Events are notifications only; the record store already holds the state.
		b.logger.Printf("Failed to publish %d record events: %v", len(batch), err)
		return
	}
	b.logger.Printf("Event batch published: %d events in %v", len(batch), time.Since(start))
}

// Close flushes what is buffered and stops the flusher
func (b *EventBatcher) Close() {
	b.bufferMutex.Lock()
	if b.closed {
		b.bufferMutex.Unlock()
		return
	}
	b.closed = true
	b.bufferMutex.Unlock()

	b.cancel()
	b.wg.Wait()
}
