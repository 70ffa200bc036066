package producer

import (
	"context"
	"log"
	"sync"

	"reqsync/config"
	"reqsync/internal/models"
)

// LogProducer writes events to the log instead of a broker.
// It also keeps the events in memory so callers can inspect them.
type LogProducer struct {
	logger *log.Logger

	mu     sync.Mutex
	events []models.RecordEvent
}

func NewLogProducer(logger *log.Logger) *LogProducer {
	return &LogProducer{logger: logger}
}

func (p *LogProducer) Publish(_ context.Context, evt *models.RecordEvent) error {
	p.mu.Lock()
	p.events = append(p.events, *evt)
	p.mu.Unlock()
	p.logger.Printf("event %s record=%s %s", evt.Type, evt.RecordID, evt.Reason)
	return nil
}

func (p *LogProducer) PublishBatch(ctx context.Context, evts []*models.RecordEvent) error {
	for _, evt := range evts {
		if err := p.Publish(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Events returns a copy of everything published so far
func (p *LogProducer) Events() []models.RecordEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.RecordEvent(nil), p.events...)
}

func (p *LogProducer) Close() error { return nil }

// New returns a Kafka producer when brokers are configured, a LogProducer otherwise
func New(cfg config.KafkaProducerConfig, logger *log.Logger) (Producer, error) {
	if !cfg.Enabled() {
		logger.Println("No Kafka brokers configured, record events go to the log only")
		return NewLogProducer(logger), nil
	}
	return NewKafkaProducer(cfg, logger)
}

var _ Producer = (*LogProducer)(nil)
