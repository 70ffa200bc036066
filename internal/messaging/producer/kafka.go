package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"reqsync/config"
	"reqsync/internal/models"
)

// KafkaProducer implements the Producer interface
type KafkaProducer struct {
	writer *kafka.Writer
	logger *log.Logger
	topic  string
}

// NewKafkaProducer creates a new KafkaProducer
func NewKafkaProducer(cfg config.KafkaProducerConfig, logger *log.Logger) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka producer configuration incomplete: both brokers and topic are required")
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 5 * time.Second
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{}, // events of one record land on one partition

		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: parseRequiredAcks(cfg.RequiredAcks),
		Async:        true, // events are notifications; the record store is the source of truth

		WriteTimeout: writeTimeout,

		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Printf("Kafka Writer Error: "+msg, args...)
		}),
	}

	logger.Printf("Kafka producer created, connected to Brokers: %v, Topic: %s", cfg.Brokers, cfg.Topic)

	return &KafkaProducer{
		writer: w,
		logger: logger,
		topic:  cfg.Topic,
	}, nil
}

func parseRequiredAcks(s string) kafka.RequiredAcks {
	switch s {
	case "none":
		return kafka.RequireNone
	case "all":
		return kafka.RequireAll
	default:
		return kafka.RequireOne
	}
}

func encodeEvent(evt *models.RecordEvent) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to serialize %s event (RecordID: %s): %w", evt.Type, evt.RecordID, err)
	}
	return kafka.Message{Key: []byte(evt.RecordID), Value: value}, nil
}

// Publish queues a single event
func (p *KafkaProducer) Publish(ctx context.Context, evt *models.RecordEvent) error {
	msg, err := encodeEvent(evt)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Printf("Failed to queue Kafka event (RecordID: %s, Type: %s): %v", evt.RecordID, evt.Type, err)
		return fmt.Errorf("failed to write to Kafka buffer: %w", err)
	}
	return nil
}

// PublishBatch queues events in one call
func (p *KafkaProducer) PublishBatch(ctx context.Context, evts []*models.RecordEvent) error {
	if len(evts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(evts))
	for i, evt := range evts {
		msg, err := encodeEvent(evt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Printf("Failed to queue Kafka events in batch (count: %d): %v", len(evts), err)
		return fmt.Errorf("failed to batch write to Kafka buffer: %w", err)
	}
	p.logger.Printf("Queued %d record events (Topic: %s)", len(evts), p.topic)
	return nil
}

// Close closes the producer
func (p *KafkaProducer) Close() error {
	p.logger.Println("Closing Kafka producer (and flushing buffer)...")
	return p.writer.Close()
}

var _ Producer = (*KafkaProducer)(nil)
