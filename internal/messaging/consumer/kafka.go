package consumer

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

// ErrUndecodable is returned for a message whose body is not a record event.
// The offset has already been committed when it is returned.
var ErrUndecodable = errors.New("undecodable record event")

// KafkaConsumer implements the Consumer interface on a kafka-go reader
type KafkaConsumer struct {
	reader *kafka.Reader
	logger *log.Logger
}

// NewKafkaConsumer creates a new KafkaConsumer instance
func NewKafkaConsumer(cfg config.KafkaConsumerConfig, logger *log.Logger) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, errors.New("incomplete kafka configuration: brokers, topic, group_id are all required")
	}

	sessionTimeout := cfg.SessionTimeout
	if sessionTimeout <= 0 {
		sessionTimeout = 30 * time.Second
	}

	readerConfig := kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		Topic:             cfg.Topic,
		MinBytes:          1,
		MaxBytes:          10e6, // 10MB
		MaxWait:           time.Second,
		SessionTimeout:    sessionTimeout,
		HeartbeatInterval: 3 * time.Second,
		StartOffset:       startOffset(cfg.AutoOffsetReset, logger),
	}

	r := kafka.NewReader(readerConfig)
	logger.Printf("Kafka consumer created, connected to Brokers: %v, Topic: %s, GroupID: %s", cfg.Brokers, cfg.Topic, cfg.GroupID)

	return &KafkaConsumer{reader: r, logger: logger}, nil
}

func startOffset(reset string, logger *log.Logger) int64 {
	switch reset {
	case "latest":
		return kafka.LastOffset
	case "earliest", "":
		return kafka.FirstOffset
	default:
		logger.Printf("Warning: Unknown auto_offset_reset '%s', using earliest", reset)
		return kafka.FirstOffset
	}
}

// Consume implements the Consumer interface by reading messages from Kafka
func (k *KafkaConsumer) Consume(ctx context.Context) (*models.RecordEvent, func(success bool), error) {
	msg, err := k.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, nil, ctx.Err()
		}
		return nil, nil, err
	}

	var evt models.RecordEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		k.logger.Printf("Kafka consumer: Failed to decode event (Offset: %d): %v. Message will be discarded.", msg.Offset, err)
		_ = k.reader.CommitMessages(ctx, msg)
		return nil, nil, fmt.Errorf("%w at offset %d: %v", ErrUndecodable, msg.Offset, err)
	}

	ack := func(success bool) {
		if !success {
			k.logger.Printf("Kafka consumer: NACK for offset %d (record %s). Offset will not be committed.", msg.Offset, evt.RecordID)
			return
		}
		if err := k.reader.CommitMessages(context.Background(), msg); err != nil {
			k.logger.Printf("Kafka consumer: Failed to commit offset %d: %v", msg.Offset, err)
		}
	}
	return &evt, ack, nil
}

// Close implements the Consumer interface by closing the Kafka reader
func (k *KafkaConsumer) Close() error {
	k.logger.Println("Closing Kafka consumer...")
	return k.reader.Close()
}

var _ Consumer = (*KafkaConsumer)(nil)
