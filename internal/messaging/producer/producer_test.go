package producer

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reqsync/config"
	"reqsync/internal/models"
)

func TestNew_FallsBackToLogProducer(t *testing.T) {
	logger := log.New(io.Discard, "", 0)

	p, err := New(config.KafkaProducerConfig{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LogProducer{}, p)

	p, err = New(config.KafkaProducerConfig{Brokers: []string{"mock://local"}, Topic: "t"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LogProducer{}, p)
}

func TestNew_KafkaWhenBrokersConfigured(t *testing.T) {
	p, err := New(config.KafkaProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "events"}, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	defer p.Close()

	kp, ok := p.(*KafkaProducer)
	require.True(t, ok)
	assert.Equal(t, "events", kp.writer.Topic)
}

func TestNewKafkaProducer_RequiresTopic(t *testing.T) {
	_, err := NewKafkaProducer(config.KafkaProducerConfig{Brokers: []string{"localhost:9092"}}, log.New(io.Discard, "", 0))
	assert.Error(t, err)
}

func TestParseRequiredAcks(t *testing.T) {
	assert.Equal(t, kafka.RequireNone, parseRequiredAcks("none"))
	assert.Equal(t, kafka.RequireAll, parseRequiredAcks("all"))
	assert.Equal(t, kafka.RequireOne, parseRequiredAcks("one"))
	assert.Equal(t, kafka.RequireOne, parseRequiredAcks(""))
}

func TestEncodeEvent_KeyedByRecord(t *testing.T) {
	msg, err := encodeEvent(&models.RecordEvent{Type: models.EventSynced, RecordID: "r1", Timestamp: "2026-01-01T00:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, "r1", string(msg.Key))
	assert.JSONEq(t, `{"type":"synced","record_id":"r1","timestamp":"2026-01-01T00:00:00Z"}`, string(msg.Value))
}

func TestLogProducer_KeepsOrder(t *testing.T) {
	p := NewLogProducer(log.New(io.Discard, "", 0))
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, &models.RecordEvent{Type: models.EventIngested, RecordID: "a"}))
	require.NoError(t, p.PublishBatch(ctx, []*models.RecordEvent{
		{Type: models.EventSynced, RecordID: "a"},
		{Type: models.EventRejected, RecordID: "b", Reason: "bad"},
	}))

	got := p.Events()
	require.Len(t, got, 3)
	assert.Equal(t, models.EventIngested, got[0].Type)
	assert.Equal(t, models.EventSynced, got[1].Type)
	assert.Equal(t, "bad", got[2].Reason)
	assert.NoError(t, p.Close())
}
