package config

import (
	"fmt"
	"time"
)

// KafkaProducerConfig defines configuration for the lifecycle event producer.
// An empty broker list disables publishing.
type KafkaProducerConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	RequiredAcks string        `yaml:"required_acks"` // none, one, all
	WriteTimeout time.Duration `yaml:"write_timeout"`
	BatchSize    int           `yaml:"batch_size"`    // events buffered by the ingestion path before a flush
	BatchTimeout time.Duration `yaml:"batch_timeout"` // max time an event waits in the buffer
}

// SetDefaults sets reasonable default values for producer configuration
func (c *KafkaProducerConfig) SetDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 100 * time.Millisecond
	}
	if len(c.Brokers) == 0 {
		return
	}
	if c.Topic == "" {
		c.Topic = "reqsync.record-events"
		fmt.Printf("Warning: kafka_producer.topic not set, defaulting to %s\n", c.Topic)
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}
}

// Enabled reports whether events should be published to Kafka
func (c *KafkaProducerConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Brokers[0] != "mock://local"
}

// KafkaConsumerConfig defines configuration for reading lifecycle events
type KafkaConsumerConfig struct {
	Brokers         []string      `yaml:"brokers"`
	Topic           string        `yaml:"topic"`
	GroupID         string        `yaml:"group_id"`
	SessionTimeout  time.Duration `yaml:"session_timeout"`
	AutoOffsetReset string        `yaml:"auto_offset_reset"` // earliest/latest
}

// SetDefaults sets reasonable default values for Kafka consumer configuration
func (c *KafkaConsumerConfig) SetDefaults() {
	if len(c.Brokers) == 0 {
		return
	}
	if c.Topic == "" {
		c.Topic = "reqsync.record-events"
	}
	if c.GroupID == "" {
		c.GroupID = "reqsync-relayctl"
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = 30 * time.Second
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
	}
}

// HttpServerConfig defines HTTP server configuration
type HttpServerConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// SetDefaults sets reasonable default values for HTTP server configuration
func (c *HttpServerConfig) SetDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Second
	}
	// Longer than remote.push_timeout so a slow synchronous push still gets its answer out
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.MaxHeaderBytes == 0 {
		c.MaxHeaderBytes = 1 << 20 // 1 MB
	}
}

// TelemetryConfig controls OpenTelemetry tracing
type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name"`
	StdoutTraces bool   `yaml:"stdout_traces"`
}

// SetDefaults sets the service name used on traces
func (c *TelemetryConfig) SetDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "reqsync"
	}
}
