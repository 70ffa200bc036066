package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// DefaultPath is used when neither REQSYNC_CONFIG nor a --config flag is given
const DefaultPath = "./config/reqsync.defaults.yml"

// Config represents the complete application configuration
type Config struct {
	HttpListenAddr string `yaml:"http_listen_addr"`
	GrpcListenAddr string `yaml:"grpc_listen_addr"`

	Remote        RemoteConfig        `yaml:"remote"`
	Reconciler    ReconcilerConfig    `yaml:"reconciler"`
	Storage       StorageConfig       `yaml:"storage"`
	KafkaProducer KafkaProducerConfig `yaml:"kafka_producer"`
	KafkaConsumer KafkaConsumerConfig `yaml:"kafka_consumer"`
	HttpServer    HttpServerConfig    `yaml:"http_server"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
}

// ResolvePath picks the configuration file: explicit flag value, then REQSYNC_CONFIG, then DefaultPath
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("REQSYNC_CONFIG"); env != "" {
		return env
	}
	return DefaultPath
}

// LoadConfig loads configuration from the specified YAML file path
func LoadConfig(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of config file: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", absPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes, applies defaults and validates the result
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return &cfg, nil
}

// SetDefaults fills every section with sensible defaults
func (c *Config) SetDefaults() {
	if c.HttpListenAddr == "" && c.GrpcListenAddr == "" {
		c.HttpListenAddr = ":3001"
		fmt.Printf("Warning: http_listen_addr not set, defaulting to %s\n", c.HttpListenAddr)
	}
	c.Remote.SetDefaults()
	c.Reconciler.SetDefaults()
	c.Storage.SetDefaults()
	c.KafkaProducer.SetDefaults()
	c.KafkaConsumer.SetDefaults()
	c.HttpServer.SetDefaults()
	c.Telemetry.SetDefaults()
}

// Validate checks the sections the core cannot run without
func (c *Config) Validate() error {
	if err := c.Remote.Validate(); err != nil {
		return fmt.Errorf("remote: %w", err)
	}
	if err := c.Reconciler.Validate(); err != nil {
		return fmt.Errorf("reconciler: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}
