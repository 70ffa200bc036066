package config

import (
	"fmt"
	"time"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendPebble   = "pebble"
	BackendPostgres = "postgres"
)

// StorageConfig selects and configures the local record store
type StorageConfig struct {
	Backend    string         `yaml:"backend"`     // memory, pebble, postgres
	MaxRecords int            `yaml:"max_records"` // 0 means unbounded
	Pebble     PebbleConfig   `yaml:"pebble"`
	Database   DatabaseConfig `yaml:"database"`
}

// PebbleConfig configures the embedded pebble store
type PebbleConfig struct {
	Dir string `yaml:"dir"`
}

// DatabaseConfig configures the PostgreSQL store
type DatabaseConfig struct {
	DSN            string        `yaml:"dsn"`             // PostgreSQL connection string
	MaxConnections int32         `yaml:"max_connections"` // Maximum number of connections
	MinConnections int32         `yaml:"min_connections"` // Minimum number of connections
	MaxIdleTime    time.Duration `yaml:"max_idle_time"`   // Maximum time a connection can be idle
	MaxLifetime    time.Duration `yaml:"max_lifetime"`    // Maximum lifetime of a connection
}

// SetDefaults sets sensible default values for the storage configuration
func (c *StorageConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
		fmt.Printf("Warning: storage.backend not set, defaulting to %s\n", c.Backend)
	}
	switch c.Backend {
	case BackendPebble:
		if c.Pebble.Dir == "" {
			c.Pebble.Dir = "./data/requests"
			fmt.Printf("Warning: storage.pebble.dir not set, defaulting to %s\n", c.Pebble.Dir)
		}
	case BackendPostgres:
		c.Database.SetDefaults()
	}
}

// SetDefaults sets sensible default values for the database configuration
func (c *DatabaseConfig) SetDefaults() {
	if c.MaxConnections <= 0 {
		c.MaxConnections = 20
		fmt.Printf("Warning: database.max_connections not set or invalid, defaulting to %d\n", c.MaxConnections)
	}
	if c.MinConnections <= 0 {
		c.MinConnections = 2
		fmt.Printf("Warning: database.min_connections not set or invalid, defaulting to %d\n", c.MinConnections)
	}
	if c.MaxIdleTime == 0 {
		c.MaxIdleTime = time.Hour
	}
	if c.MaxLifetime == 0 {
		c.MaxLifetime = 24 * time.Hour
	}
}

// Validate validates the storage configuration
func (c *StorageConfig) Validate() error {
	if c.MaxRecords < 0 {
		return fmt.Errorf("max_records cannot be negative")
	}
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendPebble:
		if c.Pebble.Dir == "" {
			return fmt.Errorf("pebble.dir is required")
		}
		return nil
	case BackendPostgres:
		return c.Database.Validate()
	default:
		return fmt.Errorf("unsupported backend %q", c.Backend)
	}
}

// Validate validates the database configuration
func (c *DatabaseConfig) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min_connections (%d) cannot be greater than max_connections (%d)",
			c.MinConnections, c.MaxConnections)
	}
	return nil
}
