package config

import (
	"fmt"
	"time"
)

// ReconcilerConfig controls the background retry sweep
type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`     // period between passes
	RunOnStart bool          `yaml:"run_on_start"` // run one pass immediately at startup
}

// SetDefaults sets reasonable default values for reconciler configuration
func (c *ReconcilerConfig) SetDefaults() {
	if c.Interval == 0 {
		c.Interval = 5 * time.Minute
		fmt.Printf("Warning: reconciler.interval not set, defaulting to %v\n", c.Interval)
	}
}

// Validate validates the reconciler configuration
func (c *ReconcilerConfig) Validate() error {
	if c.Interval < 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	return nil
}
