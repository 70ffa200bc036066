package config

import (
	"fmt"
	"net/url"
	"time"
)

// RemoteConfig describes the admin system that is the system of record
type RemoteConfig struct {
	BaseURL        string        `yaml:"base_url"`        // e.g. https://admin.example.com/api
	PushTimeout    time.Duration `yaml:"push_timeout"`    // bound on a single push
	HealthTimeout  time.Duration `yaml:"health_timeout"`  // bound on a single liveness probe
	RejectStatuses []int         `yaml:"reject_statuses"` // client errors treated as permanent rejection
}

// SetDefaults sets reasonable default values for the remote configuration
func (c *RemoteConfig) SetDefaults() {
	if c.PushTimeout <= 0 {
		c.PushTimeout = 10 * time.Second
		fmt.Printf("Warning: remote.push_timeout not set, defaulting to %v\n", c.PushTimeout)
	}
	if c.HealthTimeout <= 0 {
		c.HealthTimeout = 5 * time.Second
		fmt.Printf("Warning: remote.health_timeout not set, defaulting to %v\n", c.HealthTimeout)
	}
	if len(c.RejectStatuses) == 0 {
		c.RejectStatuses = []int{400, 422}
		fmt.Printf("Warning: remote.reject_statuses not set, defaulting to %v\n", c.RejectStatuses)
	}
}

// Validate validates the remote configuration
func (c *RemoteConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q is not an absolute URL", c.BaseURL)
	}
	for _, code := range c.RejectStatuses {
		if code < 400 || code > 499 {
			return fmt.Errorf("reject_statuses must be 4xx codes, got %d", code)
		}
	}
	return nil
}
