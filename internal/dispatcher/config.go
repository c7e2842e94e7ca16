package dispatcher

import (
	"fmt"
	"time"
)

// Config holds dispatcher configuration.
type Config struct {
	// Interval is how often a pass runs. Cron resolution is one second.
	Interval time.Duration

	// Workers is the number of schedules processed concurrently.
	Workers int

	// CreditTimeout bounds each ledger credit call.
	CreditTimeout time.Duration

	// RunOnStart runs a pass as soon as the dispatcher starts instead of
	// waiting for the first tick.
	RunOnStart bool
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = 60 * time.Second
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.CreditTimeout == 0 {
		c.CreditTimeout = 10 * time.Second
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Interval < time.Second {
		return fmt.Errorf("interval must be at least 1s, got %s", c.Interval)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.CreditTimeout <= 0 {
		return fmt.Errorf("credit timeout must be positive, got %s", c.CreditTimeout)
	}
	return nil
}
