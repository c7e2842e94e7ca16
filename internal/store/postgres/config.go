package postgres

import (
	"fmt"
)

// StoreConfig holds configuration for the PostgreSQL store.
// Pool configuration is handled separately via PoolConfig.
type StoreConfig struct {
	Pool PoolConfig

	// AutoMigrate runs the embedded migrations when the store is opened.
	AutoMigrate bool
}

// Validate checks that the configuration is valid.
func (c *StoreConfig) Validate() error {
	if err := c.Pool.Validate(); err != nil {
		return fmt.Errorf("invalid pool config: %w", err)
	}
	return nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *StoreConfig) ApplyDefaults() {
	c.Pool.ApplyDefaults()
}
