package ticketcreated

import (
	"fmt"
	"time"

	"vip-relay/internal/common/freshdesk"
)

type Config struct {
	Enabled         bool          `mapstructure:"enabled"`
	Timeout         time.Duration `mapstructure:"timeout"`
	DefaultPriority int           `mapstructure:"default_priority"`
	GroupID         string        `mapstructure:"group_id"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultPriority: freshdesk.PriorityMedium,
	}
}

func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.DefaultPriority < freshdesk.PriorityLow || c.DefaultPriority > freshdesk.PriorityUrgent {
		return fmt.Errorf("default_priority must be between %d and %d", freshdesk.PriorityLow, freshdesk.PriorityUrgent)
	}
	return nil
}
