package vipsync

import (
	"fmt"
	"time"

	"vip-relay/internal/common/freshdesk"
)

type Config struct {
	Enabled bool `mapstructure:"enabled"`
	// Timeout bounds one webhook end to end. Zero means only server shutdown
	// cancels an in-flight sync.
	Timeout         time.Duration `mapstructure:"timeout"`
	Keywords        []string      `mapstructure:"keywords"`
	CustomField     string        `mapstructure:"custom_field"`
	DefaultPriority int           `mapstructure:"default_priority"`
	GroupID         string        `mapstructure:"group_id"`
	ClientSecret    string        `mapstructure:"client_secret"`
	AlertsEnabled   bool          `mapstructure:"alerts_enabled"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Keywords:        []string{"VIP", "⭐⭐VIP ⭐⭐"},
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
