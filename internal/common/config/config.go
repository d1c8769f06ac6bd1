// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Intercom  IntercomConfig  `mapstructure:"intercom"`
	Freshdesk FreshdeskConfig `mapstructure:"freshdesk"`
	VIP       VIPConfig       `mapstructure:"vip"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// --- Integrations ---

// IntercomConfig holds the inbound webhook signing secret.
type IntercomConfig struct {
	ClientSecret string `mapstructure:"client_secret"`
}

type FreshdeskConfig struct {
	Domain    string          `mapstructure:"domain"`
	APIKey    string          `mapstructure:"api_key"`
	BaseURL   string          `mapstructure:"base_url"` // overrides https://<domain>/api/v2
	Timeout   int             `mapstructure:"timeout"`  // milliseconds
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Retry     RetryConfig     `mapstructure:"retry"`
}

// RateLimitConfig bounds contact search calls within a rolling window.
type RateLimitConfig struct {
	Requests int `mapstructure:"requests"`
	Window   int `mapstructure:"window"` // milliseconds
}

// RetryConfig governs 429 handling.
type RetryConfig struct {
	MaxAttempts  int `mapstructure:"max_attempts"`
	FallbackWait int `mapstructure:"fallback_wait"` // milliseconds
}

// VIPConfig holds the tagging policy.
type VIPConfig struct {
	Keywords        []string `mapstructure:"keywords"`
	CustomField     string   `mapstructure:"custom_field"`
	DefaultPriority int      `mapstructure:"default_priority"`
	GroupID         string   `mapstructure:"group_id"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	FailOpen  bool   `mapstructure:"fail_open"`
}

// AlertsConfig holds settings for the SNS sync-failure alerts.
type AlertsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Region   string `mapstructure:"region"`
	TopicARN string `mapstructure:"topic_arn"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
