// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml (optional), the environment-specific overlay and
// environment variables, in that order of precedence.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return build(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := overrideFromEnv(&cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values. Unset variables
// expand to "" so a placeholder never leaks through as a literal secret.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideFromEnv applies the flat environment variables the relay has always been deployed with.
func overrideFromEnv(cfg *Config) error {
	if val := os.Getenv("INTERCOM_CLIENT_SECRET"); val != "" {
		cfg.Intercom.ClientSecret = val
	}
	if val := os.Getenv("FRESHDESK_DOMAIN"); val != "" {
		cfg.Freshdesk.Domain = val
	}
	if val := os.Getenv("FRESHDESK_API_KEY"); val != "" {
		cfg.Freshdesk.APIKey = val
	}
	if val := os.Getenv("DEFAULT_PRIORITY"); val != "" {
		priority, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("DEFAULT_PRIORITY must be an integer: %w", err)
		}
		cfg.VIP.DefaultPriority = priority
	}
	if val := os.Getenv("ASSIGN_GROUP_ID"); val != "" {
		cfg.VIP.GroupID = val
	}
	if val := os.Getenv("VIP_KEYWORDS"); val != "" {
		cfg.VIP.Keywords = splitList(val)
	}
	if val := os.Getenv("VIP_CUSTOM_FIELD"); val != "" {
		cfg.VIP.CustomField = val
	}
	if val := os.Getenv("PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("PORT must be an integer: %w", err)
		}
		cfg.Server.Port = port
	}
	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Redis.Address = val
		cfg.Redis.Enabled = true
	}
	if val := os.Getenv("ALERTS_SNS_TOPIC_ARN"); val != "" {
		cfg.Alerts.TopicARN = val
		cfg.Alerts.Enabled = true
	}
	if val := os.Getenv("AWS_REGION"); val != "" && cfg.Alerts.Region == "" {
		cfg.Alerts.Region = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	return nil
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "vip-relay"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.Freshdesk.Timeout == 0 {
		cfg.Freshdesk.Timeout = 15000
	}
	if cfg.Freshdesk.RateLimit.Requests == 0 {
		cfg.Freshdesk.RateLimit.Requests = 20
	}
	if cfg.Freshdesk.RateLimit.Window == 0 {
		cfg.Freshdesk.RateLimit.Window = 60000
	}
	if cfg.Freshdesk.Retry.MaxAttempts == 0 {
		cfg.Freshdesk.Retry.MaxAttempts = 5
	}
	if cfg.Freshdesk.Retry.FallbackWait == 0 {
		cfg.Freshdesk.Retry.FallbackWait = 5000
	}

	if len(cfg.VIP.Keywords) == 0 {
		cfg.VIP.Keywords = []string{"VIP", "⭐⭐VIP ⭐⭐"}
	}
	if cfg.VIP.DefaultPriority == 0 {
		cfg.VIP.DefaultPriority = 2
	}

	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "vip-relay"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Freshdesk.Domain == "" && cfg.Freshdesk.BaseURL == "" {
		return fmt.Errorf("freshdesk.domain is required")
	}
	if cfg.Freshdesk.APIKey == "" {
		return fmt.Errorf("freshdesk.api_key is required")
	}
	if cfg.VIP.DefaultPriority < 1 || cfg.VIP.DefaultPriority > 4 {
		return fmt.Errorf("vip.default_priority must be between 1 and 4, got %d", cfg.VIP.DefaultPriority)
	}
	if cfg.Freshdesk.RateLimit.Requests < 0 || cfg.Freshdesk.RateLimit.Window < 0 {
		return fmt.Errorf("freshdesk.rate_limit must not be negative")
	}
	if cfg.Redis.Enabled && cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when redis is enabled")
	}
	if cfg.Alerts.Enabled && cfg.Alerts.TopicARN == "" {
		return fmt.Errorf("alerts.topic_arn is required when alerts are enabled")
	}

	return nil
}
