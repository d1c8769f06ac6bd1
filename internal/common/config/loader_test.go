package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
freshdesk:
  domain: acme.freshdesk.com
  api_key: secret-key
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "vip-relay", cfg.App.Name)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, GetDuration(cfg.Freshdesk.Timeout))
	assert.Equal(t, 20, cfg.Freshdesk.RateLimit.Requests)
	assert.Equal(t, time.Minute, GetDuration(cfg.Freshdesk.RateLimit.Window))
	assert.Equal(t, 5, cfg.Freshdesk.Retry.MaxAttempts)
	assert.Equal(t, 5*time.Second, GetDuration(cfg.Freshdesk.Retry.FallbackWait))
	assert.Equal(t, []string{"VIP", "⭐⭐VIP ⭐⭐"}, cfg.VIP.Keywords)
	assert.Equal(t, 2, cfg.VIP.DefaultPriority)
	assert.Equal(t, "vip-relay", cfg.Redis.KeyPrefix)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_EnvironmentOverrides(t *testing.T) {
	t.Setenv("INTERCOM_CLIENT_SECRET", "hook-secret")
	t.Setenv("FRESHDESK_DOMAIN", "other.freshdesk.com")
	t.Setenv("DEFAULT_PRIORITY", "3")
	t.Setenv("ASSIGN_GROUP_ID", "42")
	t.Setenv("VIP_KEYWORDS", "VIP, Gold VIP ,")
	t.Setenv("VIP_CUSTOM_FIELD", "cf_vip_status")
	t.Setenv("PORT", "8081")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "hook-secret", cfg.Intercom.ClientSecret)
	assert.Equal(t, "other.freshdesk.com", cfg.Freshdesk.Domain)
	assert.Equal(t, 3, cfg.VIP.DefaultPriority)
	assert.Equal(t, "42", cfg.VIP.GroupID)
	assert.Equal(t, []string{"VIP", "Gold VIP"}, cfg.VIP.Keywords)
	assert.Equal(t, "cf_vip_status", cfg.VIP.CustomField)
	assert.Equal(t, ":8081", cfg.Server.Addr())
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_FD_KEY", "expanded-key")

	cfg, err := LoadFromFile(writeConfig(t, `
freshdesk:
  domain: acme.freshdesk.com
  api_key: ${TEST_FD_KEY}
`))
	require.NoError(t, err)
	assert.Equal(t, "expanded-key", cfg.Freshdesk.APIKey)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		env    map[string]string
		errMsg string
	}{
		{
			name:   "missing domain",
			yaml:   "freshdesk:\n  api_key: k\n",
			errMsg: "freshdesk.domain is required",
		},
		{
			name:   "missing api key",
			yaml:   "freshdesk:\n  domain: acme.freshdesk.com\n",
			errMsg: "freshdesk.api_key is required",
		},
		{
			name:   "priority out of range",
			yaml:   minimalYAML,
			env:    map[string]string{"DEFAULT_PRIORITY": "7"},
			errMsg: "vip.default_priority must be between 1 and 4",
		},
		{
			name:   "priority not a number",
			yaml:   minimalYAML,
			env:    map[string]string{"DEFAULT_PRIORITY": "high"},
			errMsg: "DEFAULT_PRIORITY must be an integer",
		},
		{
			name:   "redis enabled without address",
			yaml:   minimalYAML + "redis:\n  enabled: true\n",
			errMsg: "redis.address is required",
		},
		{
			name:   "alerts enabled without topic",
			yaml:   minimalYAML + "alerts:\n  enabled: true\n",
			errMsg: "alerts.topic_arn is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadFromFile(writeConfig(t, tt.yaml))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Nil(t, cfg)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b "))
	assert.Empty(t, splitList(" , "))
}

func TestLoadFromFile_UnsetPlaceholderExpandsToEmpty(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML+`
intercom:
  client_secret: ${TEST_UNSET_INTERCOM_SECRET}
`))
	require.NoError(t, err)
	assert.Empty(t, cfg.Intercom.ClientSecret)
}
