package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mapleads/internal/llm"
	"github.com/jonathan/mapleads/internal/types"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAPIKey, EnvModel, EnvDatabaseURL, EnvQuotaDB, EnvTier, EnvAccount, EnvAdmin, EnvCredentials} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_JSON5(t *testing.T) {
	path := writeConfig(t, `{
		// comments and trailing commas are allowed
		account: "acme",
		tier: "pro",
		concurrency: 4,
		fetch_timeout: "3s",
		oracle_timeout: 1500,
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "acme", cfg.Account)
	assert.Equal(t, "pro", cfg.Tier)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout.Std())
	assert.Equal(t, 1500*time.Millisecond, cfg.OracleTimeout.Std())
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{ invalid json `))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json5")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestLoad_DefaultsOnly(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvTier, "Starter")
	t.Setenv(EnvAPIKey, "secret")
	t.Setenv(EnvAdmin, "true")

	cfg, err := Load(writeConfig(t, `{account: "acme", tier: "pro", concurrency: 2}`))
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.Account)
	assert.Equal(t, "starter", cfg.Tier)
	assert.Equal(t, types.TierStarter, cfg.TierValue())
	assert.Equal(t, "secret", cfg.APIKey)
	assert.True(t, cfg.Admin)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, Defaults().ContentLimit, cfg.ContentLimit)
}

func TestLoad_InvalidAdmin(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAdmin, "sometimes")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvAdmin)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"unknown tier", func(c *Config) { c.Tier = "gold" }, "Tier"},
		{"concurrency too high", func(c *Config) { c.Concurrency = 65 }, "Concurrency"},
		{"negative fetch timeout", func(c *Config) { c.FetchTimeout = Duration(-time.Second) }, "FetchTimeout"},
		{"unknown model tier", func(c *Config) { c.ModelTier = "huge" }, "ModelTier"},
		{"empty account", func(c *Config) { c.Account = "" }, "Account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLLMConfig_ModelOverride(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "gemini-2.5-flash", cfg.LLMConfig().GetModel(llm.TierStandard))

	cfg.Model = "gemini-custom"
	cfg.ModelTier = "advanced"
	assert.Equal(t, "gemini-custom", cfg.LLMConfig().GetModel(llm.TierAdvanced))
	assert.Equal(t, "gemini-2.5-flash", cfg.LLMConfig().GetModel(llm.TierStandard))
}

func TestEnrichOptions(t *testing.T) {
	cfg := Defaults()
	cfg.RateLimit = 2
	opts := cfg.EnrichOptions()
	assert.Equal(t, 8, opts.Concurrency)
	assert.Equal(t, 5*time.Second, opts.FetchTimeout)
	assert.Equal(t, 10000, opts.ContentLimit)
	assert.Equal(t, 2.0, opts.RateLimit)
	assert.Equal(t, llm.TierStandard, opts.Tier)
}
