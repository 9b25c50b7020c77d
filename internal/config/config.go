// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/titanous/json5"

	"github.com/jonathan/mapleads/internal/enrich"
	"github.com/jonathan/mapleads/internal/llm"
	"github.com/jonathan/mapleads/internal/types"
)

// Environment variables read by FromEnv.
const (
	EnvAPIKey      = "GEMINI_API_KEY"
	EnvModel       = "GEMINI_MODEL"
	EnvDatabaseURL = "DATABASE_URL"
	EnvQuotaDB     = "QUOTA_DB"
	EnvTier        = "MAPLEADS_TIER"
	EnvAccount     = "MAPLEADS_ACCOUNT"
	EnvAdmin       = "MAPLEADS_ADMIN"
	EnvCredentials = "GOOGLE_APPLICATION_CREDENTIALS"
)

// Duration is a time.Duration written as "5s" or as a number of milliseconds.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or milliseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json5.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ms int64
	if err := json5.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the merged configuration. File values come first, then environment
// variables, then CLI flags; anything still unset takes its default.
type Config struct {
	// Oracle
	APIKey        string   `json:"api_key,omitempty"`
	Model         string   `json:"model,omitempty"`
	ModelTier     string   `json:"model_tier,omitempty" validate:"omitempty,oneof=lite standard advanced"`
	OracleTimeout Duration `json:"oracle_timeout,omitempty" validate:"min=0"`
	RateLimit     float64  `json:"rate_limit,omitempty" validate:"min=0"`

	// Enrichment
	Concurrency        int      `json:"concurrency,omitempty" validate:"min=1,max=64"`
	FetchTimeout       Duration `json:"fetch_timeout,omitempty" validate:"min=0"`
	ContentLimit       int      `json:"content_limit,omitempty" validate:"min=0"`
	UseBrowserFallback bool     `json:"use_browser_fallback,omitempty"`

	// Feed
	ShowBrowser bool     `json:"show_browser,omitempty"`
	LoadTimeout Duration `json:"load_timeout,omitempty" validate:"min=0"`

	// Quota
	Account     string `json:"account,omitempty" validate:"required"`
	Tier        string `json:"tier,omitempty" validate:"oneof=free starter pro enterprise"`
	Admin       bool   `json:"admin,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`
	QuotaDB     string `json:"quota_db,omitempty"`

	// Export
	Credentials string `json:"credentials,omitempty"`

	// Server
	Listen string `json:"listen,omitempty"`

	Verbose bool `json:"verbose,omitempty"`
}

// Defaults returns the values used for anything left unset.
func Defaults() Config {
	def := enrich.DefaultOptions()
	return Config{
		ModelTier:    string(llm.TierStandard),
		Concurrency:  def.Concurrency,
		FetchTimeout: Duration(def.FetchTimeout),
		ContentLimit: def.ContentLimit,
		LoadTimeout:  Duration(30 * time.Second),
		Account:      "default",
		Tier:         string(types.TierFree),
		QuotaDB:      "mapleads.db",
		Listen:       ":8080",
	}
}

// LoadConfig loads configuration from a JSON5 file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// FromEnv returns the configuration carried by environment variables.
func FromEnv() (Config, error) {
	cfg := Config{
		APIKey:      os.Getenv(EnvAPIKey),
		Model:       os.Getenv(EnvModel),
		DatabaseURL: os.Getenv(EnvDatabaseURL),
		QuotaDB:     os.Getenv(EnvQuotaDB),
		Tier:        strings.ToLower(strings.TrimSpace(os.Getenv(EnvTier))),
		Account:     os.Getenv(EnvAccount),
		Credentials: os.Getenv(EnvCredentials),
	}
	if v := os.Getenv(EnvAdmin); v != "" {
		admin, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("config error: %s must be a boolean, got %q", EnvAdmin, v)
		}
		cfg.Admin = admin
	}
	return cfg, nil
}

// Load reads the optional file at path, overlays the environment and fills
// defaults. The result is not validated; flags may still change it.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = *file
	}

	env, err := FromEnv()
	if err != nil {
		return Config{}, err
	}
	if err := mergo.Merge(&cfg, env, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("failed to merge environment: %w", err)
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields from Defaults.
func (c *Config) ApplyDefaults() error {
	if err := mergo.Merge(c, Defaults()); err != nil {
		return fmt.Errorf("failed to apply defaults: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// TierValue returns the parsed account tier.
func (c *Config) TierValue() types.Tier {
	tier, err := types.ParseTier(c.Tier)
	if err != nil {
		return types.TierFree
	}
	return tier
}

// LLMConfig returns the model configuration. Model, when set, replaces the
// model of the selected tier.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultGeminiConfig()
	if c.Model != "" {
		cfg = cfg.WithModel(llm.ParseModelTier(c.ModelTier), c.Model)
	}
	return cfg
}

// EnrichOptions returns the enrichment options.
func (c *Config) EnrichOptions() enrich.Options {
	return enrich.Options{
		FetchTimeout:       c.FetchTimeout.Std(),
		ContentLimit:       c.ContentLimit,
		Concurrency:        c.Concurrency,
		RateLimit:          c.RateLimit,
		OracleTimeout:      c.OracleTimeout.Std(),
		UseBrowserFallback: c.UseBrowserFallback,
		Tier:               llm.ParseModelTier(c.ModelTier),
	}
}
