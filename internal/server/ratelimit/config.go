package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by LoadConfig.
const (
	EnvEnabled         = "RATE_LIMIT_ENABLED"
	EnvDefaultLimit    = "RATE_LIMIT_DEFAULT_LIMIT"
	EnvDefaultWindow   = "RATE_LIMIT_DEFAULT_WINDOW"
	EnvCleanupInterval = "RATE_LIMIT_CLEANUP_INTERVAL"
	EnvWhitelist       = "RATE_LIMIT_WHITELIST"
	EnvBlacklist       = "RATE_LIMIT_BLACKLIST"
)

// EndpointConfig is the limit of one method on a path. A Path ending in "/"
// also covers every path below it.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per Window, 0 means unlimited
	Window time.Duration
	Burst  int // defaults to Limit
}

// LoadConfig builds the limiter configuration from the environment. Malformed
// values fall back to their defaults.
func LoadConfig() *Config {
	if !envParse(EnvEnabled, true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    envParse(EnvDefaultLimit, 1000, strconv.Atoi),
		DefaultWindow:   envParse(EnvDefaultWindow, time.Minute, time.ParseDuration),
		CleanupInterval: envParse(EnvCleanupInterval, 5*time.Minute, time.ParseDuration),
		Whitelist:       parseIPList(os.Getenv(EnvWhitelist)),
		Blacklist:       parseIPList(os.Getenv(EnvBlacklist)),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs limits the endpoints that drive the oracle or a browser.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/api/enrich", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/api/scrape/stream", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
	}
}

func envParse[T any](key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func parseIPList(list string) map[string]bool {
	ips := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			ips[ip] = true
		}
	}
	return ips
}
