package model

import "time"

// Config is the complete Clamify configuration, assembled from flags,
// CLAMIFY_* environment variables, ~/.clamify/config.yaml, and defaults.
type Config struct {
	Backend     BackendConfig     `yaml:"backend"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Output      OutputConfig      `yaml:"output"`
	Digest      DigestConfig      `yaml:"digest"`
}

// BackendConfig configures the connection to the Claime verification API.
type BackendConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"` // bound on a whole verification, expiry fails the session
	UserAgent  string        `yaml:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty"`
}

// CacheConfig configures the local verdict cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir,omitempty"` // default: ~/.clamify/cache
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// ConcurrencyConfig configures batch verification workers.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitConfig throttles batch requests against the backend.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// OutputConfig configures report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose"`
	IncludeFooter bool `yaml:"include_footer"`
}

// DigestConfig configures the optional post-verdict plain-language
// digest. Display-only: it never alters the verdict.
type DigestConfig struct {
	Provider  string `yaml:"provider,omitempty"` // "openai" or "" (disabled)
	Model     string `yaml:"model,omitempty"`
	APIKey    string `yaml:"-"` // from environment only, never persisted
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:   "http://localhost:8000",
			Timeout:   5 * time.Minute,
			UserAgent: "Clamify/0.1 (+https://github.com/Sravan1011/Clamify)",
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Digest: DigestConfig{
			Timeout:   30,
			MaxTokens: 400,
		},
	}
}
