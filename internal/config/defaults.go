package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// Output defaults
	DefaultOutputFormat = "text"

	// Concurrency defaults
	DefaultWorkers = 4
	DefaultTimeout = 30 * time.Second

	// Cache defaults
	DefaultCacheEnabled = true
	DefaultCacheTTL     = 24 * time.Hour

	// HTTP defaults
	DefaultMaxRetries = 3
	DefaultUserAgent  = "reqscan"
	DefaultMaxSize    = "4MB"

	// Resolve defaults
	DefaultResolveEnabled = true
	DefaultMaxDepth       = 32

	// Logging defaults
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "pretty"
)

// OutputFormats lists the accepted values of output.format
var OutputFormats = []string{"text", "json", "yaml", "toml", "requirements"}

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reqscan"
	}
	return filepath.Join(home, ".reqscan")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format: DefaultOutputFormat,
		},
		Concurrency: ConcurrencyConfig{
			Workers: DefaultWorkers,
			Timeout: DefaultTimeout,
		},
		Cache: CacheConfig{
			Enabled:   DefaultCacheEnabled,
			TTL:       DefaultCacheTTL,
			Directory: CacheDir(),
		},
		HTTP: HTTPConfig{
			MaxRetries: DefaultMaxRetries,
			UserAgent:  DefaultUserAgent,
			MaxSize:    DefaultMaxSize,
		},
		Resolve: ResolveConfig{
			Enabled:  DefaultResolveEnabled,
			MaxDepth: DefaultMaxDepth,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
