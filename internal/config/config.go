package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	HTTP        HTTPConfig        `mapstructure:"http" yaml:"http"`
	Git         GitConfig         `mapstructure:"git" yaml:"git"`
	Resolve     ResolveConfig     `mapstructure:"resolve" yaml:"resolve"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Strict      bool              `mapstructure:"strict" yaml:"strict"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
}

// ConcurrencyConfig contains concurrency settings
type ConcurrencyConfig struct {
	Workers int           `mapstructure:"workers" yaml:"workers"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CacheConfig contains cache settings for remote manifests
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Directory string        `mapstructure:"directory" yaml:"directory"`
}

// HTTPConfig contains settings for fetching manifests over HTTP(S)
type HTTPConfig struct {
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries"`
	UserAgent  string `mapstructure:"user_agent" yaml:"user_agent"`
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"`
}

// GitConfig contains settings for git+ manifest locations
type GitConfig struct {
	Token string `mapstructure:"token" yaml:"token"`
}

// ResolveConfig controls reference resolution
type ResolveConfig struct {
	Enabled  bool `mapstructure:"enabled" yaml:"enabled"`
	MaxDepth int  `mapstructure:"max_depth" yaml:"max_depth"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration. Out-of-range numbers fall back to
// their defaults; an unknown output format or an unparsable size is an error.
func (c *Config) Validate() error {
	if c.Concurrency.Workers < 1 {
		c.Concurrency.Workers = DefaultWorkers
	}
	if c.Concurrency.Timeout < time.Second {
		c.Concurrency.Timeout = DefaultTimeout
	}
	if c.Cache.TTL < time.Minute {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.HTTP.MaxRetries < 0 {
		c.HTTP.MaxRetries = DefaultMaxRetries
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = DefaultUserAgent
	}
	if c.Resolve.MaxDepth < 1 {
		c.Resolve.MaxDepth = DefaultMaxDepth
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = DefaultOutputFormat
	}
	if !slices.Contains(OutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output.format %q: must be one of %s",
			c.Output.Format, strings.Join(OutputFormats, ", "))
	}

	if c.HTTP.MaxSize == "" {
		c.HTTP.MaxSize = DefaultMaxSize
	} else if _, err := ParseSize(c.HTTP.MaxSize); err != nil {
		return fmt.Errorf("invalid http.max_size: %w", err)
	}
	return nil
}

// MaxSizeBytes returns http.max_size in bytes
func (c *Config) MaxSizeBytes() int64 {
	n, err := ParseSize(c.HTTP.MaxSize)
	if err != nil {
		n, _ = ParseSize(DefaultMaxSize)
	}
	return n
}

// ParseSize parses a size such as "512KB", "4MB" or "1024"
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	var multiplier int64 = 1
	if strings.HasSuffix(s, "GB") {
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	} else if strings.HasSuffix(s, "MB") {
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	} else if strings.HasSuffix(s, "KB") {
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("no numeric value in size string")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value: %w", err)
	}

	if n < 0 {
		return 0, fmt.Errorf("negative size not allowed")
	}

	return n * multiplier, nil
}
