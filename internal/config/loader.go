package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/quantmind-br/reqscan/internal/utils"
)

// EnvPrefix prefixes environment overrides, e.g. REQSCAN_OUTPUT_FORMAT
const EnvPrefix = "REQSCAN"

// Load loads configuration from file, environment, and defaults.
// Uses the global viper instance to access CLI flag bindings.
func Load(configFile string) (*Config, error) {
	return LoadWithViper(viper.GetViper(), configFile)
}

// LoadWithViper loads configuration into v. An empty configFile searches
// ~/.reqscan and the working directory for config.yaml; a missing file is
// not an error unless it was named explicitly.
func LoadWithViper(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(utils.ExpandPath(configFile))
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Environment variables (REQSCAN_*)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Cache.Directory = utils.ExpandPath(cfg.Cache.Directory)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("output.format", DefaultOutputFormat)

	v.SetDefault("concurrency.workers", DefaultWorkers)
	v.SetDefault("concurrency.timeout", DefaultTimeout)

	v.SetDefault("cache.enabled", DefaultCacheEnabled)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.directory", CacheDir())

	v.SetDefault("http.max_retries", DefaultMaxRetries)
	v.SetDefault("http.user_agent", DefaultUserAgent)
	v.SetDefault("http.max_size", DefaultMaxSize)

	v.SetDefault("git.token", "")

	v.SetDefault("resolve.enabled", DefaultResolveEnabled)
	v.SetDefault("resolve.max_depth", DefaultMaxDepth)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)

	v.SetDefault("strict", false)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}

// EnsureCacheDir creates the cache directory if it doesn't exist
func EnsureCacheDir() error {
	return os.MkdirAll(CacheDir(), 0755)
}
