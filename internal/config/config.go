// Package config loads calrefine settings from flags, environment variables
// (CALREFINE_ prefix) and an optional config file through viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/valpere/calrefine/internal/geoloc"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CALREFINE"

// Known provider names, in default priority order.
const (
	ProviderGeoJS = "geojs"
	ProviderIPAPI = "ipapi"
)

type Config struct {
	SourceTZ  string `mapstructure:"source_tz"`
	TargetTZ  string `mapstructure:"target_tz"`
	Workers   int    `mapstructure:"workers"`
	DBPath    string `mapstructure:"db"`
	NoHistory bool   `mapstructure:"no_history"`

	Log      LogConfig      `mapstructure:"log"`
	Resolver ResolverConfig `mapstructure:"resolver"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ResolverConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	Providers  []string      `mapstructure:"providers"`
	GeoJSURL   string        `mapstructure:"geojs_url"`
	IPAPIURL   string        `mapstructure:"ipapi_url"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source_tz", "")
	v.SetDefault("target_tz", "")
	v.SetDefault("workers", 1)
	v.SetDefault("db", "./data/calrefine.db")
	v.SetDefault("no_history", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("resolver.max_retries", 3)
	v.SetDefault("resolver.timeout", 5*time.Second)
	v.SetDefault("resolver.retry_delay", time.Second)
	v.SetDefault("resolver.providers", []string{ProviderGeoJS, ProviderIPAPI})
	v.SetDefault("resolver.geojs_url", geoloc.DefaultGeoJSURL)
	v.SetDefault("resolver.ipapi_url", geoloc.DefaultIPAPIURL)
}

// Load reads the optional config file, applies environment overrides and
// returns the validated configuration. file may be empty.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and provider names.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Resolver.MaxRetries < 1 {
		return fmt.Errorf("resolver.max_retries must be at least 1, got %d", c.Resolver.MaxRetries)
	}
	if c.Resolver.Timeout <= 0 {
		return fmt.Errorf("resolver.timeout must be positive, got %s", c.Resolver.Timeout)
	}
	if c.Resolver.RetryDelay <= 0 {
		return fmt.Errorf("resolver.retry_delay must be positive, got %s", c.Resolver.RetryDelay)
	}
	if len(c.Resolver.Providers) == 0 {
		return fmt.Errorf("resolver.providers must name at least one provider")
	}
	for _, p := range c.Resolver.Providers {
		switch p {
		case ProviderGeoJS, ProviderIPAPI:
		default:
			return fmt.Errorf("unknown timezone provider %q", p)
		}
	}
	return nil
}
