package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Workers != 1 || cfg.DBPath != "./data/calrefine.db" || cfg.NoHistory {
		t.Errorf("unexpected top-level defaults %+v", cfg)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
	r := cfg.Resolver
	if r.MaxRetries != 3 || r.Timeout != 5*time.Second || r.RetryDelay != time.Second {
		t.Errorf("unexpected resolver defaults %+v", r)
	}
	if len(r.Providers) != 2 || r.Providers[0] != ProviderGeoJS || r.Providers[1] != ProviderIPAPI {
		t.Errorf("unexpected providers %v", r.Providers)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calrefine.yaml")
	content := `
target_tz: UTC
workers: 4
log:
  level: debug
resolver:
  max_retries: 5
  timeout: 2s
  providers: [ipapi]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TargetTZ != "UTC" || cfg.Workers != 4 || cfg.Log.Level != "debug" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Resolver.MaxRetries != 5 || cfg.Resolver.Timeout != 2*time.Second {
		t.Errorf("resolver values not applied: %+v", cfg.Resolver)
	}
	if len(cfg.Resolver.Providers) != 1 || cfg.Resolver.Providers[0] != ProviderIPAPI {
		t.Errorf("unexpected providers %v", cfg.Resolver.Providers)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CALREFINE_SOURCE_TZ", "Asia/Rangoon")
	t.Setenv("CALREFINE_RESOLVER_MAX_RETRIES", "7")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SourceTZ != "Asia/Rangoon" {
		t.Errorf("expected source from env, got %q", cfg.SourceTZ)
	}
	if cfg.Resolver.MaxRetries != 7 {
		t.Errorf("expected 7 retries from env, got %d", cfg.Resolver.MaxRetries)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Workers: 1,
			Resolver: ResolverConfig{
				MaxRetries: 3,
				Timeout:    time.Second,
				RetryDelay: time.Second,
				Providers:  []string{ProviderGeoJS},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero delay", func(c *Config) { c.Resolver.RetryDelay = 0 }, true},
		{"no workers", func(c *Config) { c.Workers = 0 }, true},
		{"no retries", func(c *Config) { c.Resolver.MaxRetries = 0 }, true},
		{"no timeout", func(c *Config) { c.Resolver.Timeout = 0 }, true},
		{"negative delay", func(c *Config) { c.Resolver.RetryDelay = -time.Second }, true},
		{"no providers", func(c *Config) { c.Resolver.Providers = nil }, true},
		{"unknown provider", func(c *Config) { c.Resolver.Providers = []string{"maxmind"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
