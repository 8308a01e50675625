// Package config loads lao.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	goruntime "runtime"
	"strconv"
	"time"

	"github.com/aretw0/lao/internal/runtime"
	"github.com/aretw0/lao/pkg/registry"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "lao.yaml"

// Environment variables that override the file.
const (
	EnvPluginsDir = "LAO_PLUGINS_DIR"
	EnvLogLevel   = "LAO_LOG_LEVEL"
	EnvLogFormat  = "LAO_LOG_FORMAT"
	EnvRedisURL   = "LAO_REDIS_URL"
	EnvWorkers    = "LAO_WORKERS"
)

// Config is the resolved runtime configuration.
type Config struct {
	PluginsDir string      `yaml:"plugins_dir"`
	Log        LogConfig   `yaml:"log"`
	Retry      RetryConfig `yaml:"retry"`
	Workers    int         `yaml:"workers"`
	BufferSize int         `yaml:"buffer_size"`

	// HandshakeTimeout bounds the describe call of each plugin binary.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`

	HTTP  HTTPConfig  `yaml:"http"`
	Redis RedisConfig `yaml:"redis"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type RetryConfig struct {
	Limit      int           `yaml:"limit"`
	Backoff    time.Duration `yaml:"backoff"`
	Multiplier float64       `yaml:"multiplier"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// RedisConfig enables the shared result store and run lock when URL is set.
type RedisConfig struct {
	URL       string        `yaml:"url"`
	ResultTTL time.Duration `yaml:"result_ttl"`
	LockTTL   time.Duration `yaml:"lock_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	p := runtime.DefaultRetryPolicy()
	return Config{
		PluginsDir: "plugins",
		Log:        LogConfig{Level: "info", Format: "text"},
		Retry: RetryConfig{
			Limit:      p.Limit,
			Backoff:    p.Backoff,
			Multiplier: p.Multiplier,
			MaxBackoff: p.MaxBackoff,
		},
		Workers:          goruntime.GOMAXPROCS(0),
		BufferSize:       registry.DefaultBufferSize,
		HandshakeTimeout: 5 * time.Second,
		HTTP:             HTTPConfig{Addr: ":8080"},
		Redis:            RedisConfig{LockTTL: 10 * time.Minute},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path reads DefaultFile if it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPluginsDir); ok && v != "" {
		c.PluginsDir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.Log.Format = v
	}
	if v, ok := lookup(EnvRedisURL); ok {
		c.Redis.URL = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate rejects values the engine cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Retry.Limit < 0 {
		errs = append(errs, fmt.Errorf("retry.limit must not be negative, got %d", c.Retry.Limit))
	}
	if c.BufferSize < 0 {
		errs = append(errs, fmt.Errorf("buffer_size must not be negative, got %d", c.BufferSize))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// RetryPolicy converts the retry section for the engine.
func (c Config) RetryPolicy() runtime.RetryPolicy {
	return runtime.RetryPolicy{
		Limit:      c.Retry.Limit,
		Backoff:    c.Retry.Backoff,
		Multiplier: c.Retry.Multiplier,
		MaxBackoff: c.Retry.MaxBackoff,
	}
}
