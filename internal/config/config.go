// Package config loads engine configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"matrixci/engine/internal/reporter"
	"matrixci/engine/pkg/logger"
)

// EnvPrefix is the prefix for configuration environment variables
// (e.g. MATRIXCI_CONCURRENCY).
const EnvPrefix = "MATRIXCI"

// Config holds the engine configuration.
type Config struct {
	// Concurrency is the worker pool size: how many job instances may run
	// at once.
	Concurrency int `mapstructure:"concurrency"`

	// GracePeriod is how long a cancelled step subprocess gets between
	// SIGTERM and SIGKILL.
	GracePeriod time.Duration `mapstructure:"grace_period"`

	// DefaultStepTimeout bounds steps that declare no timeout of their
	// own. Zero means unbounded.
	DefaultStepTimeout time.Duration `mapstructure:"default_step_timeout"`

	// Log configures the engine logger.
	Log logger.Config `mapstructure:"log"`

	// Server configures the REST API server (serve command only).
	Server ServerConfig `mapstructure:"server"`

	// Reporters lists the report backends to deliver finished runs to.
	Reporters []reporter.Config `mapstructure:"reporters"`
}

// ServerConfig holds the REST API server settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableCORS   bool          `mapstructure:"enable_cors"`
}

// Default returns the default engine configuration.
func Default() *Config {
	return &Config{
		Concurrency: 4,
		GracePeriod: 10 * time.Second,
		Log:         logger.DefaultConfig(),
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			EnableCORS:   false,
		},
		Reporters: []reporter.Config{
			{Type: reporter.TypeConsole, Enabled: true},
		},
	}
}

// Load reads the configuration from the given file (optional) and the
// environment, on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetDefault("grace_period", defaults.GracePeriod)
	v.SetDefault("default_step_timeout", defaults.DefaultStepTimeout)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("server.address", defaults.Server.Address)
	v.SetDefault("server.read_timeout", defaults.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", defaults.Server.WriteTimeout)
	v.SetDefault("server.enable_cors", defaults.Server.EnableCORS)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.Reporters) == 0 {
		cfg.Reporters = defaults.Reporters
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.GracePeriod < 0 {
		return fmt.Errorf("grace_period must not be negative")
	}
	if c.DefaultStepTimeout < 0 {
		return fmt.Errorf("default_step_timeout must not be negative")
	}
	for _, rep := range c.Reporters {
		switch rep.Type {
		case reporter.TypeConsole, reporter.TypeJSON:
		default:
			return fmt.Errorf("unknown reporter type: %s", rep.Type)
		}
	}
	return nil
}
