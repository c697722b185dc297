// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Store drivers accepted by store.driver.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	} `mapstructure:"csv" yaml:"csv"`

	AI struct {
		Enabled         bool    `mapstructure:"enabled" yaml:"enabled"`
		Model           string  `mapstructure:"model" yaml:"model"`
		TimeoutSeconds  int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		MaxRetries      int     `mapstructure:"max_retries" yaml:"max_retries"`
		BackoffMs       int     `mapstructure:"backoff_ms" yaml:"backoff_ms"`
		Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`
		MaxOutputTokens int     `mapstructure:"max_output_tokens" yaml:"max_output_tokens"`
		APIKey          string  `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Import struct {
		MaxErrors      int    `mapstructure:"max_errors" yaml:"max_errors"`
		DefaultAccount string `mapstructure:"default_account" yaml:"default_account"`
	} `mapstructure:"import" yaml:"import"`

	Recategorize struct {
		BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
		DelayMs   int `mapstructure:"delay_ms" yaml:"delay_ms"`
	} `mapstructure:"recategorize" yaml:"recategorize"`

	Store struct {
		Driver       string `mapstructure:"driver" yaml:"driver"`
		FilePath     string `mapstructure:"file_path" yaml:"file_path"`
		PostgresDSN  string `mapstructure:"postgres_dsn" yaml:"-"`
		PatternsFile string `mapstructure:"patterns_file" yaml:"patterns_file"`
		MaxPoolSize  int    `mapstructure:"max_pool_size" yaml:"max_pool_size"`
	} `mapstructure:"store" yaml:"store"`

	Cache struct {
		MaxEntries int `mapstructure:"max_entries" yaml:"max_entries"`
	} `mapstructure:"cache" yaml:"cache"`

	Server struct {
		Address string `mapstructure:"address" yaml:"address"`
	} `mapstructure:"server" yaml:"server"`
}

// AITimeout is the per-call language model timeout.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// AIBackoff is the base retry delay of the language model tier.
func (c *Config) AIBackoff() time.Duration {
	return time.Duration(c.AI.BackoffMs) * time.Millisecond
}

// RecategorizeDelay is the pause between recategorisation chunks.
func (c *Config) RecategorizeDelay() time.Duration {
	return time.Duration(c.Recategorize.DelayMs) * time.Millisecond
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return InitializeConfigFrom("")
}

// InitializeConfigFrom is InitializeConfig with an explicit config file.
// An empty path searches the default locations.
func InitializeConfigFrom(path string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.bankflow")
		v.AddConfigPath(".bankflow")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("BANKFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. API key and DSN are read from their conventional variables too
	if err := v.BindEnv("ai.api_key", "BANKFLOW_AI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}
	if err := v.BindEnv("store.postgres_dsn", "BANKFLOW_STORE_POSTGRES_DSN", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_URL: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("csv.delimiter", ",")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 5)
	v.SetDefault("ai.max_retries", 2)
	v.SetDefault("ai.backoff_ms", 1000)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.max_output_tokens", 20)

	v.SetDefault("import.max_errors", 50)
	v.SetDefault("import.default_account", "Unknown")

	v.SetDefault("recategorize.batch_size", 5)
	v.SetDefault("recategorize.delay_ms", 1000)

	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.file_path", defaultStoreFile())
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.patterns_file", "patterns.yaml")
	v.SetDefault("store.max_pool_size", 10)

	v.SetDefault("cache.max_entries", 10000)

	v.SetDefault("server.address", ":8080")
}

// defaultStoreFile is store.yaml in $HOME/.bankflow, or in .bankflow when
// there is no home directory.
func defaultStoreFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".bankflow", "store.yaml")
	}
	return filepath.Join(home, ".bankflow", "store.yaml")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if len(config.CSV.Delimiter) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	if config.AI.Enabled {
		if config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}
		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
		if config.AI.MaxRetries < 0 || config.AI.MaxRetries > 10 {
			return fmt.Errorf("ai.max_retries must be between 0 and 10, got: %d", config.AI.MaxRetries)
		}
		if config.AI.BackoffMs < 0 {
			return fmt.Errorf("ai.backoff_ms must not be negative, got: %d", config.AI.BackoffMs)
		}
		if config.AI.Temperature < 0 || config.AI.Temperature > 2 {
			return fmt.Errorf("ai.temperature must be between 0.0 and 2.0, got: %f", config.AI.Temperature)
		}
	}

	if config.Import.MaxErrors < 1 {
		return fmt.Errorf("import.max_errors must be positive, got: %d", config.Import.MaxErrors)
	}

	if config.Recategorize.BatchSize < 1 {
		return fmt.Errorf("recategorize.batch_size must be positive, got: %d", config.Recategorize.BatchSize)
	}
	if config.Recategorize.DelayMs < 0 {
		return fmt.Errorf("recategorize.delay_ms must not be negative, got: %d", config.Recategorize.DelayMs)
	}

	switch config.Store.Driver {
	case DriverMemory:
	case DriverFile:
		if config.Store.FilePath == "" {
			return fmt.Errorf("store.file_path required when store.driver is file")
		}
	case DriverPostgres:
		if config.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn required when store.driver is postgres")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be 'file', 'memory' or 'postgres')", config.Store.Driver)
	}

	if config.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative, got: %d", config.Cache.MaxEntries)
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
